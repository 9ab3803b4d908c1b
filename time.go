// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csp

import "time"

// After returns a channel that delivers the current time once, after d has
// elapsed, and is then closed. Closing behind the TrySend is harmless even if
// nothing ever receives: the value sits in the buffer until drained.
//
// Compose it with a Select for timeouts:
//
//	sel := csp.NewSelect(csp.Recv(work), csp.Recv(csp.After(time.Second)))
func After(d time.Duration) *Chan[time.Time] {
	c := New[time.Time](1)
	time.AfterFunc(d, func() {
		c.TrySend(time.Now())
		c.Close()
	})
	return c
}
