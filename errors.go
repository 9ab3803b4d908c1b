// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csp

import "errors"

var (
	// ErrClosedChannel is returned by Send when the channel has been closed.
	// It is a terminal condition: the channel never reopens.
	ErrClosedChannel = errors.New("csp: send on closed channel")

	// ErrInvalidCapacity is the panic value of New for a negative capacity.
	ErrInvalidCapacity = errors.New("csp: make channel: capacity out of range")

	// ErrAllCleared is returned by Select when every operation has been
	// cleared (or the Select was built empty). Blocking would be
	// indistinguishable from a deadlocked program, so the call fails instead.
	ErrAllCleared = errors.New("csp: select on no cases")
)

// throw reports an internal invariant violation. These are programmer errors,
// not conditions a caller can recover from.
func throw(s string) {
	panic("csp: " + s)
}
