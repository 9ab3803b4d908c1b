// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csp

import "iter"

// All returns the channel as a lazy sequence: each step blocks in Recv, and
// the sequence ends the first time the channel reports closed and drained.
//
//	for v := range ch.All() { ... }
func (c *Chan[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := c.Recv()
			if !ok {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}
