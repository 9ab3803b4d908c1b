// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csp

import "testing"

func TestAllDrainsUntilClosed(t *testing.T) {
	ch := New[int](3)
	go func() {
		for i := 1; i <= 3; i++ {
			ch.Send(i)
		}
		ch.Close()
	}()

	var got []int
	for v := range ch.All() {
		got = append(got, v)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
}

func TestAllEarlyBreak(t *testing.T) {
	ch := New[int](10)
	for i := 0; i < 10; i++ {
		ch.TrySend(i)
	}
	ch.Close()

	seen := 0
	for range ch.All() {
		seen++
		if seen == 4 {
			break
		}
	}
	// the break must not consume more than it yielded
	if v, ok := ch.Recv(); !ok || v != 4 {
		t.Fatalf("after break, Recv = (%d, %v), want (4, true)", v, ok)
	}
}
