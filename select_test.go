// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csp

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSelectFairness(t *testing.T) {
	a := New[int](1)
	b := New[int](1)
	a.TrySend(0)
	b.TrySend(0)
	sel := NewSelect(Recv(a), Recv(b))

	var counts [2]int
	for i := 0; i < 1000; i++ {
		idx, err := sel.Select()
		if err != nil {
			t.Fatalf("Select = %v", err)
		}
		counts[idx]++
		if idx == 0 {
			a.TrySend(0)
		} else {
			b.TrySend(0)
		}
	}
	if counts[0] == 0 || counts[1] == 0 {
		t.Fatalf("counts = %v: both always-ready channels must be chosen sometimes", counts)
	}
}

func TestSelectOpenAndClosed(t *testing.T) {
	a := New[int](0)
	b := New[bool](0)
	go func() {
		a.Close()
		b.Send(true)
	}()

	ra, rb := Recv(a), Recv(b)
	sel := NewSelect(ra, rb)
	for i := 0; ; i++ {
		idx, err := sel.Select()
		if err != nil {
			t.Fatalf("Select = %v", err)
		}
		if idx == 1 {
			if v, ok := rb.Value(); !ok || !v {
				t.Fatalf("b's value = (%v, %v), want (true, true)", v, ok)
			}
			return
		}
		// the closed channel is always selectable and yields no value
		if _, ok := ra.Value(); ok {
			t.Fatal("closed channel produced a value")
		}
		if i > 1_000_000 {
			t.Fatal("never selected the open channel")
		}
	}
}

func TestSelectSendThenReceive(t *testing.T) {
	a := New[int](0)
	var got int
	var gotOK bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		got, gotOK = a.Recv()
	}()
	time.Sleep(50 * time.Millisecond) // let the receiver park

	sel := NewSelect(Send(a, 42))
	idx, err := sel.Select()
	wg.Wait()

	if idx != 0 || err != nil {
		t.Fatalf("Select = (%d, %v), want (0, nil)", idx, err)
	}
	if !gotOK || got != 42 {
		t.Fatalf("Recv = (%d, %v), want (42, true)", got, gotOK)
	}
}

func TestTrySelectNotReady(t *testing.T) {
	a := New[int](0)
	sel := NewSelect(Recv(a), Send(New[int](0), 1))
	if idx, err := sel.TrySelect(); idx != -1 || err != nil {
		t.Fatalf("TrySelect = (%d, %v), want (-1, nil)", idx, err)
	}
}

func TestTrySelectReady(t *testing.T) {
	a := New[int](1)
	a.TrySend(9)
	ra := Recv(a)
	sel := NewSelect(ra)
	idx, err := sel.TrySelect()
	if idx != 0 || err != nil {
		t.Fatalf("TrySelect = (%d, %v), want (0, nil)", idx, err)
	}
	if v, ok := ra.Value(); !ok || v != 9 {
		t.Fatalf("value = (%d, %v), want (9, true)", v, ok)
	}
}

func TestSelectAllCleared(t *testing.T) {
	if _, err := NewSelect().Select(); !errors.Is(err, ErrAllCleared) {
		t.Fatalf("empty Select = %v, want ErrAllCleared", err)
	}

	a := New[int](1)
	a.TrySend(1)
	sel := NewSelect(Recv(a))
	sel.ClearAt(0)
	if idx, err := sel.Select(); idx != -1 || !errors.Is(err, ErrAllCleared) {
		t.Fatalf("all-cleared Select = (%d, %v), want (-1, ErrAllCleared)", idx, err)
	}
}

func TestClearAtSkipsCase(t *testing.T) {
	a := New[int](1)
	b := New[int](1)
	a.TrySend(1)
	b.TrySend(1)
	sel := NewSelect(Recv(a), Recv(b))
	sel.ClearAt(0)
	for i := 0; i < 100; i++ {
		idx, err := sel.Select()
		if err != nil {
			t.Fatal(err)
		}
		if idx != 1 {
			t.Fatalf("cleared case was selected on iteration %d", i)
		}
		b.TrySend(1)
	}
}

func TestNilChannelCaseNeverReady(t *testing.T) {
	b := New[int](1)
	b.TrySend(5)
	sel := NewSelect(Recv[int](nil), Recv(b))
	for i := 0; i < 100; i++ {
		idx, err := sel.Select()
		if err != nil {
			t.Fatal(err)
		}
		if idx != 1 {
			t.Fatal("nil-channel case was selected")
		}
		b.TrySend(5)
	}
}

func TestSelectAllClosed(t *testing.T) {
	a := New[int](0)
	b := New[int](0)
	a.Close()
	b.Close()
	ra, rb := Recv(a), Recv(b)
	sel := NewSelect(ra, rb)
	idx, err := sel.Select()
	if err != nil || idx < 0 {
		t.Fatalf("Select = (%d, %v), want a non-negative index", idx, err)
	}
	ops := []*RecvOp[int]{ra, rb}
	if _, ok := ops[idx].Value(); ok {
		t.Fatal("closed channel produced a value")
	}
}

func TestSelectSendOnClosed(t *testing.T) {
	a := New[int](0)
	a.Close()
	sel := NewSelect(Send(a, 1))
	idx, err := sel.Select()
	if idx != 0 || !errors.Is(err, ErrClosedChannel) {
		t.Fatalf("Select = (%d, %v), want (0, ErrClosedChannel)", idx, err)
	}
}

func TestSelectBlocksUntilReady(t *testing.T) {
	a := New[int](0)
	ra := Recv(a)
	sel := NewSelect(ra)
	go func() {
		time.Sleep(100 * time.Millisecond)
		a.Send(5)
	}()

	start := time.Now()
	idx, err := sel.Select()
	if idx != 0 || err != nil {
		t.Fatalf("Select = (%d, %v), want (0, nil)", idx, err)
	}
	if elapsed := time.Since(start); elapsed < blockThreshold {
		t.Errorf("Select returned after %v, want at least 100ms", elapsed)
	}
	if v, ok := ra.Value(); !ok || v != 5 {
		t.Fatalf("value = (%d, %v), want (5, true)", v, ok)
	}
}

func TestSelectCommitsExactlyOnce(t *testing.T) {
	for iter := 0; iter < 200; iter++ {
		a := New[int](1)
		b := New[int](1)
		sel := NewSelect(Recv(a), Recv(b))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); a.TrySend(1) }()
		go func() { defer wg.Done(); b.TrySend(2) }()

		if _, err := sel.Select(); err != nil {
			t.Fatal(err)
		}
		wg.Wait()
		// both sends landed; the select must have consumed exactly one value
		if remaining := a.Len() + b.Len(); remaining != 1 {
			t.Fatalf("select consumed %d values, want 1", 2-remaining)
		}
	}
}

func TestSelectReuseRemovesStaleWaiters(t *testing.T) {
	a := New[int](0)
	b := New[int](0)
	ra, rb := Recv(a), Recv(b)
	ops := []*RecvOp[int]{ra, rb}
	sel := NewSelect(ra, rb)

	for i := 0; i < 50; i++ {
		want := i % 2
		target := a
		if want == 1 {
			target = b
		}
		v := i
		go func() {
			if err := target.Send(v); err != nil {
				t.Error(err)
			}
		}()
		idx, err := sel.Select()
		if err != nil {
			t.Fatal(err)
		}
		if idx != want {
			t.Fatalf("iteration %d: selected %d, want %d", i, idx, want)
		}
		if got, ok := ops[idx].Value(); !ok || got != v {
			t.Fatalf("iteration %d: value = (%d, %v), want (%d, true)", i, got, ok, v)
		}
	}
}

func TestSelectDoesNotRendezvousWithItself(t *testing.T) {
	a := New[int](0)
	got := make(chan int, 1)
	go func() {
		time.Sleep(50 * time.Millisecond)
		v, _ := a.Recv()
		got <- v
	}()

	// A send and a receive on the same unbuffered channel in one select must
	// not pair with each other; only the external receiver can complete it.
	sel := NewSelect(Send(a, 1), Recv(a))
	idx, err := sel.Select()
	if err != nil {
		t.Fatal(err)
	}
	if idx != 0 {
		t.Fatalf("selected %d, want the send case", idx)
	}
	if v := <-got; v != 1 {
		t.Fatalf("external receiver got %d, want 1", v)
	}
}

func TestSelectTimeout(t *testing.T) {
	work := New[int](0)
	sel := NewSelect(Recv(work), Recv(After(100*time.Millisecond)))
	start := time.Now()
	idx, err := sel.Select()
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Fatalf("selected %d, want the timer case", idx)
	}
	if elapsed := time.Since(start); elapsed < blockThreshold {
		t.Errorf("timer fired after %v, want at least 100ms", elapsed)
	}
}
