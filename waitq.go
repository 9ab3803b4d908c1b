// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csp

// A waiter represents one suspended send or receive. For a sender, val holds
// the outgoing value; for a receiver, val and ok are filled by whichever
// thread completes the operation (ok stays false when the channel was closed
// while the receiver was parked).
//
// done is the one-shot completion signal the parked thread blocks on. It has
// a one-element buffer so the signaling side never blocks. A waiter enrolled
// in a select shares its select's signal channel and carries the select's
// commit token and its operation index; a plain blocking operation leaves tok
// nil and idx at -1.
type waiter[T any] struct {
	val  T
	ok   bool
	tok  *commitToken
	idx  int
	done chan struct{}
	next *waiter[T]
}

// signal fires the completion signal. The commit protocol guarantees at most
// one signal per claim, so the buffered send cannot block; a second signal
// means the queue linkage is corrupt.
func (w *waiter[T]) signal() {
	select {
	case w.done <- struct{}{}:
	default:
		throw("waitq: waiter signaled twice")
	}
}

// waitq is a FIFO of parked waiters. Callers hold the owning channel's lock.
type waitq[T any] struct {
	first *waiter[T]
	last  *waiter[T]
}

func (q *waitq[T]) empty() bool { return q.first == nil }

func (q *waitq[T]) enqueue(w *waiter[T]) {
	if w.next != nil {
		throw("waitq: enqueue of linked waiter")
	}
	if q.first == nil {
		q.first = w
	} else {
		q.last.next = w
	}
	q.last = w
}

// dequeue pops the longest-parked waiter that is still live.
//
// If a waiter was put on this queue by a select, another channel in the same
// select may have committed first. The commit token tells us: a failed claim
// means the waiter's select has already chosen a different operation, so the
// waiter is discarded and the scan continues. A successful claim commits the
// waiter's select to this channel, and the caller must complete it.
func (q *waitq[T]) dequeue() *waiter[T] {
	for {
		w := q.first
		if w == nil {
			return nil
		}
		q.first = w.next
		if q.first == nil {
			q.last = nil
		}
		w.next = nil
		if w.tok != nil && !w.tok.tryClaim(w.idx) {
			continue
		}
		return w
	}
}

// remove unlinks w by identity. Used by a select to drop its losing waiters
// so stale entries do not pile up on quiet channels. No-op if w is absent.
func (q *waitq[T]) remove(w *waiter[T]) {
	var prev *waiter[T]
	for x := q.first; x != nil; prev, x = x, x.next {
		if x != w {
			continue
		}
		if prev == nil {
			q.first = x.next
		} else {
			prev.next = x.next
		}
		if q.last == x {
			q.last = prev
		}
		w.next = nil
		return
	}
}

// hasOther reports whether the queue holds any waiter that does not belong to
// the select identified by tok. A select probing a channel for counterparts
// must not count its own waiters, or a send and a receive on the same channel
// in one select would look ready to each other forever.
func (q *waitq[T]) hasOther(tok *commitToken) bool {
	for w := q.first; w != nil; w = w.next {
		if w.tok != tok {
			return true
		}
	}
	return false
}
