// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csp

// ring is a fixed-capacity circular buffer of element slots, the value store
// behind a buffered channel. It carries an explicit element count next to the
// send and receive indices so that a zero-capacity ring is well defined: it is
// empty and full at the same time, which is what forces every operation on an
// unbuffered channel through the rendezvous path.
//
// Callers synchronize through the owning channel's lock; the ring itself is
// not safe for concurrent use.
type ring[T any] struct {
	slots  []T
	sendx  int // next slot to fill
	recvx  int // next slot to drain
	qcount int // elements currently buffered
}

func makeRing[T any](size int) ring[T] {
	return ring[T]{slots: make([]T, size)}
}

func (r *ring[T]) empty() bool { return r.qcount == 0 }

func (r *ring[T]) full() bool { return r.qcount == len(r.slots) }

func (r *ring[T]) len() int { return r.qcount }

func (r *ring[T]) cap() int { return len(r.slots) }

func (r *ring[T]) enqueue(v T) {
	if r.full() {
		throw("ring: enqueue on full buffer")
	}
	r.slots[r.sendx] = v
	r.sendx++
	if r.sendx == len(r.slots) {
		r.sendx = 0
	}
	r.qcount++
}

func (r *ring[T]) dequeue() T {
	if r.empty() {
		throw("ring: dequeue on empty buffer")
	}
	var zero T
	v := r.slots[r.recvx]
	r.slots[r.recvx] = zero // drop the reference so the value can be collected
	r.recvx++
	if r.recvx == len(r.slots) {
		r.recvx = 0
	}
	r.qcount--
	return v
}

func (r *ring[T]) peek() T {
	if r.empty() {
		throw("ring: peek on empty buffer")
	}
	return r.slots[r.recvx]
}
