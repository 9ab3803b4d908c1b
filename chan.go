// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package csp provides a typed, bounded FIFO channel and a select
// multiplexer in the style of Go's built-in channels, for code that needs
// channel semantics over first-class values: non-blocking probes without a
// select statement, dynamic case sets, and closed-channel sends that fail
// instead of panicking.
package csp

// Invariants, with c.lock held:
//
//	At most one of c.recvq and (c.sendq plus a non-empty buffer) is populated:
//	a receiver parks only when no value is immediately available, a sender
//	parks only when no receiver waits and the buffer is full. The exception is
//	a select parking both a send and a receive on the same unbuffered channel;
//	such waiters never pair with each other and stay parked until another
//	thread completes one of them.
//
//	Once closed is set, nothing is ever appended to c.buf or c.sendq.

import "sync"

// A Chan is a FIFO channel of T with a fixed capacity. A capacity of zero
// makes the channel unbuffered: every send must rendezvous with a receive.
//
// All methods are safe for concurrent use. The zero value is not a valid
// channel; use New.
type Chan[T any] struct {
	lock   sync.Mutex
	buf    ring[T]
	recvq  waitq[T] // parked receivers
	sendq  waitq[T] // parked senders
	closed bool

	// free list of waiters for plain blocking operations, so the steady
	// state allocates nothing per send or receive
	pool sync.Pool
}

// New returns a channel with the given capacity. It panics with
// ErrInvalidCapacity if capacity is negative.
func New[T any](capacity int) *Chan[T] {
	if capacity < 0 {
		panic(ErrInvalidCapacity)
	}
	c := &Chan[T]{buf: makeRing[T](capacity)}
	c.pool.New = func() any {
		return &waiter[T]{idx: -1, done: make(chan struct{}, 1)}
	}
	return c
}

// acquireWaiter takes a waiter from the free list, fully reset: a pooled
// waiter must be indistinguishable from a fresh one.
func (c *Chan[T]) acquireWaiter() *waiter[T] {
	w := c.pool.Get().(*waiter[T])
	var zero T
	w.val, w.ok = zero, false
	w.tok, w.idx, w.next = nil, -1, nil
	return w
}

func (c *Chan[T]) releaseWaiter(w *waiter[T]) {
	c.pool.Put(w)
}

// tryRecvLocked attempts the receive fast paths with c.lock held. On true, w
// carries the result; when sig is non-nil the caller must signal it after
// releasing the lock (it is a parked sender whose value was just consumed).
// False means the caller would have to park.
func (c *Chan[T]) tryRecvLocked(w *waiter[T]) (done bool, sig *waiter[T]) {
	if !c.buf.empty() {
		w.val, w.ok = c.buf.dequeue(), true
		// Pull the oldest parked sender forward into the slot just freed.
		// The queue was full, so its value lands at the tail in FIFO order.
		if s := c.sendq.dequeue(); s != nil {
			c.buf.enqueue(s.val)
			return true, s
		}
		return true, nil
	}
	if s := c.sendq.dequeue(); s != nil {
		// Rendezvous: take the value directly from the sender.
		w.val, w.ok = s.val, true
		return true, s
	}
	if c.closed {
		var zero T
		w.val, w.ok = zero, false
		return true, nil
	}
	return false, nil
}

// trySendLocked attempts the send fast paths with c.lock held; w.val is the
// outgoing value. The closed check is the caller's. On true with sig non-nil,
// sig is the receiver that was handed the value and must be signaled after
// the lock is released.
func (c *Chan[T]) trySendLocked(w *waiter[T]) (done bool, sig *waiter[T]) {
	if r := c.recvq.dequeue(); r != nil {
		// Hand off to the longest-parked receiver, bypassing the buffer.
		r.val, r.ok = w.val, true
		return true, r
	}
	if !c.buf.full() {
		c.buf.enqueue(w.val)
		return true, nil
	}
	return false, nil
}

// Send delivers v, blocking until a receiver takes it or buffer space frees
// up. It returns ErrClosedChannel if the channel is closed. A send that was
// already parked when Close ran is drained normally by later receivers and
// still returns nil.
func (c *Chan[T]) Send(v T) error {
	w := c.acquireWaiter()
	w.val, w.ok = v, true
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		c.releaseWaiter(w)
		return ErrClosedChannel
	}
	if done, sig := c.trySendLocked(w); done {
		c.lock.Unlock()
		if sig != nil {
			sig.signal()
		}
		c.releaseWaiter(w)
		return nil
	}
	c.sendq.enqueue(w)
	c.lock.Unlock()
	if debugChan {
		debugLog.WithField("op", "send").Trace("parked")
	}

	// Some receiver will complete the operation for us. Close never wakes
	// parked senders, so a wakeup always means the value was taken.
	<-w.done
	c.releaseWaiter(w)
	return nil
}

// TrySend delivers v without blocking. It returns false if the send would
// block or the channel is closed.
func (c *Chan[T]) TrySend(v T) bool {
	w := c.acquireWaiter()
	w.val, w.ok = v, true
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		c.releaseWaiter(w)
		return false
	}
	done, sig := c.trySendLocked(w)
	c.lock.Unlock()
	if sig != nil {
		sig.signal()
	}
	c.releaseWaiter(w)
	return done
}

// Recv takes the next value, blocking until one is available. The second
// result is false exactly when the channel is closed and drained; buffered
// values and parked senders are always drained, in order, before that.
func (c *Chan[T]) Recv() (T, bool) {
	w := c.acquireWaiter()
	c.lock.Lock()
	if done, sig := c.tryRecvLocked(w); done {
		c.lock.Unlock()
		if sig != nil {
			sig.signal()
		}
		v, ok := w.val, w.ok
		c.releaseWaiter(w)
		return v, ok
	}
	c.recvq.enqueue(w)
	c.lock.Unlock()
	if debugChan {
		debugLog.WithField("op", "recv").Trace("parked")
	}

	<-w.done
	v, ok := w.val, w.ok
	c.releaseWaiter(w)
	return v, ok
}

// TryRecv takes the next value without blocking. The second result is false
// when the receive would block or the channel is closed and drained.
func (c *Chan[T]) TryRecv() (T, bool) {
	w := c.acquireWaiter()
	c.lock.Lock()
	done, sig := c.tryRecvLocked(w)
	c.lock.Unlock()
	if sig != nil {
		sig.signal()
	}
	v, ok := w.val, w.ok
	c.releaseWaiter(w)
	if !done {
		var zero T
		return zero, false
	}
	return v, ok
}

// Close marks the channel closed and wakes every parked receiver, which then
// reports no value. Closing an already-closed channel is a no-op.
//
// Parked senders are left alone: their values remain drainable by later
// receives, and the sends complete successfully once drained. Receivers can
// only be queued when the buffer and sender queue are empty, so waking them
// when the buffer holds data never arises outside a select's transient
// park-and-retry window, and those waiters retry on their own.
func (c *Chan[T]) Close() {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return
	}
	c.closed = true
	var wake []*waiter[T]
	if c.buf.empty() {
		for {
			w := c.recvq.dequeue()
			if w == nil {
				break
			}
			w.ok = false
			wake = append(wake, w)
		}
	}
	c.lock.Unlock()
	if debugChan {
		debugLog.WithField("woken", len(wake)).Trace("closed")
	}

	// Signal only after dropping the lock, like the ready list in closechan.
	for _, w := range wake {
		w.signal()
	}
}

// Len returns the number of buffered values.
func (c *Chan[T]) Len() int {
	c.lock.Lock()
	n := c.buf.len()
	c.lock.Unlock()
	return n
}

// Cap returns the channel's capacity.
func (c *Chan[T]) Cap() int {
	return c.buf.cap()
}

// The methods below are the select participation surface. A select's waiters
// are owned by its ops; they never touch the channel's free list.

// tryRecvSelect is the unregistered receive attempt of a select pass. Unlike
// TryRecv it reports a closed drained channel as completed, because a closed
// receive is immediately selectable.
func (c *Chan[T]) tryRecvSelect(w *waiter[T]) bool {
	c.lock.Lock()
	done, sig := c.tryRecvLocked(w)
	c.lock.Unlock()
	if sig != nil {
		sig.signal()
	}
	return done
}

// trySendSelect is the unregistered send attempt of a select pass. A closed
// channel is immediately selectable and surfaces ErrClosedChannel.
func (c *Chan[T]) trySendSelect(w *waiter[T]) (bool, error) {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return true, ErrClosedChannel
	}
	done, sig := c.trySendLocked(w)
	c.lock.Unlock()
	if sig != nil {
		sig.signal()
	}
	return done, nil
}

// parkRecv enqueues a select's receive waiter and reports whether the channel
// looked ready at that instant. A true hint makes the select abort its token
// and rescan instead of sleeping through a wakeup that predates the park.
func (c *Chan[T]) parkRecv(w *waiter[T]) (hint bool) {
	c.lock.Lock()
	hint = !c.buf.empty() || c.closed || c.sendq.hasOther(w.tok)
	c.recvq.enqueue(w)
	c.lock.Unlock()
	return hint
}

// parkSend is the send-side counterpart of parkRecv.
func (c *Chan[T]) parkSend(w *waiter[T]) (hint bool) {
	c.lock.Lock()
	hint = c.closed || !c.buf.full() || c.recvq.hasOther(w.tok)
	c.sendq.enqueue(w)
	c.lock.Unlock()
	return hint
}

func (c *Chan[T]) unparkRecv(w *waiter[T]) {
	c.lock.Lock()
	c.recvq.remove(w)
	c.lock.Unlock()
}

func (c *Chan[T]) unparkSend(w *waiter[T]) {
	c.lock.Lock()
	c.sendq.remove(w)
	c.lock.Unlock()
}
