// Copyright 2026 The CSP Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csp

// This file contains the select multiplexer.
//
// A blocking call works in the three passes of runtime.selectgo, adapted from
// one lock over all channels to per-channel locks plus a shared atomic commit
// token: pass 1 tries every case in shuffled order without registering
// anywhere, pass 2 parks a waiter on every case, pass 3 collects the winner
// and unlinks the losers. The token guarantees at most one case commits: any
// thread that dequeues one of the parked waiters must claim the token first,
// and exactly one claim can succeed.
//
// Pass 2 cannot atomically re-check readiness while it parks (that would need
// all the locks at once), so each park reports a hint: whether the channel
// looked ready at the instant the waiter went in. If any hint fires, the
// select aborts its token, withdraws its waiters, and rescans from pass 1.
// The abort is itself a claim, so it either wins, killing every parked waiter
// of this attempt, or loses to a real commit that is already signaling.

import (
	"math/rand"
	"sync/atomic"
	"time"
)

const (
	tokUnclaimed = -1
	tokAborted   = -2
)

// A commitToken is the single-slot atomic cell shared by all waiters of one
// select call. It starts unclaimed and moves exactly once, to the index of
// the winning operation or to the abort sentinel.
type commitToken struct {
	v atomic.Int64
}

func newCommitToken() *commitToken {
	t := new(commitToken)
	t.v.Store(tokUnclaimed)
	return t
}

// tryClaim commits the token to operation i. It succeeds exactly once.
func (t *commitToken) tryClaim(i int) bool {
	return t.v.CompareAndSwap(tokUnclaimed, int64(i))
}

// abort kills the token so no operation can commit. False means a claim won
// the race and a completion signal is on its way.
func (t *commitToken) abort() bool {
	return t.v.CompareAndSwap(tokUnclaimed, tokAborted)
}

func (t *commitToken) committed() int {
	return int(t.v.Load())
}

// An Op is one case of a Select: a send or receive bound to a specific
// channel. Build them with Recv and Send. The concrete types carry the typed
// value slot; Select itself only drives this protocol.
type Op interface {
	tryReady() (bool, error)
	park(tok *commitToken, idx int, done chan struct{}) bool
	unpark()
	isCleared() bool
	clear()
}

// A RecvOp is a receive case. After Select returns its index, Value holds
// the result.
type RecvOp[T any] struct {
	c       *Chan[T]
	w       *waiter[T]
	cleared bool
}

// Recv returns a receive case on c. A nil channel yields a case that is
// never ready, like a nil channel in a native select.
func Recv[T any](c *Chan[T]) *RecvOp[T] {
	return &RecvOp[T]{c: c, w: &waiter[T]{idx: -1}}
}

// Value returns the received value. The second result is false when the
// channel was closed and drained. Valid after a Select call returned this
// case's index; a later call on the same Select invalidates it.
func (o *RecvOp[T]) Value() (T, bool) {
	return o.w.val, o.w.ok
}

// Chan returns the channel this case operates on.
func (o *RecvOp[T]) Chan() *Chan[T] { return o.c }

func (o *RecvOp[T]) reset(tok *commitToken, idx int, done chan struct{}) {
	var zero T
	o.w.val, o.w.ok = zero, false
	o.w.tok, o.w.idx, o.w.done = tok, idx, done
}

func (o *RecvOp[T]) tryReady() (bool, error) {
	o.reset(nil, -1, nil)
	return o.c.tryRecvSelect(o.w), nil
}

func (o *RecvOp[T]) park(tok *commitToken, idx int, done chan struct{}) bool {
	o.reset(tok, idx, done)
	return o.c.parkRecv(o.w)
}

func (o *RecvOp[T]) unpark()         { o.c.unparkRecv(o.w) }
func (o *RecvOp[T]) isCleared() bool { return o.cleared || o.c == nil }
func (o *RecvOp[T]) clear()          { o.cleared = true }

// A SendOp is a send case carrying its outgoing value.
type SendOp[T any] struct {
	c       *Chan[T]
	v       T
	w       *waiter[T]
	cleared bool
}

// Send returns a send case delivering v on c. A nil channel yields a case
// that is never ready.
func Send[T any](c *Chan[T], v T) *SendOp[T] {
	return &SendOp[T]{c: c, v: v, w: &waiter[T]{idx: -1}}
}

// SetValue replaces the value the case will send on subsequent calls.
func (o *SendOp[T]) SetValue(v T) { o.v = v }

// Chan returns the channel this case operates on.
func (o *SendOp[T]) Chan() *Chan[T] { return o.c }

func (o *SendOp[T]) reset(tok *commitToken, idx int, done chan struct{}) {
	o.w.val, o.w.ok = o.v, true
	o.w.tok, o.w.idx, o.w.done = tok, idx, done
}

func (o *SendOp[T]) tryReady() (bool, error) {
	o.reset(nil, -1, nil)
	return o.c.trySendSelect(o.w)
}

func (o *SendOp[T]) park(tok *commitToken, idx int, done chan struct{}) bool {
	o.reset(tok, idx, done)
	return o.c.parkSend(o.w)
}

func (o *SendOp[T]) unpark()         { o.c.unparkSend(o.w) }
func (o *SendOp[T]) isCleared() bool { return o.cleared || o.c == nil }
func (o *SendOp[T]) clear()          { o.cleared = true }

// A Select performs exactly one of its cases per call, choosing uniformly at
// random among the cases found ready. Cases and their waiters are allocated
// once, at construction, so repeated calls allocate only the per-call token.
//
// A Select may be reused indefinitely but must not be used from more than
// one thread at a time.
type Select struct {
	ops    []Op
	order  []int
	parked []int
	signal chan struct{}
	rnd    *rand.Rand
}

// NewSelect builds a Select over the given cases. Case order carries no
// weight.
func NewSelect(ops ...Op) *Select {
	return &Select{
		ops:    ops,
		order:  make([]int, len(ops)),
		parked: make([]int, 0, len(ops)),
		signal: make(chan struct{}, 1),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAt marks case i inactive: subsequent calls skip it, as a native
// select skips a nil channel.
func (s *Select) ClearAt(i int) {
	s.ops[i].clear()
}

// shuffle regenerates the poll order, Fisher-Yates over the case indices.
func (s *Select) shuffle() {
	s.order[0] = 0
	for i := 1; i < len(s.order); i++ {
		j := s.rnd.Intn(i + 1)
		s.order[i] = s.order[j]
		s.order[j] = i
	}
}

// Select blocks until one case completes and returns its index. The error is
// ErrAllCleared when no active cases remain, or ErrClosedChannel when the
// completed case was a send on a closed channel; otherwise nil. For a
// receive case, the value is read from the case's Value accessor.
func (s *Select) Select() (int, error) {
	return s.run(true)
}

// TrySelect is the non-blocking variant. It returns -1 with a nil error when
// no case is ready.
func (s *Select) TrySelect() (int, error) {
	return s.run(false)
}

func (s *Select) run(block bool) (int, error) {
	live := 0
	for _, op := range s.ops {
		if !op.isCleared() {
			live++
		}
	}
	if live == 0 {
		return -1, ErrAllCleared
	}

	for {
		s.shuffle()

		// pass 1: try each case in poll order. Nothing of ours is parked
		// anywhere yet, so completing here needs no commit token.
		for _, i := range s.order {
			op := s.ops[i]
			if op.isCleared() {
				continue
			}
			done, err := op.tryReady()
			if done {
				return i, err
			}
		}
		if !block {
			return -1, nil
		}

		// pass 2: park a waiter on every case. Stop early once a hint
		// fires; the attempt is going to be retried anyway.
		tok := newCommitToken()
		hint := false
		s.parked = s.parked[:0]
		for _, i := range s.order {
			op := s.ops[i]
			if op.isCleared() {
				continue
			}
			hint = op.park(tok, i, s.signal)
			s.parked = append(s.parked, i)
			if hint {
				break
			}
		}

		if hint && tok.abort() {
			// The readiness we raced with is still there (or was consumed
			// by someone else); withdraw and rescan.
			for _, i := range s.parked {
				s.ops[i].unpark()
			}
			if debugSelect {
				debugLog.Trace("select: retry after ready hint")
			}
			continue
		}

		// Either no case looked ready when parked, or a fulfiller beat the
		// abort to the token. In both cases a commit is the only way
		// forward, and the committing thread signals after it completes
		// the winning waiter.
		<-s.signal

		winner := tok.committed()
		if winner < 0 {
			throw("select: woken without a committed case")
		}
		// pass 3: withdraw the losers. The winner was already dequeued by
		// the thread that completed it, so removing it is a no-op.
		for _, i := range s.parked {
			s.ops[i].unpark()
		}
		return winner, nil
	}
}
