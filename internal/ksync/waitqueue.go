package ksync

import "sync"

// Waiter is one registration in a PollWaitQueue: a ready flag plus a
// channel the registrant blocks on until the queue's WakeAll (or
// DetachAll, which calls it) marks it ready.
type Waiter struct {
	ready chan struct{}
	once  sync.Once
}

// NewWaiter creates an unready waiter.
func NewWaiter() *Waiter {
	return &Waiter{ready: make(chan struct{})}
}

// Ready returns a channel that is closed once this waiter has been woken.
func (w *Waiter) Ready() <-chan struct{} {
	return w.ready
}

// IsReady reports whether this waiter has already been woken, without
// blocking.
func (w *Waiter) IsReady() bool {
	select {
	case <-w.ready:
		return true
	default:
		return false
	}
}

func (w *Waiter) wake() {
	w.once.Do(func() { close(w.ready) })
}

// PollWaitQueue is a list of (waiter, ready-flag) entries, matching §4.2:
// register appends, WakeAll sets every entry's ready flag (transitioning
// any blocked poller to runnable), and DetachAll empties the list when the
// watched object (pipe, shm, ipc endpoint, surface) is destroyed so
// pollers don't wait forever on a dead object.
type PollWaitQueue struct {
	mu      sync.Mutex
	waiters []*Waiter
}

// Register appends a new waiter and returns it for the caller to block on.
func (q *PollWaitQueue) Register() *Waiter {
	w := NewWaiter()
	q.mu.Lock()
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()
	return w
}

// Unregister removes a single waiter (e.g. after its poll() call returns
// via a different path, such as a timeout).
func (q *PollWaitQueue) Unregister(target *Waiter) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, w := range q.waiters {
		if w == target {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
}

// WakeAll marks every registered waiter ready and empties the list — once
// woken a waiter doesn't need to stay registered for a future event; the
// poller re-validates its condition and re-registers if it needs to wait
// again (same "spurious wakeups permitted, wait in a loop" discipline as
// every other blocking primitive in this module).
func (q *PollWaitQueue) WakeAll() {
	q.mu.Lock()
	waiters := q.waiters
	q.waiters = nil
	q.mu.Unlock()
	for _, w := range waiters {
		w.wake()
	}
}

// DetachAll empties the list, waking everyone first so nobody is left
// blocked forever on an object that is about to be destroyed.
func (q *PollWaitQueue) DetachAll() {
	q.WakeAll()
}

// Len reports the number of currently registered waiters (tests only).
func (q *PollWaitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}
