// Package futex implements the address-keyed wait/wake primitive from
// §4.5, used by the SPSC input ring's producer/consumer sleeps (§4.6).
//
// A real kernel keys a futex bucket by the physical address behind a
// userspace virtual address; there is no MMU here, so buckets are keyed
// directly by the address of the watched word, passed in as a *uint32
// (the same "uaddr" the spec names) rather than resolved through a page
// table. golang.org/x/sys/unix is the pack's representative of real OS
// futex syscalls (SYS_FUTEX on Linux) — it is named here as the grounding
// for "a real implementation would use the kernel's own futex syscall",
// but this package stays a pure in-process simulation (no goroutine here
// runs on a different physical address space that the Linux syscall's
// virtual-to-physical resolution would actually be needed for).
package futex

import (
	"sync"
	"sync/atomic"
)

type bucket struct {
	mu      sync.Mutex
	waiters []chan struct{}
}

// Table is a hash of futex wait buckets keyed by uaddr, per §4.5.
type Table struct {
	mu      sync.Mutex
	buckets map[*uint32]*bucket
}

// NewTable creates an empty futex bucket table.
func NewTable() *Table {
	return &Table{buckets: make(map[*uint32]*bucket)}
}

func (t *Table) bucketFor(uaddr *uint32) *bucket {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.buckets[uaddr]
	if !ok {
		b = &bucket{}
		t.buckets[uaddr] = b
	}
	return b
}

// Wait atomically loads *uaddr; if it differs from expected, returns
// immediately (ok=false, per §4.5's "!= expected return -1"); otherwise
// it enqueues the caller on uaddr's bucket and blocks until woken.
// Spurious wakeups are permitted by the caller re-checking its own
// condition, per §4.3's general blocking-I/O discipline.
func (t *Table) Wait(uaddr *uint32, expected uint32) bool {
	if atomic.LoadUint32(uaddr) != expected {
		return false
	}
	b := t.bucketFor(uaddr)
	ch := make(chan struct{})
	b.mu.Lock()
	// Re-check under the bucket lock to close the lost-wakeup window
	// between the first load and registering the waiter.
	if atomic.LoadUint32(uaddr) != expected {
		b.mu.Unlock()
		return false
	}
	b.waiters = append(b.waiters, ch)
	b.mu.Unlock()

	<-ch
	return true
}

// Wake wakes up to n waiters on uaddr's bucket, FIFO, per §4.5.
func (t *Table) Wake(uaddr *uint32, n int) int {
	t.mu.Lock()
	b, ok := t.buckets[uaddr]
	t.mu.Unlock()
	if !ok {
		return 0
	}

	b.mu.Lock()
	woken := n
	if woken > len(b.waiters) {
		woken = len(b.waiters)
	}
	toWake := b.waiters[:woken]
	b.waiters = b.waiters[woken:]
	b.mu.Unlock()

	for _, ch := range toWake {
		close(ch)
	}
	return woken
}

// WaiterCount reports the number of goroutines currently parked on
// uaddr's bucket (tests and introspection only).
func (t *Table) WaiterCount(uaddr *uint32) int {
	t.mu.Lock()
	b, ok := t.buckets[uaddr]
	t.mu.Unlock()
	if !ok {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiters)
}
