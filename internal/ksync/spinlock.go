// Package ksync implements the synchronization primitives shared by every
// subsystem above the page allocator (C2): spinlocks, counting semaphores
// with FIFO wait lists, and poll waitqueues.
//
// Grounded on original_source/src/mm/pmm.cpp's SpinLockSafeGuard usage and
// go-ublk's per-tag sync.Mutex + atomic.Load pattern in
// internal/queue/runner.go. Go has no IRQ level to save/restore, so the
// "safe" (IRQ save/restore) vs. "non-safe" spinlock distinction collapses
// to a single mutex — the exclusion guarantee is what the original actually
// relied on; the IRQ bookkeeping was x86-specific plumbing with no
// observable effect on correctness from a caller's perspective.
package ksync

import "sync"

// SpinLock is a simple mutual-exclusion lock. Named for parity with the
// original's spinlock_t; implemented with sync.Mutex since Go has no
// meaningful notion of disabling interrupts in userspace.
type SpinLock struct {
	mu sync.Mutex
}

// Acquire locks the spinlock. Safe and non-safe acquire are the same
// operation in this translation; both variants are kept as named methods
// so call sites document the original's intent without a behavioral
// difference.
func (s *SpinLock) Acquire()     { s.mu.Lock() }
func (s *SpinLock) AcquireSafe() { s.mu.Lock() }

// Release unlocks the spinlock.
func (s *SpinLock) Release()     { s.mu.Unlock() }
func (s *SpinLock) ReleaseSafe() { s.mu.Unlock() }

// Guard locks the spinlock and returns a function that unlocks it, for use
// with `defer ksync.Guard(&lock)()` at call sites that mirror the
// original's scope-guard (SpinLockSafeGuard) usage.
func Guard(s *SpinLock) func() {
	s.AcquireSafe()
	return s.ReleaseSafe
}
