package sched

import "container/heap"

// sleepEntry is one task's pending wakeup, ordered by WakeTick (unix nano).
type sleepEntry struct {
	pid      uint32
	wakeTick int64
	index    int
}

// sleepHeap is a container/heap realization of the "sorted list keyed by
// wake-tick" from §4.3. The Scheduler holds one (Scheduler.sleeping), but
// no Scheduler method adds to it or reads it: Task.Sleep suspends the
// task with time.Sleep on its own, so no sleeper depends on this heap to
// wake.
type sleepHeap []*sleepEntry

func (h sleepHeap) Len() int            { return len(h) }
func (h sleepHeap) Less(i, j int) bool  { return h[i].wakeTick < h[j].wakeTick }
func (h sleepHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *sleepHeap) Push(x any) {
	e := x.(*sleepEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *sleepHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// SleepQueue tracks pending sleepers sorted by wake tick, guarded by the
// scheduler's own lock (see Scheduler.sleeping).
type sleepQueue struct {
	h       sleepHeap
	entries map[uint32]*sleepEntry
}

func newSleepQueue() *sleepQueue {
	return &sleepQueue{entries: make(map[uint32]*sleepEntry)}
}

func (q *sleepQueue) add(pid uint32, wakeTick int64) {
	e := &sleepEntry{pid: pid, wakeTick: wakeTick}
	q.entries[pid] = e
	heap.Push(&q.h, e)
}

func (q *sleepQueue) remove(pid uint32) {
	e, ok := q.entries[pid]
	if !ok {
		return
	}
	heap.Remove(&q.h, e.index)
	delete(q.entries, pid)
}

func (q *sleepQueue) len() int { return len(q.h) }
