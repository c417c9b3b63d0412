package sched

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/yula1234/yulaos/internal/constants"
	"github.com/yula1234/yulaos/internal/logging"
)

// pinToCPU locks the calling goroutine to its OS thread and, on Linux,
// sets that thread's scheduling affinity to cpu — the same
// runtime.LockOSThread + unix.SchedSetaffinity pairing go-ublk's queue
// runner uses to satisfy ublk_drv's one-thread-per-queue requirement,
// reused here so a task's simulated "CPU" assignment in the runqueue
// bookkeeping is backed by a real affinity hint where the OS honors one.
// Failure is logged and otherwise ignored — affinity is an optimization
// hint, not a correctness requirement, since task dispatch itself never
// depends on which physical core runs a goroutine.
func pinToCPU(cpu int, logger *logging.Logger) {
	runtime.LockOSThread()
	var mask unix.CPUSet
	mask.Set(cpu % runtime.NumCPU())
	if err := unix.SchedSetaffinity(0, &mask); err != nil && logger != nil {
		logger.Debugf("sched: could not set CPU affinity to %d: %v", cpu, err)
	}
}

// ProcInfo is a snapshot row for proc_list (syscall #61).
type ProcInfo struct {
	PID      uint32
	PPID     uint32
	Name     string
	State    State
	Priority PriorityClass
	CPU      int
}

// Scheduler is the bookkeeping and lifecycle-management layer described in
// the internal/sched package doc: per-CPU priority runqueues, a sleep
// queue, the task table, and fork/exit/waitpid/kill plumbing. The actual
// execution of a task's instruction stream is the goroutine the task was
// spawned with; the Scheduler never dispatches it onto a CPU itself.
type Scheduler struct {
	mu sync.Mutex

	numCPUs   int
	runqueues [][numPriorityClasses][]uint32 // per-CPU, per-class FIFO of PIDs
	nextCPU   int                            // round-robin assignment counter

	tasks    map[uint32]*Task
	children map[uint32][]uint32 // ppid -> child pids, in spawn order
	nextPID  uint32

	sleeping *sleepQueue

	logger *logging.Logger

	pinAffinity bool // opt-in: see SetAffinityPinning

	stopCh chan struct{}
	doneCh chan struct{}
}

// SetAffinityPinning enables or disables actually pinning each spawned
// task's OS thread to its assigned simulated CPU via pinToCPU. Off by
// default since it is an optimization hint a test environment may not
// have permission to honor, and spawning many real OS-thread-locked
// goroutines is wasteful when all a test needs is the runqueue
// bookkeeping.
func (s *Scheduler) SetAffinityPinning(enabled bool) {
	s.mu.Lock()
	s.pinAffinity = enabled
	s.mu.Unlock()
}

// New creates a scheduler with the given number of simulated CPUs and
// immediately launches its reaper kthread.
func New(numCPUs int, logger *logging.Logger) *Scheduler {
	if numCPUs < 1 {
		numCPUs = 1
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Scheduler{
		numCPUs:   numCPUs,
		runqueues: make([][numPriorityClasses][]uint32, numCPUs),
		tasks:     make(map[uint32]*Task),
		children:  make(map[uint32][]uint32),
		sleeping:  newSleepQueue(),
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	s.nextPID = 1
	go s.reaperLoop()
	return s
}

// Stop halts the reaper kthread. It does not touch any still-running task.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Scheduler) allocPID() uint32 {
	pid := s.nextPID
	s.nextPID++
	return pid
}

// pickCPU assigns a new task round-robin across the simulated CPU set, per
// §4.3's "scheduler picks... whose CPU affinity allows" — absent an
// explicit affinity request every new task is free to land on any CPU.
func (s *Scheduler) pickCPU() int {
	cpu := s.nextCPU
	s.nextCPU = (s.nextCPU + 1) % s.numCPUs
	return cpu
}

func (s *Scheduler) enqueueLocked(t *Task) {
	cpu := t.CPU
	if cpu < 0 {
		cpu = s.pickCPU()
		t.CPU = cpu
	}
	s.runqueues[cpu][t.Priority] = append(s.runqueues[cpu][t.Priority], t.PID)
}

// PickNext dequeues the head of the highest non-empty priority class on
// cpu, per §4.3. Returns ok=false if every class is empty (the idle task
// would run in that case; this translation has no separate idle task
// since an idle goroutine-CPU burns nothing).
func (s *Scheduler) PickNext(cpu int) (pid uint32, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cpu < 0 || cpu >= s.numCPUs {
		return 0, false
	}
	for class := numPriorityClasses - 1; class >= 0; class-- {
		q := s.runqueues[cpu][class]
		if len(q) > 0 {
			pid = q[0]
			s.runqueues[cpu][class] = q[1:]
			return pid, true
		}
	}
	return 0, false
}

// SpawnKThread creates a kernel-thread-equivalent task (no address space,
// no parent-waitable exit status in the usual sense) and starts entry
// running in its own goroutine immediately. This is the translation of
// spawn_kthread: a body, a name, and a priority class, with no ELF image
// to load.
func (s *Scheduler) SpawnKThread(name string, prio PriorityClass, entry func(t *Task)) *Task {
	s.mu.Lock()
	pid := s.allocPID()
	t := newTask(pid, 0, name, prio)
	s.tasks[pid] = t
	s.enqueueLocked(t)
	s.mu.Unlock()

	s.logger.Debugf("spawned kthread pid=%d name=%s prio=%d", pid, name, prio)

	s.mu.Lock()
	pin := s.pinAffinity
	s.mu.Unlock()

	go func() {
		if pin {
			defer runtime.UnlockOSThread()
			pinToCPU(t.CPU, s.logger)
		}
		t.setState(StateRunning)
		entry(t)
		s.exitKThread(t, 0)
	}()
	return t
}

// SpawnProcess creates a user-process-equivalent task under ppid and runs
// entry in its own goroutine, reporting entry's return value through the
// usual exit/waitpid path. ELF loading itself is out of scope (§1
// Non-goals); entry stands in for "the loaded image's instruction stream",
// already holding whatever argv/FD-table closure state a real spawn_elf
// would have set up.
func (s *Scheduler) SpawnProcess(name string, ppid uint32, prio PriorityClass, entry func(t *Task) int32) (*Task, error) {
	s.mu.Lock()
	if ppid != 0 {
		if _, ok := s.tasks[ppid]; !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("sched: spawn: no such parent pid %d", ppid)
		}
	}
	pid := s.allocPID()
	t := newTask(pid, ppid, name, prio)
	t.SessionID = ppid
	t.PGID = pid
	s.tasks[pid] = t
	s.children[ppid] = append(s.children[ppid], pid)
	s.enqueueLocked(t)
	s.mu.Unlock()

	s.logger.Debugf("spawned process pid=%d ppid=%d name=%s prio=%d", pid, ppid, name, prio)

	s.mu.Lock()
	pin := s.pinAffinity
	s.mu.Unlock()

	go func() {
		if pin {
			defer runtime.UnlockOSThread()
			pinToCPU(t.CPU, s.logger)
		}
		t.setState(StateRunning)
		status := entry(t)
		s.Exit(t, status)
	}()
	return t, nil
}

// Exit transitions t to ZOMBIE, records status, and wakes any parent
// blocked in Waitpid for it, per §4.3's exit contract. The task's slot is
// reclaimed lazily — either by an explicit Waitpid or by the reaper once
// its parent is gone.
func (s *Scheduler) Exit(t *Task, status int32) {
	t.mu.Lock()
	t.ExitStatus = status
	t.State = StateZombie
	notify := t.zombieNotify
	t.zombieNotify = make(chan struct{})
	t.waitCond.Broadcast()
	t.mu.Unlock()
	close(notify)

	s.logger.Debugf("pid=%d exited status=%d", t.PID, status)

	s.mu.Lock()
	if parent, ok := s.tasks[t.PPID]; ok {
		parent.mu.Lock()
		parent.waitCond.Broadcast()
		parent.mu.Unlock()
	}
	s.mu.Unlock()
}

// exitKThread is Exit without a parent/child relationship to notify — a
// kthread has no waiter, so its slot is reclaimed immediately.
func (s *Scheduler) exitKThread(t *Task, status int32) {
	t.setState(StateZombie)
	t.ExitStatus = status
	s.logger.Debugf("kthread pid=%d exited status=%d", t.PID, status)
	s.mu.Lock()
	delete(s.tasks, t.PID)
	s.mu.Unlock()
}

// Waitpid blocks the caller until the child identified by pid (or, if
// pid == -1, any child) of parentPID becomes a zombie, harvests its exit
// status, and frees its slot — per §4.3's waitpid contract. Returns the
// reaped child's PID and exit status.
func (s *Scheduler) Waitpid(parentPID uint32, pid int32) (uint32, int32, error) {
	s.mu.Lock()
	parent, ok := s.tasks[parentPID]
	if !ok {
		s.mu.Unlock()
		return 0, 0, fmt.Errorf("sched: waitpid: no such parent pid %d", parentPID)
	}
	s.mu.Unlock()

	for {
		s.mu.Lock()
		kids := s.children[parentPID]
		if pid != -1 {
			isChild := false
			for _, cpid := range kids {
				if uint32(pid) == cpid {
					isChild = true
					break
				}
			}
			if !isChild {
				s.mu.Unlock()
				return 0, 0, fmt.Errorf("sched: waitpid: pid %d is not a child of %d", pid, parentPID)
			}
		}
		var zombie *Task
		for _, cpid := range kids {
			if pid != -1 && uint32(pid) != cpid {
				continue
			}
			c, ok := s.tasks[cpid]
			if ok && c.getState() == StateZombie {
				zombie = c
				break
			}
		}
		if zombie == nil && len(kids) == 0 {
			s.mu.Unlock()
			return 0, 0, fmt.Errorf("sched: waitpid: pid %d has no children", parentPID)
		}
		s.mu.Unlock()

		if zombie != nil {
			zombie.mu.Lock()
			status := zombie.ExitStatus
			zombie.State = StateUnused
			zombie.mu.Unlock()

			s.mu.Lock()
			delete(s.tasks, zombie.PID)
			s.children[parentPID] = removePID(s.children[parentPID], zombie.PID)
			s.mu.Unlock()
			return zombie.PID, status, nil
		}

		parent.mu.Lock()
		parent.waitCond.Wait()
		parent.mu.Unlock()
	}
}

func removePID(pids []uint32, target uint32) []uint32 {
	out := pids[:0]
	for _, p := range pids {
		if p != target {
			out = append(out, p)
		}
	}
	return out
}

// Kill delivers sig to a single task (pid > 0) or to every task sharing
// the caller's process group (pid == 0), per kill(2)'s usual group-signal
// convention referenced in §4.3's signal section.
func (s *Scheduler) Kill(pid int32, sig Signal, callerPID uint32) error {
	s.mu.Lock()
	if pid > 0 {
		t, ok := s.tasks[uint32(pid)]
		s.mu.Unlock()
		if !ok {
			return fmt.Errorf("sched: kill: no such pid %d", pid)
		}
		t.Kill(sig)
		return nil
	}

	caller, ok := s.tasks[callerPID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("sched: kill: no such caller pid %d", callerPID)
	}
	pgid := caller.PGID
	var targets []*Task
	for _, t := range s.tasks {
		if t.PGID == pgid {
			targets = append(targets, t)
		}
	}
	s.mu.Unlock()

	for _, t := range targets {
		t.Kill(sig)
	}
	return nil
}

// Task looks up a live task by PID (tests and syscall dispatch only).
func (s *Scheduler) Task(pid uint32) (*Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[pid]
	return t, ok
}

// ProcList returns a stable-ordered snapshot of every live task, for the
// proc_list syscall (#61).
func (s *Scheduler) ProcList() []ProcInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ProcInfo, 0, len(s.tasks))
	for _, t := range s.tasks {
		t.mu.Lock()
		out = append(out, ProcInfo{
			PID:      t.PID,
			PPID:     t.PPID,
			Name:     t.Name,
			State:    t.State,
			Priority: t.Priority,
			CPU:      t.CPU,
		})
		t.mu.Unlock()
	}
	return out
}

// NumTasks reports the number of live task-table entries (tests only).
func (s *Scheduler) NumTasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// reaperLoop reclaims zombie tasks whose parent has already exited (and so
// will never call Waitpid for them), per constants.ReaperInterval. This is
// the goroutine translation of a periodic "reap orphaned zombies" kernel
// thread.
func (s *Scheduler) reaperLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(constants.ReaperInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.reapOrphans()
		}
	}
}

func (s *Scheduler) reapOrphans() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pid, t := range s.tasks {
		if t.getState() != StateZombie {
			continue
		}
		if _, parentAlive := s.tasks[t.PPID]; parentAlive && t.PPID != 0 {
			continue
		}
		delete(s.tasks, pid)
		s.children[t.PPID] = removePID(s.children[t.PPID], pid)
		s.logger.Debugf("reaper reclaimed orphaned zombie pid=%d", pid)
	}
}
