package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(2, nil)
	t.Cleanup(s.Stop)
	return s
}

func TestSpawnKThreadRunsAndExits(t *testing.T) {
	s := newTestScheduler(t)
	done := make(chan struct{})
	task := s.SpawnKThread("test-kthread", PriorityNormal, func(t *Task) {
		close(done)
	})
	require.NotNil(t, task)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("kthread body never ran")
	}

	require.Eventually(t, func() bool {
		_, ok := s.Task(task.PID)
		return !ok
	}, time.Second, time.Millisecond)
}

func TestSpawnProcessWaitpidHarvestsStatus(t *testing.T) {
	s := newTestScheduler(t)
	parent, err := s.SpawnProcess("parent", 0, PriorityNormal, func(t *Task) int32 {
		return 0
	})
	require.NoError(t, err)
	s.mu.Lock()
	s.tasks[parent.PID] = parent
	s.mu.Unlock()

	child, err := s.SpawnProcess("child", parent.PID, PriorityNormal, func(t *Task) int32 {
		return 7
	})
	require.NoError(t, err)

	pid, status, err := s.Waitpid(parent.PID, int32(child.PID))
	require.NoError(t, err)
	require.Equal(t, child.PID, pid)
	require.Equal(t, int32(7), status)

	_, ok := s.Task(child.PID)
	require.False(t, ok, "reaped child must be removed from the task table")
}

func TestWaitpidAnyChild(t *testing.T) {
	s := newTestScheduler(t)
	parent, err := s.SpawnProcess("parent", 0, PriorityNormal, func(t *Task) int32 { return 0 })
	require.NoError(t, err)
	s.mu.Lock()
	s.tasks[parent.PID] = parent
	s.mu.Unlock()

	block := make(chan struct{})
	_, err = s.SpawnProcess("slow-child", parent.PID, PriorityNormal, func(t *Task) int32 {
		<-block
		return 1
	})
	require.NoError(t, err)
	fastChild, err := s.SpawnProcess("fast-child", parent.PID, PriorityNormal, func(t *Task) int32 {
		return 2
	})
	require.NoError(t, err)

	pid, status, err := s.Waitpid(parent.PID, -1)
	require.NoError(t, err)
	require.Equal(t, fastChild.PID, pid)
	require.Equal(t, int32(2), status)
	close(block)
}

func TestWaitpidOnNonChildPidReturnsImmediately(t *testing.T) {
	s := newTestScheduler(t)
	parent, err := s.SpawnProcess("parent", 0, PriorityNormal, func(t *Task) int32 { return 0 })
	require.NoError(t, err)
	s.mu.Lock()
	s.tasks[parent.PID] = parent
	s.mu.Unlock()

	block := make(chan struct{})
	_, err = s.SpawnProcess("child", parent.PID, PriorityNormal, func(t *Task) int32 {
		<-block
		return 0
	})
	require.NoError(t, err)
	defer close(block)

	other, err := s.SpawnProcess("unrelated", 0, PriorityNormal, func(t *Task) int32 { return 0 })
	require.NoError(t, err)

	done := make(chan struct{})
	var waitErr error
	go func() {
		_, _, waitErr = s.Waitpid(parent.PID, int32(other.PID))
		close(done)
	}()

	select {
	case <-done:
		require.Error(t, waitErr)
	case <-time.After(time.Second):
		t.Fatal("waitpid on a non-child pid blocked instead of returning immediately")
	}
}

func TestKillInvokesHandler(t *testing.T) {
	s := newTestScheduler(t)
	task := s.SpawnKThread("signaled", PriorityNormal, func(t *Task) {
		time.Sleep(50 * time.Millisecond)
	})

	received := make(chan Signal, 1)
	task.Signal(SIGUSR1, func(sig Signal) {
		received <- sig
	})

	err := s.Kill(int32(task.PID), SIGUSR1, 0)
	require.NoError(t, err)

	select {
	case sig := <-received:
		require.Equal(t, SIGUSR1, sig)
	case <-time.After(time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestPickNextHighestClassFirst(t *testing.T) {
	s := New(1, nil) // one CPU, so both tasks share a runqueue
	t.Cleanup(s.Stop)
	block := make(chan struct{})
	low := s.SpawnKThread("low", PriorityLow, func(t *Task) { <-block })
	high := s.SpawnKThread("high", PriorityHigh, func(t *Task) { <-block })

	var picked []uint32
	for {
		pid, ok := s.PickNext(low.CPU)
		if !ok {
			break
		}
		picked = append(picked, pid)
	}
	for {
		pid, ok := s.PickNext(high.CPU)
		if !ok {
			break
		}
		picked = append(picked, pid)
	}

	if low.CPU == high.CPU {
		require.Equal(t, []uint32{high.PID, low.PID}, picked)
	}
	close(block)
}

func TestProcListReportsLiveTasks(t *testing.T) {
	s := newTestScheduler(t)
	block := make(chan struct{})
	defer close(block)
	s.SpawnKThread("reporter", PriorityNormal, func(t *Task) { <-block })

	require.Eventually(t, func() bool {
		return len(s.ProcList()) == 1
	}, time.Second, time.Millisecond)
}
