package yulaos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordPageAllocSplitsSuccessAndFailure(t *testing.T) {
	m := NewMetrics()
	m.RecordPageAlloc(true)
	m.RecordPageAlloc(true)
	m.RecordPageAlloc(false)

	snap := m.Snapshot()
	require.Equal(t, uint64(2), snap.PageAllocs)
	require.Equal(t, uint64(1), snap.AllocFails)
}

func TestRecordTaskSwitchFeedsLatencyHistogram(t *testing.T) {
	m := NewMetrics()
	m.RecordTaskSwitch(5_000) // 5us, falls in the 10us bucket

	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.TaskSwitches)
	require.Equal(t, uint64(1), snap.LatencyHistogram[1]) // bucket index for 10us
	require.Equal(t, uint64(0), snap.LatencyHistogram[0]) // 1us bucket untouched
}

func TestRecordIPCAccumulatesBytesOnSuccessOnly(t *testing.T) {
	m := NewMetrics()
	m.RecordIPC(128, 1_000, true)
	m.RecordIPC(64, 1_000, false)

	snap := m.Snapshot()
	require.Equal(t, uint64(2), snap.IPCMessages)
	require.Equal(t, uint64(128), snap.IPCBytes)
	require.Equal(t, uint64(1), snap.IPCErrors)
}

func TestRecordCompositorCommitAndFrame(t *testing.T) {
	m := NewMetrics()
	m.RecordCompositorCommit(2_000_000)
	m.RecordCompositorFrame()
	m.RecordCompositorFrame()

	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.CompositorCommits)
	require.Equal(t, uint64(2), snap.CompositorFrames)
}

func TestSnapshotAverageLatency(t *testing.T) {
	m := NewMetrics()
	m.RecordTaskSwitch(1_000)
	m.RecordTaskSwitch(3_000)

	snap := m.Snapshot()
	require.Equal(t, uint64(2_000), snap.AvgLatencyNs)
}

func TestSnapshotUptimeGrowsAfterStop(t *testing.T) {
	m := NewMetrics()
	time.Sleep(time.Millisecond)
	m.Stop()

	first := m.Snapshot().UptimeNs
	time.Sleep(time.Millisecond)
	second := m.Snapshot().UptimeNs

	require.Equal(t, first, second) // frozen once stopped
	require.Greater(t, first, uint64(0))
}

func TestPercentilesAreMonotonic(t *testing.T) {
	m := NewMetrics()
	for _, ns := range []uint64{1_000, 5_000, 50_000, 500_000, 5_000_000} {
		m.RecordIPC(1, ns, true)
	}

	snap := m.Snapshot()
	require.LessOrEqual(t, snap.LatencyP50Ns, snap.LatencyP99Ns)
}

func TestResetZeroesEverything(t *testing.T) {
	m := NewMetrics()
	m.RecordPageAlloc(true)
	m.RecordTaskSwitch(1_000)
	m.RecordIPC(128, 1_000, true)
	m.RecordCompositorCommit(1_000)

	m.Reset()

	snap := m.Snapshot()
	require.Equal(t, uint64(0), snap.PageAllocs)
	require.Equal(t, uint64(0), snap.TaskSwitches)
	require.Equal(t, uint64(0), snap.IPCMessages)
	require.Equal(t, uint64(0), snap.CompositorCommits)
	require.Equal(t, uint64(0), snap.AvgLatencyNs)
}

func TestNoOpObserverDiscardsEverything(t *testing.T) {
	var o Observer = NoOpObserver{}
	require.NotPanics(t, func() {
		o.ObservePageAlloc(true)
		o.ObserveTaskSwitch(1)
		o.ObserveIPC(1, 1, true)
		o.ObserveCompositorCommit(1)
	})
}

func TestMetricsObserverRecordsIntoMetrics(t *testing.T) {
	m := NewMetrics()
	o := NewMetricsObserver(m)

	o.ObservePageAlloc(true)
	o.ObserveTaskSwitch(1_000)
	o.ObserveIPC(64, 1_000, true)
	o.ObserveCompositorCommit(1_000)

	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.PageAllocs)
	require.Equal(t, uint64(1), snap.TaskSwitches)
	require.Equal(t, uint64(1), snap.IPCMessages)
	require.Equal(t, uint64(1), snap.CompositorCommits)
}
