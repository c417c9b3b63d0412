package yulaos

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds,
// covering the range from a fast scheduler pick (microseconds) to a
// stalled IPC round trip (seconds).
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks operational statistics across a System's subsystems:
// page allocator pressure, scheduler throughput, IPC traffic, and
// compositor commit activity.
type Metrics struct {
	PageAllocs atomic.Uint64
	PageFrees  atomic.Uint64
	AllocFails atomic.Uint64

	TaskSwitches atomic.Uint64
	TasksSpawned atomic.Uint64
	TasksReaped  atomic.Uint64

	IPCMessages atomic.Uint64
	IPCBytes    atomic.Uint64
	IPCErrors   atomic.Uint64

	CompositorCommits atomic.Uint64
	CompositorFrames  atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// LatencyHist[i] is the cumulative count of observations with
	// latency <= LatencyBuckets[i].
	LatencyHist [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance with its start time set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordPageAlloc records a page-allocator request and whether it
// succeeded.
func (m *Metrics) RecordPageAlloc(ok bool) {
	if ok {
		m.PageAllocs.Add(1)
	} else {
		m.AllocFails.Add(1)
	}
}

// RecordPageFree records pages returned to the allocator.
func (m *Metrics) RecordPageFree() {
	m.PageFrees.Add(1)
}

// RecordTaskSwitch records a scheduler pick, charging latencyNs as the
// time the outgoing task held the CPU.
func (m *Metrics) RecordTaskSwitch(latencyNs uint64) {
	m.TaskSwitches.Add(1)
	m.recordLatency(latencyNs)
}

// RecordTaskSpawn records a successful SpawnProcess/SpawnKThread.
func (m *Metrics) RecordTaskSpawn() {
	m.TasksSpawned.Add(1)
}

// RecordTaskReap records a zombie swept up by the reaper.
func (m *Metrics) RecordTaskReap() {
	m.TasksReaped.Add(1)
}

// RecordIPC records one message crossing a pipe, shm, or named-IPC
// endpoint boundary.
func (m *Metrics) RecordIPC(bytes uint64, latencyNs uint64, success bool) {
	m.IPCMessages.Add(1)
	if success {
		m.IPCBytes.Add(bytes)
	} else {
		m.IPCErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordCompositorCommit records a surface COMMIT, per §4.6.
func (m *Metrics) RecordCompositorCommit(latencyNs uint64) {
	m.CompositorCommits.Add(1)
	m.recordLatency(latencyNs)
}

// RecordCompositorFrame records one completed repaint pass.
func (m *Metrics) RecordCompositorFrame() {
	m.CompositorFrames.Add(1)
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyHist[i].Add(1)
		}
	}
}

// Stop marks the system as stopped, freezing uptime calculations.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics
// suitable for logging or a status endpoint.
type MetricsSnapshot struct {
	PageAllocs uint64
	PageFrees  uint64
	AllocFails uint64

	TaskSwitches uint64
	TasksSpawned uint64
	TasksReaped  uint64

	IPCMessages uint64
	IPCBytes    uint64
	IPCErrors   uint64

	CompositorCommits uint64
	CompositorFrames  uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns uint64
	LatencyP99Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64
}

// Snapshot creates a point-in-time snapshot of m.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		PageAllocs:        m.PageAllocs.Load(),
		PageFrees:         m.PageFrees.Load(),
		AllocFails:        m.AllocFails.Load(),
		TaskSwitches:      m.TaskSwitches.Load(),
		TasksSpawned:      m.TasksSpawned.Load(),
		TasksReaped:       m.TasksReaped.Load(),
		IPCMessages:       m.IPCMessages.Load(),
		IPCBytes:          m.IPCBytes.Load(),
		IPCErrors:         m.IPCErrors.Load(),
		CompositorCommits: m.CompositorCommits.Load(),
		CompositorFrames:  m.CompositorFrames.Load(),
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyHist[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) by linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}
	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyHist[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyHist[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}
	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes every counter and restarts the uptime clock. Useful for
// tests that want a clean slate without constructing a new System.
func (m *Metrics) Reset() {
	m.PageAllocs.Store(0)
	m.PageFrees.Store(0)
	m.AllocFails.Store(0)
	m.TaskSwitches.Store(0)
	m.TasksSpawned.Store(0)
	m.TasksReaped.Store(0)
	m.IPCMessages.Store(0)
	m.IPCBytes.Store(0)
	m.IPCErrors.Store(0)
	m.CompositorCommits.Store(0)
	m.CompositorFrames.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyHist[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection, the same seam go-ublk's
// Observer interface gives its queue runners.
type Observer interface {
	ObservePageAlloc(ok bool)
	ObserveTaskSwitch(latencyNs uint64)
	ObserveIPC(bytes uint64, latencyNs uint64, success bool)
	ObserveCompositorCommit(latencyNs uint64)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObservePageAlloc(bool)                 {}
func (NoOpObserver) ObserveTaskSwitch(uint64)               {}
func (NoOpObserver) ObserveIPC(uint64, uint64, bool)        {}
func (NoOpObserver) ObserveCompositorCommit(uint64)         {}

// MetricsObserver implements Observer by recording into a Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver returns an observer that records into m.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObservePageAlloc(ok bool) { o.metrics.RecordPageAlloc(ok) }
func (o *MetricsObserver) ObserveTaskSwitch(latencyNs uint64) {
	o.metrics.RecordTaskSwitch(latencyNs)
}
func (o *MetricsObserver) ObserveIPC(bytes uint64, latencyNs uint64, success bool) {
	o.metrics.RecordIPC(bytes, latencyNs, success)
}
func (o *MetricsObserver) ObserveCompositorCommit(latencyNs uint64) {
	o.metrics.RecordCompositorCommit(latencyNs)
}

var (
	_ Observer = (*MetricsObserver)(nil)
	_ Observer = (*NoOpObserver)(nil)
)
