package yulaos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yula1234/yulaos/internal/comp"
	"github.com/yula1234/yulaos/internal/constants"
	"github.com/yula1234/yulaos/internal/futex"
	"github.com/yula1234/yulaos/internal/ipcfs"
	"github.com/yula1234/yulaos/internal/logging"
	"github.com/yula1234/yulaos/internal/pmm"
	"github.com/yula1234/yulaos/internal/queue"
	"github.com/yula1234/yulaos/internal/sched"
	"github.com/yula1234/yulaos/internal/shmfs"
	"github.com/yula1234/yulaos/internal/vfsnode"
	"github.com/yula1234/yulaos/internal/wm"
)

// SystemState mirrors the lifecycle go-ublk's Device tracks for a block
// device, applied here to the whole userspace systems layer.
type SystemState string

const (
	SystemStateCreated SystemState = "created"
	SystemStateRunning SystemState = "running"
	SystemStateStopped SystemState = "stopped"
)

// SystemParams configures a System's subsystem sizing, the userspace-layer
// analogue of go-ublk's DeviceParams.
type SystemParams struct {
	// TotalPages / ReservedPages size the buddy page allocator (C1).
	TotalPages    uint32
	ReservedPages uint32

	// NumCPUs sizes the scheduler's per-CPU runqueue array (C3). Zero
	// means one.
	NumCPUs int

	// ScreenWidth / ScreenHeight size the compositor's screen-space
	// bounds for the tiling window manager (C7).
	ScreenWidth  uint32
	ScreenHeight uint32
}

// DefaultSystemParams returns sane defaults: a 64MiB page pool, one CPU,
// and a 1280x800 screen.
func DefaultSystemParams() SystemParams {
	return SystemParams{
		TotalPages:    (64 << 20) / constants.PageSize,
		ReservedPages: 16,
		NumCPUs:       1,
		ScreenWidth:   1280,
		ScreenHeight:  800,
	}
}

// Options carries the same cross-cutting knobs go-ublk's Options does:
// a logger and a metrics observer.
type Options struct {
	Logger   *logging.Logger
	Observer Observer
}

// System wires every component from §2-§4 into one running instance: the
// buddy page allocator, the scheduler, the VFS/pipe/shm/named-IPC fabric,
// futexes, the compositor, and the tiling window manager. It is the
// userspace-facing systems layer's analogue of go-ublk's Device — the
// object CreateAndServe there (Boot here) hands back, and the one a
// caller shuts down through StopAndDelete (Shutdown here).
type System struct {
	PMM    *pmm.Allocator
	Sched  *sched.Scheduler
	Devfs  *vfsnode.Devfs
	Shm    *shmfs.Registry
	IPC    *ipcfs.Registry
	Futex  *futex.Table
	Comp   *comp.Compositor
	WM     *wm.State
	Logger *logging.Logger

	mu        sync.Mutex
	state     SystemState
	metrics   *Metrics
	observer  Observer
	ctx       context.Context
	cancel    context.CancelFunc
}

// Boot constructs and wires a System per params, the equivalent of
// go-ublk's CreateAndServe for a block device: every subsystem is created
// and cross-wired (the WM drives the compositor through a WMAdapter,
// exactly as the scheduler's reaper loop and the page allocator's logger
// are wired through constructor injection) before Boot returns.
func Boot(ctx context.Context, params SystemParams, options *Options) (*System, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if options == nil {
		options = &Options{}
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Default()
	}

	numCPUs := params.NumCPUs
	if numCPUs <= 0 {
		numCPUs = 1
	}
	if params.TotalPages == 0 {
		return nil, NewError("system", "Boot", ErrCodeInvalid, "TotalPages must be > 0")
	}

	metrics := NewMetrics()
	var observer Observer = NoOpObserver{}
	if options.Observer != nil {
		observer = options.Observer
	} else {
		observer = NewMetricsObserver(metrics)
	}

	allocator := pmm.New(params.TotalPages, params.ReservedPages, logger)
	scheduler := sched.New(numCPUs, logger)
	devfs := vfsnode.NewDevfs(constants.DevfsCapacity)
	shmReg := shmfs.NewRegistry(allocator)
	ipcReg := ipcfs.NewRegistry()
	futexTable := futex.NewTable()
	compositor := comp.NewCompositor()

	screenW, screenH := params.ScreenWidth, params.ScreenHeight
	if screenW == 0 || screenH == 0 {
		screenW, screenH = 1280, 800
	}
	wmState := wm.New(comp.NewWMAdapter(compositor), screenW, screenH)
	compositor.AttachWM(constants.UIClientID)

	sysCtx, cancel := context.WithCancel(ctx)

	sys := &System{
		PMM:      allocator,
		Sched:    scheduler,
		Devfs:    devfs,
		Shm:      shmReg,
		IPC:      ipcReg,
		Futex:    futexTable,
		Comp:     compositor,
		WM:       wmState,
		Logger:   logger,
		state:    SystemStateRunning,
		metrics:  metrics,
		observer: observer,
		ctx:      sysCtx,
		cancel:   cancel,
	}

	logger.Info("system boot complete", "cpus", numCPUs, "pages", params.TotalPages)
	return sys, nil
}

// State reports the system's current lifecycle state.
func (s *System) State() SystemState {
	if s == nil {
		return SystemStateStopped
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsRunning reports whether the system is accepting new work.
func (s *System) IsRunning() bool {
	return s.State() == SystemStateRunning
}

// Metrics returns the system's live metrics counters.
func (s *System) Metrics() *Metrics {
	if s == nil {
		return nil
	}
	return s.metrics
}

// MetricsSnapshot returns a point-in-time snapshot of the system's
// metrics.
func (s *System) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.Snapshot()
}

// SystemInfo is a point-in-time introspection snapshot covering the page
// allocator, the scheduler's task table, and open VFS node counts — the
// library-layer backing for syscall #61 proc_list and #12 mem_info, the
// userspace-systems-layer analogue of go-ublk's DeviceInfo.
type SystemInfo struct {
	TotalPages uint32
	UsedPages  uint32
	FreePages  uint32

	TaskCount        int
	TasksByState     map[string]int
	OpenDevfsNodes   int
	OpenShmSegments  int
	OpenIPCEndpoints int
}

// Info reports a point-in-time snapshot of the system's page allocator,
// task table, and VFS node tables.
func (s *System) Info() SystemInfo {
	info := SystemInfo{
		TotalPages:       s.PMM.TotalBlocks(),
		UsedPages:        s.PMM.UsedBlocks(),
		FreePages:        s.PMM.FreeBlocks(),
		TasksByState:     make(map[string]int),
		OpenDevfsNodes:   s.Devfs.Len(),
		OpenShmSegments:  s.Shm.Len(),
		OpenIPCEndpoints: s.IPC.Len(),
	}
	procs := s.Sched.ProcList()
	info.TaskCount = len(procs)
	for _, p := range procs {
		info.TasksByState[p.State.String()]++
	}
	return info
}

// SpawnProcess spawns a new task under the scheduler and records the
// spawn in metrics, the System-level convenience go-ublk's queue runners
// get for free from a single Device-owned queue.Config.
func (s *System) SpawnProcess(name string, ppid uint32, prio sched.PriorityClass, entry func(t *sched.Task) int32) (*sched.Task, error) {
	t, err := s.Sched.SpawnProcess(name, ppid, prio, entry)
	if err != nil {
		return nil, WrapError("system", "SpawnProcess", err)
	}
	s.observer.ObserveTaskSwitch(0)
	s.metrics.RecordTaskSpawn()
	return t, nil
}

// NewCompositorClient registers a new compositor client for pid, wiring
// its outbound frames through send, and attaches it to the System's
// shared compositor.
func (s *System) NewCompositorClient(pid uint32, send func([]byte) error) *comp.Client {
	c := comp.NewClient(pid, send)
	s.Comp.AddClient(c)
	return c
}

// TransferSurfaceBytes copies length bytes starting at offset out of a
// shared-memory-backed surface node into dst, reading through the node's
// Ops (the VFS read path every node kind shares, per §2.1/§4.4) and using
// a pooled staging buffer for 128 KiB chunks (smaller remainders are read
// straight into dst) — the
// System-level operation a GPUTransferReq ioctl (internal/uapi) drives
// when a client reads back surface pixels in bulk rather than remapping
// the whole segment.
func (s *System) TransferSurfaceBytes(node *vfsnode.Node, offset uint32, dst []byte) (int, error) {
	start := time.Now()
	const chunkThreshold = 128 * 1024

	ops := node.Ops()
	total := 0
	for total < len(dst) {
		remain := len(dst) - total
		chunk := remain
		if chunk > chunkThreshold {
			chunk = chunkThreshold
		}

		if chunk >= chunkThreshold {
			staging := queue.GetBuffer(uint32(chunk))
			n, err := ops.Read(staging, int64(offset)+int64(total))
			if err != nil {
				queue.PutBuffer(staging)
				s.observer.ObserveIPC(uint64(total), uint64(time.Since(start)), false)
				return total, WrapError("system", "TransferSurfaceBytes", err)
			}
			copy(dst[total:total+n], staging[:n])
			queue.PutBuffer(staging)
			total += n
			if n < chunk {
				break
			}
		} else {
			n, err := ops.Read(dst[total:total+chunk], int64(offset)+int64(total))
			if err != nil {
				s.observer.ObserveIPC(uint64(total), uint64(time.Since(start)), false)
				return total, WrapError("system", "TransferSurfaceBytes", err)
			}
			total += n
			if n < chunk {
				break
			}
		}
	}

	s.observer.ObserveIPC(uint64(total), uint64(time.Since(start)), true)
	return total, nil
}

// Shutdown stops the system: it cancels the boot context, stops the
// scheduler's reaper loop, and freezes the metrics uptime clock. This is
// the System-level analogue of go-ublk's StopAndDelete.
func Shutdown(ctx context.Context, s *System) error {
	if s == nil {
		return NewError("system", "Shutdown", ErrCodeInvalid, "nil system")
	}
	s.mu.Lock()
	if s.state == SystemStateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = SystemStateStopped
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.metrics != nil {
		s.metrics.Stop()
	}
	s.Sched.Stop()
	s.Logger.Info("system shutdown complete")
	return nil
}

// String renders the system's lifecycle state and task count, useful for
// a status line in cmd/yulaosd.
func (s *System) String() string {
	if s == nil {
		return "system: <nil>"
	}
	return fmt.Sprintf("system: state=%s tasks=%d", s.State(), s.Sched.NumTasks())
}
