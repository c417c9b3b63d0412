// Package constants collects the sizing and timing constants shared across
// the kernel systems layer (page allocator, scheduler, VFS/IPC fabric, and
// compositor) so that no package hardcodes a magic number the others must
// also agree on.
package constants

import "time"

// Page allocator (C1)
const (
	// PageSize is the physical page granularity in bytes.
	PageSize = 4096

	// PmmMaxOrder is the highest buddy order the allocator serves.
	// order 11 => 2048 pages => 8 MiB blocks at PageSize=4096.
	PmmMaxOrder = 11
)

// Scheduler (C3)
const (
	// DefaultQuantum is the preemption quantum charged to a running task
	// before it is requeued at the tail of its priority class.
	DefaultQuantum = 10 * time.Millisecond

	// MaxFDs is the fixed capacity of a task's file-descriptor table.
	MaxFDs = 64

	// ReaperInterval is how often the reaper task sweeps for zombies whose
	// parent has already exited without waiting.
	ReaperInterval = 200 * time.Millisecond
)

// VFS / pipe / shm / named IPC (C4)
const (
	// NodeNameMax is the maximum VFS node / shm / ipc endpoint name length.
	NodeNameMax = 31

	// DefaultPipeCapacity is the byte ring size for an anonymous pipe.
	// Must be a power of two (head/write indices wrap modulo 2^32 but the
	// ring mask only needs the low bits).
	DefaultPipeCapacity = 64 * 1024

	// DevfsCapacity is the fixed number of slots in the /dev table.
	DevfsCapacity = 64
)

// Compositor IPC framing + surface engine (C6)
const (
	// CompIPCMagic identifies a valid frame header ('CPIC').
	CompIPCMagic = 0x43495043

	// CompIPCVersion is the only wire version this implementation speaks.
	CompIPCVersion = 1

	// CompIPCMaxPayload bounds a single frame's payload, guaranteeing an
	// O(1) stack-allocated assembly buffer.
	CompIPCMaxPayload = 512

	// CompAssemblyRingSize is the per-client RX assembly ring capacity.
	CompAssemblyRingSize = 4096

	// CompMaxSurfacesPerClient bounds the fixed-cap surface table.
	CompMaxSurfacesPerClient = 32

	// InputRingCapacity is the number of slots in the lock-free SPSC input
	// ring (power of two).
	InputRingCapacity = 2048

	// InputRingMask masks an index down to a ring slot.
	InputRingMask = InputRingCapacity - 1

	// SyncHelperTimeout is a reply timeout for a matching ACK/ERROR. No
	// code in this module reads it: internal/comp has no send-and-wait
	// helper.
	SyncHelperTimeout = 2 * time.Second
)

// Tiling window manager (C7)
const (
	// MaxWorkspaces is the number of independent BSP trees the WM keeps.
	MaxWorkspaces = 4

	// MaxViews bounds the WM's per-process view table.
	MaxViews = 256

	// MaxLayoutNodes bounds each workspace's BSP tree.
	MaxLayoutNodes = 512

	// ResizeMinW / ResizeMinH clamp tiled and resized geometry.
	ResizeMinW = 64
	ResizeMinH = 48

	// ResizeHitPx is the edge-hit distance (in pixels) that starts a
	// resize drag.
	ResizeHitPx = 6

	// StatusBarHeight is the WM's own status-bar surface height.
	StatusBarHeight = 24

	// GapOuterDefault / GapInnerDefault are the default tiling gaps.
	GapOuterDefault = 4
	GapInnerDefault = 4

	// UIClientID is the fixed client id the WM uses for its own status
	// bar surface within the compositor's client table.
	UIClientID = 0xFFFFFFFE
)