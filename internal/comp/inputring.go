package comp

import (
	"sync"
	"sync/atomic"

	"github.com/yula1234/yulaos/internal/constants"
	"github.com/yula1234/yulaos/internal/futex"
)

// InputEventKind enumerates the ring event kinds from comp_ipc.h's
// COMP_IPC_INPUT_* constants.
type InputEventKind uint32

const (
	InputMouse  InputEventKind = 1
	InputKey    InputEventKind = 2
	InputResize InputEventKind = 3
)

// InputEvent mirrors comp_ipc_input_t: a pointer/key/resize event as
// delivered either framed (§4.6 INPUT message) or through the SPSC ring.
type InputEvent struct {
	SurfaceID uint32
	Kind      InputEventKind
	X, Y      int32
	Buttons   uint32
	Keycode   uint32
	KeyState  uint32
}

// isEssential reports whether an event kind must never be silently
// dropped — only bare pointer-move is coalescable, per §4.6.
func (e InputEvent) isEssential() bool {
	return e.Kind != InputMouse
}

const (
	ringFlagReady  uint32 = 1
	ringFlagWaitW  uint32 = 2
	ringFlagWaitR  uint32 = 4
)

// InputRing is the lock-free SPSC input ring from §3: a shared page
// (simulated here as a plain struct any number of goroutines in this
// process can reach, standing in for the memory-mapped page a real
// client process would share) with atomic r/w cursors, a dropped-event
// counter, wait flags, and a fixed-size event array. Grounded on
// comp_ipc.h's comp_input_ring_t layout and
// original_source/programs/compositor/compositor_input.c's producer/
// consumer futex-wait algorithm (§4.6's "Input delivery" section).
type InputRing struct {
	Magic   uint32
	Version uint32
	Cap     uint32
	Mask    uint32

	r uint32
	w uint32

	dropped uint32
	flags   uint32

	events []InputEvent

	pendingMu   sync.Mutex
	pendingMove InputEvent
	havePending bool

	futexes *futex.Table
}

// setFlag and clearFlag perform an atomic read-modify-write on ring.flags
// via a CAS retry loop, since sync/atomic at this module's Go version
// offers no AndUint32/OrUint32 package functions.
func (ring *InputRing) setFlag(bit uint32) {
	for {
		old := atomic.LoadUint32(&ring.flags)
		if old&bit != 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&ring.flags, old, old|bit) {
			return
		}
	}
}

func (ring *InputRing) clearFlag(bit uint32) {
	for {
		old := atomic.LoadUint32(&ring.flags)
		if old&bit == 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&ring.flags, old, old&^bit) {
			return
		}
	}
}

// NewInputRing creates a ring with the specification's standard capacity
// and marks it READY.
func NewInputRing() *InputRing {
	return &InputRing{
		Magic:   0x49525043,
		Version: 1,
		Cap:     constants.InputRingCapacity,
		Mask:    constants.InputRingMask,
		flags:   ringFlagReady,
		events:  make([]InputEvent, constants.InputRingCapacity),
		futexes: futex.NewTable(),
	}
}

// Ready reports whether the ring has been marked READY by the client.
func (ring *InputRing) Ready() bool {
	return atomic.LoadUint32(&ring.flags)&ringFlagReady != 0
}

// Dropped reports the number of coalesced mouse-move events.
func (ring *InputRing) Dropped() uint32 {
	return atomic.LoadUint32(&ring.dropped)
}

// Push is the producer (compositor) side: §4.6's algorithm. A
// non-essential (mouse-move) event found the ring full is coalesced into
// a single pending slot instead of blocking; an essential event
// (key/close/resize) sets WAIT_W and futex-waits on r until space opens,
// re-checking once more right before sleeping to close the lost-wakeup
// window.
func (ring *InputRing) Push(ev InputEvent) {
	for {
		r := atomic.LoadUint32(&ring.r)
		w := atomic.LoadUint32(&ring.w)
		if w-r < ring.Cap {
			ring.events[w&ring.Mask] = ev
			atomic.StoreUint32(&ring.w, w+1)
			if atomic.LoadUint32(&ring.flags)&ringFlagWaitR != 0 {
				ring.clearFlag(ringFlagWaitR)
				ring.futexes.Wake(&ring.w, 1)
			}
			return
		}

		if !ev.isEssential() {
			ring.pendingMu.Lock()
			ring.pendingMove = ev
			ring.havePending = true
			ring.pendingMu.Unlock()
			atomic.AddUint32(&ring.dropped, 1)
			return
		}

		ring.setFlag(ringFlagWaitW)
		if atomic.LoadUint32(&ring.w)-atomic.LoadUint32(&ring.r) < ring.Cap {
			continue // space opened up between the check and setting the flag
		}
		ring.futexes.Wait(&ring.r, r)
	}
}

// Pop is the consumer (client) side, mirroring Push: blocks on r==w via a
// futex wait on w, with the same re-check-before-sleep discipline. Events
// already in the ring are delivered first; a pending coalesced move is
// delivered only once the ring is empty, before the consumer would sleep.
func (ring *InputRing) Pop() InputEvent {
	for {
		r := atomic.LoadUint32(&ring.r)
		w := atomic.LoadUint32(&ring.w)
		if r != w {
			ev := ring.events[r&ring.Mask]
			atomic.StoreUint32(&ring.r, r+1)
			if atomic.LoadUint32(&ring.flags)&ringFlagWaitW != 0 {
				ring.clearFlag(ringFlagWaitW)
				ring.futexes.Wake(&ring.r, 1)
			}
			return ev
		}

		ring.pendingMu.Lock()
		if ring.havePending {
			ev := ring.pendingMove
			ring.havePending = false
			ring.pendingMu.Unlock()
			return ev
		}
		ring.pendingMu.Unlock()

		ring.setFlag(ringFlagWaitR)
		if atomic.LoadUint32(&ring.w) != atomic.LoadUint32(&ring.r) {
			continue
		}
		ring.futexes.Wait(&ring.w, w)
	}
}
