package comp

// Target identifies one (client, surface) pair.
type Target struct {
	ClientID  uint32
	SurfaceID uint32
}

const noClient uint32 = 0xFFFFFFFF

// FocusState is the compositor-wide focus/grab arbitration state from
// §4.6: WM pointer/keyboard grabs, the implicit button-down grab, current
// focus, and the last-sent pointer tuple for de-duplication. Grounded on
// original_source/programs/compositor/compositor_input.c's comp_input_state
// fields and comp_resolve_pointer_target's precedence order.
type FocusState struct {
	WMPointerGrabActive bool
	WMPointerGrabTarget Target

	WMKeyboardGrabActive bool

	GrabActive bool // implicit button-down grab
	GrabTarget Target

	FocusClient  uint32 // noClient if none
	FocusSurface uint32

	ZCounter uint64

	lastMX, lastMY        int32
	lastButtons           uint32
	lastTargetClient      uint32
	lastTargetSurface     uint32
	haveLast              bool
}

// NewFocusState returns a FocusState with no current focus or grab.
func NewFocusState() *FocusState {
	return &FocusState{FocusClient: noClient, GrabTarget: Target{ClientID: noClient}, WMPointerGrabTarget: Target{ClientID: noClient}}
}

// Mapped reports whether (client, surface) still resolves to a registered
// client's surface in any state other than UNUSED (attached or committed)
// — the caller-supplied liveness check
// "clients[x].connected && surface_id_valid" from the original.
type Mapped func(t Target) bool

// PickCandidate pairs a (client, surface) Target with the Surface state
// to pick against.
type PickCandidate struct {
	Target
	Surface
}

// PickSurfaceAt returns the top-most COMMITTED surface whose bounding box
// contains (x, y), ties broken by higher Z — §4.6's pick_surface_at.
func PickSurfaceAt(surfaces []PickCandidate, x, y int32) (Target, bool) {
	var best Target
	var bestZ uint64
	found := false
	for _, s := range surfaces {
		if s.Surface.State != SurfaceCommitted {
			continue
		}
		if !s.Surface.Contains(x, y) {
			continue
		}
		if !found || s.Surface.Z > bestZ {
			best = s.Target
			bestZ = s.Surface.Z
			found = true
		}
	}
	return best, found
}

// ResolvePointerTarget applies the four-rule precedence from §4.6 to
// determine which surface a pointer event at (x, y) should go to, given
// the set of currently committed surfaces visible to picking.
func (f *FocusState) ResolvePointerTarget(mapped Mapped, pick func() (Target, bool)) (Target, bool) {
	if f.WMPointerGrabActive {
		if mapped(f.WMPointerGrabTarget) {
			return f.WMPointerGrabTarget, true
		}
		f.WMPointerGrabActive = false
		f.WMPointerGrabTarget = Target{ClientID: noClient}
	}
	if f.GrabActive {
		if mapped(f.GrabTarget) {
			return f.GrabTarget, true
		}
		f.GrabActive = false
		f.GrabTarget = Target{ClientID: noClient}
	}
	return pick()
}

// OnButtonEdge updates grab/focus state on a mouse-button transition, per
// §4.6 rules 4–5. pressed is true on the press edge, false on release.
// hasWM reports whether a window manager client is attached (focus/raise
// decisions defer to the WM when one is present). Returns true if a
// WM_EVENT_CLICK should be emitted.
func (f *FocusState) OnButtonEdge(target Target, found, pressed, hasWM bool) (emitClick bool) {
	if pressed {
		if !found {
			return false
		}
		f.GrabActive = true
		f.GrabTarget = target
		if hasWM {
			return true
		}
		f.FocusClient = target.ClientID
		f.FocusSurface = target.SurfaceID
		return false
	}
	f.GrabActive = false
	f.GrabTarget = Target{ClientID: noClient}
	return false
}

// Raise bumps and returns the next z-order value, for WM_CMD_RAISE and
// the local-focus raise-on-click path.
func (f *FocusState) Raise() uint64 {
	f.ZCounter++
	return f.ZCounter
}

// ShouldEmitPointer reports whether a pointer event with the given tuple
// differs from the last one emitted, per §4.6's de-duplication rule, and
// records it as the new last-sent tuple if so.
func (f *FocusState) ShouldEmitPointer(mx, my int32, buttons uint32, target Target) bool {
	if f.haveLast &&
		f.lastMX == mx && f.lastMY == my &&
		f.lastButtons == buttons &&
		f.lastTargetClient == target.ClientID &&
		f.lastTargetSurface == target.SurfaceID {
		return false
	}
	f.lastMX, f.lastMY = mx, my
	f.lastButtons = buttons
	f.lastTargetClient, f.lastTargetSurface = target.ClientID, target.SurfaceID
	f.haveLast = true
	return true
}
