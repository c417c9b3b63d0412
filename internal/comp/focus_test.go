package comp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPickSurfaceAtPrefersHigherZ(t *testing.T) {
	candidates := []PickCandidate{
		{Target{ClientID: 1, SurfaceID: 1}, Surface{State: SurfaceCommitted, Width: 100, Height: 100, Z: 1}},
		{Target{ClientID: 2, SurfaceID: 1}, Surface{State: SurfaceCommitted, Width: 100, Height: 100, Z: 5}},
	}
	target, ok := PickSurfaceAt(candidates, 10, 10)
	require.True(t, ok)
	require.Equal(t, uint32(2), target.ClientID)
}

func TestPickSurfaceAtSkipsUncommitted(t *testing.T) {
	candidates := []PickCandidate{
		{Target{ClientID: 1, SurfaceID: 1}, Surface{State: SurfaceAttached, Width: 100, Height: 100, Z: 9}},
	}
	_, ok := PickSurfaceAt(candidates, 10, 10)
	require.False(t, ok, "a merely ATTACHED surface must never be picked")
}

func TestWMPointerGrabTakesPrecedenceOverPick(t *testing.T) {
	f := NewFocusState()
	f.WMPointerGrabActive = true
	f.WMPointerGrabTarget = Target{ClientID: 9, SurfaceID: 1}

	mapped := func(t Target) bool { return true }
	pick := func() (Target, bool) { return Target{ClientID: 1}, true }

	target, ok := f.ResolvePointerTarget(mapped, pick)
	require.True(t, ok)
	require.Equal(t, uint32(9), target.ClientID, "active WM pointer grab must win over pick_surface_at")
}

func TestImplicitGrabBeatsPick(t *testing.T) {
	f := NewFocusState()
	f.GrabActive = true
	f.GrabTarget = Target{ClientID: 3}

	mapped := func(t Target) bool { return true }
	pick := func() (Target, bool) { return Target{ClientID: 1}, true }

	target, _ := f.ResolvePointerTarget(mapped, pick)
	require.Equal(t, uint32(3), target.ClientID)
}

func TestGrabFallsBackToPickWhenTargetUnmapped(t *testing.T) {
	f := NewFocusState()
	f.GrabActive = true
	f.GrabTarget = Target{ClientID: 3}

	mapped := func(t Target) bool { return false }
	pick := func() (Target, bool) { return Target{ClientID: 1}, true }

	target, ok := f.ResolvePointerTarget(mapped, pick)
	require.True(t, ok)
	require.Equal(t, uint32(1), target.ClientID)
	require.False(t, f.GrabActive, "an unmapped grab target must be cleared")
}

func TestOnButtonEdgePressWithoutWMSetsLocalFocus(t *testing.T) {
	f := NewFocusState()
	target := Target{ClientID: 5, SurfaceID: 2}

	emit := f.OnButtonEdge(target, true, true, false)
	require.False(t, emit)
	require.True(t, f.GrabActive)
	require.Equal(t, uint32(5), f.FocusClient)
}

func TestOnButtonEdgePressWithWMEmitsClick(t *testing.T) {
	f := NewFocusState()
	target := Target{ClientID: 5, SurfaceID: 2}

	emit := f.OnButtonEdge(target, true, true, true)
	require.True(t, emit, "a WM-attached session must defer focus to a WM_EVENT_CLICK")
	require.Equal(t, noClient, f.FocusClient, "local focus must not change when a WM owns focus decisions")
}

func TestOnButtonEdgeReleaseEndsGrab(t *testing.T) {
	f := NewFocusState()
	f.GrabActive = true
	f.GrabTarget = Target{ClientID: 1}

	f.OnButtonEdge(Target{}, false, false, false)
	require.False(t, f.GrabActive)
}

func TestShouldEmitPointerDedups(t *testing.T) {
	f := NewFocusState()
	target := Target{ClientID: 1, SurfaceID: 1}

	require.True(t, f.ShouldEmitPointer(10, 10, 0, target), "first event must always emit")
	require.False(t, f.ShouldEmitPointer(10, 10, 0, target), "identical tuple must be suppressed")
	require.True(t, f.ShouldEmitPointer(11, 10, 0, target), "a changed coordinate must emit")
}
