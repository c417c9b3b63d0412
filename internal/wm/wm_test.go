package wm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type call struct {
	op                 string
	clientID, surfaceID uint32
	x, y, w, h         int32
	grab               bool
}

type fakeCommands struct {
	calls []call
	z     uint64
}

func (f *fakeCommands) Move(clientID, surfaceID uint32, x, y int32) {
	f.calls = append(f.calls, call{op: "move", clientID: clientID, surfaceID: surfaceID, x: x, y: y})
}
func (f *fakeCommands) Resize(clientID, surfaceID uint32, w, h int32) {
	f.calls = append(f.calls, call{op: "resize", clientID: clientID, surfaceID: surfaceID, w: w, h: h})
}
func (f *fakeCommands) Focus(clientID, surfaceID uint32) {
	f.calls = append(f.calls, call{op: "focus", clientID: clientID, surfaceID: surfaceID})
}
func (f *fakeCommands) Raise(clientID, surfaceID uint32) uint64 {
	f.z++
	f.calls = append(f.calls, call{op: "raise", clientID: clientID, surfaceID: surfaceID})
	return f.z
}
func (f *fakeCommands) PointerGrab(clientID, surfaceID uint32, grab bool) {
	f.calls = append(f.calls, call{op: "grab", clientID: clientID, surfaceID: surfaceID, grab: grab})
}
func (f *fakeCommands) PreviewRect(clientID, surfaceID uint32, x, y, w, h int32) {
	f.calls = append(f.calls, call{op: "preview", clientID: clientID, surfaceID: surfaceID, x: x, y: y, w: w, h: h})
}
func (f *fakeCommands) PreviewClear(clientID, surfaceID uint32) {
	f.calls = append(f.calls, call{op: "previewClear", clientID: clientID, surfaceID: surfaceID})
}

func (f *fakeCommands) last(op string) (call, bool) {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].op == op {
			return f.calls[i], true
		}
	}
	return call{}, false
}

func newTestState() (*State, *fakeCommands) {
	cmds := &fakeCommands{}
	st := New(cmds, 800, 600)
	return st, cmds
}

func TestMapViewBecomesSoleRoot(t *testing.T) {
	st, cmds := newTestState()
	st.MapView(1, 1)

	x, y, w, h, ok := st.ViewGeometry(1, 1)
	require.True(t, ok)
	require.Greater(t, w, uint32(0))
	require.Greater(t, h, uint32(0))
	require.GreaterOrEqual(t, x, int32(0))
	require.GreaterOrEqual(t, y, int32(0))
	_, found := cmds.last("resize")
	require.True(t, found, "the sole view must be tiled to fill the available rect")
}

func TestMapSecondViewSplitsTheFirst(t *testing.T) {
	st, _ := newTestState()
	st.MapView(1, 1)
	st.MapView(2, 1)

	_, _, w1, _, ok1 := st.ViewGeometry(1, 1)
	_, _, w2, _, ok2 := st.ViewGeometry(2, 1)
	require.True(t, ok1)
	require.True(t, ok2)
	require.Less(t, w1, uint32(800), "a second view must split the available rect, not overlap the first")
	require.Less(t, w2, uint32(800))
}

func TestUnmapRemovesViewAndReflowsSurvivor(t *testing.T) {
	st, _ := newTestState()
	st.MapView(1, 1)
	st.MapView(2, 1)
	st.UnmapView(2, 1)

	_, ok := st.ViewGeometry(2, 1)
	require.False(t, ok)

	_, _, w1, _, ok1 := st.ViewGeometry(1, 1)
	require.True(t, ok1)
	require.Greater(t, w1, uint32(700), "the surviving view must reclaim the full tiled width")
}

func TestSwitchWorkspaceHidesAndReveals(t *testing.T) {
	st, _ := newTestState()
	st.MapView(1, 1)

	st.SwitchWorkspace(1)
	x, y, _, _, ok := st.ViewGeometry(1, 1)
	require.True(t, ok)
	require.Equal(t, int32(-20000), x)
	require.Equal(t, int32(-20000), y)

	st.SwitchWorkspace(0)
	x, y, _, _, ok = st.ViewGeometry(1, 1)
	require.True(t, ok)
	require.NotEqual(t, int32(-20000), x)
	require.NotEqual(t, int32(-20000), y)
}

func TestStartDragDetachesToFloatingAndGrabsPointer(t *testing.T) {
	st, cmds := newTestState()
	st.MapView(1, 1)

	st.StartDrag(1, 1, 50, 50, 1, false)
	require.True(t, st.IsFloating(1, 1))

	grabCall, found := cmds.last("grab")
	require.True(t, found)
	require.True(t, grabCall.grab)
}

func TestDragMotionMovesByPressOffset(t *testing.T) {
	st, _ := newTestState()
	st.MapView(1, 1)
	x0, y0, _, _, _ := st.ViewGeometry(1, 1)

	st.StartDrag(1, 1, x0+5, y0+5, 1, false)
	st.OnDragMotion(x0+25, y0+15, true)

	x, y, _, _, _ := st.ViewGeometry(1, 1)
	require.Equal(t, x0+20, x)
	require.Equal(t, y0+10, y)
}

func TestDragMotionReleaseEndsGrab(t *testing.T) {
	st, cmds := newTestState()
	st.MapView(1, 1)
	st.StartDrag(1, 1, 10, 10, 1, false)

	st.OnDragMotion(10, 10, false) // buttons released mid-motion
	grabCall, _ := cmds.last("grab")
	require.False(t, grabCall.grab, "releasing buttons must end the drag and ungrab the pointer")
}

func TestResizeEdgesForPointDetectsLeftEdge(t *testing.T) {
	st, _ := newTestState()
	st.MapView(1, 1)
	x, y, _, h, _ := st.ViewGeometry(1, 1)

	edges := st.ResizeEdgesForPoint(1, 1, x+1, y+int32(h)/2)
	require.NotZero(t, edges&ResizeEdgeLeft)
}

func TestResizeDragPreviewsThenCommitsOnStop(t *testing.T) {
	st, cmds := newTestState()
	st.MapView(1, 1)
	x, y, w, h, _ := st.ViewGeometry(1, 1)

	st.StartResize(1, 1, x+int32(w), y+int32(h), 1, ResizeEdgeRight|ResizeEdgeBottom)
	st.OnDragMotion(x+int32(w)+30, y+int32(h)+10, true)

	_, found := cmds.last("preview")
	require.True(t, found, "a resize in progress must publish a preview rect, not commit immediately")

	st.StopDrag()
	resizeCall, found := cmds.last("resize")
	require.True(t, found)
	require.Equal(t, int32(w)+30, resizeCall.w)

	_, found = cmds.last("previewClear")
	require.True(t, found)
}

func TestResizeClampsToMinimumDimensions(t *testing.T) {
	st, cmds := newTestState()
	st.MapView(1, 1)
	x, y, w, h, _ := st.ViewGeometry(1, 1)

	st.StartResize(1, 1, x+int32(w), y+int32(h), 1, ResizeEdgeRight|ResizeEdgeBottom)
	st.OnDragMotion(x+10, y+10, true) // shrink far past the minimum
	st.StopDrag()

	resizeCall, _ := cmds.last("resize")
	require.GreaterOrEqual(t, resizeCall.w, int32(64))
	require.GreaterOrEqual(t, resizeCall.h, int32(48))
}

func TestHandleBarClickSwitchesWorkspace(t *testing.T) {
	st, _ := newTestState()
	st.HandleBarClick(barBaseX + 2*barSlotWidth + 1)
	require.Equal(t, uint32(2), st.ActiveWorkspace())
}

func TestAttachUIMarksViewAsUI(t *testing.T) {
	st, cmds := newTestState()
	st.AttachUI(9999, 1)
	st.MapView(1, 1)

	raiseCall, found := cmds.last("raise")
	require.True(t, found)
	require.Equal(t, uint32(9999), raiseCall.clientID, "applyLayout must raise the status bar every pass")
}
