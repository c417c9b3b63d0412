package wm

import "github.com/yula1234/yulaos/internal/constants"

// ResizeEdge is a bitmask of the view edges a resize drag is adjusting,
// per wm_resize_edges_for_point.
type ResizeEdge uint32

const (
	ResizeEdgeLeft ResizeEdge = 1 << iota
	ResizeEdgeRight
	ResizeEdgeTop
	ResizeEdgeBottom
)

// dragState is the single in-flight move/resize gesture the WM tracks,
// per wm_internal.h's drag_* fields.
type dragState struct {
	active         bool
	viewIdx        int
	offX, offY     int32
	startPX, startPY int32
	buttonMask     uint32
	requiresSuper  bool

	isResize     bool
	resizeEdges  ResizeEdge
	startX, startY int32
	startW, startH uint32
	newX, newY     int32
	newW, newH     uint32
}

// ResizeEdgesForPoint reports which edges of view (clientID, surfaceID)
// the point (px, py) is within ResizeHitPx of, per
// wm_resize_edges_for_point.
func (st *State) ResizeEdgesForPoint(clientID, surfaceID uint32, px, py int32) ResizeEdge {
	st.mu.Lock()
	defer st.mu.Unlock()
	idx := st.findViewIdx(clientID, surfaceID)
	if idx < 0 {
		return 0
	}
	return st.resizeEdgesForPoint(&st.views[idx], px, py)
}

func (st *State) resizeEdgesForPoint(v *View, px, py int32) ResizeEdge {
	if v.W == 0 || v.H == 0 {
		return 0
	}
	lx := px - v.X
	ly := py - v.Y
	if lx < 0 || ly < 0 || uint32(lx) >= v.W || uint32(ly) >= v.H {
		return 0
	}
	var edges ResizeEdge
	if lx < constants.ResizeHitPx {
		edges |= ResizeEdgeLeft
	}
	if lx >= int32(v.W)-constants.ResizeHitPx {
		edges |= ResizeEdgeRight
	}
	if ly < constants.ResizeHitPx {
		edges |= ResizeEdgeTop
	}
	if ly >= int32(v.H)-constants.ResizeHitPx {
		edges |= ResizeEdgeBottom
	}
	return edges
}

// detachToFloating removes a tiled view from its workspace tree and
// marks it floating, re-tiling the rest of the workspace, shared by
// StartDrag and StartResize.
func (st *State) detachToFloating(idx int) {
	v := &st.views[idx]
	if v.Floating {
		return
	}
	v.Floating = true
	st.removeView(v.Workspace, idx)
	st.applyLayout()
}

// StartDrag begins a move gesture on the view at (clientID, surfaceID),
// per wm_start_drag: detaches it to floating if tiled, grabs the
// pointer, and records the press offset.
func (st *State) StartDrag(clientID, surfaceID uint32, px, py int32, buttonMask uint32, requiresSuper bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := st.findViewIdx(clientID, surfaceID)
	if idx < 0 {
		return
	}
	v := &st.views[idx]
	if v.UI || !st.isVisibleOnActiveWS(v) {
		return
	}

	st.detachToFloating(idx)

	st.drag = dragState{
		active: true, viewIdx: idx,
		offX: px - v.X, offY: py - v.Y,
		startPX: px, startPY: py,
		buttonMask: buttonMask, requiresSuper: requiresSuper,
	}
	st.cmds.PointerGrab(v.ClientID, v.SurfaceID, true)
}

// StartResize begins a resize gesture on the given edges, per
// wm_start_resize.
func (st *State) StartResize(clientID, surfaceID uint32, px, py int32, buttonMask uint32, edges ResizeEdge) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if edges == 0 {
		return
	}

	idx := st.findViewIdx(clientID, surfaceID)
	if idx < 0 {
		return
	}
	v := &st.views[idx]
	if v.UI || !st.isVisibleOnActiveWS(v) {
		return
	}

	st.detachToFloating(idx)

	st.drag = dragState{
		active: true, viewIdx: idx,
		startPX: px, startPY: py,
		buttonMask: buttonMask,
		isResize:   true, resizeEdges: edges,
		startX: v.X, startY: v.Y, startW: v.W, startH: v.H,
		newX: v.X, newY: v.Y, newW: v.W, newH: v.H,
	}
	st.cmds.PointerGrab(v.ClientID, v.SurfaceID, true)
}

// OnDragMotion updates the in-flight drag or resize gesture for a
// pointer move to (px, py), per "Drag"/"Resize" in §4.7: a move issues
// WM_CMD_MOVE immediately; a resize recomputes and previews a candidate
// rect without committing it until release.
func (st *State) OnDragMotion(px, py int32, buttonsHeld bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.drag.active {
		return
	}
	if !buttonsHeld {
		st.stopDragLocked()
		return
	}

	idx := st.drag.viewIdx
	if idx < 0 || idx >= len(st.views) {
		st.drag = dragState{viewIdx: noNode}
		return
	}
	v := &st.views[idx]

	if !st.drag.isResize {
		nx := px - st.drag.offX
		ny := py - st.drag.offY
		st.cmds.Move(v.ClientID, v.SurfaceID, nx, ny)
		v.X, v.Y = nx, ny
		return
	}

	dx := px - st.drag.startPX
	dy := py - st.drag.startPY
	x, y, w, h := st.drag.startX, st.drag.startY, int32(st.drag.startW), int32(st.drag.startH)

	if st.drag.resizeEdges&ResizeEdgeLeft != 0 {
		x = st.drag.startX + dx
		w = int32(st.drag.startW) - dx
	}
	if st.drag.resizeEdges&ResizeEdgeRight != 0 {
		w = int32(st.drag.startW) + dx
	}
	if st.drag.resizeEdges&ResizeEdgeTop != 0 {
		y = st.drag.startY + dy
		h = int32(st.drag.startH) - dy
	}
	if st.drag.resizeEdges&ResizeEdgeBottom != 0 {
		h = int32(st.drag.startH) + dy
	}
	if w < constants.ResizeMinW {
		w = constants.ResizeMinW
	}
	if h < constants.ResizeMinH {
		h = constants.ResizeMinH
	}

	st.drag.newX, st.drag.newY = x, y
	st.drag.newW, st.drag.newH = uint32(w), uint32(h)
	st.cmds.PreviewRect(v.ClientID, v.SurfaceID, x, y, w, h)
}

// StopDrag ends the in-flight gesture (e.g. on button release),
// committing a resize's final geometry, per wm_stop_drag.
func (st *State) StopDrag() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.stopDragLocked()
}

func (st *State) stopDragLocked() {
	if !st.drag.active {
		return
	}
	idx := st.drag.viewIdx
	if idx >= 0 && idx < len(st.views) {
		v := &st.views[idx]
		if v.Mapped && v.SurfaceID != 0 {
			if st.drag.isResize {
				if st.drag.newW > 0 && st.drag.newH > 0 {
					st.cmds.Move(v.ClientID, v.SurfaceID, st.drag.newX, st.drag.newY)
					v.X, v.Y = st.drag.newX, st.drag.newY
					st.cmds.Resize(v.ClientID, v.SurfaceID, int32(st.drag.newW), int32(st.drag.newH))
					v.W, v.H = st.drag.newW, st.drag.newH
				}
				st.cmds.PreviewClear(v.ClientID, v.SurfaceID)
			}
			st.cmds.PointerGrab(v.ClientID, v.SurfaceID, false)
		}
	}
	st.drag = dragState{viewIdx: noNode}
}
