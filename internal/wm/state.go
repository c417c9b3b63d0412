package wm

import (
	"sync"

	"github.com/yula1234/yulaos/internal/constants"
)

// Commands is the compositor command surface the WM drives: the Go
// analogue of comp_wm_move/resize/focus/raise/pointer_grab/preview_rect/
// preview_clear in original_source/usr/comp_ipc.h. A real System wires
// this to *comp.Compositor's WM_CMD handling; tests wire it to a
// recording fake.
type Commands interface {
	Move(clientID, surfaceID uint32, x, y int32)
	Resize(clientID, surfaceID uint32, w, h int32)
	Focus(clientID, surfaceID uint32)
	Raise(clientID, surfaceID uint32) uint64
	PointerGrab(clientID, surfaceID uint32, grab bool)
	PreviewRect(clientID, surfaceID uint32, x, y, w, h int32)
	PreviewClear(clientID, surfaceID uint32)
}

type statusBar struct {
	attached  bool
	clientID  uint32
	surfaceID uint32
	w, h      uint32
}

// State is the tiling window manager's full in-memory model: the view
// table, one BSP layout tree per workspace, drag/resize gesture state,
// and the status-bar client, per §4.7. Grounded on wm_internal.h's
// wm_state_t.
type State struct {
	mu sync.Mutex

	cmds Commands

	views       []View
	layoutNodes []LayoutNode
	layoutRoot  []int

	activeWS uint32

	screenW, screenH uint32
	haveScreen       bool

	gapOuter, gapInner int32

	masterClientID []uint32
	masterSurfaceID []uint32

	focusedIdx int

	drag dragState

	ui statusBar
}

// New creates a WM state driving cmds, with screenW x screenH as the
// initial (possibly provisional) screen geometry.
func New(cmds Commands, screenW, screenH uint32) *State {
	st := &State{
		cmds:            cmds,
		views:           make([]View, constants.MaxViews),
		layoutNodes:     make([]LayoutNode, constants.MaxLayoutNodes),
		layoutRoot:      make([]int, constants.MaxWorkspaces),
		masterClientID:  make([]uint32, constants.MaxWorkspaces),
		masterSurfaceID: make([]uint32, constants.MaxWorkspaces),
		focusedIdx:      noNode,
		gapOuter:        constants.GapOuterDefault,
		gapInner:        constants.GapInnerDefault,
		screenW:         screenW,
		screenH:         screenH,
		haveScreen:      screenW > 0 && screenH > 0,
	}
	for i := range st.layoutNodes {
		st.layoutNodes[i] = LayoutNode{parent: noNode, a: noNode, b: noNode, viewIdx: noNode}
	}
	for i := range st.layoutRoot {
		st.layoutRoot[i] = noNode
	}
	for i := range st.masterClientID {
		st.masterClientID[i] = constants.UIClientID
	}
	return st
}

// SetScreenSize records (or updates) the screen geometry the WM tiles
// against, analogous to wm_read_fb_info feeding wm_apply_layout.
func (st *State) SetScreenSize(w, h uint32) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.screenW, st.screenH = w, h
	st.haveScreen = w > 0 && h > 0
}

// MapView handles WM_EVENT_MAP: allocates a view on the active
// workspace and inserts it into that workspace's BSP tree, per "View
// creation (map)" in §4.7.
func (st *State) MapView(clientID, surfaceID uint32) {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := st.getOrCreateView(clientID, surfaceID)
	if idx < 0 {
		return
	}
	ws := st.views[idx].Workspace

	// Prefer splitting the currently focused leaf on this workspace;
	// insertSplit falls back to any leaf (or becomes root) on its own if
	// target doesn't resolve to one.
	target := noNode
	if st.focusedIdx >= 0 && st.views[st.focusedIdx].Workspace == ws {
		target = st.focusedIdx
	}
	st.insertSplit(ws, target, idx)

	if st.masterSurfaceID[ws] == 0 {
		st.masterSetForWS(ws, clientID, surfaceID)
	}

	st.applyLayout()
	st.focusViewIdx(idx)
}

// UnmapView handles WM_EVENT_UNMAP: removes the view from its
// workspace's BSP tree (if tiled) and drops its record.
func (st *State) UnmapView(clientID, surfaceID uint32) {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := st.findViewIdx(clientID, surfaceID)
	if idx < 0 {
		return
	}
	v := &st.views[idx]
	ws := v.Workspace

	if !v.Floating {
		st.removeView(ws, idx)
	}
	if st.focusedIdx == idx {
		st.focusedIdx = noNode
	}
	wasMaster := st.masterClientID[ws] == clientID && st.masterSurfaceID[ws] == surfaceID
	st.dropView(idx)
	if wasMaster {
		st.reselectMasterForWS(ws)
	}

	st.applyLayout()
}

// SwitchWorkspace handles a bar click or keybinding: hides every mapped
// non-ui view not on ws, reveals those on ws, and re-tiles, per
// "Workspace switch" in §4.7.
func (st *State) SwitchWorkspace(ws uint32) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if int(ws) >= len(st.layoutRoot) {
		return
	}
	st.activeWS = ws
	st.applyLayout()
}

// ActiveWorkspace returns the currently active workspace index.
func (st *State) ActiveWorkspace() uint32 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.activeWS
}

// ViewGeometry returns the current on-screen geometry of the view
// matching (clientID, surfaceID), for tests and status introspection.
func (st *State) ViewGeometry(clientID, surfaceID uint32) (x, y int32, w, h uint32, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	idx := st.findViewIdx(clientID, surfaceID)
	if idx < 0 {
		return 0, 0, 0, 0, false
	}
	v := &st.views[idx]
	return v.X, v.Y, v.W, v.H, true
}

// IsFloating reports whether the view matching (clientID, surfaceID) is
// currently floating (detached from its workspace's tiling tree).
func (st *State) IsFloating(clientID, surfaceID uint32) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	idx := st.findViewIdx(clientID, surfaceID)
	if idx < 0 {
		return false
	}
	return st.views[idx].Floating
}
