package wm

import "github.com/yula1234/yulaos/internal/constants"

// View is one mapped compositor surface the WM is tracking: either a
// tiled member of its workspace's BSP tree, or floating/dragged/resized
// free-form, per §3's view model. Grounded on wm_views.c's wm_view_t.
type View struct {
	ClientID  uint32
	SurfaceID uint32
	Workspace uint32

	Mapped   bool
	Floating bool
	Focused  bool
	Hidden   bool
	UI       bool

	X, Y int32
	W, H uint32

	lastX, lastY int32
}

// findViewIdx returns the index of the mapped view matching (clientID,
// surfaceID), or noNode.
func (st *State) findViewIdx(clientID, surfaceID uint32) int {
	for i := range st.views {
		v := &st.views[i]
		if v.Mapped && v.ClientID == clientID && v.SurfaceID == surfaceID {
			return i
		}
	}
	return noNode
}

// allocView claims a free view slot, per wm_alloc_view.
func (st *State) allocView(clientID, surfaceID uint32) int {
	if surfaceID == 0 {
		return noNode
	}
	for i := range st.views {
		if !st.views[i].Mapped {
			st.views[i] = View{
				ClientID: clientID, SurfaceID: surfaceID,
				Workspace: st.activeWS, Mapped: true,
			}
			return i
		}
	}
	return noNode
}

// getOrCreateView returns the existing view index for (clientID,
// surfaceID), allocating one if none exists, per wm_get_or_create_view.
func (st *State) getOrCreateView(clientID, surfaceID uint32) int {
	if surfaceID == 0 {
		return noNode
	}
	if idx := st.findViewIdx(clientID, surfaceID); idx >= 0 {
		return idx
	}
	return st.allocView(clientID, surfaceID)
}

func (st *State) dropView(idx int) {
	if idx < 0 || idx >= len(st.views) {
		return
	}
	st.views[idx] = View{}
}

func (st *State) clearFocus() {
	for i := range st.views {
		st.views[i].Focused = false
	}
	st.focusedIdx = noNode
}

func (st *State) masterClearForWS(ws uint32) {
	if int(ws) >= len(st.masterClientID) {
		return
	}
	st.masterClientID[ws] = constants.UIClientID
	st.masterSurfaceID[ws] = 0
}

func (st *State) masterSetForWS(ws, clientID, surfaceID uint32) {
	if int(ws) >= len(st.masterClientID) || surfaceID == 0 {
		return
	}
	st.masterClientID[ws] = clientID
	st.masterSurfaceID[ws] = surfaceID
}

// reselectMasterForWS picks the first non-floating mapped view on ws as
// the new master, or clears the master slot if none remains, per
// wm_reselect_master_for_ws.
func (st *State) reselectMasterForWS(ws uint32) {
	for i := range st.views {
		v := &st.views[i]
		if v.Mapped && v.Workspace == ws && !v.Floating {
			st.masterSetForWS(ws, v.ClientID, v.SurfaceID)
			return
		}
	}
	st.masterClearForWS(ws)
}

// isVisibleOnActiveWS reports whether v should currently be drawn: the
// status bar always is; any other view only if it's on the active
// workspace and not hidden.
func (st *State) isVisibleOnActiveWS(v *View) bool {
	if !v.Mapped {
		return false
	}
	if v.UI {
		return true
	}
	return v.Workspace == st.activeWS && !v.Hidden
}

// focusViewIdx raises and focuses the view at idx, per wm_focus_view_idx.
func (st *State) focusViewIdx(idx int) {
	if idx < 0 || idx >= len(st.views) {
		return
	}
	v := &st.views[idx]
	if !st.isVisibleOnActiveWS(v) || v.UI {
		return
	}

	st.clearFocus()
	v.Focused = true
	st.focusedIdx = idx
	st.cmds.Focus(v.ClientID, v.SurfaceID)
	st.cmds.Raise(v.ClientID, v.SurfaceID)
	st.drawBar()
	st.raiseAndPlaceUI()
}

// hideView moves a mapped, visible view off-screen, per wm_hide_view.
func (st *State) hideView(v *View) {
	if v.UI || v.Hidden {
		return
	}
	v.Hidden = true
	v.lastX, v.lastY = v.X, v.Y
	v.X, v.Y = -20000, -20000
	st.cmds.Move(v.ClientID, v.SurfaceID, v.X, v.Y)
}

// showView restores a hidden view to its last on-screen position, per
// wm_show_view.
func (st *State) showView(v *View) {
	if v.UI || !v.Hidden {
		return
	}
	v.Hidden = false
	v.X, v.Y = v.lastX, v.lastY
	st.cmds.Move(v.ClientID, v.SurfaceID, v.X, v.Y)
}
