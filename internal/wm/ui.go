package wm

import "github.com/yula1234/yulaos/internal/constants"

// barSlotWidth and barBaseX mirror wm_ui_handle_bar_click's fixed glyph
// layout: one WM_MAX_WORKSPACES-wide row of 12px-spaced slots starting
// at x=6.
const (
	barSlotWidth = 12
	barBaseX     = 6
)

// AttachUI installs the WM's own status-bar client record, per
// wm_ui_init. A real System creates the backing surface/SHM and calls
// this once that surface is committed; clientID/surfaceID identify it to
// the compositor for Move/Raise commands.
func (st *State) AttachUI(clientID, surfaceID uint32) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.ui = statusBar{
		attached: true, clientID: clientID, surfaceID: surfaceID,
		w: st.screenW, h: constants.StatusBarHeight,
	}

	for i := range st.views {
		if st.views[i].Mapped && st.views[i].ClientID == clientID && st.views[i].SurfaceID == surfaceID {
			st.views[i].UI = true
		}
	}
}

// drawBar is the geometry/content side of wm_ui_draw_bar: this package
// has no pixel buffer of its own (that's the caller's SHM mapping), so
// it only reports which workspace glyph should be highlighted. Callers
// that own the pixel buffer use ActiveWorkspace directly; drawBar exists
// so focusViewIdx's call site matches the teacher's control flow one-for-
// one.
func (st *State) drawBar() {
	// Rendering happens in the caller's SHM-backed surface; this hook is a
	// placement for future glyph-drawing logic layered on top of
	// ActiveWorkspace()'s already-exported state.
}

// raiseAndPlaceUI raises the status bar to the top and pins it at
// (0, 0), per wm_ui_raise_and_place.
func (st *State) raiseAndPlaceUI() {
	if !st.ui.attached {
		return
	}
	st.cmds.Move(st.ui.clientID, st.ui.surfaceID, 0, 0)
	st.cmds.Raise(st.ui.clientID, st.ui.surfaceID)
}

// HandleBarClick resolves an x coordinate within the status bar to a
// workspace glyph and switches to it, per wm_ui_handle_bar_click.
func (st *State) HandleBarClick(x int32) {
	if x < 0 {
		return
	}
	rel := x - barBaseX
	if rel < 0 {
		return
	}
	ws := uint32(rel / barSlotWidth)
	if ws >= constants.MaxWorkspaces {
		return
	}
	st.SwitchWorkspace(ws)
}
