package comp

import "github.com/yula1234/yulaos/internal/wm"

// WMCmd enumerates the WM_CMD subtypes carried in a MsgWMCmd payload's
// first 4 bytes, per comp_ipc.h's comp_wm_cmd_type_t.
type WMCmd uint32

const (
	WMCmdMove WMCmd = iota + 1
	WMCmdResize
	WMCmdFocus
	WMCmdRaise
	WMCmdPointerGrab
	WMCmdPreviewRect
	WMCmdPreviewClear
)

// WMAdapter implements wm.Commands against a live Compositor: it applies
// the geometry/z/grab side effects directly to the addressed client's
// surface table and focus state, then forwards a framed WM_CMD message
// to the client so its own renderer can react (e.g. redraw at the new
// size). This is the wiring collapse of comp_wm_move/resize/focus/raise/
// pointer_grab/preview_rect/preview_clear from original_source/usr/
// comp_ipc.h into one Go type the wm package drives through an
// interface, per DESIGN.md's Commands note.
type WMAdapter struct {
	co *Compositor
}

// NewWMAdapter returns a wm.Commands that drives co.
func NewWMAdapter(co *Compositor) *WMAdapter {
	return &WMAdapter{co: co}
}

var _ wm.Commands = (*WMAdapter)(nil)

func (a *WMAdapter) surface(clientID, surfaceID uint32) *Surface {
	c, err := a.co.client(clientID)
	if err != nil {
		return nil
	}
	s, err := c.Surface(surfaceID)
	if err != nil {
		return nil
	}
	return s
}

func (a *WMAdapter) sendCmd(clientID uint32, cmd WMCmd, x, y, w, h int32) {
	c, err := a.co.client(clientID)
	if err != nil || c.Send == nil {
		return
	}
	payload := make([]byte, 20)
	putU32(payload[0:4], uint32(cmd))
	putU32(payload[4:8], uint32(x))
	putU32(payload[8:12], uint32(y))
	putU32(payload[12:16], uint32(w))
	putU32(payload[16:20], uint32(h))
	frame, err := EncodeFrame(MsgWMCmd, c.NextSeq(), payload)
	if err != nil {
		return
	}
	_ = c.Send(frame)
}

func (a *WMAdapter) Move(clientID, surfaceID uint32, x, y int32) {
	if s := a.surface(clientID, surfaceID); s != nil {
		s.mu.Lock()
		s.X, s.Y = x, y
		s.mu.Unlock()
	}
	a.sendCmd(clientID, WMCmdMove, x, y, 0, 0)
}

func (a *WMAdapter) Resize(clientID, surfaceID uint32, w, h int32) {
	a.sendCmd(clientID, WMCmdResize, 0, 0, w, h)
}

func (a *WMAdapter) Focus(clientID, surfaceID uint32) {
	a.co.mu.Lock()
	a.co.focus.FocusClient = clientID
	a.co.focus.FocusSurface = surfaceID
	a.co.mu.Unlock()
	a.sendCmd(clientID, WMCmdFocus, 0, 0, 0, 0)
}

func (a *WMAdapter) Raise(clientID, surfaceID uint32) uint64 {
	var z uint64
	if s := a.surface(clientID, surfaceID); s != nil {
		a.co.mu.Lock()
		z = a.co.focus.Raise()
		a.co.mu.Unlock()
		s.mu.Lock()
		s.Z = z
		s.mu.Unlock()
	}
	a.sendCmd(clientID, WMCmdRaise, 0, 0, 0, 0)
	return z
}

func (a *WMAdapter) PointerGrab(clientID, surfaceID uint32, grab bool) {
	a.co.mu.Lock()
	a.co.focus.WMPointerGrabActive = grab
	if grab {
		a.co.focus.WMPointerGrabTarget = Target{ClientID: clientID, SurfaceID: surfaceID}
	} else {
		a.co.focus.WMPointerGrabTarget = Target{ClientID: noClient}
	}
	a.co.mu.Unlock()
	g := int32(0)
	if grab {
		g = 1
	}
	a.sendCmd(clientID, WMCmdPointerGrab, g, 0, 0, 0)
}

func (a *WMAdapter) PreviewRect(clientID, surfaceID uint32, x, y, w, h int32) {
	a.sendCmd(clientID, WMCmdPreviewRect, x, y, w, h)
}

func (a *WMAdapter) PreviewClear(clientID, surfaceID uint32) {
	a.sendCmd(clientID, WMCmdPreviewClear, 0, 0, 0, 0)
}
