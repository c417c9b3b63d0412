package comp

import (
	"fmt"
	"sync"
	"time"
)

// Compositor wires together the registered clients, the shared focus/grab
// arbitration state, and z-order picking, per §4.6. It is the receiver
// for inbound client messages and the source of outbound INPUT delivery;
// it sends no WM_EVENT frames.
type Compositor struct {
	mu      sync.Mutex
	clients map[uint32]*Client
	focus   *FocusState

	wmClientID uint32 // noClient if no WM attached
}

// NewCompositor creates a compositor with no clients and no WM attached.
func NewCompositor() *Compositor {
	return &Compositor{
		clients:    make(map[uint32]*Client),
		focus:      NewFocusState(),
		wmClientID: noClient,
	}
}

// AddClient registers a newly connected client (post-HELLO).
func (co *Compositor) AddClient(c *Client) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.clients[c.PID] = c
}

// RemoveClient unregisters a client, e.g. on pipe EOF.
func (co *Compositor) RemoveClient(pid uint32) {
	co.mu.Lock()
	defer co.mu.Unlock()
	delete(co.clients, pid)
}

// AttachWM marks clientID as the window manager, whose presence changes
// the button-press focus rule (§4.6 rule 4): with a WM attached, a press
// leaves focus and z-order unchanged, and no WM_EVENT_CLICK frame is sent
// to the WM.
func (co *Compositor) AttachWM(clientID uint32) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.wmClientID = clientID
}

func (co *Compositor) hasWM() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.wmClientID != noClient
}

// HandleAttachShmName processes an ATTACH_SHM_NAME request, transitioning
// the named surface to ATTACHED, per §4.6.
func (co *Compositor) HandleAttachShmName(clientID, surfaceID, w, h, stride, format uint32, shmName string) error {
	c, err := co.client(clientID)
	if err != nil {
		return err
	}
	s, err := c.Surface(surfaceID)
	if err != nil {
		return err
	}
	s.Attach(shmName, w, h, stride, format)
	return nil
}

// HandleCommit processes a COMMIT request, transitioning the surface to
// COMMITTED and optionally raising it (COMMIT_FLAG_RAISE), per §4.6.
func (co *Compositor) HandleCommit(clientID, surfaceID uint32, x, y int32, flags uint32) error {
	c, err := co.client(clientID)
	if err != nil {
		return err
	}
	s, err := c.Surface(surfaceID)
	if err != nil {
		return err
	}
	if !s.Commit(x, y) {
		return fmt.Errorf("comp: commit on non-attached surface %d", surfaceID)
	}
	if flags&CommitFlagRaise != 0 {
		co.mu.Lock()
		s.mu.Lock()
		s.Z = co.focus.Raise()
		s.mu.Unlock()
		co.mu.Unlock()
	}
	return nil
}

// HandleDestroySurface tears a surface down to UNUSED, per §4.6.
func (co *Compositor) HandleDestroySurface(clientID, surfaceID uint32) error {
	c, err := co.client(clientID)
	if err != nil {
		return err
	}
	c.DestroySurface(surfaceID)
	return nil
}

// raiseLocal bumps target's surface to the top of the z-order, the
// "otherwise focus transfers locally and the surface's z is bumped to
// ++z_counter" half of §4.6 rule 4 — the no-WM counterpart of
// WMAdapter.Raise.
func (co *Compositor) raiseLocal(target Target) {
	c, err := co.client(target.ClientID)
	if err != nil {
		return
	}
	s, err := c.Surface(target.SurfaceID)
	if err != nil {
		return
	}
	co.mu.Lock()
	z := co.focus.Raise()
	co.mu.Unlock()
	s.mu.Lock()
	s.Z = z
	s.mu.Unlock()
}

func (co *Compositor) client(clientID uint32) (*Client, error) {
	co.mu.Lock()
	defer co.mu.Unlock()
	c, ok := co.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("comp: no such client %d", clientID)
	}
	return c, nil
}

// pickCandidates snapshots every client's committed surfaces into
// PickCandidate rows for PickSurfaceAt.
func (co *Compositor) pickCandidates() []PickCandidate {
	co.mu.Lock()
	clients := make([]*Client, 0, len(co.clients))
	for _, c := range co.clients {
		clients = append(clients, c)
	}
	co.mu.Unlock()

	var out []PickCandidate
	for _, c := range clients {
		for _, s := range c.AllSurfaces() {
			out = append(out, PickCandidate{Target{ClientID: c.PID, SurfaceID: s.ID}, s.Snapshot()})
		}
	}
	return out
}

func (co *Compositor) mappedFn() Mapped {
	return func(t Target) bool {
		c, err := co.client(t.ClientID)
		if err != nil {
			return false
		}
		return c.SurfaceValid(t.SurfaceID)
	}
}

// DispatchPointer resolves and (if not deduplicated) delivers a pointer
// event at (x, y) with the given button mask, applying the full §4.6
// focus/grab/dedup pipeline, and updates grab/focus state on button
// edges.
func (co *Compositor) DispatchPointer(x, y int32, buttons uint32, prevButtons uint32) {
	pick := func() (Target, bool) {
		return PickSurfaceAt(co.pickCandidates(), x, y)
	}

	target, found := co.focus.ResolvePointerTarget(co.mappedFn(), pick)

	pressed := buttons != 0 && prevButtons == 0
	released := buttons == 0 && prevButtons != 0
	if pressed {
		hasWM := co.hasWM()
		co.focus.OnButtonEdge(target, found, true, hasWM)
		if found && !hasWM {
			co.raiseLocal(target)
		}
	} else if released {
		co.focus.OnButtonEdge(target, found, false, co.hasWM())
	}

	if !found {
		return
	}
	if !co.focus.ShouldEmitPointer(x, y, buttons, target) {
		return
	}

	c, err := co.client(target.ClientID)
	if err != nil {
		return
	}
	co.deliver(c, InputEvent{
		SurfaceID: target.SurfaceID,
		Kind:      InputMouse,
		X:         x, Y: y,
		Buttons: buttons,
	})
}

// deliver pushes ev to c's input ring if one is installed and READY,
// otherwise falls back to a framed INPUT message — §4.6's "Input
// delivery" fallback rule.
func (co *Compositor) deliver(c *Client, ev InputEvent) {
	if ring, ok := c.InputRing(); ok && ring.Ready() {
		ring.Push(ev)
		return
	}
	if c.Send == nil {
		return
	}
	payload := make([]byte, 24)
	encodeInputEvent(payload, ev)
	frame, err := EncodeFrame(MsgInput, c.NextSeq(), payload)
	if err != nil {
		return
	}
	if ev.isEssential() {
		deliverEssential(c, frame)
		return
	}
	_ = c.Send(frame) // best-effort: dropped on failure, per §4.6's no-ring fallback
}

// deliverEssential retries c.Send with exponential backoff until it
// succeeds, the "essential events block until delivery" half of §4.6's
// no-ring fallback rule. This is the same spin-block-with-backoff idiom
// pipefs.WriteFrame uses for its essential path, applied at the Send
// callback directly since a Client's transport hook isn't always backed
// by a pipefs.Pipe.
func deliverEssential(c *Client, frame []byte) {
	backoff := time.Microsecond
	const maxBackoff = 4 * time.Millisecond
	for {
		if err := c.Send(frame); err == nil {
			return
		}
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

func encodeInputEvent(dst []byte, ev InputEvent) {
	putU32(dst[0:4], ev.SurfaceID)
	putU32(dst[4:8], uint32(ev.Kind))
	putU32(dst[8:12], uint32(ev.X))
	putU32(dst[12:16], uint32(ev.Y))
	putU32(dst[16:20], ev.Buttons)
	putU32(dst[20:24], ev.Keycode)
}

func putU32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}
