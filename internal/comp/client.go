package comp

import (
	"fmt"
	"sync"

	"github.com/yula1234/yulaos/internal/constants"
)

// Client is a per-connection compositor record, per §3's Compositor
// client model: pid, a fixed-cap surface table, an RX assembler, a
// sequence counter, and an optional lock-free input ring once the client
// opts in via INPUT_RING_NAME.
type Client struct {
	PID uint32

	mu       sync.Mutex
	surfaces map[uint32]*Surface
	seq      uint32
	ring     *InputRing

	Send func(frame []byte) error // transport hook: writes a frame to this client's s→c pipe
}

// NewClient creates a client record with an empty surface table.
func NewClient(pid uint32, send func([]byte) error) *Client {
	return &Client{PID: pid, surfaces: make(map[uint32]*Surface), Send: send}
}

// NextSeq returns the next outgoing sequence number.
func (c *Client) NextSeq() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Surface returns (creating if necessary) the surface record for id,
// failing if the client is already at CompMaxSurfacesPerClient and id is
// new.
func (c *Client) Surface(id uint32) (*Surface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.surfaces[id]; ok {
		return s, nil
	}
	if len(c.surfaces) >= constants.CompMaxSurfacesPerClient {
		return nil, fmt.Errorf("comp: client %d at max surfaces (%d)", c.PID, constants.CompMaxSurfacesPerClient)
	}
	s := &Surface{ID: id, State: SurfaceCreated}
	c.surfaces[id] = s
	return s, nil
}

// SurfaceValid reports whether id names a live (non-UNUSED) surface on
// this client, the "comp_client_surface_id_valid" check the focus
// arbitration rules depend on.
func (c *Client) SurfaceValid(id uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.surfaces[id]
	return ok && s.State != SurfaceUnused
}

// DestroySurface transitions surface id to UNUSED and drops it from the
// table.
func (c *Client) DestroySurface(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.surfaces[id]; ok {
		s.Destroy()
		delete(c.surfaces, id)
	}
}

// AllSurfaces returns a snapshot slice of (id, surface) pairs for picking
// and iteration.
func (c *Client) AllSurfaces() []*Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Surface, 0, len(c.surfaces))
	for _, s := range c.surfaces {
		out = append(out, s)
	}
	return out
}

// AttachInputRing installs ring as this client's zero-copy input path,
// per §4.6's INPUT_RING_NAME opt-in.
func (c *Client) AttachInputRing(ring *InputRing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ring = ring
}

// InputRing returns the client's installed ring, if any.
func (c *Client) InputRing() (*InputRing, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ring, c.ring != nil
}
