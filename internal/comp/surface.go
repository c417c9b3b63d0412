package comp

import "sync"

// SurfaceState is one of the four states from §4.6's per-(client,
// surface_id) state machine.
type SurfaceState int

const (
	SurfaceUnused SurfaceState = iota
	SurfaceCreated
	SurfaceAttached
	SurfaceCommitted
)

// Surface is a per-client surface record, per §3's Surface data model.
type Surface struct {
	mu sync.Mutex

	ID    uint32
	State SurfaceState

	ShmName       string
	Width, Height uint32
	Stride        uint32
	Format        uint32

	X, Y int32
	Z    uint64
}

// Attach binds (or re-binds) the surface's SHM backing, transitioning
// UNUSED or CREATED to ATTACHED, or swapping the backing atomically if
// already attached/committed, per §4.6: "re-ATTACH on any attached state
// swaps the backing atomically (holding a lock that excludes the
// renderer)".
func (s *Surface) Attach(shmName string, w, h, stride, format uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ShmName = shmName
	s.Width, s.Height, s.Stride, s.Format = w, h, stride, format
	s.State = SurfaceAttached
}

// Commit publishes the currently attached pixels at (x, y), transitioning
// ATTACHED to COMMITTED. Returns false if the surface is not attached
// (§4.6's transition table: COMMIT only applies on ATTACHED).
func (s *Surface) Commit(x, y int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State != SurfaceAttached && s.State != SurfaceCommitted {
		return false
	}
	s.X, s.Y = x, y
	s.State = SurfaceCommitted
	return true
}

// Destroy unmaps and resets the surface to UNUSED.
func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s = Surface{ID: s.ID, State: SurfaceUnused}
}

// Snapshot returns a value copy of the surface's renderer-visible state,
// safe to read without holding the surface's own lock afterward. The
// renderer must only read pixels from COMMITTED surfaces (§4.6's
// invariant); callers check State before trusting the geometry.
func (s *Surface) Snapshot() Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s
}

// Bounds reports the surface's screen-space bounding box.
func (s Surface) Bounds() (x0, y0, x1, y1 int32) {
	return s.X, s.Y, s.X + int32(s.Width), s.Y + int32(s.Height)
}

// Contains reports whether (x, y) falls within the surface's bounding
// box, for pick_surface_at.
func (s Surface) Contains(x, y int32) bool {
	x0, y0, x1, y1 := s.Bounds()
	return x >= x0 && x < x1 && y >= y0 && y < y1
}
