package comp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInputRingPushPopRoundTrips(t *testing.T) {
	ring := NewInputRing()
	require.True(t, ring.Ready())

	ring.Push(InputEvent{Kind: InputKey, Keycode: 42})
	ev := ring.Pop()
	require.Equal(t, InputKey, ev.Kind)
	require.Equal(t, uint32(42), ev.Keycode)
}

func TestInputRingCoalescesMouseMoveWhenFull(t *testing.T) {
	ring := NewInputRing()
	ring.Cap = 2
	ring.Mask = 1
	ring.events = make([]InputEvent, 2)

	ring.Push(InputEvent{Kind: InputMouse, X: 1})
	ring.Push(InputEvent{Kind: InputMouse, X: 2})
	// ring is now full (w-r == cap); a third move must coalesce, not block.
	ring.Push(InputEvent{Kind: InputMouse, X: 3})

	require.Equal(t, uint32(1), ring.Dropped())

	ev := ring.Pop()
	require.Equal(t, int32(1), ev.X)
	ev = ring.Pop()
	require.Equal(t, int32(2), ev.X)
	// the coalesced move is delivered once the ring drains.
	ev = ring.Pop()
	require.Equal(t, int32(3), ev.X)
}

func TestInputRingEssentialEventBlocksUntilSpace(t *testing.T) {
	ring := NewInputRing()
	ring.Cap = 1
	ring.Mask = 0
	ring.events = make([]InputEvent, 1)

	ring.Push(InputEvent{Kind: InputKey, Keycode: 1})

	done := make(chan struct{})
	go func() {
		ring.Push(InputEvent{Kind: InputKey, Keycode: 2})
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("essential push must block while the ring is full")
	default:
	}

	ev := ring.Pop()
	require.Equal(t, uint32(1), ev.Keycode)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("essential push never unblocked after space opened up")
	}

	ev = ring.Pop()
	require.Equal(t, uint32(2), ev.Keycode)
}

func TestInputRingPopBlocksUntilPush(t *testing.T) {
	ring := NewInputRing()
	result := make(chan InputEvent, 1)
	go func() { result <- ring.Pop() }()

	time.Sleep(20 * time.Millisecond)
	ring.Push(InputEvent{Kind: InputResize, X: 7})

	select {
	case ev := <-result:
		require.Equal(t, int32(7), ev.X)
	case <-time.After(time.Second):
		t.Fatal("pop never unblocked")
	}
}
