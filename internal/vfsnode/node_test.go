package vfsnode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type memOps struct {
	NopOps
	data   []byte
	closed bool
}

func (m *memOps) Read(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, nil
	}
	n := copy(p, m.data[off:])
	return n, nil
}

func (m *memOps) Write(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[off:], p)
	return len(p), nil
}

func (m *memOps) Close() error {
	m.closed = true
	return nil
}

func TestNodeCloseRunsOnceAtZeroRefcount(t *testing.T) {
	ops := &memOps{}
	n := New("mem0", 0, ops)
	released := 0
	n.OnRelease = func() { released++ }

	n.Retain()
	require.Equal(t, int32(2), n.Refcount())

	require.NoError(t, n.Release())
	require.False(t, ops.closed, "close must not run until refcount hits zero")

	require.NoError(t, n.Release())
	require.True(t, ops.closed)
	require.Equal(t, 1, released)

	// further releases are no-ops
	require.NoError(t, n.Release())
	require.Equal(t, 1, released)
}

func TestHandleDupSharesUnderlyingState(t *testing.T) {
	ops := &memOps{}
	n := New("mem1", 0, ops)
	h, err := Open(n, HandleReadable|HandleWritable)
	require.NoError(t, err)

	dup := h.Dup()
	_, err = h.Write([]byte("hello"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	_, err = dup.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf), "dup must observe the same offset/node as the original")

	require.NoError(t, h.Close())
}

func TestDevfsRejectsDuplicateAndOverCapacity(t *testing.T) {
	d := NewDevfs(1)
	n1 := New("null", 0, &memOps{})
	n2 := New("zero", 0, &memOps{})

	require.NoError(t, d.Register("null", n1))
	require.Error(t, d.Register("null", n1), "duplicate name must be rejected")
	require.Error(t, d.Register("zero", n2), "table at capacity must reject new entries")

	got, ok := d.Lookup("null")
	require.True(t, ok)
	require.Same(t, n1, got)
}
