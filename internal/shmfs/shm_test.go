package shmfs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yula1234/yulaos/internal/pmm"
)

func newTestAlloc(t *testing.T) *pmm.Allocator {
	t.Helper()
	return pmm.New(256, 0, nil)
}

func TestCreateZeroFillsPages(t *testing.T) {
	alloc := newTestAlloc(t)
	node, err := Create(4096, alloc)
	require.NoError(t, err)

	buf := make([]byte, 4096)
	n, err := node.Ops().Read(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 4096, n)
	for _, b := range buf {
		require.Zero(t, b)
	}
}

func TestWriteThenReadRoundTripsAcrossPageBoundary(t *testing.T) {
	alloc := newTestAlloc(t)
	node, err := Create(8192, alloc)
	require.NoError(t, err)

	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i + 1)
	}
	_, err = node.Ops().Write(data, 4090) // spans the page-0/page-1 boundary
	require.NoError(t, err)

	out := make([]byte, 10)
	_, err = node.Ops().Read(out, 4090)
	require.NoError(t, err)
	require.Equal(t, data, out)
}

func TestRegistryInsertUniqueRejectsDuplicate(t *testing.T) {
	reg := NewRegistry(newTestAlloc(t))
	_, err := reg.CreateNamed("fb0", 4096)
	require.NoError(t, err)

	_, err = reg.CreateNamed("fb0", 4096)
	require.Error(t, err)
}

func TestRegistryOpenNamedSharesPages(t *testing.T) {
	reg := NewRegistry(newTestAlloc(t))
	n1, err := reg.CreateNamed("fb0", 4096)
	require.NoError(t, err)

	n2, err := reg.OpenNamed("fb0")
	require.NoError(t, err)

	_, err = n1.Ops().Write([]byte("hi"), 0)
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = n2.Ops().Read(buf, 0)
	require.NoError(t, err)
	require.Equal(t, "hi", string(buf))
}

func TestUnlinkRemovesNameButObjectSurvivesOpenHandle(t *testing.T) {
	alloc := newTestAlloc(t)
	reg := NewRegistry(alloc)
	n1, err := reg.CreateNamed("fb0", 4096)
	require.NoError(t, err)

	require.NoError(t, reg.Unlink("fb0"))
	_, err = reg.OpenNamed("fb0")
	require.Error(t, err, "unlinked name must no longer resolve")

	// existing handle is still valid.
	_, err = n1.Ops().Write([]byte("x"), 0)
	require.NoError(t, err)

	usedBefore := alloc.UsedBlocks()
	require.NoError(t, n1.Release())
	require.Less(t, alloc.UsedBlocks(), usedBefore, "pages must be freed once the last handle and the registry entry are both gone")
}
