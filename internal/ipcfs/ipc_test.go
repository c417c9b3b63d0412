package ipcfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConnectThenAcceptRoundTrip(t *testing.T) {
	r := NewRegistry()
	ep, err := r.Listen("display")
	require.NoError(t, err)

	c2sWrite, s2cRead, err := r.Connect("display", 42)
	require.NoError(t, err)
	require.NotNil(t, c2sWrite)
	require.NotNil(t, s2cRead)
	require.Equal(t, 1, ep.PendingLen())

	c2sRead, s2cWrite, ok := ep.Accept(func(pid uint32) bool { return true })
	require.True(t, ok)
	require.NotNil(t, c2sRead)
	require.NotNil(t, s2cWrite)
	require.Equal(t, 0, ep.PendingLen())

	_, err = c2sWrite.Ops().Write([]byte("hi"), 0)
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = c2sRead.Ops().Read(buf, 0)
	require.NoError(t, err)
	require.Equal(t, "hi", string(buf))
}

func TestAcceptSkipsDeadClient(t *testing.T) {
	r := NewRegistry()
	ep, err := r.Listen("svc")
	require.NoError(t, err)

	_, _, err = r.Connect("svc", 1)
	require.NoError(t, err)
	_, _, err = r.Connect("svc", 2)
	require.NoError(t, err)

	alive := func(pid uint32) bool { return pid != 1 }
	_, _, ok := ep.Accept(alive)
	require.True(t, ok, "accept must skip the dead client and return the live one")
	require.Equal(t, 0, ep.PendingLen())
}

func TestAcceptOnEmptyQueueReturnsFalse(t *testing.T) {
	r := NewRegistry()
	ep, err := r.Listen("empty")
	require.NoError(t, err)
	_, _, ok := ep.Accept(nil)
	require.False(t, ok)
}

func TestListenRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	_, err := r.Listen("dup")
	require.NoError(t, err)
	_, err = r.Listen("dup")
	require.Error(t, err)
}

func TestLenTracksPublishedEndpoints(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, 0, r.Len())

	_, err := r.Listen("a")
	require.NoError(t, err)
	_, err = r.Listen("b")
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	r.Withdraw("a")
	require.Equal(t, 1, r.Len())
}
