package comp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameRoundTrips(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	frame, err := EncodeFrame(MsgCommit, 7, payload)
	require.NoError(t, err)

	a := NewAssembler()
	a.Feed(frame)
	hdr, got, ok := a.Next()
	require.True(t, ok)
	require.Equal(t, MsgCommit, hdr.Type)
	require.Equal(t, uint32(7), hdr.Seq)
	require.Equal(t, payload, got)
}

func TestEncodeFrameRejectsOversizedPayload(t *testing.T) {
	_, err := EncodeFrame(MsgCommit, 0, make([]byte, 513))
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestAssemblerResyncsPastGarbage(t *testing.T) {
	frame, err := EncodeFrame(MsgHello, 1, []byte{9, 9})
	require.NoError(t, err)

	garbage := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02}
	a := NewAssembler()
	a.Feed(append(garbage, frame...))

	hdr, payload, ok := a.Next()
	require.True(t, ok)
	require.Equal(t, MsgHello, hdr.Type)
	require.Equal(t, []byte{9, 9}, payload)
}

func TestAssemblerWaitsForFullFrame(t *testing.T) {
	frame, err := EncodeFrame(MsgCommit, 2, []byte{1, 2, 3})
	require.NoError(t, err)

	a := NewAssembler()
	a.Feed(frame[:headerSize+1])
	_, _, ok := a.Next()
	require.False(t, ok, "a partial frame must not be extracted")

	a.Feed(frame[headerSize+1:])
	_, _, ok = a.Next()
	require.True(t, ok)
}

func TestAssemblerHandlesMultipleFramesBackToBack(t *testing.T) {
	f1, _ := EncodeFrame(MsgHello, 1, []byte{1})
	f2, _ := EncodeFrame(MsgCommit, 2, []byte{2, 2})

	a := NewAssembler()
	a.Feed(append(f1, f2...))

	h1, p1, ok := a.Next()
	require.True(t, ok)
	require.Equal(t, MsgHello, h1.Type)
	require.Equal(t, []byte{1}, p1)

	h2, p2, ok := a.Next()
	require.True(t, ok)
	require.Equal(t, MsgCommit, h2.Type)
	require.Equal(t, []byte{2, 2}, p2)
}
