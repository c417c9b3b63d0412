package uapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIoctlEncodeMatchesBitLayout(t *testing.T) {
	req := _YOS_IOWR('G', 3, 24)
	dir := req >> _IOC_DIRSHIFT
	size := (req >> _IOC_SIZESHIFT) & ((1 << _IOC_SIZEBITS) - 1)
	typ := (req >> _IOC_TYPESHIFT) & ((1 << _IOC_TYPEBITS) - 1)
	nr := req & ((1 << _IOC_NRBITS) - 1)

	require.Equal(t, uint32(DirBoth), dir)
	require.Equal(t, uint32(24), size)
	require.Equal(t, uint32('G'), typ)
	require.Equal(t, uint32(3), nr)
}

func TestYOSIOHasNoDirectionBits(t *testing.T) {
	req := _YOS_IO('T', 9)
	require.Equal(t, uint32(0), req>>_IOC_DIRSHIFT)
}

func TestConcreteRequestsUseExpectedTypeLetters(t *testing.T) {
	require.Equal(t, uint32('T'), (TCGETS>>_IOC_TYPESHIFT)&0xFF)
	require.Equal(t, uint32('G'), (GPUCommit>>_IOC_TYPESHIFT)&0xFF)
	require.Equal(t, uint32('N'), (NetGetMAC>>_IOC_TYPESHIFT)&0xFF)
}

func TestTermiosRoundTrip(t *testing.T) {
	original := &Termios{Iflag: 1, Oflag: 2, Cflag: 3, Lflag: 4, Line: 5}
	copy(original.Cc[:], []byte{1, 2, 3})

	data := Marshal(original)
	require.Len(t, data, termiosSize)

	var got Termios
	require.NoError(t, Unmarshal(data, &got))
	require.Equal(t, *original, got)
}

func TestWinsizeRoundTrip(t *testing.T) {
	original := &Winsize{Row: 25, Col: 80, XPixel: 640, YPixel: 480}
	data := Marshal(original)
	require.Len(t, data, winsizeSize)

	var got Winsize
	require.NoError(t, Unmarshal(data, &got))
	require.Equal(t, *original, got)
}

func TestGPUSurfaceCreateReqRoundTrip(t *testing.T) {
	original := &GPUSurfaceCreateReq{Width: 1920, Height: 1080, Format: 1, SurfaceID: 7, Stride: 7680}
	data := Marshal(original)
	require.Len(t, data, gpuSurfaceCreateReqSize)

	var got GPUSurfaceCreateReq
	require.NoError(t, Unmarshal(data, &got))
	require.Equal(t, *original, got)
}

func TestGPUAttachSHMReqRoundTrip(t *testing.T) {
	original := &GPUAttachSHMReq{SurfaceID: 3, ShmNameLen: 4}
	copy(original.ShmName[:], "wm0")
	data := Marshal(original)
	require.Len(t, data, gpuAttachSHMReqSize)

	var got GPUAttachSHMReq
	require.NoError(t, Unmarshal(data, &got))
	require.Equal(t, *original, got)
}

func TestGPUCommitReqRoundTrip(t *testing.T) {
	original := &GPUCommitReq{SurfaceID: 1, X: -5, Y: 10, W: 200, H: 100, Flags: 1}
	data := Marshal(original)
	require.Len(t, data, gpuCommitReqSize)

	var got GPUCommitReq
	require.NoError(t, Unmarshal(data, &got))
	require.Equal(t, *original, got)
}

func TestGPUTransferReqRoundTrip(t *testing.T) {
	original := &GPUTransferReq{SurfaceID: 2, Offset: 4096, Len: 64}
	data := Marshal(original)
	require.Len(t, data, gpuTransferReqSize)

	var got GPUTransferReq
	require.NoError(t, Unmarshal(data, &got))
	require.Equal(t, *original, got)
}

func TestNetMACRoundTrip(t *testing.T) {
	original := &NetMAC{Addr: [6]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}}
	data := Marshal(original)
	require.Len(t, data, netMACSize)

	var got NetMAC
	require.NoError(t, Unmarshal(data, &got))
	require.Equal(t, *original, got)
}

func TestUnmarshalRejectsTruncatedData(t *testing.T) {
	var w Winsize
	err := Unmarshal([]byte{1, 2, 3}, &w)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	var x struct{ n int }
	err := Unmarshal([]byte{1, 2, 3, 4}, &x)
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestMarshalPanicsOnUnknownType(t *testing.T) {
	require.Panics(t, func() {
		var x struct{ n int }
		Marshal(&x)
	})
}

func BenchmarkMarshalGPUCommitReq(b *testing.B) {
	req := &GPUCommitReq{SurfaceID: 1, X: 1, Y: 1, W: 100, H: 100, Flags: 1}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Marshal(req)
	}
}

func BenchmarkUnmarshalGPUCommitReq(b *testing.B) {
	req := &GPUCommitReq{SurfaceID: 1, X: 1, Y: 1, W: 100, H: 100, Flags: 1}
	data := Marshal(req)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var got GPUCommitReq
		_ = Unmarshal(data, &got)
	}
}
