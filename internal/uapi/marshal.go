package uapi

import "encoding/binary"

// Marshal encodes v to its little-endian wire form. Panics on an
// unrecognized type, since every ioctl argument struct in this package
// has a hand-written encoder below — there is no generic fallback.
func Marshal(v interface{}) []byte {
	switch val := v.(type) {
	case *Termios:
		return marshalTermios(val)
	case *Winsize:
		return marshalWinsize(val)
	case *GPUSurfaceCreateReq:
		return marshalGPUSurfaceCreateReq(val)
	case *GPUAttachSHMReq:
		return marshalGPUAttachSHMReq(val)
	case *GPUCommitReq:
		return marshalGPUCommitReq(val)
	case *GPUTransferReq:
		return marshalGPUTransferReq(val)
	case *NetMAC:
		return marshalNetMAC(val)
	default:
		panic("uapi: Marshal: unrecognized type")
	}
}

// Unmarshal decodes data into v, which must be a pointer to one of the
// struct types this package defines.
func Unmarshal(data []byte, v interface{}) error {
	switch val := v.(type) {
	case *Termios:
		return unmarshalTermios(data, val)
	case *Winsize:
		return unmarshalWinsize(data, val)
	case *GPUSurfaceCreateReq:
		return unmarshalGPUSurfaceCreateReq(data, val)
	case *GPUAttachSHMReq:
		return unmarshalGPUAttachSHMReq(data, val)
	case *GPUCommitReq:
		return unmarshalGPUCommitReq(data, val)
	case *GPUTransferReq:
		return unmarshalGPUTransferReq(data, val)
	case *NetMAC:
		return unmarshalNetMAC(data, val)
	default:
		return ErrInvalidType
	}
}

func marshalTermios(t *Termios) []byte {
	buf := make([]byte, termiosSize)
	binary.LittleEndian.PutUint32(buf[0:4], t.Iflag)
	binary.LittleEndian.PutUint32(buf[4:8], t.Oflag)
	binary.LittleEndian.PutUint32(buf[8:12], t.Cflag)
	binary.LittleEndian.PutUint32(buf[12:16], t.Lflag)
	buf[16] = t.Line
	copy(buf[17:17+ncc], t.Cc[:])
	return buf
}

func unmarshalTermios(data []byte, t *Termios) error {
	if len(data) < termiosSize {
		return ErrInsufficientData
	}
	t.Iflag = binary.LittleEndian.Uint32(data[0:4])
	t.Oflag = binary.LittleEndian.Uint32(data[4:8])
	t.Cflag = binary.LittleEndian.Uint32(data[8:12])
	t.Lflag = binary.LittleEndian.Uint32(data[12:16])
	t.Line = data[16]
	copy(t.Cc[:], data[17:17+ncc])
	return nil
}

func marshalWinsize(w *Winsize) []byte {
	buf := make([]byte, winsizeSize)
	binary.LittleEndian.PutUint16(buf[0:2], w.Row)
	binary.LittleEndian.PutUint16(buf[2:4], w.Col)
	binary.LittleEndian.PutUint16(buf[4:6], w.XPixel)
	binary.LittleEndian.PutUint16(buf[6:8], w.YPixel)
	return buf
}

func unmarshalWinsize(data []byte, w *Winsize) error {
	if len(data) < winsizeSize {
		return ErrInsufficientData
	}
	w.Row = binary.LittleEndian.Uint16(data[0:2])
	w.Col = binary.LittleEndian.Uint16(data[2:4])
	w.XPixel = binary.LittleEndian.Uint16(data[4:6])
	w.YPixel = binary.LittleEndian.Uint16(data[6:8])
	return nil
}

func marshalGPUSurfaceCreateReq(r *GPUSurfaceCreateReq) []byte {
	buf := make([]byte, gpuSurfaceCreateReqSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.Width)
	binary.LittleEndian.PutUint32(buf[4:8], r.Height)
	binary.LittleEndian.PutUint32(buf[8:12], r.Format)
	binary.LittleEndian.PutUint32(buf[12:16], r.SurfaceID)
	binary.LittleEndian.PutUint32(buf[16:20], r.Stride)
	return buf
}

func unmarshalGPUSurfaceCreateReq(data []byte, r *GPUSurfaceCreateReq) error {
	if len(data) < gpuSurfaceCreateReqSize {
		return ErrInsufficientData
	}
	r.Width = binary.LittleEndian.Uint32(data[0:4])
	r.Height = binary.LittleEndian.Uint32(data[4:8])
	r.Format = binary.LittleEndian.Uint32(data[8:12])
	r.SurfaceID = binary.LittleEndian.Uint32(data[12:16])
	r.Stride = binary.LittleEndian.Uint32(data[16:20])
	return nil
}

func marshalGPUAttachSHMReq(r *GPUAttachSHMReq) []byte {
	buf := make([]byte, gpuAttachSHMReqSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.SurfaceID)
	binary.LittleEndian.PutUint32(buf[4:8], r.ShmNameLen)
	copy(buf[8:8+shmNameLen], r.ShmName[:])
	return buf
}

func unmarshalGPUAttachSHMReq(data []byte, r *GPUAttachSHMReq) error {
	if len(data) < gpuAttachSHMReqSize {
		return ErrInsufficientData
	}
	r.SurfaceID = binary.LittleEndian.Uint32(data[0:4])
	r.ShmNameLen = binary.LittleEndian.Uint32(data[4:8])
	copy(r.ShmName[:], data[8:8+shmNameLen])
	return nil
}

func marshalGPUCommitReq(r *GPUCommitReq) []byte {
	buf := make([]byte, gpuCommitReqSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.SurfaceID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.X))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(r.Y))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(r.W))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(r.H))
	binary.LittleEndian.PutUint32(buf[20:24], r.Flags)
	return buf
}

func unmarshalGPUCommitReq(data []byte, r *GPUCommitReq) error {
	if len(data) < gpuCommitReqSize {
		return ErrInsufficientData
	}
	r.SurfaceID = binary.LittleEndian.Uint32(data[0:4])
	r.X = int32(binary.LittleEndian.Uint32(data[4:8]))
	r.Y = int32(binary.LittleEndian.Uint32(data[8:12]))
	r.W = int32(binary.LittleEndian.Uint32(data[12:16]))
	r.H = int32(binary.LittleEndian.Uint32(data[16:20]))
	r.Flags = binary.LittleEndian.Uint32(data[20:24])
	return nil
}

func marshalGPUTransferReq(r *GPUTransferReq) []byte {
	buf := make([]byte, gpuTransferReqSize)
	binary.LittleEndian.PutUint32(buf[0:4], r.SurfaceID)
	binary.LittleEndian.PutUint32(buf[4:8], r.Offset)
	binary.LittleEndian.PutUint32(buf[8:12], r.Len)
	return buf
}

func unmarshalGPUTransferReq(data []byte, r *GPUTransferReq) error {
	if len(data) < gpuTransferReqSize {
		return ErrInsufficientData
	}
	r.SurfaceID = binary.LittleEndian.Uint32(data[0:4])
	r.Offset = binary.LittleEndian.Uint32(data[4:8])
	r.Len = binary.LittleEndian.Uint32(data[8:12])
	return nil
}

func marshalNetMAC(m *NetMAC) []byte {
	buf := make([]byte, netMACSize)
	copy(buf, m.Addr[:])
	return buf
}

func unmarshalNetMAC(data []byte, m *NetMAC) error {
	if len(data) < netMACSize {
		return ErrInsufficientData
	}
	copy(m.Addr[:], data[:netMACSize])
	return nil
}

// MarshalError reports a wire marshaling failure.
type MarshalError string

func (e MarshalError) Error() string { return string(e) }

const (
	ErrInsufficientData MarshalError = "insufficient data for unmarshaling"
	ErrInvalidType      MarshalError = "invalid type for marshaling"
)
