// Package comp implements the compositor IPC wire framing and surface
// engine from §4.6: fixed header + bounded TLV payload framing with
// self-resync, the per-(client,surface) state machine, focus/grab
// arbitration, z-order picking, and the lock-free SPSC input ring. The
// ACK and ERROR message types are defined, but the package has no helper
// that sends a request and waits for the matching ACK/ERROR reply.
//
// Grounded on original_source/usr/comp_ipc.h (wire struct layout, message
// type enum, ring layout) and original_source/programs/compositor/
// compositor_input.c (focus/grab arbitration order, producer/consumer
// ring algorithm, dedup rule).
package comp

import (
	"encoding/binary"

	"github.com/yula1234/yulaos/internal/constants"
)

// MsgType enumerates the wire message types from comp_ipc.h's
// comp_ipc_msg_type_t.
type MsgType uint16

const (
	MsgHello          MsgType = 1
	MsgAttachSHM      MsgType = 2
	MsgCommit         MsgType = 3
	MsgInput          MsgType = 4
	MsgAttachSHMName  MsgType = 5
	MsgDestroySurface MsgType = 6
	MsgAck            MsgType = 7
	MsgError          MsgType = 8
	MsgWMEvent        MsgType = 9
	MsgWMCmd          MsgType = 10
	MsgInputRingName  MsgType = 11
	MsgInputRingAck   MsgType = 12
)

// CommitFlag bits for the COMMIT message, per comp_ipc.h.
const (
	CommitFlagRaise uint32 = 1
	CommitFlagAck   uint32 = 2
)

// Error codes for the ERROR message, per comp_ipc.h.
const (
	ErrInvalid   uint32 = 1
	ErrNoSurface uint32 = 2
	ErrSHMOpen   uint32 = 3
	ErrSHMMap    uint32 = 4
)

// headerSize is the on-wire size of Header: magic(4) + version(2) +
// type(2) + len(4) + seq(4).
const headerSize = 16

// Header is the fixed wire header preceding every frame's payload.
type Header struct {
	Magic   uint32
	Version uint16
	Type    MsgType
	Len     uint32
	Seq     uint32
}

// EncodeHeader writes h to dst, which must be at least headerSize bytes.
func EncodeHeader(dst []byte, h Header) {
	binary.LittleEndian.PutUint32(dst[0:4], h.Magic)
	binary.LittleEndian.PutUint16(dst[4:6], h.Version)
	binary.LittleEndian.PutUint16(dst[6:8], uint16(h.Type))
	binary.LittleEndian.PutUint32(dst[8:12], h.Len)
	binary.LittleEndian.PutUint32(dst[12:16], h.Seq)
}

// DecodeHeader reads a Header from src, which must be at least
// headerSize bytes.
func DecodeHeader(src []byte) Header {
	return Header{
		Magic:   binary.LittleEndian.Uint32(src[0:4]),
		Version: binary.LittleEndian.Uint16(src[4:6]),
		Type:    MsgType(binary.LittleEndian.Uint16(src[6:8])),
		Len:     binary.LittleEndian.Uint32(src[8:12]),
		Seq:     binary.LittleEndian.Uint32(src[12:16]),
	}
}

// EncodeFrame builds a complete (header, payload) frame, failing if
// payload exceeds CompIPCMaxPayload (§4.6's bounded-payload invariant).
func EncodeFrame(msgType MsgType, seq uint32, payload []byte) ([]byte, error) {
	if len(payload) > constants.CompIPCMaxPayload {
		return nil, ErrPayloadTooLarge
	}
	frame := make([]byte, headerSize+len(payload))
	EncodeHeader(frame, Header{
		Magic:   constants.CompIPCMagic,
		Version: constants.CompIPCVersion,
		Type:    msgType,
		Len:     uint32(len(payload)),
		Seq:     seq,
	})
	copy(frame[headerSize:], payload)
	return frame, nil
}

// ErrPayloadTooLarge is returned by EncodeFrame when payload exceeds the
// bounded maximum.
var ErrPayloadTooLarge = newWireError("payload exceeds CompIPCMaxPayload")

type wireError string

func (e wireError) Error() string { return string(e) }
func newWireError(msg string) error { return wireError(msg) }
