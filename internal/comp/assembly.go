package comp

import (
	"encoding/binary"

	"github.com/yula1234/yulaos/internal/constants"
)

// Assembler is the per-client RX assembly ring from §3's Compositor
// client model (4 KiB, power-of-two) and §4.6's self-resynchronizing
// framing: bytes are fed in as they arrive from the pipe, and complete
// frames are extracted as soon as a full header+payload is buffered.
// On a magic mismatch at the front of the buffer, one byte is dropped
// and resync is retried, rather than discarding the whole buffer.
type Assembler struct {
	buf []byte
}

// NewAssembler creates an assembler with the specification's standard
// 4 KiB ring capacity.
func NewAssembler() *Assembler {
	return &Assembler{buf: make([]byte, 0, constants.CompAssemblyRingSize)}
}

// Feed appends newly read bytes to the assembly buffer.
func (a *Assembler) Feed(data []byte) {
	a.buf = append(a.buf, data...)
	if len(a.buf) > constants.CompAssemblyRingSize {
		// A client that never completes a frame within one ring's worth
		// of garbage is desynced beyond recovery; drop the oldest bytes
		// beyond capacity so Next's resync loop still terminates instead
		// of growing the buffer unboundedly.
		excess := len(a.buf) - constants.CompAssemblyRingSize
		a.buf = a.buf[excess:]
	}
}

// Next extracts the next complete frame, if any, resyncing past garbage
// bytes first. Returns ok=false if no complete frame is currently
// buffered (the caller should Feed more and retry).
func (a *Assembler) Next() (hdr Header, payload []byte, ok bool) {
	for {
		if len(a.buf) < headerSize {
			return Header{}, nil, false
		}
		magic := binary.LittleEndian.Uint32(a.buf[0:4])
		if magic != constants.CompIPCMagic {
			a.buf = a.buf[1:]
			continue
		}
		h := DecodeHeader(a.buf)
		if h.Len > constants.CompIPCMaxPayload {
			// Corrupt length field masquerading as a valid magic; drop
			// one byte and keep resyncing rather than trust it.
			a.buf = a.buf[1:]
			continue
		}
		total := headerSize + int(h.Len)
		if len(a.buf) < total {
			return Header{}, nil, false
		}
		payload = append([]byte(nil), a.buf[headerSize:total]...)
		a.buf = a.buf[total:]
		return h, payload, true
	}
}
