package pipefs

import (
	"encoding/binary"
	"time"
)

// WriteFrame writes a (header, payload) pair as named in §4.4's
// frame-write helper. When essential is false it is a single best-effort
// TryWrite of the whole frame (dropped wholesale if it doesn't fit, never
// partially); when essential is true it spin-blocks with backoff — the
// translation of "spins-blocks with backoff" into a retry loop whose
// sleep doubles up to a 4ms cap, rather than a true IRQ-level spinlock,
// since Go has no IRQ level to poll under (see internal/ksync's SpinLock
// doc). Both paths write the frame only when all of it fits.
func WriteFrame(p *Pipe, header, payload []byte, essential bool) (bool, error) {
	frame := make([]byte, 0, len(header)+len(payload))
	frame = append(frame, header...)
	frame = append(frame, payload...)

	tryWhole := func() (bool, error) {
		p.mu.Lock()
		closed := p.readClosed
		fits := p.cap()-p.len() >= uint64(len(frame))
		p.mu.Unlock()
		if closed {
			return false, ErrBrokenPipe
		}
		if !fits {
			return false, nil
		}
		n, err := p.TryWrite(frame)
		return n == len(frame), err
	}

	if !essential {
		return tryWhole()
	}

	backoff := time.Microsecond
	const maxBackoff = 4 * time.Millisecond
	for {
		ok, err := tryWhole()
		if err != nil || ok {
			return ok, err
		}
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}

// PutUint32LE is a small helper for assembling fixed-width header fields
// the way the compositor wire format (§4.6) and this package's callers
// both need.
func PutUint32LE(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) }
