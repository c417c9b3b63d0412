// Package pipefs implements the anonymous byte-stream pipe from §3/§4.4: a
// power-of-two ring buffer with per-end semaphores and closed-end flags,
// exposed as a pair of vfsnode.Node halves. Grounded on the specification's
// own description in §4.4 (no standalone pipe.c survived the original
// source's retrieval filter — ipc_endpoint.cpp names `vfs_create_pipe` as
// a collaborator without showing its body), using internal/ksync's
// semaphore for the blocking wait/wake discipline it already implements
// for every other blocking primitive in this module.
package pipefs

import (
	"errors"
	"sync"

	"github.com/yula1234/yulaos/internal/constants"
	"github.com/yula1234/yulaos/internal/ksync"
	"github.com/yula1234/yulaos/internal/vfsnode"
)

// ErrBrokenPipe is returned by a write once the reader has closed its end.
var ErrBrokenPipe = errors.New("pipefs: broken pipe")

// Pipe is the shared ring buffer backing both halves of one pipe, per §3's
// Pipe data model: a byte ring, monotonic head/write counters (mod 2^32
// conceptually; Go's uint64 never wraps in practice), a semaphore per
// direction, and a closed flag per end.
type Pipe struct {
	mu   sync.Mutex
	ring []byte
	mask uint64

	readIdx, writeIdx uint64

	readSem  *ksync.Semaphore // signaled when data becomes available
	writeSem *ksync.Semaphore // signaled when space becomes available

	readClosed, writeClosed bool

	poll ksync.PollWaitQueue
}

// New creates a pipe with a ring capacity rounded up to a power of two; a
// capacity <= 0 selects constants.DefaultPipeCapacity.
func New(capacity int) *Pipe {
	if capacity <= 0 {
		capacity = constants.DefaultPipeCapacity
	}
	capacity = nextPow2(capacity)
	return &Pipe{
		ring:     make([]byte, capacity),
		mask:     uint64(capacity - 1),
		readSem:  ksync.NewSemaphore(0),
		writeSem: ksync.NewSemaphore(capacity),
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (p *Pipe) len() uint64 { return p.writeIdx - p.readIdx }
func (p *Pipe) cap() uint64 { return p.mask + 1 }

// TryWrite appends as much of data as fits without blocking, returning the
// number of bytes written (possibly 0, per §4.4's non-blocking try_write).
func (p *Pipe) TryWrite(data []byte) (int, error) {
	p.mu.Lock()
	if p.readClosed {
		p.mu.Unlock()
		return 0, ErrBrokenPipe
	}
	free := p.cap() - p.len()
	n := uint64(len(data))
	if n > free {
		n = free
	}
	for i := uint64(0); i < n; i++ {
		p.ring[(p.writeIdx+i)&p.mask] = data[i]
	}
	p.writeIdx += n
	p.mu.Unlock()

	for i := uint64(0); i < n; i++ {
		p.readSem.Signal()
	}
	p.poll.WakeAll()
	return int(n), nil
}

// Write blocks until all of data has been appended or the read end closes.
func (p *Pipe) Write(data []byte) (int, error) {
	written := 0
	for written < len(data) {
		p.mu.Lock()
		if p.readClosed {
			p.mu.Unlock()
			return written, ErrBrokenPipe
		}
		if p.len() == p.cap() {
			p.mu.Unlock()
			p.writeSem.Wait()
			continue
		}
		free := p.cap() - p.len()
		n := uint64(len(data) - written)
		if n > free {
			n = free
		}
		for i := uint64(0); i < n; i++ {
			p.ring[(p.writeIdx+i)&p.mask] = data[written+int(i)]
		}
		p.writeIdx += n
		written += int(n)
		p.mu.Unlock()

		for i := uint64(0); i < n; i++ {
			p.readSem.Signal()
		}
		p.poll.WakeAll()
	}
	return written, nil
}

// Read blocks until at least one byte is available, EOF, or error.
// Returns (0, nil) on EOF (writer closed, ring drained), per §4.4.
func (p *Pipe) Read(buf []byte) (int, error) {
	for {
		p.mu.Lock()
		if p.len() > 0 {
			n := uint64(len(buf))
			if n > p.len() {
				n = p.len()
			}
			for i := uint64(0); i < n; i++ {
				buf[i] = p.ring[(p.readIdx+i)&p.mask]
			}
			p.readIdx += n
			p.mu.Unlock()

			for i := uint64(0); i < n; i++ {
				p.writeSem.Signal()
			}
			p.poll.WakeAll()
			return int(n), nil
		}
		if p.writeClosed {
			p.mu.Unlock()
			return 0, nil
		}
		p.mu.Unlock()
		p.readSem.Wait()
	}
}

// CloseRead marks the read end closed: subsequent writes fail with
// ErrBrokenPipe, and all waiters on both ends are woken.
func (p *Pipe) CloseRead() {
	p.mu.Lock()
	p.readClosed = true
	p.mu.Unlock()
	p.writeSem.Signal()
	p.poll.WakeAll()
}

// CloseWrite marks the write end closed: subsequent reads on an empty
// pipe return EOF, and all waiters are woken.
func (p *Pipe) CloseWrite() {
	p.mu.Lock()
	p.writeClosed = true
	p.mu.Unlock()
	p.readSem.Signal()
	p.poll.WakeAll()
}

// Poll returns the pipe's poll wait-queue for registering a poller (§4.4).
func (p *Pipe) Poll() *ksync.PollWaitQueue { return &p.poll }

// Create builds the (read_node, write_node) pair named in §4.4's
// `create_pipe()` contract, each wrapping the same underlying Pipe.
func Create(capacity int) (readNode, writeNode *vfsnode.Node) {
	p := New(capacity)
	readNode = vfsnode.New("pipe-r", vfsnode.FlagPipe, &readEnd{p: p})
	writeNode = vfsnode.New("pipe-w", vfsnode.FlagPipe, &writeEnd{p: p})
	return readNode, writeNode
}

type readEnd struct {
	vfsnode.NopOps
	p *Pipe
}

func (r *readEnd) Read(buf []byte, off int64) (int, error) { return r.p.Read(buf) }
func (r *readEnd) Close() error                              { r.p.CloseRead(); return nil }

type writeEnd struct {
	vfsnode.NopOps
	p *Pipe
}

func (w *writeEnd) Write(buf []byte, off int64) (int, error) { return w.p.Write(buf) }
func (w *writeEnd) Close() error                               { w.p.CloseWrite(); return nil }
