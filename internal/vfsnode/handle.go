package vfsnode

import (
	"errors"
	"sync"
)

// ErrUnsupported is returned by an Ops method a node kind doesn't implement.
var ErrUnsupported = errors.New("vfsnode: operation not supported")

// HandleFlag mirrors the open-mode flags a file handle is created with.
type HandleFlag uint32

const (
	HandleReadable HandleFlag = 1 << iota
	HandleWritable
	HandleNonBlock
)

// Handle is a per-task open-file entry: an in-use flag, a Node reference,
// a read/write offset, and open flags, per §3's File handle model. Dup'd
// file descriptors share the same *Handle (not a copy), matching "dup'd
// file descriptors share the same underlying handle".
type Handle struct {
	mu sync.Mutex

	inUse  bool
	node   *Node
	offset int64
	flags  HandleFlag
}

// Open creates a handle over node (retaining it) and calls Ops.Open.
func Open(node *Node, flags HandleFlag) (*Handle, error) {
	node.Retain()
	if err := node.ops.Open(); err != nil {
		node.Release()
		return nil, err
	}
	return &Handle{inUse: true, node: node, flags: flags}, nil
}

// Node returns the handle's underlying node.
func (h *Handle) Node() *Node { return h.node }

// Dup returns a new *Handle descriptor sharing this handle's node, offset,
// and flags semantics by pointing at the same struct — callers that need
// independent FD table slots store the same *Handle pointer in two slots,
// exactly as the specification's "dup'd file descriptors share the same
// underlying handle" requires.
func (h *Handle) Dup() *Handle { return h }

// Read reads from the handle's current offset and advances it.
func (h *Handle) Read(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inUse {
		return 0, ErrClosed
	}
	n, err := h.node.ops.Read(p, h.offset)
	h.offset += int64(n)
	return n, err
}

// Write writes at the handle's current offset and advances it.
func (h *Handle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inUse {
		return 0, ErrClosed
	}
	n, err := h.node.ops.Write(p, h.offset)
	h.offset += int64(n)
	return n, err
}

// Ioctl forwards to the node's Ops.Ioctl.
func (h *Handle) Ioctl(cmd uint32, arg uintptr) (uintptr, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inUse {
		return 0, ErrClosed
	}
	return h.node.ops.Ioctl(cmd, arg)
}

// Close releases the handle's reference to its node. Safe to call more
// than once; only the first call has effect.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.inUse {
		return nil
	}
	h.inUse = false
	return h.node.Release()
}

// ErrClosed is returned by operations on an already-closed handle.
var ErrClosed = errors.New("vfsnode: handle closed")
