// Package vfsnode implements the unified node abstraction from §3/§4.4: a
// refcounted object with a small operation set, replacing the kernel's
// per-node ops-table-of-function-pointers with a Go interface — the
// translation the specification's own Design Notes §9 recommends, and the
// same shape as go-ublk's internal/interfaces.Backend (ReadAt/WriteAt/
// Size/Close), generalized to the VFS node's read/write/open/close/ioctl
// set.
package vfsnode

import (
	"sync/atomic"
)

// Flag is a bitmask of node kind/behavior flags (§3's `SHM | IPC_LISTEN |
// PIPE | DEVFS_ALLOC | …`).
type Flag uint32

const (
	FlagSHM Flag = 1 << iota
	FlagIPCListen
	FlagPipe
	FlagDevfsAlloc
)

// Ops is the operation set a node implementation provides, the Go-interface
// replacement for the C ops table named in §4.4. Any subset may be left
// unimplemented by embedding NopOps and overriding only what applies, the
// same "implement the interface you need" idiom go-ublk's optional
// DiscardBackend uses for TRIM/DISCARD.
type Ops interface {
	Read(p []byte, off int64) (n int, err error)
	Write(p []byte, off int64) (n int, err error)
	Open() error
	Close() error
	Ioctl(cmd uint32, arg uintptr) (uintptr, error)
}

// NopOps is an embeddable Ops that rejects every operation; node kinds that
// only need a subset (e.g. a listen node only needs Ioctl-free accept
// semantics reached through a type assertion) embed this and override.
type NopOps struct{}

func (NopOps) Read(p []byte, off int64) (int, error)          { return 0, ErrUnsupported }
func (NopOps) Write(p []byte, off int64) (int, error)         { return 0, ErrUnsupported }
func (NopOps) Open() error                                    { return nil }
func (NopOps) Close() error                                   { return nil }
func (NopOps) Ioctl(cmd uint32, arg uintptr) (uintptr, error) { return 0, ErrUnsupported }

// Node is one VFS node: name, flags, size, an atomic refcount, and the Ops
// implementation backing it, matching §3's VFS node data model.
type Node struct {
	Name  string // ≤31 chars, per §3
	Flags Flag
	Inode uint64
	Size  int64

	refcount int32
	ops      Ops

	// OnRelease is an optional callback invoked exactly once when refcount
	// reaches zero, after Ops.Close — the "optional private-release
	// callback" named in §3 (e.g. unlinking a shm registry entry, freeing
	// pmm-backed pages).
	OnRelease func()

	closed bool
}

// New creates a node with an initial refcount of 1, owned by the caller.
func New(name string, flags Flag, ops Ops) *Node {
	return &Node{Name: name, Flags: flags, ops: ops, refcount: 1}
}

// Ops returns the node's operation set.
func (n *Node) Ops() Ops { return n.ops }

// Retain bumps the refcount before publishing the node to another owner,
// per §3's ownership discipline ("retained before being published").
func (n *Node) Retain() {
	atomic.AddInt32(&n.refcount, 1)
}

// Refcount reports the current refcount (tests and introspection only).
func (n *Node) Refcount() int32 {
	return atomic.LoadInt32(&n.refcount)
}

// Release drops one reference; when it reaches zero, Ops.Close runs
// exactly once, followed by the release callback if set, per §3's
// invariant "close is called exactly once" and §4.4's devfs heap-free
// note for DEVFS_ALLOC nodes.
func (n *Node) Release() error {
	if atomic.AddInt32(&n.refcount, -1) > 0 {
		return nil
	}
	if n.closed {
		return nil
	}
	n.closed = true
	err := n.ops.Close()
	if n.OnRelease != nil {
		n.OnRelease()
	}
	return err
}
