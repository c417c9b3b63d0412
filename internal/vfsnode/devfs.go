package vfsnode

import (
	"fmt"
	"sync"

	"github.com/yula1234/yulaos/internal/constants"
)

// Devfs is the fixed-capacity name→node table looked up under /dev/, per
// §4.4's "fixed-capacity table of pointers to statically or dynamically
// registered nodes". Unlike the named-IPC or shm registries (which own
// insert-unique semantics of their own), devfs simply rejects a duplicate
// or out-of-capacity registration.
type Devfs struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	cap   int
}

// NewDevfs creates an empty devfs table with the given capacity (the
// specification's DevfsCapacity constant by default).
func NewDevfs(capacity int) *Devfs {
	if capacity <= 0 {
		capacity = constants.DevfsCapacity
	}
	return &Devfs{nodes: make(map[string]*Node), cap: capacity}
}

// Register publishes node under name. Fails if the table is full or the
// name is already taken.
func (d *Devfs) Register(name string, node *Node) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.nodes[name]; exists {
		return fmt.Errorf("vfsnode: devfs: %q already registered", name)
	}
	if len(d.nodes) >= d.cap {
		return fmt.Errorf("vfsnode: devfs: table full (cap=%d)", d.cap)
	}
	d.nodes[name] = node
	return nil
}

// Lookup returns the node registered under name, if any.
func (d *Devfs) Lookup(name string) (*Node, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.nodes[name]
	return n, ok
}

// Unregister removes name from the table without releasing the node; the
// caller is responsible for the node's remaining refcount.
func (d *Devfs) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.nodes, name)
}

// Len reports the number of registered nodes.
func (d *Devfs) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.nodes)
}
