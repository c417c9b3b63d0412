package shmfs

import (
	"fmt"
	"sync"

	"github.com/yula1234/yulaos/internal/pmm"
	"github.com/yula1234/yulaos/internal/vfsnode"
)

// Registry is the named shm-object registry from §3/§4.4:
// insert-unique on create, retain-and-return on open, name-only removal
// on unlink. Grounded on original_source/src/kernel/shm.cpp's
// `insert_unique` / `find_and_retain` / `remove` trio.
type Registry struct {
	mu      sync.Mutex
	objects map[string]*Object
	alloc   *pmm.Allocator
}

// NewRegistry creates an empty registry backed by alloc for page
// allocation.
func NewRegistry(alloc *pmm.Allocator) *Registry {
	return &Registry{objects: make(map[string]*Object), alloc: alloc}
}

// CreateNamed allocates a new object of size bytes and installs it under
// name, failing if the name is already taken — §4.4's `create_named`.
func (r *Registry) CreateNamed(name string, size uint32) (*vfsnode.Node, error) {
	if len(name) == 0 || len(name) > 31 {
		return nil, fmt.Errorf("shmfs: invalid name length %d", len(name))
	}
	r.mu.Lock()
	if _, exists := r.objects[name]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("shmfs: name %q already exists", name)
	}
	r.mu.Unlock()

	obj, err := newObject(size, r.alloc)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.objects[name]; exists {
		r.mu.Unlock()
		obj.release()
		return nil, fmt.Errorf("shmfs: name %q already exists", name)
	}
	obj.retain() // the registry entry itself is a reference, per §4.4
	r.objects[name] = obj
	r.mu.Unlock()

	return NodeFor(name, obj), nil
}

// OpenNamed retains and returns a new node referencing the same page
// list as the object registered under name — §4.4's `open_named`.
func (r *Registry) OpenNamed(name string) (*vfsnode.Node, error) {
	r.mu.Lock()
	obj, ok := r.objects[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("shmfs: no such name %q", name)
	}
	obj.retain()
	return NodeFor(name, obj), nil
}

// Unlink removes name from the registry without destroying the backing
// object — it persists until every handle closes, per §4.4.
func (r *Registry) Unlink(name string) error {
	r.mu.Lock()
	obj, ok := r.objects[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("shmfs: no such name %q", name)
	}
	delete(r.objects, name)
	r.mu.Unlock()
	obj.release()
	return nil
}

// Len reports the number of currently registered names (tests only).
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}
