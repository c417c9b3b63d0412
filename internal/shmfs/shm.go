// Package shmfs implements page-backed shared-memory objects and the
// global named registry over them, per §3/§4.4. Grounded on
// original_source/src/kernel/shm.cpp: page-count-from-byte-size rounding,
// zero-filled pages on creation, and the insert-unique/find-and-retain/
// remove named-registry contract (there realized over a lazily
// initialized singleton guarded by an atomic state machine; here realized
// as a constructor-created *Registry per internal/sched-and-friends'
// "named registries are constructed, not global" decision, see DESIGN.md).
package shmfs

import (
	"fmt"
	"sync"

	"github.com/yula1234/yulaos/internal/constants"
	"github.com/yula1234/yulaos/internal/pmm"
	"github.com/yula1234/yulaos/internal/vfsnode"
)

// Object is a page-backed shared-memory object: a list of physical page
// addresses, byte size, and an atomic refcount (realized here as a plain
// counter guarded by the Object's own mutex). Pages are zero-filled on
// creation (§4.4).
type Object struct {
	Size      uint32
	PageAddrs []pmm.PhysAddr

	mu       sync.Mutex
	pages    [][]byte // byte-addressable backing; see DESIGN.md's pmm/shmfs split
	refcount int32

	alloc *pmm.Allocator
}

func newObject(size uint32, alloc *pmm.Allocator) (*Object, error) {
	if size == 0 {
		return nil, fmt.Errorf("shmfs: size must be > 0")
	}
	pageCount := (size + constants.PageSize - 1) / constants.PageSize

	addrs := make([]pmm.PhysAddr, 0, pageCount)
	pages := make([][]byte, 0, pageCount)
	for i := uint32(0); i < pageCount; i++ {
		addr, ok := alloc.AllocPages(0)
		if !ok {
			for _, a := range addrs {
				_ = alloc.FreePages(a, 0)
			}
			return nil, fmt.Errorf("shmfs: out of memory allocating page %d/%d", i, pageCount)
		}
		addrs = append(addrs, addr)
		pages = append(pages, make([]byte, constants.PageSize))
	}

	return &Object{Size: size, PageAddrs: addrs, pages: pages, refcount: 1, alloc: alloc}, nil
}

// ReadAt/WriteAt treat the object's pages as one flat byte array, the view
// a VFS node or a compositor surface mapping needs.
func (o *Object) ReadAt(p []byte, off int64) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rw(p, off, false)
}

func (o *Object) WriteAt(p []byte, off int64) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rw(p, off, true)
}

func (o *Object) rw(p []byte, off int64, write bool) (int, error) {
	if off < 0 || off >= int64(o.Size) {
		return 0, nil
	}
	total := 0
	for total < len(p) {
		pos := off + int64(total)
		if pos >= int64(o.Size) {
			break
		}
		page := pos / constants.PageSize
		within := pos % constants.PageSize
		var n int
		if write {
			n = copy(o.pages[page][within:], p[total:])
		} else {
			n = copy(p[total:], o.pages[page][within:])
		}
		total += n
	}
	return total, nil
}

func (o *Object) retain() {
	o.mu.Lock()
	o.refcount++
	o.mu.Unlock()
}

func (o *Object) release() {
	o.mu.Lock()
	o.refcount--
	dead := o.refcount <= 0
	o.mu.Unlock()
	if dead {
		for _, a := range o.PageAddrs {
			_ = o.alloc.FreePages(a, 0)
		}
	}
}

// Refcount reports the current refcount (tests only).
func (o *Object) Refcount() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.refcount
}

// NodeFor wraps obj in a vfsnode.Node whose release drops one reference to
// obj, matching "the object persists until the last VFS handle closes".
func NodeFor(name string, obj *Object) *vfsnode.Node {
	n := vfsnode.New(name, vfsnode.FlagSHM, &shmOps{obj: obj})
	n.Size = int64(obj.Size)
	n.OnRelease = obj.release
	return n
}

type shmOps struct {
	vfsnode.NopOps
	obj *Object
}

func (s *shmOps) Read(p []byte, off int64) (int, error)  { return s.obj.ReadAt(p, off) }
func (s *shmOps) Write(p []byte, off int64) (int, error) { return s.obj.WriteAt(p, off) }

// Create allocates an anonymous shared-memory object of size bytes,
// matching §4.4's `create(size)`, without installing it in any registry.
func Create(size uint32, alloc *pmm.Allocator) (*vfsnode.Node, error) {
	obj, err := newObject(size, alloc)
	if err != nil {
		return nil, err
	}
	return NodeFor("shm", obj), nil
}
