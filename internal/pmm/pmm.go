// Package pmm implements the buddy allocator that backs every page-granular
// allocation in the kernel systems layer (C1).
//
// Grounded on original_source/src/mm/pmm.cpp: one descriptor per physical
// page, an array of free-area lists indexed by order 0..PmmMaxOrder, and
// the split-on-alloc / coalesce-on-free buddy algorithm. Physical addresses
// are a newtype disjoint from plain integers (DESIGN NOTES §9) so callers
// cannot accidentally treat a PFN as a byte offset into the wrong arena.
package pmm

import (
	"fmt"
	"sync"

	"github.com/yula1234/yulaos/internal/constants"
	"github.com/yula1234/yulaos/internal/logging"
)

// PhysAddr is a physical address, disjoint from any virtual/byte-slice
// address space. It is page_index * PageSize.
type PhysAddr uint64

// PageFlags mirrors the C `flags` bitfield on a page descriptor.
type PageFlags uint8

const (
	FlagFree PageFlags = 1 << iota
	FlagUsed
	FlagKernel
	FlagDMA
)

// Page is one physical page descriptor. Prev/Next are slice indices into
// the allocator's descriptor array rather than pointers, per the Go
// translation of the original's intrusive doubly linked free lists.
type Page struct {
	Flags    PageFlags
	Order    uint32
	RefCount uint32

	prev int32
	next int32

	// Slab bookkeeping, carried for parity with the original descriptor;
	// unused until a slab allocator is layered on top of pmm.
	SlabCache uintptr
	Freelist  uintptr
	Objects   uint32
}

const noIndex int32 = -1

type freeArea struct {
	head  int32
	count uint32
}

// Allocator is a buddy allocator over a flat physical page array.
type Allocator struct {
	mu sync.Mutex

	pages     []Page
	freeAreas [constants.PmmMaxOrder + 1]freeArea

	totalPages uint32
	usedPages  uint32

	logger *logging.Logger
}

// New creates an allocator managing totalPages physical pages, with the
// first reservedPages already KERNEL/USED (the kernel image, its
// descriptor array, and anything else below the first free PFN).
func New(totalPages, reservedPages uint32, logger *logging.Logger) *Allocator {
	if logger == nil {
		logger = logging.Default()
	}
	a := &Allocator{
		pages:      make([]Page, totalPages),
		totalPages: totalPages,
		usedPages:  totalPages,
		logger:     logger,
	}
	for i := range a.freeAreas {
		a.freeAreas[i] = freeArea{head: noIndex}
	}

	if reservedPages > totalPages {
		reservedPages = totalPages
	}
	for i := uint32(0); i < reservedPages; i++ {
		a.pages[i].Flags = FlagUsed | FlagKernel
		a.pages[i].RefCount = 1
		a.pages[i].Order = 0
	}
	for i := reservedPages; i < totalPages; i++ {
		a.pages[i].Flags = FlagUsed
	}

	// Split the remaining range into: misaligned order-0 prefix, a body of
	// maximally aligned order-max blocks, and an order-0 suffix — exactly
	// the three-phase walk in pmm.cpp's init().
	const maxBlock = uint32(1) << constants.PmmMaxOrder
	i := reservedPages
	for i < totalPages && (i&(maxBlock-1)) != 0 {
		a.freePagesUnlocked(PhysAddr(i)*constants.PageSize, 0)
		i++
	}
	for i+maxBlock <= totalPages {
		page := &a.pages[i]
		page.Flags = FlagFree
		page.Order = constants.PmmMaxOrder
		page.RefCount = 0
		a.listAdd(constants.PmmMaxOrder, int32(i))
		a.usedPages -= maxBlock
		i += maxBlock
	}
	for i < totalPages {
		a.freePagesUnlocked(PhysAddr(i)*constants.PageSize, 0)
		i++
	}

	return a
}

// NewFromBytes sizes an allocator from a usable memory span, matching the
// original's `mem_size / PAGE_SIZE` total-page computation. kernelEndAddr
// is rounded up to a page and everything below it is reserved.
func NewFromBytes(memSize, kernelEndAddr uint64, logger *logging.Logger) *Allocator {
	total := uint32(memSize / constants.PageSize)
	reserved := uint32((kernelEndAddr + constants.PageSize - 1) / constants.PageSize)
	return New(total, reserved, logger)
}

// AllocPages allocates 2^order contiguous pages, returning the physical
// address of the first page. Returns ok=false on OOM or an out-of-range
// order — never panics for exhaustion, per §4.1's "no panic" failure mode.
func (a *Allocator) AllocPages(order uint32) (PhysAddr, bool) {
	if order > constants.PmmMaxOrder {
		return 0, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cur := order
	for cur <= constants.PmmMaxOrder && a.freeAreas[cur].head == noIndex {
		cur++
	}
	if cur > constants.PmmMaxOrder {
		return 0, false
	}

	pfn := a.freeAreas[cur].head
	a.listRemove(cur, pfn)

	page := &a.pages[pfn]
	page.Flags |= FlagUsed
	page.Flags &^= FlagFree
	page.RefCount = 1
	page.SlabCache, page.Freelist, page.Objects = 0, 0, 0

	for cur > order {
		cur--
		buddyPFN := pfn + int32(1<<cur)
		buddy := &a.pages[buddyPFN]
		*buddy = Page{Flags: FlagFree, Order: cur, prev: noIndex, next: noIndex}
		a.listAdd(cur, buddyPFN)
	}

	page.Order = order
	a.usedPages += 1 << order

	return PhysAddr(pfn) * constants.PageSize, true
}

// FreePages returns a previously allocated range to the allocator,
// coalescing with its buddy repeatedly while possible. Double-frees and
// frees at the wrong order are rejected rather than corrupting state,
// satisfying the "defensively detected" requirement in §4.1.
func (a *Allocator) FreePages(addr PhysAddr, order uint32) error {
	if order > constants.PmmMaxOrder {
		return fmt.Errorf("pmm: free at invalid order %d", order)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	pfn := int32(addr / constants.PageSize)
	if pfn < 0 || pfn >= int32(a.totalPages) {
		return fmt.Errorf("pmm: free of out-of-range address %#x", addr)
	}
	page := &a.pages[pfn]
	if page.Flags&FlagUsed == 0 {
		return fmt.Errorf("pmm: double free at %#x order %d", addr, order)
	}
	if page.Order != order {
		return fmt.Errorf("pmm: free at mismatched order %d (allocated at %d)", order, page.Order)
	}

	a.freePagesUnlocked(addr, order)
	return nil
}

func (a *Allocator) freePagesUnlocked(addr PhysAddr, order uint32) {
	pfn := int32(addr / constants.PageSize)
	if pfn < 0 || pfn >= int32(a.totalPages) {
		return
	}
	page := &a.pages[pfn]
	if page.Flags&FlagUsed == 0 {
		return
	}

	a.usedPages -= 1 << order

	for order < constants.PmmMaxOrder {
		buddyPFN := pfn ^ int32(1<<order)
		if buddyPFN < 0 || buddyPFN >= int32(a.totalPages) {
			break
		}
		buddy := &a.pages[buddyPFN]
		if buddy.Flags&FlagUsed != 0 {
			break
		}
		if buddy.Order != order {
			break
		}
		a.listRemove(order, buddyPFN)
		buddy.Order = 0
		pfn &= buddyPFN
		page = &a.pages[pfn]
		order++
	}

	*page = Page{Flags: FlagFree, Order: order, prev: noIndex, next: noIndex}
	a.listAdd(order, pfn)
}

func (a *Allocator) listAdd(order uint32, pfn int32) {
	fa := &a.freeAreas[order]
	a.pages[pfn].next = fa.head
	a.pages[pfn].prev = noIndex
	if fa.head != noIndex {
		a.pages[fa.head].prev = pfn
	}
	fa.head = pfn
	fa.count++
}

func (a *Allocator) listRemove(order uint32, pfn int32) {
	fa := &a.freeAreas[order]
	page := &a.pages[pfn]
	if page.prev != noIndex {
		a.pages[page.prev].next = page.next
	} else {
		fa.head = page.next
	}
	if page.next != noIndex {
		a.pages[page.next].prev = page.prev
	}
	page.next, page.prev = noIndex, noIndex
	fa.count--
}

// FreeListLen reports how many blocks currently sit on the order-k free
// list — used by tests asserting invariant 1 and scenario S3's coalescing.
func (a *Allocator) FreeListLen(order uint32) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if order > constants.PmmMaxOrder {
		return 0
	}
	return a.freeAreas[order].count
}

// TotalBlocks / UsedBlocks / FreeBlocks report page counts, satisfying
// invariant 2: Total == Used + Free at all times.
func (a *Allocator) TotalBlocks() uint32 {
	return a.totalPages
}

func (a *Allocator) UsedBlocks() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usedPages
}

func (a *Allocator) FreeBlocks() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalPages - a.usedPages
}

// AllocBlock / FreeBlock are order-0 convenience wrappers, mirroring
// pmm_alloc_block/pmm_free_block.
func (a *Allocator) AllocBlock() (PhysAddr, bool) { return a.AllocPages(0) }
func (a *Allocator) FreeBlock(addr PhysAddr) error { return a.FreePages(addr, 0) }
