// Package allocator implements the free-list sub-allocator that carves variable sized regions
// out of a fixed-size linear GPU buffer. Offsets and sizes are expressed in elements (vertices or
// indices), never bytes; callers multiply by their stride when issuing uploads.
package allocator

import (
	"container/heap"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// InvalidOffset is returned by Allocate when no free block can satisfy the request.
const InvalidOffset uint32 = math.MaxUint32

var (
	// ErrZeroSize is returned when a zero-length block is freed.
	ErrZeroSize = errors.New("allocator: zero-size block")
	// ErrOutOfRange is returned when a freed block lies outside [0, capacity).
	ErrOutOfRange = errors.New("allocator: block out of range")
	// ErrDoubleFree is returned when a freed block overlaps space that is already free.
	ErrDoubleFree = errors.New("allocator: block overlaps free space")
)

// Block is a contiguous region of the managed range.
type Block struct {
	Offset uint32
	Size   uint32
}

// End returns the first element past the block.
func (b Block) End() uint32 {
	return b.Offset + b.Size
}

// Allocator manages a single linear range with a max-heap of free blocks.
// It is not safe for concurrent use; the streaming manager owns it exclusively.
type Allocator interface {
	// Allocate reserves a contiguous region of the given size from the largest free block.
	// A failed allocation leaves the allocator untouched.
	//
	// Parameters:
	//   - size: number of elements to reserve (must be > 0)
	//
	// Returns:
	//   - uint32: the start offset of the region, or InvalidOffset on failure
	//   - bool: true if the region was reserved
	Allocate(size uint32) (uint32, bool)

	// Free returns a previously allocated region to the free list.
	// Invalid frees are rejected and leave the allocator untouched.
	//
	// Parameters:
	//   - offset: start offset returned by Allocate
	//   - size: size passed to Allocate
	//
	// Returns:
	//   - error: ErrZeroSize, ErrOutOfRange or ErrDoubleFree when the block is invalid
	Free(offset, size uint32) error

	// Defragment merges adjacent free blocks. It is run automatically after a configurable
	// number of frees or when fragmentation crosses a threshold, and may be called directly.
	Defragment()

	// CanAllocate reports whether a request of the given size would succeed right now.
	//
	// Parameters:
	//   - size: number of elements
	//
	// Returns:
	//   - bool: true if the largest free block is at least size
	CanAllocate(size uint32) bool

	// UsedSpace returns the number of allocated elements.
	UsedSpace() uint32

	// FreeSpace returns the number of free elements across all blocks.
	FreeSpace() uint32

	// TotalSpace returns the capacity of the managed range.
	TotalSpace() uint32

	// FragmentCount returns the number of free blocks.
	FragmentCount() int

	// LargestFreeBlock returns the size of the largest free block, or 0 if the range is full.
	LargestFreeBlock() uint32

	// FreeBlocks returns a snapshot of the free list ordered by offset.
	FreeBlocks() []Block

	// Label returns the debug label given at construction.
	Label() string

	// Reset returns the allocator to its initial state with the whole range free.
	Reset()
}

type allocatorImpl struct {
	label    string
	capacity uint32
	used     uint32
	free     blockHeap

	fragmentThreshold int
	defragInterval    int
	freesSinceDefrag  int

	logger *slog.Logger
}

var _ Allocator = &allocatorImpl{}

// NewAllocator creates an Allocator over [0, capacity) with the whole range free.
//
// Parameters:
//   - capacity: size of the managed range in elements
//   - label: debug label used in log records
//   - options: functional options to tune the defragmentation cadence and logging
//
// Returns:
//   - Allocator: the newly created allocator
func NewAllocator(capacity uint32, label string, options ...AllocatorBuilderOption) Allocator {
	a := &allocatorImpl{
		label:             label,
		capacity:          capacity,
		fragmentThreshold: 64,
		defragInterval:    32,
		logger:            slog.Default(),
	}
	for _, opt := range options {
		opt(a)
	}
	a.logger = a.logger.With("component", "terrain.allocator", "label", label)
	a.Reset()
	return a
}

func (a *allocatorImpl) Allocate(size uint32) (uint32, bool) {
	if size == 0 || len(a.free) == 0 || a.free[0].Size < size {
		return InvalidOffset, false
	}

	root := &a.free[0]
	offset := root.Offset
	if root.Size == size {
		heap.Pop(&a.free)
	} else {
		root.Offset += size
		root.Size -= size
		heap.Fix(&a.free, 0)
	}
	a.used += size
	return offset, true
}

func (a *allocatorImpl) Free(offset, size uint32) error {
	if size == 0 {
		return ErrZeroSize
	}
	end := uint64(offset) + uint64(size)
	if end > uint64(a.capacity) || size > a.used {
		return fmt.Errorf("%w: [%d, %d) in %s of capacity %d", ErrOutOfRange, offset, end, a.label, a.capacity)
	}
	for _, b := range a.free {
		if offset < b.End() && b.Offset < uint32(end) {
			return fmt.Errorf("%w: [%d, %d) overlaps free [%d, %d) in %s", ErrDoubleFree, offset, end, b.Offset, b.End(), a.label)
		}
	}

	heap.Push(&a.free, Block{Offset: offset, Size: size})
	a.used -= size
	a.freesSinceDefrag++

	if a.freesSinceDefrag >= a.defragInterval || len(a.free) > a.fragmentThreshold {
		a.Defragment()
	}
	return nil
}

func (a *allocatorImpl) Defragment() {
	before := len(a.free)
	a.freesSinceDefrag = 0
	if before < 2 {
		return
	}

	blocks := []Block(a.free)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Offset < blocks[j].Offset })

	merged := blocks[:1]
	for _, b := range blocks[1:] {
		last := &merged[len(merged)-1]
		if last.End() == b.Offset {
			last.Size += b.Size
			continue
		}
		merged = append(merged, b)
	}

	a.free = blockHeap(merged)
	heap.Init(&a.free)

	if len(merged) != before {
		a.logger.Debug("defragmented free list", "before", before, "after", len(merged), "largest", a.LargestFreeBlock())
	}
}

func (a *allocatorImpl) CanAllocate(size uint32) bool {
	return size > 0 && a.LargestFreeBlock() >= size
}

func (a *allocatorImpl) UsedSpace() uint32 {
	return a.used
}

func (a *allocatorImpl) FreeSpace() uint32 {
	return a.capacity - a.used
}

func (a *allocatorImpl) TotalSpace() uint32 {
	return a.capacity
}

func (a *allocatorImpl) FragmentCount() int {
	return len(a.free)
}

func (a *allocatorImpl) LargestFreeBlock() uint32 {
	if len(a.free) == 0 {
		return 0
	}
	return a.free[0].Size
}

func (a *allocatorImpl) FreeBlocks() []Block {
	out := make([]Block, len(a.free))
	copy(out, a.free)
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

func (a *allocatorImpl) Label() string {
	return a.label
}

func (a *allocatorImpl) Reset() {
	a.used = 0
	a.freesSinceDefrag = 0
	a.free = a.free[:0]
	if a.capacity > 0 {
		a.free = append(a.free, Block{Offset: 0, Size: a.capacity})
	}
}

// blockHeap is a max-heap of free blocks keyed by size.
// Equal sizes prefer the lower offset so allocation order is deterministic.
type blockHeap []Block

func (h blockHeap) Len() int { return len(h) }

func (h blockHeap) Less(i, j int) bool {
	if h[i].Size != h[j].Size {
		return h[i].Size > h[j].Size
	}
	return h[i].Offset < h[j].Offset
}

func (h blockHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *blockHeap) Push(x any) {
	*h = append(*h, x.(Block))
}

func (h *blockHeap) Pop() any {
	old := *h
	n := len(old)
	b := old[n-1]
	*h = old[:n-1]
	return b
}
