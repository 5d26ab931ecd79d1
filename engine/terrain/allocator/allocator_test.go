package allocator

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants verifies that free blocks never overlap, stay in range, and that
// used + free always equals capacity.
func checkInvariants(t *testing.T, a Allocator) {
	t.Helper()
	blocks := a.FreeBlocks()
	var freeTotal uint32
	for i, b := range blocks {
		require.NotZero(t, b.Size, "free block %d has zero size", i)
		require.LessOrEqual(t, b.End(), a.TotalSpace(), "free block %d out of range", i)
		if i > 0 {
			require.LessOrEqual(t, blocks[i-1].End(), b.Offset, "free blocks %d and %d overlap", i-1, i)
		}
		freeTotal += b.Size
	}
	require.Equal(t, a.FreeSpace(), freeTotal)
	require.Equal(t, a.TotalSpace(), a.UsedSpace()+a.FreeSpace())
}

func TestAllocateFromEmpty(t *testing.T) {
	a := NewAllocator(1000, "vertex")

	off, ok := a.Allocate(100)
	require.True(t, ok)
	assert.Equal(t, uint32(0), off)
	assert.Equal(t, uint32(100), a.UsedSpace())
	assert.Equal(t, uint32(900), a.FreeSpace())
	assert.Equal(t, 1, a.FragmentCount())
	assert.Equal(t, uint32(900), a.LargestFreeBlock())
	checkInvariants(t, a)
}

func TestAllocateExactFit(t *testing.T) {
	a := NewAllocator(64, "index")

	off, ok := a.Allocate(64)
	require.True(t, ok)
	assert.Equal(t, uint32(0), off)
	assert.Equal(t, 0, a.FragmentCount())
	assert.Equal(t, uint32(0), a.LargestFreeBlock())
	assert.False(t, a.CanAllocate(1))
	checkInvariants(t, a)
}

func TestAllocateFailureLeavesStateUntouched(t *testing.T) {
	a := NewAllocator(100, "vertex", WithDefragmentInterval(1000))

	first, ok := a.Allocate(40)
	require.True(t, ok)
	_, ok = a.Allocate(40)
	require.True(t, ok)
	require.NoError(t, a.Free(first, 40))

	// 60 free in two blocks of 40 and 20, neither fits 50
	before := a.FreeBlocks()
	used := a.UsedSpace()

	off, ok := a.Allocate(50)
	assert.False(t, ok)
	assert.Equal(t, InvalidOffset, off)
	assert.Equal(t, before, a.FreeBlocks())
	assert.Equal(t, used, a.UsedSpace())
	checkInvariants(t, a)
}

func TestAllocateZeroSize(t *testing.T) {
	a := NewAllocator(10, "vertex")
	off, ok := a.Allocate(0)
	assert.False(t, ok)
	assert.Equal(t, InvalidOffset, off)
	assert.Equal(t, uint32(0), a.UsedSpace())
}

func TestFreeValidation(t *testing.T) {
	a := NewAllocator(100, "vertex")
	off, ok := a.Allocate(30)
	require.True(t, ok)

	tests := []struct {
		name   string
		offset uint32
		size   uint32
		err    error
	}{
		{"zero size", off, 0, ErrZeroSize},
		{"past capacity", 90, 20, ErrOutOfRange},
		{"overflowing offset", InvalidOffset, 10, ErrOutOfRange},
		{"already free", 50, 10, ErrDoubleFree},
		{"straddles free space", 20, 20, ErrDoubleFree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := a.FreeBlocks()
			err := a.Free(tt.offset, tt.size)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, before, a.FreeBlocks())
			assert.Equal(t, uint32(30), a.UsedSpace())
		})
	}

	require.NoError(t, a.Free(off, 30))
	assert.ErrorIs(t, a.Free(off, 30), ErrOutOfRange, "freeing more than is used must fail")
	checkInvariants(t, a)
}

func TestDefragmentMergesAdjacentBlocks(t *testing.T) {
	a := NewAllocator(100, "vertex", WithDefragmentInterval(1000), WithFragmentThreshold(1000))

	offsets := make([]uint32, 0, 10)
	for i := 0; i < 10; i++ {
		off, ok := a.Allocate(10)
		require.True(t, ok)
		offsets = append(offsets, off)
	}
	for _, off := range offsets {
		require.NoError(t, a.Free(off, 10))
	}
	assert.Equal(t, 10, a.FragmentCount())
	assert.False(t, a.CanAllocate(20))

	a.Defragment()
	assert.Equal(t, 1, a.FragmentCount())
	assert.Equal(t, uint32(100), a.LargestFreeBlock())
	assert.True(t, a.CanAllocate(100))
	checkInvariants(t, a)
}

func TestDefragmentKeepsNonAdjacentBlocksApart(t *testing.T) {
	a := NewAllocator(30, "index", WithDefragmentInterval(1000))
	x, _ := a.Allocate(10)
	_, _ = a.Allocate(10)
	z, _ := a.Allocate(10)
	require.NoError(t, a.Free(x, 10))
	require.NoError(t, a.Free(z, 10))

	a.Defragment()
	assert.Equal(t, []Block{{Offset: 0, Size: 10}, {Offset: 20, Size: 10}}, a.FreeBlocks())
}

func TestAutomaticDefragmentOnInterval(t *testing.T) {
	a := NewAllocator(40, "vertex", WithDefragmentInterval(4), WithFragmentThreshold(1000))
	offs := make([]uint32, 4)
	for i := range offs {
		offs[i], _ = a.Allocate(10)
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, a.Free(offs[i], 10))
	}
	assert.Equal(t, 3, a.FragmentCount())

	require.NoError(t, a.Free(offs[3], 10))
	assert.Equal(t, 1, a.FragmentCount(), "fourth free should trigger a merge pass")
}

func TestAutomaticDefragmentOnThreshold(t *testing.T) {
	a := NewAllocator(100, "vertex", WithDefragmentInterval(1000), WithFragmentThreshold(2))
	offs := make([]uint32, 5)
	for i := range offs {
		offs[i], _ = a.Allocate(20)
	}
	require.NoError(t, a.Free(offs[0], 20))
	require.NoError(t, a.Free(offs[2], 20))
	assert.Equal(t, 2, a.FragmentCount())

	// a third fragment crosses the threshold; [20,40) joins its neighbours
	require.NoError(t, a.Free(offs[1], 20))
	assert.Equal(t, 1, a.FragmentCount())
	assert.Equal(t, uint32(60), a.LargestFreeBlock())
}

func TestReset(t *testing.T) {
	a := NewAllocator(50, "vertex")
	_, _ = a.Allocate(20)
	_, _ = a.Allocate(20)
	a.Reset()
	assert.Equal(t, uint32(0), a.UsedSpace())
	assert.Equal(t, []Block{{Offset: 0, Size: 50}}, a.FreeBlocks())
}

func TestRandomAllocateFreeRoundTrip(t *testing.T) {
	const capacity = 4096
	rng := rand.New(rand.NewSource(42))
	a := NewAllocator(capacity, "vertex", WithDefragmentInterval(7), WithFragmentThreshold(16))

	live := map[uint32]uint32{}
	for step := 0; step < 5000; step++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			size := uint32(rng.Intn(96) + 1)
			off, ok := a.Allocate(size)
			if !ok {
				assert.Equal(t, InvalidOffset, off)
				continue
			}
			for o, s := range live {
				overlap := off < o+s && o < off+size
				require.False(t, overlap, "step %d: [%d,%d) overlaps live [%d,%d)", step, off, off+size, o, o+s)
			}
			live[off] = size
		} else {
			keys := make([]uint32, 0, len(live))
			for k := range live {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
			off := keys[rng.Intn(len(keys))]
			require.NoError(t, a.Free(off, live[off]))
			delete(live, off)
		}
		checkInvariants(t, a)
	}

	for off, size := range live {
		require.NoError(t, a.Free(off, size))
	}
	a.Defragment()
	assert.Equal(t, []Block{{Offset: 0, Size: capacity}}, a.FreeBlocks())
	assert.Equal(t, uint32(0), a.UsedSpace())
}
