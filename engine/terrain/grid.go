// Package terrain holds the static description of the streamed terrain: the chunk grid,
// the LOD distance table, chunk meshes and the GPU-facing struct layouts shared by the
// streaming manager, the mesh sources and the GPU buffer uploader.
package terrain

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord identifies one cell of the chunk grid. X runs along world X and Y along world Z.
type ChunkCoord struct {
	X int
	Y int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Grid describes the fixed square grid of terrain chunks.
type Grid struct {
	// Size is the number of chunks along each side.
	Size int
	// ChunkWorldSize is the world-space edge length of one chunk.
	ChunkWorldSize float32
	// MaxHeight is the highest terrain elevation, used for analytic chunk bounds.
	MaxHeight float32
}

// DefaultGrid returns a 64x64 grid of 64-unit chunks with a 512-unit height range.
func DefaultGrid() Grid {
	return Grid{
		Size:           64,
		ChunkWorldSize: 64,
		MaxHeight:      512,
	}
}

// TotalChunks returns Size².
func (g Grid) TotalChunks() int {
	return g.Size * g.Size
}

// Contains reports whether c lies on the grid.
func (g Grid) Contains(c ChunkCoord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Size && c.Y < g.Size
}

// Index converts a chunk coordinate to its flat index x*Size + y.
// The result is meaningless for coordinates outside the grid.
func (g Grid) Index(c ChunkCoord) int {
	return c.X*g.Size + c.Y
}

// Coord converts a flat index back to a chunk coordinate.
func (g Grid) Coord(index int) ChunkCoord {
	return ChunkCoord{X: index / g.Size, Y: index % g.Size}
}

// WorldToChunk returns the chunk containing the world position, clamped to the grid.
//
// Parameters:
//   - pos: world-space position; Y (height) is ignored
//
// Returns:
//   - ChunkCoord: the containing chunk
func (g Grid) WorldToChunk(pos mgl32.Vec3) ChunkCoord {
	clampAxis := func(v float32) int {
		i := int(math.Floor(float64(v / g.ChunkWorldSize)))
		return max(0, min(g.Size-1, i))
	}
	return ChunkCoord{X: clampAxis(pos[0]), Y: clampAxis(pos[2])}
}

// ChunkBounds returns the analytic bounds of a chunk spanning the full height range.
func (g Grid) ChunkBounds(c ChunkCoord) common.AABB {
	x0 := float32(c.X) * g.ChunkWorldSize
	z0 := float32(c.Y) * g.ChunkWorldSize
	return common.AABB{
		Min: mgl32.Vec3{x0, 0, z0},
		Max: mgl32.Vec3{x0 + g.ChunkWorldSize, g.MaxHeight, z0 + g.ChunkWorldSize},
	}
}

// ChunkCenter returns the analytic center of a chunk at half the height range.
func (g Grid) ChunkCenter(c ChunkCoord) mgl32.Vec3 {
	return g.ChunkBounds(c).Center()
}

// ChunksInRadius returns every chunk within a square of the given radius (in chunks)
// around center, clipped to the grid, in ascending flat-index order.
//
// Parameters:
//   - center: the chunk at the middle of the square
//   - radius: half-width of the square in chunks
//
// Returns:
//   - []ChunkCoord: the chunks inside the square
func (g Grid) ChunksInRadius(center ChunkCoord, radius int) []ChunkCoord {
	x0, x1 := max(0, center.X-radius), min(g.Size-1, center.X+radius)
	y0, y1 := max(0, center.Y-radius), min(g.Size-1, center.Y+radius)
	if x0 > x1 || y0 > y1 {
		return nil
	}
	out := make([]ChunkCoord, 0, (x1-x0+1)*(y1-y0+1))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			out = append(out, ChunkCoord{X: x, Y: y})
		}
	}
	return out
}
