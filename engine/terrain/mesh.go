package terrain

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidMesh is returned when a chunk mesh is empty or references missing vertices.
var ErrInvalidMesh = errors.New("terrain: invalid chunk mesh")

// ChunkMesh is the decoded geometry of one chunk at one LOD.
// Indices are relative to the chunk's own vertex array.
type ChunkMesh struct {
	Coord    ChunkCoord
	LOD      int
	Vertices []GPUTerrainVertex
	Indices  []uint32
}

// VertexCount returns the number of vertices as the allocator's element unit.
func (m *ChunkMesh) VertexCount() uint32 {
	return uint32(len(m.Vertices))
}

// IndexCount returns the number of indices as the allocator's element unit.
func (m *ChunkMesh) IndexCount() uint32 {
	return uint32(len(m.Indices))
}

// VertexBytes returns the vertices in their GPU byte layout.
func (m *ChunkMesh) VertexBytes() []byte {
	return MarshalVertices(m.Vertices)
}

// IndexBytes returns the indices in their GPU byte layout.
func (m *ChunkMesh) IndexBytes() []byte {
	return MarshalIndices(m.Indices)
}

// Bounds returns the bounding box of the mesh's vertex positions.
func (m *ChunkMesh) Bounds() common.AABB {
	b := common.EmptyAABB()
	for i := range m.Vertices {
		b.Extend(mgl32.Vec3(m.Vertices[i].Position))
	}
	return b
}

// Validate checks that the mesh is non-empty, forms whole triangles and only references
// its own vertices.
//
// Returns:
//   - error: ErrInvalidMesh describing the first problem found, or nil
func (m *ChunkMesh) Validate() error {
	if len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return fmt.Errorf("%w: chunk %s LOD%d is empty", ErrInvalidMesh, m.Coord, m.LOD)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: chunk %s LOD%d has %d indices, not a triangle list", ErrInvalidMesh, m.Coord, m.LOD, len(m.Indices))
	}
	n := uint32(len(m.Vertices))
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: chunk %s LOD%d index %d references vertex %d of %d", ErrInvalidMesh, m.Coord, m.LOD, i, idx, n)
		}
	}
	return nil
}
