package streaming

import (
	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultActiveRadius is the half-width, in chunks, of the square evaluated around the camera.
const DefaultActiveRadius = 16

// ActiveChunkSet decides which chunks get a LOD evaluation this frame.
type ActiveChunkSet interface {
	// ActiveChunks returns the chunks to evaluate for a camera position.
	ActiveChunks(cameraPos mgl32.Vec3, radius int) []terrain.ChunkCoord
}

// RadiusActiveSet is every chunk within a square radius of the camera's chunk.
type RadiusActiveSet struct {
	Grid terrain.Grid
}

// ActiveChunks implements ActiveChunkSet.
func (s RadiusActiveSet) ActiveChunks(cameraPos mgl32.Vec3, radius int) []terrain.ChunkCoord {
	return s.Grid.ChunksInRadius(s.Grid.WorldToChunk(cameraPos), radius)
}

// FrustumSource supplies the current view frustum.
type FrustumSource interface {
	Frustum() common.Frustum
}

// FrustumActiveSet narrows the radius square to chunks whose bounds intersect the view
// frustum. The chunk under the camera is always included.
type FrustumActiveSet struct {
	Grid   terrain.Grid
	Source FrustumSource
}

// ActiveChunks implements ActiveChunkSet.
func (s FrustumActiveSet) ActiveChunks(cameraPos mgl32.Vec3, radius int) []terrain.ChunkCoord {
	center := s.Grid.WorldToChunk(cameraPos)
	all := s.Grid.ChunksInRadius(center, radius)
	if s.Source == nil {
		return all
	}
	f := s.Source.Frustum()
	out := all[:0]
	for _, c := range all {
		if c == center || f.IntersectsAABB(s.Grid.ChunkBounds(c)) {
			out = append(out, c)
		}
	}
	return out
}
