package loader

import "github.com/Carmen-Shannon/oxy-terrain/engine/terrain"

// loaderBackend produces raw chunk meshes. Concrete implementations (fileLoaderBackend,
// proceduralLoaderBackend) handle the source-specific details; validation and caching
// happen in loader.
type loaderBackend interface {
	// load produces the mesh of a chunk at a LOD.
	//
	// Parameters:
	//   - coord: the chunk to load
	//   - lod: the level of detail
	//
	// Returns:
	//   - *terrain.ChunkMesh: the mesh
	//   - error: error if the mesh could not be produced
	load(coord terrain.ChunkCoord, lod int) (*terrain.ChunkMesh, error)
}
