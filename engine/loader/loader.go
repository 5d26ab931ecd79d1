// Package loader provides the terrain chunk mesh sources consumed by the streaming manager:
// a file backend reading baked chunk mesh files and a procedural heightfield backend.
package loader

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
)

// LoaderBackendType identifies where chunk meshes come from.
type LoaderBackendType int

const (
	// BackendTypeFile reads zstd-compressed chunk mesh files from a directory.
	BackendTypeFile LoaderBackendType = iota
	// BackendTypeProcedural generates heightfield meshes from Perlin noise.
	BackendTypeProcedural
)

// MeshSource supplies the geometry of one chunk at one LOD.
type MeshSource interface {
	// LoadChunkMesh returns the mesh of a chunk at a LOD. Indices are relative to the mesh's
	// own vertices.
	//
	// Parameters:
	//   - coord: the chunk to load
	//   - lod: the level of detail
	//
	// Returns:
	//   - *terrain.ChunkMesh: the validated mesh
	//   - error: error if the mesh could not be produced
	LoadChunkMesh(coord terrain.ChunkCoord, lod int) (*terrain.ChunkMesh, error)
}

type meshKey struct {
	coord terrain.ChunkCoord
	lod   int
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.Mutex

	backend loaderBackend

	cache      map[meshKey]*terrain.ChunkMesh
	cacheOrder []meshKey
	cacheSize  int

	grid      terrain.Grid
	lodCount  int
	directory string
	noise     NoiseSettings

	logger *slog.Logger
}

// Loader is a MeshSource with an optional bounded mesh cache in front of its backend.
// It is safe for concurrent use.
type Loader interface {
	MeshSource

	// Get returns a cached mesh without touching the backend.
	//
	// Parameters:
	//   - coord: the chunk
	//   - lod: the level of detail
	//
	// Returns:
	//   - *terrain.ChunkMesh: the cached mesh or nil
	//   - bool: whether the mesh was cached
	Get(coord terrain.ChunkCoord, lod int) (*terrain.ChunkMesh, bool)

	// CacheLen returns the number of cached meshes.
	CacheLen() int

	// ClearCache drops every cached mesh.
	ClearCache()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the mesh backend to use (BackendTypeFile or BackendTypeProcedural)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache:    make(map[meshKey]*terrain.ChunkMesh),
		grid:     terrain.DefaultGrid(),
		lodCount: terrain.DefaultLODTable().Count(),
		noise:    DefaultNoiseSettings(),
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(l)
	}
	l.logger = l.logger.With("component", "terrain.loader")

	switch backendType {
	case BackendTypeFile:
		l.backend = newFileLoaderBackend(l.directory)
	case BackendTypeProcedural:
		l.backend = newProceduralLoaderBackend(l.grid, l.lodCount, l.noise)
	}
	return l
}

func (l *loader) LoadChunkMesh(coord terrain.ChunkCoord, lod int) (*terrain.ChunkMesh, error) {
	if lod < 0 || lod >= l.lodCount {
		return nil, fmt.Errorf("loader: chunk %s LOD%d outside %d LODs", coord, lod, l.lodCount)
	}
	if !l.grid.Contains(coord) {
		return nil, fmt.Errorf("loader: chunk %s outside the %dx%d grid", coord, l.grid.Size, l.grid.Size)
	}
	if mesh, ok := l.Get(coord, lod); ok {
		return mesh, nil
	}

	mesh, err := l.backend.load(coord, lod)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %s LOD%d: %w", coord, lod, err)
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	l.logger.Debug("loaded chunk mesh", "chunk", coord.String(), "lod", lod, "vertices", len(mesh.Vertices), "indices", len(mesh.Indices))

	l.store(meshKey{coord: coord, lod: lod}, mesh)
	return mesh, nil
}

func (l *loader) Get(coord terrain.ChunkCoord, lod int) (*terrain.ChunkMesh, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	mesh, ok := l.cache[meshKey{coord: coord, lod: lod}]
	return mesh, ok
}

// store caches a mesh, dropping the oldest entry once the cache is full.
func (l *loader) store(key meshKey, mesh *terrain.ChunkMesh) {
	if l.cacheSize <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.cache[key]; ok {
		return
	}
	if len(l.cacheOrder) >= l.cacheSize {
		oldest := l.cacheOrder[0]
		l.cacheOrder = l.cacheOrder[1:]
		delete(l.cache, oldest)
	}
	l.cache[key] = mesh
	l.cacheOrder = append(l.cacheOrder, key)
}

func (l *loader) CacheLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

func (l *loader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.cache)
	l.cacheOrder = l.cacheOrder[:0]
}
