package loader

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDirectory sets the directory the file backend reads chunk mesh files from.
//
// Parameters:
//   - dir: the directory holding Render_LOD<lod>_<x>_<y>.tmsh files
//
// Returns:
//   - LoaderBuilderOption: a function that applies the directory option to a loader
func WithDirectory(dir string) LoaderBuilderOption {
	return func(l *loader) {
		l.directory = dir
	}
}

// WithGrid sets the chunk grid meshes are generated for and validated against.
//
// Parameters:
//   - grid: the terrain grid
//
// Returns:
//   - LoaderBuilderOption: a function that applies the grid option to a loader
func WithGrid(grid terrain.Grid) LoaderBuilderOption {
	return func(l *loader) {
		l.grid = grid
	}
}

// WithLODCount sets the number of LODs per chunk.
//
// Parameters:
//   - count: number of LODs including the always-resident one
//
// Returns:
//   - LoaderBuilderOption: a function that applies the LOD count option to a loader
func WithLODCount(count int) LoaderBuilderOption {
	return func(l *loader) {
		l.lodCount = count
	}
}

// WithNoise sets the heightfield parameters of the procedural backend.
//
// Parameters:
//   - settings: the noise settings
//
// Returns:
//   - LoaderBuilderOption: a function that applies the noise option to a loader
func WithNoise(settings NoiseSettings) LoaderBuilderOption {
	return func(l *loader) {
		l.noise = settings
	}
}

// WithCacheSize keeps up to size decoded meshes in memory. Zero disables the cache.
//
// Parameters:
//   - size: maximum number of cached meshes
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithCacheSize(size int) LoaderBuilderOption {
	return func(l *loader) {
		l.cacheSize = size
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}
