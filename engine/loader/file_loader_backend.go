package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
)

// fileLoaderBackend reads chunk mesh files from a directory.
type fileLoaderBackend struct {
	directory string
}

var _ loaderBackend = &fileLoaderBackend{}

func newFileLoaderBackend(directory string) *fileLoaderBackend {
	return &fileLoaderBackend{directory: directory}
}

func (b *fileLoaderBackend) load(coord terrain.ChunkCoord, lod int) (*terrain.ChunkMesh, error) {
	path := filepath.Join(b.directory, ChunkMeshFileName(coord, lod))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mesh, err := ReadChunkMesh(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if mesh.Coord != coord || mesh.LOD != lod {
		return nil, fmt.Errorf("%s: %w: file holds chunk %s LOD%d", path, terrain.ErrInvalidMesh, mesh.Coord, mesh.LOD)
	}
	return mesh, nil
}
