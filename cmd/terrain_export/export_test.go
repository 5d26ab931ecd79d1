package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-terrain/engine/loader"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRoundTrip(t *testing.T) {
	grid := terrain.Grid{Size: 3, ChunkWorldSize: 32, MaxHeight: 40}
	procedural := loader.NewLoader(loader.BackendTypeProcedural, loader.WithGrid(grid), loader.WithLODCount(2))
	out := filepath.Join(t.TempDir(), "baked")

	result, err := exportJob{
		source:   procedural,
		grid:     grid,
		lodCount: 2,
		outDir:   out,
		workers:  4,
		logger:   slog.New(slog.DiscardHandler),
	}.run()
	require.NoError(t, err)
	assert.Equal(t, 18, result.Files)
	assert.Positive(t, result.Bytes)

	files := loader.NewLoader(loader.BackendTypeFile, loader.WithDirectory(out), loader.WithGrid(grid), loader.WithLODCount(2))
	for i := 0; i < grid.TotalChunks(); i++ {
		coord := grid.Coord(i)
		for lod := 0; lod < 2; lod++ {
			want, err := procedural.LoadChunkMesh(coord, lod)
			require.NoError(t, err)
			got, err := files.LoadChunkMesh(coord, lod)
			require.NoError(t, err)
			assert.Equal(t, want, got, "chunk %s LOD%d", coord, lod)
		}
	}
}

type brokenSource struct{}

var errBroken = errors.New("broken")

func (brokenSource) LoadChunkMesh(terrain.ChunkCoord, int) (*terrain.ChunkMesh, error) {
	return nil, errBroken
}

func TestExportReportsFailures(t *testing.T) {
	out := t.TempDir()
	result, err := exportJob{
		source:   brokenSource{},
		grid:     terrain.Grid{Size: 2, ChunkWorldSize: 8, MaxHeight: 1},
		lodCount: 2,
		outDir:   out,
		workers:  2,
		logger:   slog.New(slog.DiscardHandler),
	}.run()
	assert.ErrorIs(t, err, errBroken)
	assert.Zero(t, result.Files)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
