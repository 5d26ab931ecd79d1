package loader

import (
	"bytes"
	"io/fs"
	"testing"

	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallGrid() terrain.Grid {
	return terrain.Grid{Size: 4, ChunkWorldSize: 64, MaxHeight: 100}
}

func TestChunkMeshFileName(t *testing.T) {
	assert.Equal(t, "Render_LOD1_3_12.tmsh", ChunkMeshFileName(terrain.ChunkCoord{X: 3, Y: 12}, 1))
}

func TestChunkMeshRoundTrip(t *testing.T) {
	src := NewLoader(BackendTypeProcedural, WithGrid(smallGrid()))
	mesh, err := src.LoadChunkMesh(terrain.ChunkCoord{X: 2, Y: 1}, 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteChunkMesh(&buf, mesh))
	got, err := ReadChunkMesh(&buf)
	require.NoError(t, err)
	assert.Equal(t, mesh, got)
}

func compress(t *testing.T, payload []byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(payload)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return &buf
}

func TestReadChunkMeshRejectsBadInput(t *testing.T) {
	mesh := &terrain.ChunkMesh{
		Vertices: make([]terrain.GPUTerrainVertex, 3),
		Indices:  []uint32{0, 1, 2},
	}
	good := encodeChunkMesh(mesh)

	_, err := ReadChunkMesh(compress(t, []byte("NOPE and some more bytes here")))
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = ReadChunkMesh(compress(t, good[:len(good)-4]))
	assert.ErrorIs(t, err, ErrTruncated)

	future := append([]byte(nil), good...)
	future[4] = 9
	_, err = ReadChunkMesh(compress(t, future))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	procedural := NewLoader(BackendTypeProcedural, WithGrid(smallGrid()))
	coord := terrain.ChunkCoord{X: 1, Y: 3}
	mesh, err := procedural.LoadChunkMesh(coord, 1)
	require.NoError(t, err)
	_, err = WriteChunkMeshFile(dir, mesh)
	require.NoError(t, err)

	files := NewLoader(BackendTypeFile, WithDirectory(dir), WithGrid(smallGrid()))
	got, err := files.LoadChunkMesh(coord, 1)
	require.NoError(t, err)
	assert.Equal(t, mesh, got)

	_, err = files.LoadChunkMesh(coord, 0)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoaderRejectsOutOfRange(t *testing.T) {
	l := NewLoader(BackendTypeProcedural, WithGrid(smallGrid()), WithLODCount(2))
	_, err := l.LoadChunkMesh(terrain.ChunkCoord{X: 4, Y: 0}, 0)
	assert.Error(t, err)
	_, err = l.LoadChunkMesh(terrain.ChunkCoord{X: 0, Y: 0}, 2)
	assert.Error(t, err)
}

func TestProceduralIsDeterministic(t *testing.T) {
	a := NewLoader(BackendTypeProcedural, WithGrid(smallGrid()))
	b := NewLoader(BackendTypeProcedural, WithGrid(smallGrid()))
	coord := terrain.ChunkCoord{X: 3, Y: 2}

	ma, err := a.LoadChunkMesh(coord, 0)
	require.NoError(t, err)
	mb, err := b.LoadChunkMesh(coord, 0)
	require.NoError(t, err)
	assert.Equal(t, ma, mb)

	settings := DefaultNoiseSettings()
	settings.Seed++
	c := NewLoader(BackendTypeProcedural, WithGrid(smallGrid()), WithNoise(settings))
	mc, err := c.LoadChunkMesh(coord, 0)
	require.NoError(t, err)
	assert.NotEqual(t, ma.Vertices, mc.Vertices)
}

func TestProceduralMeshShape(t *testing.T) {
	g := smallGrid()
	l := NewLoader(BackendTypeProcedural, WithGrid(g))
	settings := DefaultNoiseSettings()

	for lod := 0; lod < 2; lod++ {
		res := settings.ResolutionAt(lod)
		mesh, err := l.LoadChunkMesh(terrain.ChunkCoord{X: 1, Y: 1}, lod)
		require.NoError(t, err)
		assert.Len(t, mesh.Vertices, (res+1)*(res+1))
		assert.Len(t, mesh.Indices, res*res*6)

		b := mesh.Bounds()
		assert.InDelta(t, 64, b.Min[0], 1e-3)
		assert.InDelta(t, 128, b.Max[0], 1e-3)
		assert.GreaterOrEqual(t, b.Min[1], float32(0))
		assert.LessOrEqual(t, b.Max[1], g.MaxHeight)
	}
	assert.Equal(t, 32, settings.ResolutionAt(0))
	assert.Equal(t, 8, settings.ResolutionAt(1))
	assert.Equal(t, 2, settings.ResolutionAt(2))
	assert.Equal(t, 1, settings.ResolutionAt(3))
}

func TestProceduralSeamsMatch(t *testing.T) {
	l := NewLoader(BackendTypeProcedural, WithGrid(smallGrid()))
	left, err := l.LoadChunkMesh(terrain.ChunkCoord{X: 0, Y: 0}, 0)
	require.NoError(t, err)
	right, err := l.LoadChunkMesh(terrain.ChunkCoord{X: 1, Y: 0}, 0)
	require.NoError(t, err)

	side := DefaultNoiseSettings().ResolutionAt(0) + 1
	for j := 0; j < side; j++ {
		edge := left.Vertices[(side-1)*side+j].Position
		start := right.Vertices[j].Position
		assert.InDelta(t, edge[0], start[0], 1e-3)
		assert.Equal(t, edge[1], start[1])
	}
}

func TestLoaderCache(t *testing.T) {
	l := NewLoader(BackendTypeProcedural, WithGrid(smallGrid()), WithCacheSize(2))
	first, err := l.LoadChunkMesh(terrain.ChunkCoord{X: 0, Y: 0}, 1)
	require.NoError(t, err)
	again, err := l.LoadChunkMesh(terrain.ChunkCoord{X: 0, Y: 0}, 1)
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = l.LoadChunkMesh(terrain.ChunkCoord{X: 0, Y: 1}, 1)
	require.NoError(t, err)
	_, err = l.LoadChunkMesh(terrain.ChunkCoord{X: 0, Y: 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, l.CacheLen())
	_, ok := l.Get(terrain.ChunkCoord{X: 0, Y: 0}, 1)
	assert.False(t, ok, "oldest entry is dropped")

	l.ClearCache()
	assert.Equal(t, 0, l.CacheLen())

	uncached := NewLoader(BackendTypeProcedural, WithGrid(smallGrid()))
	_, err = uncached.LoadChunkMesh(terrain.ChunkCoord{X: 0, Y: 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, uncached.CacheLen())
}
