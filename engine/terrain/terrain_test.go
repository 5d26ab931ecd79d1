package terrain

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridIndexRoundTrip(t *testing.T) {
	g := DefaultGrid()
	require.Equal(t, 4096, g.TotalChunks())

	for i := 0; i < g.TotalChunks(); i++ {
		c := g.Coord(i)
		require.True(t, g.Contains(c))
		require.Equal(t, i, g.Index(c))
	}
	assert.Equal(t, 3*64+5, g.Index(ChunkCoord{X: 3, Y: 5}))
}

func TestGridWorldToChunk(t *testing.T) {
	g := Grid{Size: 4, ChunkWorldSize: 64, MaxHeight: 100}

	assert.Equal(t, ChunkCoord{0, 0}, g.WorldToChunk(mgl32.Vec3{10, 500, 10}))
	assert.Equal(t, ChunkCoord{1, 2}, g.WorldToChunk(mgl32.Vec3{64, 0, 130}))
	assert.Equal(t, ChunkCoord{0, 3}, g.WorldToChunk(mgl32.Vec3{-50, 0, 9999}), "clamped to the grid")
}

func TestGridChunkCenter(t *testing.T) {
	g := Grid{Size: 4, ChunkWorldSize: 64, MaxHeight: 100}
	assert.Equal(t, mgl32.Vec3{96, 50, 32}, g.ChunkCenter(ChunkCoord{1, 0}))
}

func TestGridChunksInRadius(t *testing.T) {
	g := Grid{Size: 8, ChunkWorldSize: 1, MaxHeight: 1}

	got := g.ChunksInRadius(ChunkCoord{0, 0}, 1)
	assert.Equal(t, []ChunkCoord{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, got)
	assert.Len(t, g.ChunksInRadius(ChunkCoord{4, 4}, 2), 25)
	assert.Len(t, g.ChunksInRadius(ChunkCoord{4, 4}, 100), 64)
}

func TestNewLODTableValidation(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []float32
	}{
		{"empty", nil},
		{"zero", []float32{0}},
		{"not increasing", []float32{100, 100}},
		{"decreasing", []float32{200, 100}},
		{"infinite", []float32{float32(math.Inf(1))}},
		{"too many levels", []float32{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLODTable(tt.thresholds...)
			assert.ErrorIs(t, err, ErrInvalidLODTable)
		})
	}

	table, err := NewLODTable(100, 400, 900)
	require.NoError(t, err)
	assert.Equal(t, 4, table.Count())
	assert.Equal(t, 3, table.AlwaysResident())
	assert.True(t, math.IsInf(float64(table.MaxDistanceSq(3)), 1))
}

func TestSelectLOD(t *testing.T) {
	table, err := NewLODTable(100, 400, 900)
	require.NoError(t, err)

	assert.Equal(t, 0, table.SelectLOD(0))
	assert.Equal(t, 0, table.SelectLOD(99.9))
	assert.Equal(t, 1, table.SelectLOD(100), "a tie goes to the coarser LOD")
	assert.Equal(t, 2, table.SelectLOD(400))
	assert.Equal(t, 3, table.SelectLOD(900))
	assert.Equal(t, 3, table.SelectLOD(1e12))
}

func TestSelectLODIsMonotonic(t *testing.T) {
	table, err := NewLODTable(100, 400, 900)
	require.NoError(t, err)

	prev := table.SelectLOD(0)
	for d := float32(0); d < 2000; d += 0.5 {
		lod := table.SelectLOD(d)
		require.GreaterOrEqual(t, lod, prev, "distSq %v", d)
		prev = lod
	}
}

func TestSelectWithHysteresis(t *testing.T) {
	table := DefaultLODTable()
	threshold := float32(math.Sqrt(float64(table.MaxDistanceSq(0))))
	at := func(scale float32) float32 {
		d := threshold * scale
		return d * d
	}

	// no history falls back to the plain selection
	assert.Equal(t, 1, table.SelectWithHysteresis(-1, at(1.01), DefaultHysteresisMargin))

	// inside the band the current LOD sticks
	assert.Equal(t, 0, table.SelectWithHysteresis(0, at(1.05), DefaultHysteresisMargin))
	assert.Equal(t, 1, table.SelectWithHysteresis(1, at(0.95), DefaultHysteresisMargin))

	// past the band it changes
	assert.Equal(t, 1, table.SelectWithHysteresis(0, at(1.15), DefaultHysteresisMargin))
	assert.Equal(t, 0, table.SelectWithHysteresis(1, at(0.85), DefaultHysteresisMargin))

	// zero margin behaves like SelectLOD
	assert.Equal(t, 1, table.SelectWithHysteresis(0, at(1.01), 0))
}

func TestHysteresisBoundsOscillation(t *testing.T) {
	table := DefaultLODTable()
	threshold := float32(math.Sqrt(float64(table.MaxDistanceSq(0))))

	withMargin, without := -1, -1
	changesWith, changesWithout := 0, 0
	for frame := 0; frame < 1000; frame++ {
		scale := float32(1.01)
		if frame%2 == 1 {
			scale = 0.99
		}
		d := threshold * scale
		distSq := d * d

		next := table.SelectWithHysteresis(withMargin, distSq, DefaultHysteresisMargin)
		if withMargin >= 0 && next != withMargin {
			changesWith++
		}
		withMargin = next

		raw := table.SelectLOD(distSq)
		if without >= 0 && raw != without {
			changesWithout++
		}
		without = raw
	}
	assert.Equal(t, 0, changesWith)
	assert.Equal(t, 999, changesWithout)
}

func TestGPUTypeSizes(t *testing.T) {
	assert.Equal(t, 24, VertexStride)
	assert.Equal(t, 96, ChunkDataStride)
	v := GPUTerrainVertex{}
	assert.Len(t, v.Marshal(), 24)
	c := GPUChunkData{}
	assert.Len(t, c.Marshal(), 96)
	assert.True(t, strings.Contains(GPUChunkDataSource, "struct TerrainChunkData"))
	assert.True(t, strings.Contains(GPUTerrainVertexSource, "struct TerrainVertex"))
}

func TestGPUChunkDataMarshalLayout(t *testing.T) {
	c := GPUChunkData{
		AABBMin: [4]float32{1, 2, 3, 0},
		AABBMax: [4]float32{4, 5, 6, 0},
	}
	c.LODs[1] = GPUChunkLOD{FirstIndex: 10, IndexCount: 20, VertexOffset: 30, MaxDistanceSq: 40}

	buf := MarshalChunkData([]GPUChunkData{{}, c})
	require.Len(t, buf, 2*ChunkDataStride)

	second := buf[ChunkDataStride:]
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(second[0:])))
	assert.Equal(t, float32(6), math.Float32frombits(binary.LittleEndian.Uint32(second[24:])))
	lod1 := second[32+16:]
	assert.Equal(t, uint32(10), binary.LittleEndian.Uint32(lod1[0:]))
	assert.Equal(t, uint32(20), binary.LittleEndian.Uint32(lod1[4:]))
	assert.Equal(t, uint32(30), binary.LittleEndian.Uint32(lod1[8:]))
	assert.Equal(t, float32(40), math.Float32frombits(binary.LittleEndian.Uint32(lod1[12:])))
}

func TestChunkMeshValidate(t *testing.T) {
	mesh := &ChunkMesh{
		Coord: ChunkCoord{1, 1},
		Vertices: []GPUTerrainVertex{
			{Position: [3]float32{0, 0, 0}},
			{Position: [3]float32{1, 2, 0}},
			{Position: [3]float32{0, -1, 3}},
		},
		Indices: []uint32{0, 1, 2},
	}
	require.NoError(t, mesh.Validate())
	assert.Equal(t, uint32(3), mesh.VertexCount())
	assert.Len(t, mesh.VertexBytes(), 3*VertexStride)
	assert.Len(t, mesh.IndexBytes(), 3*IndexStride)

	b := mesh.Bounds()
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, b.Max)

	mesh.Indices = []uint32{0, 1, 3}
	assert.ErrorIs(t, mesh.Validate(), ErrInvalidMesh)
	mesh.Indices = []uint32{0, 1}
	assert.ErrorIs(t, mesh.Validate(), ErrInvalidMesh)
	mesh.Vertices = nil
	assert.ErrorIs(t, mesh.Validate(), ErrInvalidMesh)
}
