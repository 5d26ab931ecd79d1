package terrain

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxLODs is the number of LOD slots in GPUChunkData. LOD tables may not exceed it.
const MaxLODs = 4

// IndexStride is the size of one index in the unified index buffer (uint32).
const IndexStride = 4

// GPUTerrainVertexSource is the canonical WGSL definition of the TerrainVertex struct.
// Matches GPUTerrainVertex layout exactly (24 bytes).
//
//go:embed assets/terrain_vertex.wgsl
var GPUTerrainVertexSource string

// GPUChunkDataSource is the canonical WGSL definition of the TerrainChunkData storage array
// read by the culling and draw passes. Matches GPUChunkData layout exactly (96 bytes, std430).
//
//go:embed assets/terrain_chunk_data.wgsl
var GPUChunkDataSource string

// GPUTerrainVertex is the GPU-aligned representation of a single terrain vertex.
// Size: 24 bytes.
type GPUTerrainVertex struct {
	Position [3]float32 // offset  0: world-space position (12 bytes)
	UV       [2]float32 // offset 12: terrain-space texture coordinate (8 bytes)
	Normal   uint32     // offset 20: snorm8x4 packed normal, see common.PackNormal (4 bytes)
}

// VertexStride is the size of GPUTerrainVertex in bytes.
const VertexStride = int(unsafe.Sizeof(GPUTerrainVertex{}))

// Size returns the size of the GPUTerrainVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (24)
func (g *GPUTerrainVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the vertex into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 24-byte buffer
func (g *GPUTerrainVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.marshalInto(buf)
	return buf
}

func (g *GPUTerrainVertex) marshalInto(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.UV[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.UV[1]))
	binary.LittleEndian.PutUint32(buf[20:24], g.Normal)
}

// GPUChunkLOD is one LOD slot of a chunk descriptor.
// Size: 16 bytes.
type GPUChunkLOD struct {
	FirstIndex    uint32  // offset  0: first index in the unified index buffer
	IndexCount    uint32  // offset  4: number of indices to draw
	VertexOffset  uint32  // offset  8: base vertex added to every index
	MaxDistanceSq float32 // offset 12: squared distance limit of this LOD
}

// GPUChunkData is the per-chunk descriptor consumed by the GPU culling and draw passes.
// Every LOD slot always holds a drawable range: either the LOD's own resident allocation or
// the always-resident LOD's allocation when the LOD is not resident.
// Size: 96 bytes (std430).
type GPUChunkData struct {
	AABBMin [4]float32           // offset  0: chunk bounds min (xyz, w unused)
	AABBMax [4]float32           // offset 16: chunk bounds max (xyz, w unused)
	LODs    [MaxLODs]GPUChunkLOD // offset 32: per-LOD draw ranges
}

// ChunkDataStride is the size of GPUChunkData in bytes.
const ChunkDataStride = int(unsafe.Sizeof(GPUChunkData{}))

// Layouts must match the WGSL structs byte for byte.
var _ [24 - VertexStride]byte
var _ [VertexStride - 24]byte
var _ [96 - ChunkDataStride]byte
var _ [ChunkDataStride - 96]byte

// Size returns the size of the GPUChunkData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPUChunkData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the descriptor into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer
func (g *GPUChunkData) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.marshalInto(buf)
	return buf
}

func (g *GPUChunkData) marshalInto(buf []byte) {
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.AABBMin[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.AABBMax[i]))
	}
	for i, lod := range g.LODs {
		base := 32 + i*16
		binary.LittleEndian.PutUint32(buf[base:], lod.FirstIndex)
		binary.LittleEndian.PutUint32(buf[base+4:], lod.IndexCount)
		binary.LittleEndian.PutUint32(buf[base+8:], lod.VertexOffset)
		binary.LittleEndian.PutUint32(buf[base+12:], math.Float32bits(lod.MaxDistanceSq))
	}
}

// MarshalChunkData serializes a whole descriptor array into one contiguous upload.
//
// Parameters:
//   - chunks: the descriptors, in flat chunk-index order
//
// Returns:
//   - []byte: len(chunks) * ChunkDataStride bytes
func MarshalChunkData(chunks []GPUChunkData) []byte {
	buf := make([]byte, len(chunks)*ChunkDataStride)
	for i := range chunks {
		chunks[i].marshalInto(buf[i*ChunkDataStride:])
	}
	return buf
}

// MarshalVertices serializes vertices into one contiguous upload.
func MarshalVertices(vertices []GPUTerrainVertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for i := range vertices {
		vertices[i].marshalInto(buf[i*VertexStride:])
	}
	return buf
}

// MarshalIndices serializes indices as little-endian uint32.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*IndexStride)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*IndexStride:], idx)
	}
	return buf
}
