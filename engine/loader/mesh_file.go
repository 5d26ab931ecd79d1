package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
	"github.com/klauspost/compress/zstd"
)

// Chunk mesh file layout, little-endian, zstd-compressed as a whole:
//
//	offset  0: magic "TMSH"
//	offset  4: version u16
//	offset  6: LOD u16
//	offset  8: chunk x u32
//	offset 12: chunk y u32
//	offset 16: vertex count u32
//	offset 20: index count u32
//	offset 24: vertices (terrain.VertexStride each), then u32 indices
const (
	chunkMeshMagic      = "TMSH"
	chunkMeshVersion    = uint16(1)
	chunkMeshHeaderSize = 24
)

var (
	// ErrBadMagic is returned when a file does not start with the chunk mesh magic.
	ErrBadMagic = errors.New("loader: not a chunk mesh file")
	// ErrUnsupportedVersion is returned for chunk mesh files written by a newer encoder.
	ErrUnsupportedVersion = errors.New("loader: unsupported chunk mesh version")
	// ErrTruncated is returned when the payload is shorter or longer than its header declares.
	ErrTruncated = errors.New("loader: truncated chunk mesh")
)

// ChunkMeshFileName returns the file name of a chunk mesh, e.g. Render_LOD0_3_7.tmsh.
func ChunkMeshFileName(coord terrain.ChunkCoord, lod int) string {
	return fmt.Sprintf("Render_LOD%d_%d_%d.tmsh", lod, coord.X, coord.Y)
}

// WriteChunkMesh encodes a mesh and writes it zstd-compressed to w.
//
// Parameters:
//   - w: the destination
//   - mesh: the mesh to encode
//
// Returns:
//   - error: error if compression or the write fails
func WriteChunkMesh(w io.Writer, mesh *terrain.ChunkMesh) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(encodeChunkMesh(mesh)); err != nil {
		enc.Close()
		return fmt.Errorf("loader: write chunk mesh %s LOD%d: %w", mesh.Coord, mesh.LOD, err)
	}
	return enc.Close()
}

// WriteChunkMeshFile writes a mesh into dir under its ChunkMeshFileName.
//
// Parameters:
//   - dir: the output directory, which must exist
//   - mesh: the mesh to write
//
// Returns:
//   - string: the path written
//   - error: error if the file could not be created or written
func WriteChunkMeshFile(dir string, mesh *terrain.ChunkMesh) (string, error) {
	path := filepath.Join(dir, ChunkMeshFileName(mesh.Coord, mesh.LOD))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteChunkMesh(f, mesh); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// ReadChunkMesh decompresses and decodes a mesh written by WriteChunkMesh.
//
// Parameters:
//   - r: the compressed source
//
// Returns:
//   - *terrain.ChunkMesh: the decoded mesh
//   - error: ErrBadMagic, ErrUnsupportedVersion, ErrTruncated or a decompression error
func ReadChunkMesh(r io.Reader) (*terrain.ChunkMesh, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	payload, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("loader: decompress chunk mesh: %w", err)
	}
	return decodeChunkMesh(payload)
}

func encodeChunkMesh(mesh *terrain.ChunkMesh) []byte {
	var buf bytes.Buffer
	buf.Grow(chunkMeshHeaderSize + len(mesh.Vertices)*terrain.VertexStride + len(mesh.Indices)*terrain.IndexStride)

	header := make([]byte, chunkMeshHeaderSize)
	copy(header[0:4], chunkMeshMagic)
	binary.LittleEndian.PutUint16(header[4:], chunkMeshVersion)
	binary.LittleEndian.PutUint16(header[6:], uint16(mesh.LOD))
	binary.LittleEndian.PutUint32(header[8:], uint32(mesh.Coord.X))
	binary.LittleEndian.PutUint32(header[12:], uint32(mesh.Coord.Y))
	binary.LittleEndian.PutUint32(header[16:], mesh.VertexCount())
	binary.LittleEndian.PutUint32(header[20:], mesh.IndexCount())
	buf.Write(header)
	buf.Write(terrain.MarshalVertices(mesh.Vertices))
	buf.Write(terrain.MarshalIndices(mesh.Indices))
	return buf.Bytes()
}

func decodeChunkMesh(payload []byte) (*terrain.ChunkMesh, error) {
	if len(payload) < chunkMeshHeaderSize || string(payload[0:4]) != chunkMeshMagic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(payload[4:]); v != chunkMeshVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	mesh := &terrain.ChunkMesh{
		LOD: int(binary.LittleEndian.Uint16(payload[6:])),
		Coord: terrain.ChunkCoord{
			X: int(binary.LittleEndian.Uint32(payload[8:])),
			Y: int(binary.LittleEndian.Uint32(payload[12:])),
		},
	}
	vertexCount := int(binary.LittleEndian.Uint32(payload[16:]))
	indexCount := int(binary.LittleEndian.Uint32(payload[20:]))

	body := payload[chunkMeshHeaderSize:]
	want := vertexCount*terrain.VertexStride + indexCount*terrain.IndexStride
	if len(body) != want {
		return nil, fmt.Errorf("%w: chunk %s LOD%d has %d payload bytes, header declares %d", ErrTruncated, mesh.Coord, mesh.LOD, len(body), want)
	}

	mesh.Vertices = make([]terrain.GPUTerrainVertex, vertexCount)
	for i := range mesh.Vertices {
		v := body[i*terrain.VertexStride:]
		mesh.Vertices[i] = terrain.GPUTerrainVertex{
			Position: [3]float32{f32(v[0:]), f32(v[4:]), f32(v[8:])},
			UV:       [2]float32{f32(v[12:]), f32(v[16:])},
			Normal:   binary.LittleEndian.Uint32(v[20:]),
		}
	}
	indices := body[vertexCount*terrain.VertexStride:]
	mesh.Indices = make([]uint32, indexCount)
	for i := range mesh.Indices {
		mesh.Indices[i] = binary.LittleEndian.Uint32(indices[i*terrain.IndexStride:])
	}
	return mesh, nil
}

func f32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
