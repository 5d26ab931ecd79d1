// Package gpubuffer owns the unified terrain vertex, index and chunk-descriptor buffers and
// writes byte regions into them on behalf of the streaming manager.
package gpubuffer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// BackendType identifies the buffer storage backend to use.
type BackendType int

const (
	// BackendTypeMemory keeps the buffers in CPU memory. Used by tests and headless runs.
	BackendTypeMemory BackendType = iota
	// BackendTypeWGPU keeps the buffers on a WebGPU device.
	BackendTypeWGPU
)

var (
	// ErrNotReserved is returned when a region is uploaded before Reserve.
	ErrNotReserved = errors.New("gpubuffer: buffers not reserved")
	// ErrOutOfBounds is returned when a region does not fit inside its buffer.
	ErrOutOfBounds = errors.New("gpubuffer: region out of bounds")
	// ErrMisaligned is returned when a region offset or length is not a multiple of 4 bytes.
	ErrMisaligned = errors.New("gpubuffer: region not 4-byte aligned")
	// ErrReleased is returned for any call after Release.
	ErrReleased = errors.New("gpubuffer: uploader released")
	// ErrUnknownBackend is returned by NewUploader for an unsupported BackendType.
	ErrUnknownBackend = errors.New("gpubuffer: unknown backend type")
)

// UploadStats counts the bytes written through an Uploader since creation.
type UploadStats struct {
	VertexUploads    int
	IndexUploads     int
	ChunkDataUploads int
	VertexBytes      uint64
	IndexBytes       uint64
	ChunkDataBytes   uint64
}

// Uploader defines the opaque upload surface the terrain streaming manager writes through.
// Offsets are absolute byte offsets into the unified buffers.
type Uploader interface {
	// Reserve creates the unified vertex and index buffers. Calling it again replaces them.
	//
	// Parameters:
	//   - vertexBytes: size of the vertex buffer in bytes
	//   - indexBytes: size of the index buffer in bytes
	//
	// Returns:
	//   - error: an error if the buffers could not be created
	Reserve(vertexBytes, indexBytes uint64) error

	// UploadVertexRegion writes data into the vertex buffer at offsetBytes.
	//
	// Parameters:
	//   - offsetBytes: absolute byte offset into the vertex buffer
	//   - data: the bytes to write, a multiple of 4 in length
	//
	// Returns:
	//   - error: ErrNotReserved, ErrOutOfBounds, ErrMisaligned or a backend error
	UploadVertexRegion(offsetBytes uint64, data []byte) error

	// UploadIndexRegion writes data into the index buffer at offsetBytes.
	//
	// Parameters:
	//   - offsetBytes: absolute byte offset into the index buffer
	//   - data: the bytes to write, a multiple of 4 in length
	//
	// Returns:
	//   - error: ErrNotReserved, ErrOutOfBounds, ErrMisaligned or a backend error
	UploadIndexRegion(offsetBytes uint64, data []byte) error

	// UploadChunkData replaces the contents of the chunk descriptor storage buffer,
	// growing it when data no longer fits.
	//
	// Parameters:
	//   - data: the marshaled descriptor array
	//
	// Returns:
	//   - error: an error if the buffer could not be created or written
	UploadChunkData(data []byte) error

	// VertexCapacity returns the reserved vertex buffer size in bytes.
	VertexCapacity() uint64

	// IndexCapacity returns the reserved index buffer size in bytes.
	IndexCapacity() uint64

	// Stats returns the upload counters.
	Stats() UploadStats

	// Release frees the buffers. The uploader cannot be used afterwards.
	Release()
}

// uploaderBackend stores the bytes. Bounds and alignment are checked before it is called.
type uploaderBackend interface {
	reserve(vertexBytes, indexBytes uint64) error
	writeVertex(offset uint64, data []byte) error
	writeIndex(offset uint64, data []byte) error
	writeChunkData(data []byte) error
	release()
}

type uploaderImpl struct {
	mu sync.Mutex

	backendType BackendType
	backend     uploaderBackend
	label       string

	vertexCapacity uint64
	indexCapacity  uint64
	reserved       bool
	released       bool
	stats          UploadStats

	forceFallbackAdapter bool
	device               deviceHandles

	logger *slog.Logger
}

var _ Uploader = &uploaderImpl{}

// NewUploader creates an Uploader with the specified backend and options applied.
//
// Parameters:
//   - backendType: the storage backend (BackendTypeMemory or BackendTypeWGPU)
//   - options: a variadic list of UploaderBuilderOption functions
//
// Returns:
//   - Uploader: the new uploader
//   - error: ErrUnknownBackend, or an error if the GPU device could not be acquired
func NewUploader(backendType BackendType, options ...UploaderBuilderOption) (Uploader, error) {
	u := &uploaderImpl{
		backendType: backendType,
		label:       "Terrain",
		logger:      slog.Default(),
	}
	for _, option := range options {
		option(u)
	}
	u.logger = u.logger.With("component", "gpubuffer", "label", u.label)

	switch backendType {
	case BackendTypeMemory:
		u.backend = newMemoryUploaderBackend()
	case BackendTypeWGPU:
		b, err := newWGPUUploaderBackend(u.label, u.device, u.forceFallbackAdapter)
		if err != nil {
			return nil, fmt.Errorf("gpubuffer: acquire device: %w", err)
		}
		u.backend = b
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, backendType)
	}
	return u, nil
}

func (u *uploaderImpl) Reserve(vertexBytes, indexBytes uint64) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.released {
		return ErrReleased
	}
	if vertexBytes%4 != 0 || indexBytes%4 != 0 {
		return fmt.Errorf("%w: reserve %d/%d bytes", ErrMisaligned, vertexBytes, indexBytes)
	}
	if err := u.backend.reserve(vertexBytes, indexBytes); err != nil {
		return err
	}
	u.vertexCapacity = vertexBytes
	u.indexCapacity = indexBytes
	u.reserved = true
	u.logger.Info("reserved unified buffers", "vertexBytes", vertexBytes, "indexBytes", indexBytes)
	return nil
}

// checkRegion validates a write against a buffer of the given capacity.
func (u *uploaderImpl) checkRegion(buffer string, capacity, offset uint64, data []byte) error {
	if u.released {
		return ErrReleased
	}
	if !u.reserved {
		return ErrNotReserved
	}
	if offset%4 != 0 || len(data)%4 != 0 {
		return fmt.Errorf("%w: %s offset %d length %d", ErrMisaligned, buffer, offset, len(data))
	}
	if offset+uint64(len(data)) > capacity {
		return fmt.Errorf("%w: %s [%d, %d) exceeds %d bytes", ErrOutOfBounds, buffer, offset, offset+uint64(len(data)), capacity)
	}
	return nil
}

func (u *uploaderImpl) UploadVertexRegion(offsetBytes uint64, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.checkRegion("vertex", u.vertexCapacity, offsetBytes, data); err != nil {
		return err
	}
	if err := u.backend.writeVertex(offsetBytes, data); err != nil {
		return err
	}
	u.stats.VertexUploads++
	u.stats.VertexBytes += uint64(len(data))
	return nil
}

func (u *uploaderImpl) UploadIndexRegion(offsetBytes uint64, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.checkRegion("index", u.indexCapacity, offsetBytes, data); err != nil {
		return err
	}
	if err := u.backend.writeIndex(offsetBytes, data); err != nil {
		return err
	}
	u.stats.IndexUploads++
	u.stats.IndexBytes += uint64(len(data))
	return nil
}

func (u *uploaderImpl) UploadChunkData(data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.released {
		return ErrReleased
	}
	if len(data)%4 != 0 {
		return fmt.Errorf("%w: chunk data length %d", ErrMisaligned, len(data))
	}
	if err := u.backend.writeChunkData(data); err != nil {
		return err
	}
	u.stats.ChunkDataUploads++
	u.stats.ChunkDataBytes += uint64(len(data))
	return nil
}

func (u *uploaderImpl) VertexCapacity() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.vertexCapacity
}

func (u *uploaderImpl) IndexCapacity() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.indexCapacity
}

func (u *uploaderImpl) Stats() UploadStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stats
}

func (u *uploaderImpl) Release() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.released {
		return
	}
	u.backend.release()
	u.released = true
	u.reserved = false
	u.logger.Debug("released unified buffers")
}
