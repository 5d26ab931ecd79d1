package gpubuffer

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// queueWriter is the part of *wgpu.Queue the backend writes through.
type queueWriter interface {
	WriteBuffer(buffer *wgpu.Buffer, bufferOffset uint64, data []byte) error
}

type deviceHandles struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

// wgpuUploaderBackend holds the unified buffers on a WebGPU device.
type wgpuUploaderBackend struct {
	label string

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	writer   queueWriter
	owned    bool

	vertexBuffer    *wgpu.Buffer
	indexBuffer     *wgpu.Buffer
	chunkDataBuffer *wgpu.Buffer
	chunkDataSize   uint64
}

var _ uploaderBackend = &wgpuUploaderBackend{}

func newWGPUUploaderBackend(label string, handles deviceHandles, forceFallbackAdapter bool) (*wgpuUploaderBackend, error) {
	b := &wgpuUploaderBackend{label: label}
	if handles.device != nil && handles.queue != nil {
		b.device = handles.device
		b.queue = handles.queue
		b.writer = b.queue
		return b, nil
	}

	runtime.LockOSThread()
	b.instance = wgpu.CreateInstance(nil)
	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		return nil, err
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: label + " Streaming Device",
	})
	if err != nil {
		return nil, err
	}
	b.device = d
	b.queue = d.GetQueue()
	b.writer = b.queue
	b.owned = true
	return b, nil
}

func (b *wgpuUploaderBackend) createBuffer(name string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            b.label + " " + name,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("gpubuffer: create %s buffer (%d bytes): %w", name, size, err)
	}
	return buf, nil
}

func (b *wgpuUploaderBackend) reserve(vertexBytes, indexBytes uint64) error {
	vb, err := b.createBuffer("Vertex Buffer", vertexBytes, wgpu.BufferUsageVertex|wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	ib, err := b.createBuffer("Index Buffer", indexBytes, wgpu.BufferUsageIndex|wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		vb.Release()
		return err
	}
	b.releaseMesh()
	b.vertexBuffer, b.indexBuffer = vb, ib
	return nil
}

func (b *wgpuUploaderBackend) write(name string, buf *wgpu.Buffer, offset uint64, data []byte) error {
	if err := b.writer.WriteBuffer(buf, offset, data); err != nil {
		return fmt.Errorf("gpubuffer: write %d bytes to %s buffer at %d: %w", len(data), name, offset, err)
	}
	return nil
}

func (b *wgpuUploaderBackend) writeVertex(offset uint64, data []byte) error {
	return b.write("vertex", b.vertexBuffer, offset, data)
}

func (b *wgpuUploaderBackend) writeIndex(offset uint64, data []byte) error {
	return b.write("index", b.indexBuffer, offset, data)
}

func (b *wgpuUploaderBackend) writeChunkData(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if b.chunkDataBuffer == nil || uint64(len(data)) > b.chunkDataSize {
		buf, err := b.createBuffer("Chunk Data Buffer", uint64(len(data)), wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
		if err != nil {
			return err
		}
		if b.chunkDataBuffer != nil {
			b.chunkDataBuffer.Release()
		}
		b.chunkDataBuffer = buf
		b.chunkDataSize = uint64(len(data))
	}
	return b.write("chunk data", b.chunkDataBuffer, 0, data)
}

func (b *wgpuUploaderBackend) releaseMesh() {
	if b.vertexBuffer != nil {
		b.vertexBuffer.Release()
		b.vertexBuffer = nil
	}
	if b.indexBuffer != nil {
		b.indexBuffer.Release()
		b.indexBuffer = nil
	}
}

func (b *wgpuUploaderBackend) release() {
	b.releaseMesh()
	if b.chunkDataBuffer != nil {
		b.chunkDataBuffer.Release()
		b.chunkDataBuffer = nil
	}
	if !b.owned {
		return
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}

// Buffers exposes the GPU buffer handles of a WGPU-backed Uploader for binding in render and
// compute passes.
type Buffers struct {
	Vertex    *wgpu.Buffer
	Index     *wgpu.Buffer
	ChunkData *wgpu.Buffer
}

// WGPUBuffers returns the buffer handles of an Uploader created with BackendTypeWGPU.
//
// Parameters:
//   - u: the uploader to inspect
//
// Returns:
//   - Buffers: the current buffer handles, nil until created
//   - bool: false when u is not WGPU-backed
func WGPUBuffers(u Uploader) (Buffers, bool) {
	impl, ok := u.(*uploaderImpl)
	if !ok {
		return Buffers{}, false
	}
	impl.mu.Lock()
	defer impl.mu.Unlock()

	b, ok := impl.backend.(*wgpuUploaderBackend)
	if !ok {
		return Buffers{}, false
	}
	return Buffers{Vertex: b.vertexBuffer, Index: b.indexBuffer, ChunkData: b.chunkDataBuffer}, true
}
