package gpubuffer

// memoryUploaderBackend mirrors the unified buffers in CPU memory.
type memoryUploaderBackend struct {
	vertices  []byte
	indices   []byte
	chunkData []byte
}

var _ uploaderBackend = &memoryUploaderBackend{}

func newMemoryUploaderBackend() *memoryUploaderBackend {
	return &memoryUploaderBackend{}
}

func (m *memoryUploaderBackend) reserve(vertexBytes, indexBytes uint64) error {
	m.vertices = make([]byte, vertexBytes)
	m.indices = make([]byte, indexBytes)
	return nil
}

func (m *memoryUploaderBackend) writeVertex(offset uint64, data []byte) error {
	copy(m.vertices[offset:], data)
	return nil
}

func (m *memoryUploaderBackend) writeIndex(offset uint64, data []byte) error {
	copy(m.indices[offset:], data)
	return nil
}

func (m *memoryUploaderBackend) writeChunkData(data []byte) error {
	m.chunkData = append(m.chunkData[:0], data...)
	return nil
}

func (m *memoryUploaderBackend) release() {
	m.vertices, m.indices, m.chunkData = nil, nil, nil
}

// Contents is a copy of the buffers held by a memory-backed Uploader.
type Contents struct {
	Vertices  []byte
	Indices   []byte
	ChunkData []byte
}

// MemoryContents returns a copy of the buffers of an Uploader created with BackendTypeMemory.
//
// Parameters:
//   - u: the uploader to read
//
// Returns:
//   - Contents: copies of the vertex, index and chunk data buffers
//   - bool: false when u is not memory-backed
func MemoryContents(u Uploader) (Contents, bool) {
	impl, ok := u.(*uploaderImpl)
	if !ok {
		return Contents{}, false
	}
	impl.mu.Lock()
	defer impl.mu.Unlock()

	m, ok := impl.backend.(*memoryUploaderBackend)
	if !ok {
		return Contents{}, false
	}
	return Contents{
		Vertices:  append([]byte(nil), m.vertices...),
		Indices:   append([]byte(nil), m.indices...),
		ChunkData: append([]byte(nil), m.chunkData...),
	}, true
}
