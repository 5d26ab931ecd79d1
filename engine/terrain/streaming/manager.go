// Package streaming decides, frame by frame, which terrain LODs are resident in the unified GPU
// buffers. It owns the residency table, the vertex and index allocators, the request queue and
// the published chunk descriptor array.
package streaming

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/Carmen-Shannon/oxy-terrain/engine/gpubuffer"
	"github.com/Carmen-Shannon/oxy-terrain/engine/loader"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain/allocator"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain/residency"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("streaming: manager already initialized")
	// ErrNotInitialized is returned by operations that need Initialize first.
	ErrNotInitialized = errors.New("streaming: manager not initialized")
	// ErrNoMeshSource is returned by Initialize when no MeshSource was configured.
	ErrNoMeshSource = errors.New("streaming: no mesh source")
	// ErrInvalidConfig is returned by Initialize for an unusable grid, LOD table or capacity.
	ErrInvalidConfig = errors.New("streaming: invalid configuration")
)

// Manager is the per-frame terrain streaming orchestrator.
//
// Every method except ChunkData, ChunkDataDirty and ClearChunkDataDirty must be called from
// one goroutine. Those three may be called from a render goroutine concurrently.
type Manager interface {
	// Initialize loads the always-resident LOD of every chunk into a reserved region at the
	// start of both unified buffers and creates the allocators for the streaming region after it.
	//
	// Parameters:
	//   - streamingVertexCapacity: vertices available to streamed LODs
	//   - streamingIndexCapacity: indices available to streamed LODs
	//
	// Returns:
	//   - error: ErrAlreadyInitialized, ErrNoMeshSource, ErrInvalidConfig, or a load or upload error
	Initialize(streamingVertexCapacity, streamingIndexCapacity uint32) error

	// UpdateStreaming advances one frame: re-evaluates desired LODs when due, streams in queued
	// requests within the per-frame budgets and republishes the descriptor array on change.
	// It is a no-op before Initialize.
	//
	// Parameters:
	//   - cameraPos: world-space camera position
	UpdateStreaming(cameraPos mgl32.Vec3)

	// RequestLOD records interest in a chunk's LOD and enqueues it when it is not loaded.
	//
	// Parameters:
	//   - x: chunk x
	//   - y: chunk y
	//   - lod: the requested LOD
	//   - priority: urgency, lower is more urgent (the squared camera distance)
	//
	// Returns:
	//   - bool: true only when the LOD is already resident
	RequestLOD(x, y, lod int, priority float32) bool

	// GetLODAllocation returns the allocation of a LOD that is Loading or Resident.
	GetLODAllocation(x, y, lod int) (residency.Allocation, bool)

	// GetResidencyState returns the residency state of a chunk's LOD.
	GetResidencyState(x, y, lod int) residency.State

	// BuildChunkDataForGPU builds a fresh descriptor array from the current residency.
	BuildChunkDataForGPU() []terrain.GPUChunkData

	// ChunkData returns the last published descriptor array. Callers must not modify it.
	ChunkData() []terrain.GPUChunkData

	// ChunkDataDirty reports whether a descriptor array was published since the last clear.
	ChunkDataDirty() bool

	// ClearChunkDataDirty acknowledges the published descriptor array.
	ClearChunkDataDirty()

	// DesiredLOD returns the LOD the last evaluation targeted for a chunk, -1 if never evaluated.
	DesiredLOD(x, y int) int

	// GetStats returns a statistics snapshot.
	GetStats() Stats

	// LogStats writes the statistics snapshot to the logger.
	LogStats()

	// Frame returns the number of UpdateStreaming calls since Initialize.
	Frame() uint64

	// Grid returns the chunk grid.
	Grid() terrain.Grid

	// LODs returns the LOD table.
	LODs() terrain.LODTable

	// ChunkAABB returns the bounds of a chunk computed from its always-resident mesh.
	ChunkAABB(x, y int) common.AABB

	// Initialized reports whether Initialize succeeded and Shutdown has not been called.
	Initialized() bool

	// Shutdown drops all residency. The manager may be initialized again afterwards.
	Shutdown()
}

type managerImpl struct {
	grid                 terrain.Grid
	lods                 terrain.LODTable
	hysteresisMargin     float32
	maxUploadsPerFrame   int
	maxEvictionsPerFrame int
	maxQueueSize         int
	activeRadius         int
	updateInterval       uint64
	cameraMoveThreshold  float32
	policy               EvictionPolicy
	releaseFactor        float32
	statsLogInterval     uint64

	source    loader.MeshSource
	uploader  gpubuffer.Uploader
	activeSet ActiveChunkSet
	metrics   *Metrics
	logger    *slog.Logger

	initialized bool
	table       residency.Table
	vertices    allocator.Allocator
	indices     allocator.Allocator
	queue       RequestQueue
	selector    EvictionSelector

	aabbs   []common.AABB
	centers []mgl32.Vec3
	desired []int

	reservedVertices uint32
	reservedIndices  uint32

	frame          uint64
	evaluated      bool
	lastEvalFrame  uint64
	lastEvalCamera mgl32.Vec3

	requestsThisFrame     int
	uploadsThisFrame      int
	evictionsThisFrame    int
	droppedThisFrame      int
	loadFailuresThisFrame int
	residencyChanged      bool

	totalUploads      uint64
	totalEvictions    uint64
	totalLoadFailures uint64

	chunkData atomic.Pointer[[]terrain.GPUChunkData]
	dirty     atomic.Bool
}

var _ Manager = &managerImpl{}

// NewManager creates an uninitialized Manager with the options applied.
//
// Parameters:
//   - options: a variadic list of ManagerBuilderOption functions
//
// Returns:
//   - Manager: the new manager; call Initialize before streaming
func NewManager(options ...ManagerBuilderOption) Manager {
	m := &managerImpl{
		grid:                 terrain.DefaultGrid(),
		lods:                 terrain.DefaultLODTable(),
		hysteresisMargin:     terrain.DefaultHysteresisMargin,
		maxUploadsPerFrame:   8,
		maxEvictionsPerFrame: 16,
		maxQueueSize:         DefaultMaxQueueSize,
		activeRadius:         DefaultActiveRadius,
		updateInterval:       2,
		cameraMoveThreshold:  10,
		policy:               DefaultEvictionPolicy(),
		statsLogInterval:     60,
		logger:               slog.Default(),
	}
	for _, option := range options {
		option(m)
	}
	m.logger = m.logger.With("component", "terrain.streaming")
	if m.activeSet == nil {
		m.activeSet = RadiusActiveSet{Grid: m.grid}
	}
	return m
}

func (m *managerImpl) Initialize(streamingVertexCapacity, streamingIndexCapacity uint32) error {
	if m.initialized {
		return ErrAlreadyInitialized
	}
	if m.source == nil {
		return ErrNoMeshSource
	}
	if m.grid.Size <= 0 || m.grid.ChunkWorldSize <= 0 {
		return fmt.Errorf("%w: grid %+v", ErrInvalidConfig, m.grid)
	}
	if m.lods.Count() < 2 {
		return fmt.Errorf("%w: LOD table needs a streamed and an always-resident level", ErrInvalidConfig)
	}
	if streamingVertexCapacity == 0 || streamingIndexCapacity == 0 {
		return fmt.Errorf("%w: streaming capacity %d vertices, %d indices", ErrInvalidConfig, streamingVertexCapacity, streamingIndexCapacity)
	}

	total := m.grid.TotalChunks()
	last := m.lods.AlwaysResident()
	meshes := make([]*terrain.ChunkMesh, total)
	allocs := make([]residency.Allocation, total)
	aabbs := make([]common.AABB, total)
	centers := make([]mgl32.Vec3, total)

	var vertexCursor, indexCursor uint64
	for i := range total {
		coord := m.grid.Coord(i)
		mesh, err := m.source.LoadChunkMesh(coord, last)
		if err == nil {
			err = checkMesh(mesh)
		}
		if err != nil {
			return fmt.Errorf("streaming: load always-resident LOD of chunk %s: %w", coord, err)
		}
		meshes[i] = mesh
		allocs[i] = residency.Allocation{
			VertexOffset: uint32(vertexCursor),
			VertexCount:  mesh.VertexCount(),
			IndexOffset:  uint32(indexCursor),
			IndexCount:   mesh.IndexCount(),
		}
		vertexCursor += uint64(mesh.VertexCount())
		indexCursor += uint64(mesh.IndexCount())

		aabbs[i] = mesh.Bounds()
		centers[i] = aabbs[i].Center()
	}
	if vertexCursor+uint64(streamingVertexCapacity) > 1<<32-1 || indexCursor+uint64(streamingIndexCapacity) > 1<<32-1 {
		return fmt.Errorf("%w: unified buffers exceed 32-bit element addressing", ErrInvalidConfig)
	}
	reservedVertices, reservedIndices := uint32(vertexCursor), uint32(indexCursor)

	if m.uploader != nil {
		if err := m.uploadReserved(meshes, reservedVertices, reservedIndices, streamingVertexCapacity, streamingIndexCapacity); err != nil {
			return err
		}
	}

	m.table = residency.NewTable(total, m.lods.Count(), residency.WithLogger(m.logger))
	for i, alloc := range allocs {
		if err := m.table.SetAlwaysResident(i, alloc); err != nil {
			return err
		}
	}
	m.vertices = allocator.NewAllocator(streamingVertexCapacity, "terrain vertices", allocator.WithLogger(m.logger))
	m.indices = allocator.NewAllocator(streamingIndexCapacity, "terrain indices", allocator.WithLogger(m.logger))
	m.queue = NewRequestQueue(m.maxQueueSize)
	m.selector = NewEvictionSelector(m.table, centers, m.vertices, m.indices, m.policy, m.logger)
	m.aabbs = aabbs
	m.centers = centers
	m.desired = make([]int, total)
	for i := range m.desired {
		m.desired[i] = -1
	}
	m.reservedVertices = reservedVertices
	m.reservedIndices = reservedIndices
	m.frame = 0
	m.evaluated = false
	m.initialized = true

	m.publish()
	m.logger.Info("terrain streaming initialized",
		"chunks", total,
		"lods", m.lods.Count(),
		"reservedVertices", reservedVertices,
		"reservedIndices", reservedIndices,
		"streamingVertices", streamingVertexCapacity,
		"streamingIndices", streamingIndexCapacity,
	)
	return nil
}

// uploadReserved sizes the unified buffers and uploads the packed always-resident meshes.
func (m *managerImpl) uploadReserved(meshes []*terrain.ChunkMesh, reservedVertices, reservedIndices, streamingVertices, streamingIndices uint32) error {
	vertexBytes := uint64(reservedVertices+streamingVertices) * uint64(terrain.VertexStride)
	indexBytes := uint64(reservedIndices+streamingIndices) * terrain.IndexStride
	if err := m.uploader.Reserve(vertexBytes, indexBytes); err != nil {
		return fmt.Errorf("streaming: reserve unified buffers: %w", err)
	}

	vertexData := make([]byte, 0, uint64(reservedVertices)*uint64(terrain.VertexStride))
	indexData := make([]byte, 0, uint64(reservedIndices)*terrain.IndexStride)
	for _, mesh := range meshes {
		vertexData = append(vertexData, mesh.VertexBytes()...)
		indexData = append(indexData, mesh.IndexBytes()...)
	}
	if err := m.uploader.UploadVertexRegion(0, vertexData); err != nil {
		return fmt.Errorf("streaming: upload always-resident vertices: %w", err)
	}
	if err := m.uploader.UploadIndexRegion(0, indexData); err != nil {
		return fmt.Errorf("streaming: upload always-resident indices: %w", err)
	}
	return nil
}

func (m *managerImpl) UpdateStreaming(cameraPos mgl32.Vec3) {
	if !m.initialized {
		return
	}
	m.frame++
	m.requestsThisFrame = 0
	m.uploadsThisFrame = 0
	m.evictionsThisFrame = 0
	m.droppedThisFrame = 0
	m.loadFailuresThisFrame = 0
	m.residencyChanged = false

	if m.evaluationDue(cameraPos) {
		m.evaluate(cameraPos)
	}
	m.processQueue(cameraPos)

	if m.residencyChanged {
		m.publish()
	}
	if m.metrics != nil {
		m.metrics.observe(m.GetStats())
	}
	if m.statsLogInterval > 0 && m.frame%m.statsLogInterval == 0 {
		m.LogStats()
	}
}

func (m *managerImpl) evaluationDue(cameraPos mgl32.Vec3) bool {
	if !m.evaluated || m.frame-m.lastEvalFrame >= m.updateInterval {
		return true
	}
	return common.DistanceSq(cameraPos, m.lastEvalCamera) > m.cameraMoveThreshold*m.cameraMoveThreshold
}

// evaluate recomputes desired LODs for the active set and re-enqueues what is still wanted.
func (m *managerImpl) evaluate(cameraPos mgl32.Vec3) {
	for _, req := range m.queue.Drain() {
		if err := m.table.MarkNotLoaded(req.Chunk, req.LOD); err != nil {
			m.logger.Error("drop stale request", "chunk", req.Chunk, "lod", req.LOD, "error", err)
		}
	}

	last := m.lods.AlwaysResident()
	for _, coord := range m.activeSet.ActiveChunks(cameraPos, m.activeRadius) {
		if !m.grid.Contains(coord) {
			continue
		}
		i := m.grid.Index(coord)
		distSq := common.DistanceSq(cameraPos, m.centers[i])
		lod := m.lods.SelectWithHysteresis(m.desired[i], distSq, m.hysteresisMargin)
		m.desired[i] = lod
		if lod != last {
			m.RequestLOD(coord.X, coord.Y, lod, distSq)
		}
	}

	if m.releaseFactor > 0 {
		m.releaseDistant(cameraPos)
	}

	m.evaluated = true
	m.lastEvalFrame = m.frame
	m.lastEvalCamera = cameraPos
}

// releaseDistant evicts resident LODs the camera has moved well beyond.
func (m *managerImpl) releaseDistant(cameraPos mgl32.Vec3) {
	var far []EvictionCandidate
	m.table.ForEachResident(func(chunk, lod int, _ residency.Allocation) {
		distSq := common.DistanceSq(cameraPos, m.centers[chunk])
		if distSq > m.lods.MaxDistanceSq(lod)*m.releaseFactor {
			far = append(far, EvictionCandidate{Chunk: chunk, LOD: lod, DistanceSq: distSq})
		}
	})
	for _, c := range far {
		if m.evictionsThisFrame >= m.maxEvictionsPerFrame {
			return
		}
		if err := m.evict(c.Chunk, c.LOD); err != nil {
			m.logger.Error("release failed", "chunk", c.Chunk, "lod", c.LOD, "error", err)
		}
	}
}

func (m *managerImpl) RequestLOD(x, y, lod int, priority float32) bool {
	if !m.initialized {
		return false
	}
	coord := terrain.ChunkCoord{X: x, Y: y}
	if !m.grid.Contains(coord) || !m.lods.Valid(lod) {
		m.logger.Error("request out of range", "chunk", coord.String(), "lod", lod)
		return false
	}
	i := m.grid.Index(coord)
	if err := m.table.RecordRequest(i, lod, m.frame, priority); err != nil {
		m.logger.Error("record request", "chunk", coord.String(), "lod", lod, "error", err)
		return false
	}
	if lod == m.lods.AlwaysResident() {
		return true
	}

	switch m.table.State(i, lod) {
	case residency.Resident:
		return true
	case residency.NotLoaded:
		if !m.queue.Push(Request{Chunk: i, LOD: lod, Priority: priority}) {
			m.droppedThisFrame++
			m.logger.Debug("request queue full", "chunk", coord.String(), "lod", lod)
			return false
		}
		if err := m.table.MarkQueued(i, lod); err != nil {
			m.logger.Error("queue request", "chunk", coord.String(), "lod", lod, "error", err)
			return false
		}
		m.requestsThisFrame++
		return false
	default:
		return false
	}
}

// processQueue streams in queued requests until the upload budget is spent.
func (m *managerImpl) processQueue(cameraPos mgl32.Vec3) {
	for attempts := 0; m.uploadsThisFrame < m.maxUploadsPerFrame && attempts < m.maxQueueSize; attempts++ {
		req, ok := m.queue.Pop()
		if !ok {
			return
		}
		if m.table.State(req.Chunk, req.LOD) != residency.Queued {
			continue
		}
		m.streamIn(req, cameraPos)
	}
}

// allocate reserves space for a mesh in both streaming allocators, releasing the vertex
// range again if the index range cannot be placed. Offsets are relative to the streaming region.
func (m *managerImpl) allocate(mesh *terrain.ChunkMesh) (uint32, uint32, bool) {
	vertexOffset, ok := m.vertices.Allocate(mesh.VertexCount())
	if !ok {
		return allocator.InvalidOffset, allocator.InvalidOffset, false
	}
	indexOffset, ok := m.indices.Allocate(mesh.IndexCount())
	if !ok {
		if err := m.vertices.Free(vertexOffset, mesh.VertexCount()); err != nil {
			m.logger.Error("release partial allocation", "error", err)
		}
		return allocator.InvalidOffset, allocator.InvalidOffset, false
	}
	return vertexOffset, indexOffset, true
}

func (m *managerImpl) streamIn(req Request, cameraPos mgl32.Vec3) {
	coord := m.grid.Coord(req.Chunk)
	log := m.logger.With("chunk", coord.String(), "lod", req.LOD)

	mesh, err := m.source.LoadChunkMesh(coord, req.LOD)
	if err == nil {
		err = checkMesh(mesh)
	}
	if err != nil {
		log.Warn("chunk mesh load failed", "error", err)
		m.failLoad(req)
		return
	}
	if mesh.VertexCount() > m.vertices.TotalSpace() || mesh.IndexCount() > m.indices.TotalSpace() {
		log.Warn("chunk mesh larger than the streaming region", "vertices", mesh.VertexCount(), "indices", mesh.IndexCount())
		m.failLoad(req)
		return
	}

	vertexOffset, indexOffset, ok := m.allocate(mesh)
	if !ok {
		need := SpaceRequest{
			Vertices:     mesh.VertexCount(),
			Indices:      mesh.IndexCount(),
			Priority:     req.Priority,
			ProtectSince: m.lastEvalFrame,
		}
		budget := m.maxEvictionsPerFrame - m.evictionsThisFrame
		evicted, _ := m.selector.EvictToMakeSpace(cameraPos, m.frame, need, budget, EvictorFunc(m.evict))
		vertexOffset, indexOffset, ok = m.allocate(mesh)
		if !ok {
			m.droppedThisFrame++
			log.Debug("no space for chunk mesh", "evicted", evicted, "vertices", need.Vertices, "indices", need.Indices)
			m.markNotLoaded(req)
			return
		}
	}

	alloc := residency.Allocation{
		VertexOffset: m.reservedVertices + vertexOffset,
		VertexCount:  mesh.VertexCount(),
		IndexOffset:  m.reservedIndices + indexOffset,
		IndexCount:   mesh.IndexCount(),
	}
	if err := m.table.MarkLoading(req.Chunk, req.LOD, alloc); err != nil {
		log.Error("mark loading", "error", err)
		m.release(alloc)
		return
	}
	if err := m.upload(alloc, mesh); err != nil {
		log.Error("chunk mesh upload failed", "error", err)
		m.release(alloc)
		m.failLoad(req)
		return
	}
	if !m.commit(req, alloc) {
		return
	}
	m.uploadsThisFrame++
	m.totalUploads++
	m.residencyChanged = true
	log.Debug("streamed in", "vertexOffset", alloc.VertexOffset, "indexOffset", alloc.IndexOffset)
}

// commit marks an uploaded LOD resident and returns its space when the table refuses.
func (m *managerImpl) commit(req Request, alloc residency.Allocation) bool {
	if err := m.table.MarkResident(req.Chunk, req.LOD); err != nil {
		m.logger.Error("mark resident", "chunk", req.Chunk, "lod", req.LOD, "error", err)
		m.release(alloc)
		m.markNotLoaded(req)
		return false
	}
	return true
}

// checkMesh rejects what a MeshSource may return but the buffers cannot hold.
func checkMesh(mesh *terrain.ChunkMesh) error {
	if mesh == nil {
		return fmt.Errorf("%w: source returned no mesh", terrain.ErrInvalidMesh)
	}
	return mesh.Validate()
}

func (m *managerImpl) upload(alloc residency.Allocation, mesh *terrain.ChunkMesh) error {
	if m.uploader == nil {
		return nil
	}
	if err := m.uploader.UploadVertexRegion(uint64(alloc.VertexOffset)*uint64(terrain.VertexStride), mesh.VertexBytes()); err != nil {
		return err
	}
	return m.uploader.UploadIndexRegion(uint64(alloc.IndexOffset)*terrain.IndexStride, mesh.IndexBytes())
}

// release returns an absolute allocation to the streaming allocators.
func (m *managerImpl) release(alloc residency.Allocation) {
	if err := m.vertices.Free(alloc.VertexOffset-m.reservedVertices, alloc.VertexCount); err != nil {
		m.logger.Error("free vertex range", "error", err)
	}
	if err := m.indices.Free(alloc.IndexOffset-m.reservedIndices, alloc.IndexCount); err != nil {
		m.logger.Error("free index range", "error", err)
	}
}

func (m *managerImpl) failLoad(req Request) {
	m.loadFailuresThisFrame++
	m.totalLoadFailures++
	m.markNotLoaded(req)
}

func (m *managerImpl) markNotLoaded(req Request) {
	if err := m.table.MarkNotLoaded(req.Chunk, req.LOD); err != nil {
		m.logger.Error("mark not loaded", "chunk", req.Chunk, "lod", req.LOD, "error", err)
	}
}

// evict releases one resident streamed LOD.
func (m *managerImpl) evict(chunk, lod int) error {
	alloc, ok := m.table.Allocation(chunk, lod)
	if !ok || m.table.State(chunk, lod) != residency.Resident {
		return fmt.Errorf("streaming: evict chunk %d LOD%d: %w", chunk, lod, residency.ErrInvalidTransition)
	}
	if err := m.table.MarkEvicting(chunk, lod); err != nil {
		return err
	}
	m.release(alloc)
	if err := m.table.MarkNotLoaded(chunk, lod); err != nil {
		return err
	}
	m.evictionsThisFrame++
	m.totalEvictions++
	m.residencyChanged = true
	return nil
}

// publish rebuilds the descriptor array, swaps it in and uploads it.
func (m *managerImpl) publish() {
	data := m.BuildChunkDataForGPU()
	m.chunkData.Store(&data)
	m.dirty.Store(true)
	if m.uploader == nil {
		return
	}
	if err := m.uploader.UploadChunkData(terrain.MarshalChunkData(data)); err != nil {
		m.logger.Error("chunk data upload failed", "error", err)
	}
}

func (m *managerImpl) chunkIndex(x, y int) (int, bool) {
	coord := terrain.ChunkCoord{X: x, Y: y}
	if !m.initialized || !m.grid.Contains(coord) {
		return 0, false
	}
	return m.grid.Index(coord), true
}

func (m *managerImpl) GetLODAllocation(x, y, lod int) (residency.Allocation, bool) {
	i, ok := m.chunkIndex(x, y)
	if !ok || !m.lods.Valid(lod) {
		return residency.Allocation{}, false
	}
	return m.table.Allocation(i, lod)
}

func (m *managerImpl) GetResidencyState(x, y, lod int) residency.State {
	i, ok := m.chunkIndex(x, y)
	if !ok || !m.lods.Valid(lod) {
		return residency.NotLoaded
	}
	return m.table.State(i, lod)
}

func (m *managerImpl) ChunkData() []terrain.GPUChunkData {
	if p := m.chunkData.Load(); p != nil {
		return *p
	}
	return nil
}

func (m *managerImpl) ChunkDataDirty() bool {
	return m.dirty.Load()
}

func (m *managerImpl) ClearChunkDataDirty() {
	m.dirty.Store(false)
}

func (m *managerImpl) DesiredLOD(x, y int) int {
	i, ok := m.chunkIndex(x, y)
	if !ok {
		return -1
	}
	return m.desired[i]
}

func (m *managerImpl) GetStats() Stats {
	s := Stats{
		Frame:                 m.frame,
		RequestsThisFrame:     m.requestsThisFrame,
		UploadsThisFrame:      m.uploadsThisFrame,
		EvictionsThisFrame:    m.evictionsThisFrame,
		DroppedThisFrame:      m.droppedThisFrame,
		LoadFailuresThisFrame: m.loadFailuresThisFrame,
		TotalUploads:          m.totalUploads,
		TotalEvictions:        m.totalEvictions,
		TotalLoadFailures:     m.totalLoadFailures,
	}
	if !m.initialized {
		return s
	}
	s.ResidentByLOD = make([]int, m.lods.Count())
	for lod := range s.ResidentByLOD {
		s.ResidentByLOD[lod] = m.table.ResidentCount(lod)
	}
	s.QueueLength = m.queue.Len()
	s.VertexUsed = m.vertices.UsedSpace()
	s.VertexTotal = m.vertices.TotalSpace()
	s.IndexUsed = m.indices.UsedSpace()
	s.IndexTotal = m.indices.TotalSpace()
	s.VertexFragments = m.vertices.FragmentCount()
	s.IndexFragments = m.indices.FragmentCount()
	s.ReservedVertices = m.reservedVertices
	s.ReservedIndices = m.reservedIndices
	return s
}

func (m *managerImpl) LogStats() {
	m.logger.Info("terrain streaming stats", "stats", m.GetStats())
}

func (m *managerImpl) Frame() uint64 {
	return m.frame
}

func (m *managerImpl) Grid() terrain.Grid {
	return m.grid
}

func (m *managerImpl) LODs() terrain.LODTable {
	return m.lods
}

func (m *managerImpl) ChunkAABB(x, y int) common.AABB {
	coord := terrain.ChunkCoord{X: x, Y: y}
	i, ok := m.chunkIndex(x, y)
	if !ok {
		return m.grid.ChunkBounds(coord)
	}
	return m.aabbs[i]
}

func (m *managerImpl) Initialized() bool {
	return m.initialized
}

func (m *managerImpl) Shutdown() {
	if !m.initialized {
		return
	}
	m.logger.Info("terrain streaming shutdown", "stats", m.GetStats())
	m.initialized = false
	m.table = nil
	m.vertices = nil
	m.indices = nil
	m.queue = nil
	m.selector = nil
	m.aabbs = nil
	m.centers = nil
	m.desired = nil
	m.chunkData.Store(nil)
	m.dirty.Store(false)
}
