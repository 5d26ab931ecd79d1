package streaming

import (
	"log/slog"
	"slices"

	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain/allocator"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain/residency"
	"github.com/go-gl/mathgl/mgl32"
)

// EvictionPolicy weights the two signals that rank resident LODs for eviction.
// score = DistanceWeight*distSq + StalenessWeight*framesSinceLastRequest; higher goes first.
type EvictionPolicy struct {
	DistanceWeight  float32
	StalenessWeight float32
}

// DefaultEvictionPolicy weights distance and staleness equally.
func DefaultEvictionPolicy() EvictionPolicy {
	return EvictionPolicy{DistanceWeight: 1, StalenessWeight: 1}
}

// Score returns the eviction score of a resident LOD.
func (p EvictionPolicy) Score(distSq float32, staleFrames uint64) float32 {
	return p.DistanceWeight*distSq + p.StalenessWeight*float32(staleFrames)
}

// EvictionCandidate is a resident, streamed (chunk, LOD) pair ranked for eviction.
type EvictionCandidate struct {
	Chunk       int
	LOD         int
	DistanceSq  float32
	StaleFrames uint64
	Score       float32
}

// SpaceRequest is the contiguous space a pending upload needs in both buffers, in elements.
type SpaceRequest struct {
	Vertices uint32
	Indices  uint32
	// Priority of the request; resident LODs requested at or after ProtectSince with an equal
	// or more urgent priority are not evicted for it.
	Priority float32
	// ProtectSince is the frame of the latest LOD evaluation. Requests recorded at frame 0
	// count as never made.
	ProtectSince uint64
}

// Evictor releases one resident LOD: frees both allocations and walks the residency record
// through Evicting to NotLoaded.
type Evictor interface {
	Evict(chunk, lod int) error
}

// EvictorFunc adapts a function to the Evictor interface.
type EvictorFunc func(chunk, lod int) error

// Evict calls f(chunk, lod).
func (f EvictorFunc) Evict(chunk, lod int) error {
	return f(chunk, lod)
}

// EvictionSelector ranks resident LODs and evicts them until a request fits.
type EvictionSelector interface {
	// SelectCandidates returns every resident streamed LOD, highest score first.
	// Equal scores are ordered by chunk index, then LOD.
	//
	// Parameters:
	//   - cameraPos: world-space camera position
	//   - frame: the current frame
	//
	// Returns:
	//   - []EvictionCandidate: the ranked candidates
	SelectCandidates(cameraPos mgl32.Vec3, frame uint64) []EvictionCandidate

	// EvictToMakeSpace evicts candidates in rank order until both allocators can place the
	// request contiguously, defragmenting when total free space suffices but no block does.
	//
	// Parameters:
	//   - cameraPos: world-space camera position
	//   - frame: the current frame
	//   - need: the space the pending upload needs
	//   - budget: the maximum number of evictions allowed
	//   - evictor: releases each selected LOD
	//
	// Returns:
	//   - int: the number of LODs evicted
	//   - bool: whether the request now fits
	EvictToMakeSpace(cameraPos mgl32.Vec3, frame uint64, need SpaceRequest, budget int, evictor Evictor) (int, bool)

	// Policy returns the scoring weights.
	Policy() EvictionPolicy
}

type evictionSelectorImpl struct {
	table    residency.Table
	centers  []mgl32.Vec3
	vertices allocator.Allocator
	indices  allocator.Allocator
	policy   EvictionPolicy
	logger   *slog.Logger
}

var _ EvictionSelector = &evictionSelectorImpl{}

// NewEvictionSelector creates a selector over a residency table and the streaming allocators.
//
// Parameters:
//   - table: the residency table to read candidates from
//   - centers: world-space center of every chunk, by flat index
//   - vertices: the vertex allocator
//   - indices: the index allocator
//   - policy: the scoring weights
//   - logger: the structured logger
//
// Returns:
//   - EvictionSelector: the new selector
func NewEvictionSelector(table residency.Table, centers []mgl32.Vec3, vertices, indices allocator.Allocator, policy EvictionPolicy, logger *slog.Logger) EvictionSelector {
	if logger == nil {
		logger = slog.Default()
	}
	return &evictionSelectorImpl{
		table:    table,
		centers:  centers,
		vertices: vertices,
		indices:  indices,
		policy:   policy,
		logger:   logger,
	}
}

func (s *evictionSelectorImpl) Policy() EvictionPolicy {
	return s.policy
}

func (s *evictionSelectorImpl) SelectCandidates(cameraPos mgl32.Vec3, frame uint64) []EvictionCandidate {
	var out []EvictionCandidate
	s.table.ForEachResident(func(chunk, lod int, _ residency.Allocation) {
		distSq := common.DistanceSq(cameraPos, s.centers[chunk])
		var stale uint64
		if last := s.table.LastRequestedFrame(chunk, lod); frame > last {
			stale = frame - last
		}
		out = append(out, EvictionCandidate{
			Chunk:       chunk,
			LOD:         lod,
			DistanceSq:  distSq,
			StaleFrames: stale,
			Score:       s.policy.Score(distSq, stale),
		})
	})
	slices.SortStableFunc(out, func(a, b EvictionCandidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.Chunk != b.Chunk:
			return a.Chunk - b.Chunk
		default:
			return a.LOD - b.LOD
		}
	})
	return out
}

func (s *evictionSelectorImpl) fits(need SpaceRequest) bool {
	return s.vertices.CanAllocate(need.Vertices) && s.indices.CanAllocate(need.Indices)
}

// compact defragments an allocator whose free total covers size but whose largest block does not.
func compact(a allocator.Allocator, size uint32) {
	if !a.CanAllocate(size) && a.FreeSpace() >= size {
		a.Defragment()
	}
}

func (s *evictionSelectorImpl) settle(need SpaceRequest) bool {
	if s.fits(need) {
		return true
	}
	compact(s.vertices, need.Vertices)
	compact(s.indices, need.Indices)
	return s.fits(need)
}

func (s *evictionSelectorImpl) protected(c EvictionCandidate, need SpaceRequest) bool {
	last := s.table.LastRequestedFrame(c.Chunk, c.LOD)
	return last != 0 && last >= need.ProtectSince && s.table.Priority(c.Chunk, c.LOD) <= need.Priority
}

func (s *evictionSelectorImpl) EvictToMakeSpace(cameraPos mgl32.Vec3, frame uint64, need SpaceRequest, budget int, evictor Evictor) (int, bool) {
	if s.settle(need) {
		return 0, true
	}
	if budget <= 0 {
		return 0, false
	}

	evicted := 0
	for _, c := range s.SelectCandidates(cameraPos, frame) {
		if evicted >= budget {
			break
		}
		if s.protected(c, need) {
			continue
		}
		if err := evictor.Evict(c.Chunk, c.LOD); err != nil {
			s.logger.Error("eviction failed", "chunk", c.Chunk, "lod", c.LOD, "error", err)
			continue
		}
		evicted++
		s.logger.Debug("evicted for space", "chunk", c.Chunk, "lod", c.LOD, "score", c.Score)
		if s.settle(need) {
			return evicted, true
		}
	}
	return evicted, false
}
