// Package residency tracks, for every chunk and LOD, whether its mesh is resident in the unified
// GPU buffers, where it lives, and when it was last wanted.
package residency

import (
	"errors"
	"fmt"
	"log/slog"
)

// State is the residency state of one (chunk, LOD) pair.
type State uint8

const (
	// NotLoaded means the LOD has no GPU allocation and no pending request.
	NotLoaded State = iota
	// Queued means a streaming request for the LOD is waiting in the request queue.
	Queued
	// Loading means buffer space is reserved and the upload is in progress.
	Loading
	// Resident means the LOD is uploaded and may be drawn.
	Resident
	// Evicting means the LOD was selected for eviction and its space is being released.
	Evicting
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "NotLoaded"
	case Queued:
		return "Queued"
	case Loading:
		return "Loading"
	case Resident:
		return "Resident"
	case Evicting:
		return "Evicting"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Allocation locates one LOD mesh in the unified buffers. Offsets are absolute element indices.
type Allocation struct {
	VertexOffset uint32
	VertexCount  uint32
	IndexOffset  uint32
	IndexCount   uint32
}

var (
	// ErrInvalidTransition is wrapped by every TransitionError.
	ErrInvalidTransition = errors.New("residency: invalid state transition")
	// ErrOutOfRange is returned for chunk indices or LODs outside the table.
	ErrOutOfRange = errors.New("residency: chunk or LOD out of range")
)

// TransitionError describes a rejected state change.
type TransitionError struct {
	Chunk int
	LOD   int
	From  State
	To    State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("residency: chunk %d LOD%d cannot move from %s to %s", e.Chunk, e.LOD, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Binding is what a draw should use for a (chunk, LOD): the LOD's own allocation when it is
// resident, otherwise the chunk's always-resident allocation.
// It is implemented only by ResidentBinding and FallbackBinding.
type Binding interface {
	// Allocation returns the buffer range to draw.
	Allocation() Allocation
	isBinding()
}

// ResidentBinding means the requested LOD is resident.
type ResidentBinding struct {
	Alloc Allocation
}

func (b ResidentBinding) Allocation() Allocation { return b.Alloc }
func (ResidentBinding) isBinding() {}

// FallbackBinding means the requested LOD is not drawable and the always-resident LOD stands in.
type FallbackBinding struct {
	Alloc Allocation
}

func (b FallbackBinding) Allocation() Allocation { return b.Alloc }
func (FallbackBinding) isBinding() {}

// Table is the per-chunk, per-LOD residency state machine.
//
//	NotLoaded -> Queued    request enqueued
//	Queued    -> Loading   allocator reserved space
//	Loading   -> Resident  upload complete
//	Resident  -> Evicting  selected for eviction
//	Evicting  -> NotLoaded space freed
//	Queued    -> NotLoaded request dropped or superseded
//	Loading   -> NotLoaded load or upload failed, space freed
//
// The last LOD is always resident: it starts Resident and every transition on it is rejected.
// Rejected transitions return a *TransitionError and, in builds tagged terraindebug, panic.
type Table interface {
	// State returns the state of a (chunk, LOD) pair. Out-of-range pairs report NotLoaded.
	State(chunk, lod int) State

	// Allocation returns the allocation of a pair that is Loading or Resident.
	//
	// Returns:
	//   - Allocation: the recorded allocation
	//   - bool: false when the pair has no valid allocation
	Allocation(chunk, lod int) (Allocation, bool)

	// Resolve returns the range to draw for a pair, falling back to the always-resident LOD.
	Resolve(chunk, lod int) Binding

	// SetAlwaysResident records the reserved-region allocation of a chunk's always-resident LOD.
	SetAlwaysResident(chunk int, alloc Allocation) error

	// MarkQueued moves NotLoaded to Queued.
	MarkQueued(chunk, lod int) error

	// MarkLoading moves Queued to Loading and records the reserved allocation.
	MarkLoading(chunk, lod int, alloc Allocation) error

	// MarkResident moves Loading to Resident.
	MarkResident(chunk, lod int) error

	// MarkEvicting moves Resident to Evicting.
	MarkEvicting(chunk, lod int) error

	// MarkNotLoaded moves Queued, Loading or Evicting to NotLoaded and clears the allocation.
	MarkNotLoaded(chunk, lod int) error

	// RecordRequest stores the frame and priority of the latest request for a pair.
	RecordRequest(chunk, lod int, frame uint64, priority float32) error

	// LastRequestedFrame returns the frame of the latest request, 0 if never requested.
	LastRequestedFrame(chunk, lod int) uint64

	// Priority returns the priority of the latest request.
	Priority(chunk, lod int) float32

	// ResidentCount returns how many chunks have the LOD Resident.
	ResidentCount(lod int) int

	// ForEachResident calls fn for every Resident pair of a streamed LOD in flat index order.
	ForEachResident(fn func(chunk, lod int, alloc Allocation))

	// Chunks returns the number of chunks tracked.
	Chunks() int

	// LODCount returns the number of LODs per chunk.
	LODCount() int

	// AlwaysResidentLOD returns the index of the always-resident LOD.
	AlwaysResidentLOD() int
}

type record struct {
	state              State
	alloc              Allocation
	lastRequestedFrame uint64
	priority           float32
}

type tableImpl struct {
	chunks   int
	lods     int
	records  []record
	resident []int

	logger *slog.Logger
}

var _ Table = &tableImpl{}

// NewTable creates a table for totalChunks chunks with lodCount LODs each. Every chunk's last
// LOD starts Resident with an empty allocation until SetAlwaysResident is called.
//
// Parameters:
//   - totalChunks: number of chunks in the grid
//   - lodCount: number of LODs per chunk (at least 2)
//   - options: functional options
//
// Returns:
//   - Table: the new table
func NewTable(totalChunks, lodCount int, options ...TableBuilderOption) Table {
	t := &tableImpl{
		chunks:   totalChunks,
		lods:     lodCount,
		records:  make([]record, totalChunks*lodCount),
		resident: make([]int, lodCount),
		logger:   slog.Default(),
	}
	for _, opt := range options {
		opt(t)
	}
	t.logger = t.logger.With("component", "terrain.residency")

	last := lodCount - 1
	for c := 0; c < totalChunks; c++ {
		t.records[c*lodCount+last].state = Resident
	}
	t.resident[last] = totalChunks
	return t
}

func (t *tableImpl) inRange(chunk, lod int) bool {
	return chunk >= 0 && chunk < t.chunks && lod >= 0 && lod < t.lods
}

func (t *tableImpl) rangeError(chunk, lod int) error {
	return check(fmt.Errorf("%w: chunk %d LOD%d (table has %d chunks, %d LODs)", ErrOutOfRange, chunk, lod, t.chunks, t.lods))
}

func (t *tableImpl) at(chunk, lod int) *record {
	return &t.records[chunk*t.lods+lod]
}

func (t *tableImpl) State(chunk, lod int) State {
	if !t.inRange(chunk, lod) {
		t.logger.Error("state query out of range", "error", t.rangeError(chunk, lod))
		return NotLoaded
	}
	return t.at(chunk, lod).state
}

func (t *tableImpl) Allocation(chunk, lod int) (Allocation, bool) {
	if !t.inRange(chunk, lod) {
		t.logger.Error("allocation query out of range", "error", t.rangeError(chunk, lod))
		return Allocation{}, false
	}
	r := t.at(chunk, lod)
	if r.state != Loading && r.state != Resident {
		return Allocation{}, false
	}
	return r.alloc, true
}

func (t *tableImpl) Resolve(chunk, lod int) Binding {
	if !t.inRange(chunk, lod) {
		t.logger.Error("resolve out of range", "error", t.rangeError(chunk, lod))
		lod = t.lods - 1
		chunk = max(0, min(t.chunks-1, chunk))
	}
	if r := t.at(chunk, lod); r.state == Resident {
		return ResidentBinding{Alloc: r.alloc}
	}
	return FallbackBinding{Alloc: t.at(chunk, t.lods-1).alloc}
}

func (t *tableImpl) SetAlwaysResident(chunk int, alloc Allocation) error {
	if !t.inRange(chunk, 0) {
		return t.rangeError(chunk, t.lods-1)
	}
	t.at(chunk, t.lods-1).alloc = alloc
	return nil
}

// transition validates and applies one edge of the state machine.
func (t *tableImpl) transition(chunk, lod int, to State, allowed ...State) (*record, error) {
	if !t.inRange(chunk, lod) {
		return nil, t.rangeError(chunk, lod)
	}
	r := t.at(chunk, lod)
	if lod == t.lods-1 {
		return nil, check(&TransitionError{Chunk: chunk, LOD: lod, From: r.state, To: to})
	}
	for _, from := range allowed {
		if r.state == from {
			if from == Resident {
				t.resident[lod]--
			}
			if to == Resident {
				t.resident[lod]++
			}
			r.state = to
			return r, nil
		}
	}
	return nil, check(&TransitionError{Chunk: chunk, LOD: lod, From: r.state, To: to})
}

func (t *tableImpl) MarkQueued(chunk, lod int) error {
	_, err := t.transition(chunk, lod, Queued, NotLoaded)
	return err
}

func (t *tableImpl) MarkLoading(chunk, lod int, alloc Allocation) error {
	r, err := t.transition(chunk, lod, Loading, Queued)
	if err != nil {
		return err
	}
	r.alloc = alloc
	return nil
}

func (t *tableImpl) MarkResident(chunk, lod int) error {
	_, err := t.transition(chunk, lod, Resident, Loading)
	return err
}

func (t *tableImpl) MarkEvicting(chunk, lod int) error {
	_, err := t.transition(chunk, lod, Evicting, Resident)
	return err
}

func (t *tableImpl) MarkNotLoaded(chunk, lod int) error {
	r, err := t.transition(chunk, lod, NotLoaded, Queued, Loading, Evicting)
	if err != nil {
		return err
	}
	r.alloc = Allocation{}
	return nil
}

func (t *tableImpl) RecordRequest(chunk, lod int, frame uint64, priority float32) error {
	if !t.inRange(chunk, lod) {
		return t.rangeError(chunk, lod)
	}
	r := t.at(chunk, lod)
	r.lastRequestedFrame = frame
	r.priority = priority
	return nil
}

func (t *tableImpl) LastRequestedFrame(chunk, lod int) uint64 {
	if !t.inRange(chunk, lod) {
		return 0
	}
	return t.at(chunk, lod).lastRequestedFrame
}

func (t *tableImpl) Priority(chunk, lod int) float32 {
	if !t.inRange(chunk, lod) {
		return 0
	}
	return t.at(chunk, lod).priority
}

func (t *tableImpl) ResidentCount(lod int) int {
	if lod < 0 || lod >= t.lods {
		return 0
	}
	return t.resident[lod]
}

func (t *tableImpl) ForEachResident(fn func(chunk, lod int, alloc Allocation)) {
	streamed := t.lods - 1
	for c := 0; c < t.chunks; c++ {
		base := c * t.lods
		for l := 0; l < streamed; l++ {
			if r := &t.records[base+l]; r.state == Resident {
				fn(c, l, r.alloc)
			}
		}
	}
}

func (t *tableImpl) Chunks() int {
	return t.chunks
}

func (t *tableImpl) LODCount() int {
	return t.lods
}

func (t *tableImpl) AlwaysResidentLOD() int {
	return t.lods - 1
}
