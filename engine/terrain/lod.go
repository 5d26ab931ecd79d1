package terrain

import (
	"errors"
	"fmt"
	"math"
)

// DefaultHysteresisMargin is the fraction of a threshold distance the camera must travel past a
// LOD boundary before the desired LOD changes.
const DefaultHysteresisMargin float32 = 0.1

// ErrInvalidLODTable is returned when LOD thresholds are missing, non-positive or not increasing.
var ErrInvalidLODTable = errors.New("terrain: invalid LOD table")

// LODTable maps squared camera distance to a level of detail. LOD 0 is the most detailed;
// the last LOD is always resident and covers every distance beyond the final threshold.
type LODTable struct {
	maxDistanceSq []float32
}

// NewLODTable builds a table from the squared distance limits of the streamed LODs.
// The always-resident LOD is appended with an unbounded limit.
//
// Parameters:
//   - thresholds: strictly increasing, finite, positive squared distances; thresholds[i] is the
//     exclusive upper bound for LOD i
//
// Returns:
//   - LODTable: the table with len(thresholds)+1 levels
//   - error: ErrInvalidLODTable when the thresholds are unusable
func NewLODTable(thresholds ...float32) (LODTable, error) {
	if len(thresholds) == 0 {
		return LODTable{}, fmt.Errorf("%w: at least one streamed LOD is required", ErrInvalidLODTable)
	}
	if len(thresholds)+1 > MaxLODs {
		return LODTable{}, fmt.Errorf("%w: %d levels exceed the %d descriptor slots", ErrInvalidLODTable, len(thresholds)+1, MaxLODs)
	}
	limits := make([]float32, 0, len(thresholds)+1)
	for i, t := range thresholds {
		if t <= 0 || math.IsInf(float64(t), 0) || math.IsNaN(float64(t)) {
			return LODTable{}, fmt.Errorf("%w: threshold %d is %v", ErrInvalidLODTable, i, t)
		}
		if i > 0 && t <= thresholds[i-1] {
			return LODTable{}, fmt.Errorf("%w: threshold %d (%v) does not exceed threshold %d (%v)", ErrInvalidLODTable, i, t, i-1, thresholds[i-1])
		}
		limits = append(limits, t)
	}
	limits = append(limits, float32(math.Inf(1)))
	return LODTable{maxDistanceSq: limits}, nil
}

// DefaultLODTable returns the two-level table: LOD 0 within 1000 units, LOD 1 beyond.
func DefaultLODTable() LODTable {
	t, _ := NewLODTable(1_000_000)
	return t
}

// Count returns the number of LOD levels including the always-resident one.
func (t LODTable) Count() int {
	return len(t.maxDistanceSq)
}

// AlwaysResident returns the index of the coarsest LOD, which is never streamed or evicted.
func (t LODTable) AlwaysResident() int {
	return len(t.maxDistanceSq) - 1
}

// Valid reports whether lod is a level of this table.
func (t LODTable) Valid(lod int) bool {
	return lod >= 0 && lod < len(t.maxDistanceSq)
}

// MaxDistanceSq returns the exclusive squared distance limit of a LOD (+Inf for the last).
func (t LODTable) MaxDistanceSq(lod int) float32 {
	return t.maxDistanceSq[lod]
}

// Thresholds returns a copy of every LOD's squared distance limit.
func (t LODTable) Thresholds() []float32 {
	out := make([]float32, len(t.maxDistanceSq))
	copy(out, t.maxDistanceSq)
	return out
}

// SelectLOD returns the smallest LOD whose limit exceeds distSq, else the always-resident LOD.
// The function is monotonic: a larger distance never selects a more detailed LOD.
//
// Parameters:
//   - distSq: squared camera-to-chunk distance
//
// Returns:
//   - int: the selected LOD
func (t LODTable) SelectLOD(distSq float32) int {
	for i, limit := range t.maxDistanceSq {
		if distSq < limit {
			return i
		}
	}
	return t.AlwaysResident()
}

// SelectWithHysteresis returns the LOD to target given the currently targeted one. The target
// only changes once the distance is past a boundary by margin (as a fraction of distance), so a
// camera hovering on a boundary does not flip between levels.
//
// Parameters:
//   - current: the previously targeted LOD, or -1 when there is none
//   - distSq: squared camera-to-chunk distance
//   - margin: fractional distance margin, e.g. 0.1 for 10%
//
// Returns:
//   - int: the LOD to target
func (t LODTable) SelectWithHysteresis(current int, distSq, margin float32) int {
	if !t.Valid(current) || margin <= 0 {
		return t.SelectLOD(distSq)
	}
	factor := (1 + margin) * (1 + margin)
	// refineTo still holds with the distance inflated by the margin, coarsenTo with it deflated
	refineTo := t.SelectLOD(distSq * factor)
	coarsenTo := t.SelectLOD(distSq / factor)
	switch {
	case current < coarsenTo:
		return coarsenTo
	case current > refineTo:
		return refineTo
	default:
		return current
	}
}

// Name returns a short label for log records.
func (t LODTable) Name(lod int) string {
	if lod == t.AlwaysResident() {
		return fmt.Sprintf("LOD%d(resident)", lod)
	}
	return fmt.Sprintf("LOD%d", lod)
}
