//go:build !terraindebug

package residency

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableStartsWithAlwaysResident(t *testing.T) {
	tbl := NewTable(16, 3)

	assert.Equal(t, 2, tbl.AlwaysResidentLOD())
	assert.Equal(t, 16, tbl.ResidentCount(2))
	for c := 0; c < 16; c++ {
		assert.Equal(t, NotLoaded, tbl.State(c, 0))
		assert.Equal(t, NotLoaded, tbl.State(c, 1))
		assert.Equal(t, Resident, tbl.State(c, 2))
	}
}

func TestFullLifecycle(t *testing.T) {
	tbl := NewTable(4, 2)
	alloc := Allocation{VertexOffset: 100, VertexCount: 10, IndexOffset: 200, IndexCount: 30}

	require.NoError(t, tbl.MarkQueued(1, 0))
	_, ok := tbl.Allocation(1, 0)
	assert.False(t, ok, "queued pairs have no allocation")

	require.NoError(t, tbl.MarkLoading(1, 0, alloc))
	got, ok := tbl.Allocation(1, 0)
	require.True(t, ok)
	assert.Equal(t, alloc, got)
	assert.Equal(t, 0, tbl.ResidentCount(0))

	require.NoError(t, tbl.MarkResident(1, 0))
	assert.Equal(t, Resident, tbl.State(1, 0))
	assert.Equal(t, 1, tbl.ResidentCount(0))

	require.NoError(t, tbl.MarkEvicting(1, 0))
	_, ok = tbl.Allocation(1, 0)
	assert.False(t, ok, "evicting pairs have no drawable allocation")
	assert.Equal(t, 0, tbl.ResidentCount(0))

	require.NoError(t, tbl.MarkNotLoaded(1, 0))
	assert.Equal(t, NotLoaded, tbl.State(1, 0))
}

func TestDroppedAndFailedTransitions(t *testing.T) {
	tbl := NewTable(2, 2)

	require.NoError(t, tbl.MarkQueued(0, 0))
	require.NoError(t, tbl.MarkNotLoaded(0, 0), "a queued request may be dropped")

	require.NoError(t, tbl.MarkQueued(0, 0))
	require.NoError(t, tbl.MarkLoading(0, 0, Allocation{VertexCount: 1}))
	require.NoError(t, tbl.MarkNotLoaded(0, 0), "a failed upload releases its allocation")
	_, ok := tbl.Allocation(0, 0)
	assert.False(t, ok)
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(Table)
		act   func(Table) error
		from  State
		to    State
	}{
		{"resident from not loaded", func(Table) {}, func(tb Table) error { return tb.MarkResident(0, 0) }, NotLoaded, Resident},
		{"loading from not loaded", func(Table) {}, func(tb Table) error { return tb.MarkLoading(0, 0, Allocation{}) }, NotLoaded, Loading},
		{"evicting from queued", func(tb Table) { _ = tb.MarkQueued(0, 0) }, func(tb Table) error { return tb.MarkEvicting(0, 0) }, Queued, Evicting},
		{"not loaded from resident", func(tb Table) {
			_ = tb.MarkQueued(0, 0)
			_ = tb.MarkLoading(0, 0, Allocation{})
			_ = tb.MarkResident(0, 0)
		}, func(tb Table) error { return tb.MarkNotLoaded(0, 0) }, Resident, NotLoaded},
		{"double allocation while loading", func(tb Table) {
			_ = tb.MarkQueued(0, 0)
			_ = tb.MarkLoading(0, 0, Allocation{})
		}, func(tb Table) error { return tb.MarkLoading(0, 0, Allocation{VertexOffset: 9}) }, Loading, Loading},
		{"double allocation while resident", func(tb Table) {
			_ = tb.MarkQueued(0, 0)
			_ = tb.MarkLoading(0, 0, Allocation{})
			_ = tb.MarkResident(0, 0)
		}, func(tb Table) error { return tb.MarkLoading(0, 0, Allocation{VertexOffset: 9}) }, Resident, Loading},
		{"queue twice", func(tb Table) { _ = tb.MarkQueued(0, 0) }, func(tb Table) error { return tb.MarkQueued(0, 0) }, Queued, Queued},
		{"evict always resident", func(Table) {}, func(tb Table) error { return tb.MarkEvicting(0, 1) }, Resident, Evicting},
		{"queue always resident", func(Table) {}, func(tb Table) error { return tb.MarkQueued(0, 1) }, Resident, Queued},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := NewTable(2, 2)
			tt.setup(tbl)
			before := tbl.State(0, 0)

			err := tt.act(tbl)
			require.ErrorIs(t, err, ErrInvalidTransition)
			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.from, te.From)
			assert.Equal(t, tt.to, te.To)
			assert.Equal(t, before, tbl.State(0, 0), "rejected transitions leave state untouched")
			assert.Equal(t, Resident, tbl.State(0, 1))
		})
	}
}

func TestOutOfRange(t *testing.T) {
	tbl := NewTable(2, 2)

	assert.ErrorIs(t, tbl.MarkQueued(2, 0), ErrOutOfRange)
	assert.ErrorIs(t, tbl.MarkQueued(0, 2), ErrOutOfRange)
	assert.ErrorIs(t, tbl.MarkQueued(-1, 0), ErrOutOfRange)
	assert.ErrorIs(t, tbl.RecordRequest(5, 0, 1, 1), ErrOutOfRange)
	assert.ErrorIs(t, tbl.SetAlwaysResident(9, Allocation{}), ErrOutOfRange)
	assert.Equal(t, NotLoaded, tbl.State(7, 0))
	_, ok := tbl.Allocation(7, 0)
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	tbl := NewTable(2, 2)
	fallback := Allocation{VertexOffset: 0, VertexCount: 4, IndexOffset: 0, IndexCount: 6}
	streamed := Allocation{VertexOffset: 50, VertexCount: 16, IndexOffset: 80, IndexCount: 54}
	require.NoError(t, tbl.SetAlwaysResident(1, fallback))

	b := tbl.Resolve(1, 0)
	require.IsType(t, FallbackBinding{}, b)
	assert.Equal(t, fallback, b.Allocation())

	require.NoError(t, tbl.MarkQueued(1, 0))
	require.NoError(t, tbl.MarkLoading(1, 0, streamed))
	assert.IsType(t, FallbackBinding{}, tbl.Resolve(1, 0), "loading is not drawable yet")

	require.NoError(t, tbl.MarkResident(1, 0))
	b = tbl.Resolve(1, 0)
	require.IsType(t, ResidentBinding{}, b)
	assert.Equal(t, streamed, b.Allocation())

	assert.Equal(t, fallback, tbl.Resolve(1, 1).Allocation())
}

func TestRecordRequest(t *testing.T) {
	tbl := NewTable(2, 2)
	require.NoError(t, tbl.RecordRequest(1, 0, 42, 3.5))
	assert.Equal(t, uint64(42), tbl.LastRequestedFrame(1, 0))
	assert.Equal(t, float32(3.5), tbl.Priority(1, 0))
	assert.Equal(t, uint64(0), tbl.LastRequestedFrame(0, 0))
}

func TestForEachResident(t *testing.T) {
	tbl := NewTable(3, 3)
	for _, c := range []int{2, 0} {
		require.NoError(t, tbl.MarkQueued(c, 1))
		require.NoError(t, tbl.MarkLoading(c, 1, Allocation{VertexOffset: uint32(c)}))
		require.NoError(t, tbl.MarkResident(c, 1))
	}

	var seen []int
	tbl.ForEachResident(func(chunk, lod int, alloc Allocation) {
		assert.Equal(t, 1, lod)
		assert.Equal(t, uint32(chunk), alloc.VertexOffset)
		seen = append(seen, chunk)
	})
	assert.Equal(t, []int{0, 2}, seen, "always-resident LODs are skipped")
}

func TestAlwaysResidentSurvivesRandomTransitions(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tbl := NewTable(8, 3)
	for i := 0; i < 5000; i++ {
		c, l := rng.Intn(8), rng.Intn(3)
		switch rng.Intn(5) {
		case 0:
			_ = tbl.MarkQueued(c, l)
		case 1:
			_ = tbl.MarkLoading(c, l, Allocation{VertexCount: 1})
		case 2:
			_ = tbl.MarkResident(c, l)
		case 3:
			_ = tbl.MarkEvicting(c, l)
		case 4:
			_ = tbl.MarkNotLoaded(c, l)
		}
		for chunk := 0; chunk < 8; chunk++ {
			require.Equal(t, Resident, tbl.State(chunk, 2))
		}
	}
	assert.Equal(t, 8, tbl.ResidentCount(2))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Loading", Loading.String())
	assert.Equal(t, "State(9)", State(9).String())
}
