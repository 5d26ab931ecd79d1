package streaming

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
)

// Stats is a snapshot of the streaming state. Buffer figures are in elements of the
// streaming region; the always-resident region is reported separately.
type Stats struct {
	Frame uint64

	// ResidentByLOD counts chunks with each LOD resident. The last entry is every chunk.
	ResidentByLOD []int
	QueueLength   int

	RequestsThisFrame     int
	UploadsThisFrame      int
	EvictionsThisFrame    int
	DroppedThisFrame      int
	LoadFailuresThisFrame int

	VertexUsed      uint32
	VertexTotal     uint32
	IndexUsed       uint32
	IndexTotal      uint32
	VertexFragments int
	IndexFragments  int

	ReservedVertices uint32
	ReservedIndices  uint32

	TotalUploads      uint64
	TotalEvictions    uint64
	TotalLoadFailures uint64
}

// HighLODResident returns how many chunks have LOD 0 resident.
func (s Stats) HighLODResident() int {
	if len(s.ResidentByLOD) == 0 {
		return 0
	}
	return s.ResidentByLOD[0]
}

// VertexBytesUsed returns the allocated streaming vertex space in bytes.
func (s Stats) VertexBytesUsed() uint64 {
	return uint64(s.VertexUsed) * uint64(terrain.VertexStride)
}

// IndexBytesUsed returns the allocated streaming index space in bytes.
func (s Stats) IndexBytesUsed() uint64 {
	return uint64(s.IndexUsed) * terrain.IndexStride
}

// LogValue implements slog.LogValuer.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frame", s.Frame),
		slog.Int("highLODResident", s.HighLODResident()),
		slog.Int("queue", s.QueueLength),
		slog.Int("requests", s.RequestsThisFrame),
		slog.Int("uploads", s.UploadsThisFrame),
		slog.Int("evictions", s.EvictionsThisFrame),
		slog.Int("dropped", s.DroppedThisFrame),
		slog.Group("vertex",
			slog.Any("used", s.VertexUsed),
			slog.Any("total", s.VertexTotal),
			slog.Int("fragments", s.VertexFragments),
		),
		slog.Group("index",
			slog.Any("used", s.IndexUsed),
			slog.Any("total", s.IndexTotal),
			slog.Int("fragments", s.IndexFragments),
		),
	)
}
