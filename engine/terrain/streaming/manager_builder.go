package streaming

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-terrain/engine/gpubuffer"
	"github.com/Carmen-Shannon/oxy-terrain/engine/loader"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
)

// ManagerBuilderOption is a functional option for configuring a Manager via NewManager.
type ManagerBuilderOption func(*managerImpl)

// WithGrid sets the chunk grid.
//
// Parameters:
//   - grid: the terrain grid
//
// Returns:
//   - ManagerBuilderOption: a function that applies the grid option to a manager
func WithGrid(grid terrain.Grid) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.grid = grid
	}
}

// WithLODTable sets the LOD distance table.
//
// Parameters:
//   - lods: the LOD table; its last level is always resident
//
// Returns:
//   - ManagerBuilderOption: a function that applies the LOD table option to a manager
func WithLODTable(lods terrain.LODTable) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.lods = lods
	}
}

// WithHysteresisMargin sets the fractional distance margin applied around LOD boundaries.
// Zero disables hysteresis.
func WithHysteresisMargin(margin float32) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.hysteresisMargin = max(margin, 0)
	}
}

// WithMaxUploadsPerFrame caps the LOD meshes streamed in per frame.
func WithMaxUploadsPerFrame(n int) ManagerBuilderOption {
	return func(m *managerImpl) {
		if n > 0 {
			m.maxUploadsPerFrame = n
		}
	}
}

// WithMaxEvictionsPerFrame caps the LOD meshes evicted per frame.
func WithMaxEvictionsPerFrame(n int) ManagerBuilderOption {
	return func(m *managerImpl) {
		if n >= 0 {
			m.maxEvictionsPerFrame = n
		}
	}
}

// WithMaxQueueSize caps the pending streaming requests.
func WithMaxQueueSize(n int) ManagerBuilderOption {
	return func(m *managerImpl) {
		if n > 0 {
			m.maxQueueSize = n
		}
	}
}

// WithActiveRadius sets the half-width, in chunks, of the evaluated square around the camera.
func WithActiveRadius(radius int) ManagerBuilderOption {
	return func(m *managerImpl) {
		if radius >= 0 {
			m.activeRadius = radius
		}
	}
}

// WithUpdateInterval sets how many frames pass between LOD evaluations while the camera is still.
func WithUpdateInterval(frames int) ManagerBuilderOption {
	return func(m *managerImpl) {
		if frames > 0 {
			m.updateInterval = uint64(frames)
		}
	}
}

// WithCameraMoveThreshold sets the camera travel distance that forces an immediate evaluation.
func WithCameraMoveThreshold(distance float32) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.cameraMoveThreshold = max(distance, 0)
	}
}

// WithEvictionPolicy sets the weights used to rank eviction candidates.
func WithEvictionPolicy(policy EvictionPolicy) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.policy = policy
	}
}

// WithReleaseFactor makes evaluations evict resident LODs whose squared camera distance exceeds
// their squared threshold times factor, without waiting for memory pressure. Zero disables it.
func WithReleaseFactor(factor float32) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.releaseFactor = max(factor, 0)
	}
}

// WithStatsLogInterval logs streaming stats every n frames. Zero disables periodic logging.
func WithStatsLogInterval(frames int) ManagerBuilderOption {
	return func(m *managerImpl) {
		if frames >= 0 {
			m.statsLogInterval = uint64(frames)
		}
	}
}

// WithMeshSource sets where chunk meshes are loaded from.
//
// Parameters:
//   - source: the mesh source
//
// Returns:
//   - ManagerBuilderOption: a function that applies the mesh source option to a manager
func WithMeshSource(source loader.MeshSource) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.source = source
	}
}

// WithUploader sets the GPU buffer uploader. Without one the manager tracks residency only.
//
// Parameters:
//   - uploader: the uploader owning the unified buffers
//
// Returns:
//   - ManagerBuilderOption: a function that applies the uploader option to a manager
func WithUploader(uploader gpubuffer.Uploader) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.uploader = uploader
	}
}

// WithActiveChunkSet replaces the default radius active set.
func WithActiveChunkSet(set ActiveChunkSet) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.activeSet = set
	}
}

// WithMetrics publishes per-frame statistics to Prometheus.
func WithMetrics(metrics *Metrics) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.metrics = metrics
	}
}

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ManagerBuilderOption: a function that applies the logger option to a manager
func WithLogger(logger *slog.Logger) ManagerBuilderOption {
	return func(m *managerImpl) {
		if logger != nil {
			m.logger = logger
		}
	}
}
