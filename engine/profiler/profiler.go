package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain/streaming"
)

// Profiler tracks frame rate, memory and terrain streaming statistics for performance monitoring.
// Outputs a structured record to the logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	streamingStats func() streaming.Stats
	lastUploads    uint64
	lastEvictions  uint64

	logger *slog.Logger
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are logged.
func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = interval
	}
}

// WithStreamingStats adds terrain streaming statistics to every record.
// Upload and eviction rates are derived from the cumulative counters.
//
// Parameters:
//   - source: returns the current snapshot, usually streaming.Manager.GetStats
//
// Returns:
//   - ProfilerOption: option function to apply
func WithStreamingStats(source func() streaming.Stats) ProfilerOption {
	return func(p *Profiler) {
		p.streamingStats = source
	}
}

// WithLogger sets the logger records are written to.
func WithLogger(logger *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		p.logger = logger
	}
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		logger:         slog.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	p.logger = p.logger.With("component", "profiler")
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory,
// and the streaming snapshot when a source is configured.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}
	seconds := max(elapsed.Seconds(), 1e-9)
	fps := float64(p.frameCount) / seconds

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows and tracks churn, Sys is the process footprint
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	attrs := []any{
		slog.Float64("fps", fps),
		slog.Float64("heapMB", allocMB),
		slog.Float64("allocRateMBps", allocRateMB),
		slog.Group("gc",
			slog.Any("count", gcCount),
			slog.Any("lastPauseUs", lastPauseUs),
			slog.Any("maxPauseUs", maxPauseUs),
		),
		slog.Float64("sysMB", sysMB),
	}
	if p.streamingStats != nil {
		stats := p.streamingStats()
		attrs = append(attrs,
			slog.Float64("uploadsPerSec", float64(stats.TotalUploads-p.lastUploads)/seconds),
			slog.Float64("evictionsPerSec", float64(stats.TotalEvictions-p.lastEvictions)/seconds),
			slog.Any("streaming", stats),
		)
		p.lastUploads = stats.TotalUploads
		p.lastEvictions = stats.TotalEvictions
	}
	p.logger.Info("frame stats", attrs...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
