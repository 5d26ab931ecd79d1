// Package config loads the terrain streaming configuration from YAML and maps it onto the
// streaming, loader and engine builder options.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/Carmen-Shannon/oxy-terrain/engine/loader"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain/streaming"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable read when Load is given an empty path.
const EnvConfigPath = "OXY_TERRAIN_CONFIG"

// ErrInvalidConfig is returned when a loaded configuration cannot be used.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the root of the YAML document. Zero values mean "use the default".
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	LOD       LODConfig       `yaml:"lod"`
	Streaming StreamingConfig `yaml:"streaming"`
	Eviction  EvictionConfig  `yaml:"eviction"`
	Buffers   BufferConfig    `yaml:"buffers"`
	Source    SourceConfig    `yaml:"source"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type GridConfig struct {
	Size           int     `yaml:"size"`
	ChunkWorldSize float32 `yaml:"chunk_world_size"`
	MaxHeight      float32 `yaml:"max_height"`
}

// LODConfig lists the squared distance limits of the streamed LODs in increasing order.
// The always-resident LOD is implied. An explicit hysteresis_margin of 0 disables hysteresis.
type LODConfig struct {
	ThresholdsSq     []float32 `yaml:"thresholds_sq"`
	HysteresisMargin *float32  `yaml:"hysteresis_margin"`
}

// Margin returns the hysteresis margin, the default when unset.
func (l LODConfig) Margin() float32 {
	if l.HysteresisMargin == nil {
		return terrain.DefaultHysteresisMargin
	}
	return *l.HysteresisMargin
}

type StreamingConfig struct {
	MaxUploadsPerFrame   int     `yaml:"max_uploads_per_frame"`
	MaxEvictionsPerFrame int     `yaml:"max_evictions_per_frame"`
	MaxQueueSize         int     `yaml:"max_queue_size"`
	ActiveRadius         int     `yaml:"active_radius"`
	UpdateIntervalFrames int     `yaml:"update_interval_frames"`
	CameraMoveThreshold  float32 `yaml:"camera_move_threshold"`
	ReleaseFactor        float32 `yaml:"release_factor"`
	StatsLogInterval     int     `yaml:"stats_log_interval_frames"`
	FrustumCulling       bool    `yaml:"frustum_culling"`
}

// EvictionConfig weights the eviction score. Unset weights take the default; an explicit 0
// drops that signal.
type EvictionConfig struct {
	DistanceWeight  *float32 `yaml:"distance_weight"`
	StalenessWeight *float32 `yaml:"staleness_weight"`
}

// Policy returns the eviction policy with defaults for unset weights.
func (e EvictionConfig) Policy() streaming.EvictionPolicy {
	policy := streaming.DefaultEvictionPolicy()
	if e.DistanceWeight != nil {
		policy.DistanceWeight = *e.DistanceWeight
	}
	if e.StalenessWeight != nil {
		policy.StalenessWeight = *e.StalenessWeight
	}
	return policy
}

// BufferConfig sizes the streaming region of the unified buffers in elements.
type BufferConfig struct {
	VertexCapacity uint32 `yaml:"vertex_capacity"`
	IndexCapacity  uint32 `yaml:"index_capacity"`
}

type SourceConfig struct {
	// Type is "procedural" or "file".
	Type      string      `yaml:"type"`
	Directory string      `yaml:"directory"`
	CacheSize int         `yaml:"cache_size"`
	Noise     NoiseConfig `yaml:"noise"`
}

type NoiseConfig struct {
	Seed       int64   `yaml:"seed"`
	Alpha      float64 `yaml:"alpha"`
	Beta       float64 `yaml:"beta"`
	Octaves    int32   `yaml:"octaves"`
	Frequency  float64 `yaml:"frequency"`
	Resolution int     `yaml:"resolution"`
	LODDivisor int     `yaml:"lod_divisor"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML configuration and fills unset fields with defaults.
// An empty path falls back to $OXY_TERRAIN_CONFIG, and to Default when that is unset too.
//
// Parameters:
//   - path: the YAML file to read, or ""
//
// Returns:
//   - Config: the configuration with defaults applied
//   - error: a read, parse or validation error
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		if path == "" {
			return Default(), nil
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML document, applies defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// orDefault keeps an explicitly set value, zero included.
func orDefault[T any](v *T, def T) *T {
	if v != nil {
		return v
	}
	return &def
}

func (c *Config) applyDefaults() {
	grid := terrain.DefaultGrid()
	c.Grid.Size = common.Coalesce(c.Grid.Size, grid.Size)
	c.Grid.ChunkWorldSize = common.Coalesce(c.Grid.ChunkWorldSize, grid.ChunkWorldSize)
	c.Grid.MaxHeight = common.Coalesce(c.Grid.MaxHeight, grid.MaxHeight)

	if len(c.LOD.ThresholdsSq) == 0 {
		lods := terrain.DefaultLODTable()
		c.LOD.ThresholdsSq = lods.Thresholds()[:lods.AlwaysResident()]
	}
	c.LOD.HysteresisMargin = orDefault(c.LOD.HysteresisMargin, terrain.DefaultHysteresisMargin)

	c.Streaming.MaxUploadsPerFrame = common.Coalesce(c.Streaming.MaxUploadsPerFrame, 8)
	c.Streaming.MaxEvictionsPerFrame = common.Coalesce(c.Streaming.MaxEvictionsPerFrame, 16)
	c.Streaming.MaxQueueSize = common.Coalesce(c.Streaming.MaxQueueSize, streaming.DefaultMaxQueueSize)
	c.Streaming.ActiveRadius = common.Coalesce(c.Streaming.ActiveRadius, streaming.DefaultActiveRadius)
	c.Streaming.UpdateIntervalFrames = common.Coalesce(c.Streaming.UpdateIntervalFrames, 2)
	c.Streaming.CameraMoveThreshold = common.Coalesce(c.Streaming.CameraMoveThreshold, 10)
	c.Streaming.StatsLogInterval = common.Coalesce(c.Streaming.StatsLogInterval, 60)

	policy := streaming.DefaultEvictionPolicy()
	c.Eviction.DistanceWeight = orDefault(c.Eviction.DistanceWeight, policy.DistanceWeight)
	c.Eviction.StalenessWeight = orDefault(c.Eviction.StalenessWeight, policy.StalenessWeight)

	c.Buffers.VertexCapacity = common.Coalesce(c.Buffers.VertexCapacity, 1<<20)
	c.Buffers.IndexCapacity = common.Coalesce(c.Buffers.IndexCapacity, 1<<22)

	c.Source.Type = strings.ToLower(common.Coalesce(c.Source.Type, "procedural"))
	c.Source.Directory = common.Coalesce(c.Source.Directory, "terrain")
	noise := loader.DefaultNoiseSettings()
	c.Source.Noise.Seed = common.Coalesce(c.Source.Noise.Seed, noise.Seed)
	c.Source.Noise.Alpha = common.Coalesce(c.Source.Noise.Alpha, noise.Alpha)
	c.Source.Noise.Beta = common.Coalesce(c.Source.Noise.Beta, noise.Beta)
	c.Source.Noise.Octaves = common.Coalesce(c.Source.Noise.Octaves, noise.Octaves)
	c.Source.Noise.Frequency = common.Coalesce(c.Source.Noise.Frequency, noise.Frequency)
	c.Source.Noise.Resolution = common.Coalesce(c.Source.Noise.Resolution, noise.Resolution)
	c.Source.Noise.LODDivisor = common.Coalesce(c.Source.Noise.LODDivisor, noise.LODDivisor)

	c.Metrics.Addr = common.Coalesce(c.Metrics.Addr, ":2112")
}

// Validate checks the values defaults cannot repair.
func (c Config) Validate() error {
	if c.Grid.Size < 0 || c.Grid.ChunkWorldSize < 0 || c.Grid.MaxHeight < 0 {
		return fmt.Errorf("%w: negative grid dimension %+v", ErrInvalidConfig, c.Grid)
	}
	if _, err := c.LODTable(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Streaming.ReleaseFactor < 0 {
		return fmt.Errorf("%w: release factor %v is negative", ErrInvalidConfig, c.Streaming.ReleaseFactor)
	}
	if c.LOD.Margin() < 0 {
		return fmt.Errorf("%w: hysteresis margin %v is negative", ErrInvalidConfig, c.LOD.Margin())
	}
	if policy := c.Eviction.Policy(); policy.DistanceWeight < 0 || policy.StalenessWeight < 0 {
		return fmt.Errorf("%w: eviction weights must not be negative", ErrInvalidConfig)
	}
	if _, err := c.SourceBackend(); err != nil {
		return err
	}
	return nil
}

// GridSpec returns the chunk grid.
func (c Config) GridSpec() terrain.Grid {
	return terrain.Grid{Size: c.Grid.Size, ChunkWorldSize: c.Grid.ChunkWorldSize, MaxHeight: c.Grid.MaxHeight}
}

// LODTable builds the LOD table from the configured thresholds.
func (c Config) LODTable() (terrain.LODTable, error) {
	return terrain.NewLODTable(c.LOD.ThresholdsSq...)
}

// SourceBackend maps the source type onto a loader backend.
func (c Config) SourceBackend() (loader.LoaderBackendType, error) {
	switch c.Source.Type {
	case "procedural":
		return loader.BackendTypeProcedural, nil
	case "file":
		return loader.BackendTypeFile, nil
	default:
		return 0, fmt.Errorf("%w: unknown source type %q", ErrInvalidConfig, c.Source.Type)
	}
}

// LoaderOptions returns the loader options for the configured source.
func (c Config) LoaderOptions() []loader.LoaderBuilderOption {
	n := c.Source.Noise
	return []loader.LoaderBuilderOption{
		loader.WithGrid(c.GridSpec()),
		loader.WithLODCount(len(c.LOD.ThresholdsSq) + 1),
		loader.WithDirectory(c.Source.Directory),
		loader.WithCacheSize(c.Source.CacheSize),
		loader.WithNoise(loader.NoiseSettings{
			Seed:       n.Seed,
			Alpha:      n.Alpha,
			Beta:       n.Beta,
			Octaves:    n.Octaves,
			Frequency:  n.Frequency,
			Resolution: n.Resolution,
			LODDivisor: n.LODDivisor,
		}),
	}
}

// ManagerOptions converts the configuration into streaming manager options. The mesh source,
// uploader, metrics and logger are left to the caller.
//
// Parameters:
//   - frustum: camera frustum used when frustum culling is enabled; nil disables it
//
// Returns:
//   - []streaming.ManagerBuilderOption: the options
//   - error: ErrInvalidConfig when the LOD table is unusable
func (c Config) ManagerOptions(frustum streaming.FrustumSource) ([]streaming.ManagerBuilderOption, error) {
	lods, err := c.LODTable()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	grid := c.GridSpec()
	opts := []streaming.ManagerBuilderOption{
		streaming.WithGrid(grid),
		streaming.WithLODTable(lods),
		streaming.WithHysteresisMargin(c.LOD.Margin()),
		streaming.WithMaxUploadsPerFrame(c.Streaming.MaxUploadsPerFrame),
		streaming.WithMaxEvictionsPerFrame(c.Streaming.MaxEvictionsPerFrame),
		streaming.WithMaxQueueSize(c.Streaming.MaxQueueSize),
		streaming.WithActiveRadius(c.Streaming.ActiveRadius),
		streaming.WithUpdateInterval(c.Streaming.UpdateIntervalFrames),
		streaming.WithCameraMoveThreshold(c.Streaming.CameraMoveThreshold),
		streaming.WithReleaseFactor(c.Streaming.ReleaseFactor),
		streaming.WithStatsLogInterval(c.Streaming.StatsLogInterval),
		streaming.WithEvictionPolicy(c.Eviction.Policy()),
	}
	if c.Streaming.FrustumCulling && frustum != nil {
		opts = append(opts, streaming.WithActiveChunkSet(streaming.FrustumActiveSet{Grid: grid, Source: frustum}))
	}
	return opts, nil
}
