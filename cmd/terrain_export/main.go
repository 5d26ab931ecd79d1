// Command terrain_export bakes procedural terrain into zstd-compressed chunk mesh files that
// the file mesh source streams from.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-terrain/config"
	"github.com/Carmen-Shannon/oxy-terrain/engine/loader"
)

func main() {
	var (
		configPath = flag.String("config", "", "terrain YAML config (defaults to $"+config.EnvConfigPath+")")
		outDir     = flag.String("out", "", "output directory (defaults to source.directory from the config)")
		workers    = flag.Int("workers", runtime.NumCPU(), "number of bake workers")
		verbose    = flag.Bool("v", false, "log every baked file")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if *outDir == "" {
		*outDir = cfg.Source.Directory
	}

	// bake from noise regardless of the configured source type
	source := loader.NewLoader(loader.BackendTypeProcedural, append(cfg.LoaderOptions(), loader.WithCacheSize(0), loader.WithLogger(logger))...)

	job := exportJob{
		source:   source,
		grid:     cfg.GridSpec(),
		lodCount: len(cfg.LOD.ThresholdsSq) + 1,
		outDir:   *outDir,
		workers:  *workers,
		logger:   logger.With("component", "terrain_export"),
	}
	if _, err := job.run(); err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}
}
