package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-terrain/engine/loader"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
)

// exportJob bakes every chunk and LOD of a grid into chunk mesh files.
type exportJob struct {
	source   loader.MeshSource
	grid     terrain.Grid
	lodCount int
	outDir   string
	workers  int
	logger   *slog.Logger
}

type exportResult struct {
	Files int
	Bytes int64
}

// run bakes the meshes on a worker pool. Every (chunk, LOD) pair is one task; the first
// failures are joined into the returned error and the remaining tasks still run.
func (j exportJob) run() (exportResult, error) {
	if err := os.MkdirAll(j.outDir, 0o755); err != nil {
		return exportResult{}, fmt.Errorf("create output directory: %w", err)
	}

	pool := worker.NewDynamicWorkerPool(max(1, j.workers), 256, 1*time.Second)

	var (
		wg      sync.WaitGroup
		files   atomic.Int64
		bytes   atomic.Int64
		errMu   sync.Mutex
		errs    []error
		started = time.Now()
	)
	fail := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		errs = append(errs, err)
	}

	taskID := 0
	for i := 0; i < j.grid.TotalChunks(); i++ {
		coord := j.grid.Coord(i)
		for lod := 0; lod < j.lodCount; lod++ {
			wg.Add(1)
			id := taskID
			taskID++
			pool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					n, err := j.bake(coord, lod)
					if err != nil {
						fail(err)
						return nil, err
					}
					files.Add(1)
					bytes.Add(n)
					return nil, nil
				},
			})
		}
	}
	wg.Wait()

	result := exportResult{Files: int(files.Load()), Bytes: bytes.Load()}
	j.logger.Info("export finished",
		"files", result.Files,
		"bytes", result.Bytes,
		"failed", len(errs),
		"elapsed", time.Since(started),
	)
	return result, errors.Join(errs...)
}

// bake generates one mesh and writes it, returning the file size.
func (j exportJob) bake(coord terrain.ChunkCoord, lod int) (int64, error) {
	mesh, err := j.source.LoadChunkMesh(coord, lod)
	if err != nil {
		return 0, err
	}
	path, err := loader.WriteChunkMeshFile(j.outDir, mesh)
	if err != nil {
		return 0, fmt.Errorf("write chunk %s LOD%d: %w", coord, lod, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	j.logger.Debug("baked chunk mesh", "chunk", coord.String(), "lod", lod, "path", path, "bytes", info.Size())
	return info.Size(), nil
}
