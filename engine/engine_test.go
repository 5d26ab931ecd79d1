package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-terrain/engine/camera"
	"github.com/Carmen-Shannon/oxy-terrain/engine/gpubuffer"
	"github.com/Carmen-Shannon/oxy-terrain/engine/loader"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain/residency"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain/streaming"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headlessTerrain(t *testing.T) (Engine, camera.CameraController, gpubuffer.Uploader) {
	t.Helper()
	grid := terrain.Grid{Size: 4, ChunkWorldSize: 64, MaxHeight: 50}

	uploader, err := gpubuffer.NewUploader(gpubuffer.BackendTypeMemory)
	require.NoError(t, err)

	m := streaming.NewManager(
		streaming.WithGrid(grid),
		streaming.WithMeshSource(loader.NewLoader(loader.BackendTypeProcedural, loader.WithGrid(grid), loader.WithLODCount(2))),
		streaming.WithUploader(uploader),
	)
	require.NoError(t, m.Initialize(1<<16, 1<<18))

	ctrl := camera.NewCameraController(camera.WithPosition(mgl32.Vec3{128, 60, 128}))
	cam := camera.NewCamera(camera.WithController(ctrl))
	return NewEngine(WithCamera(cam), WithTerrain(m)), ctrl, uploader
}

func TestStepDrivesStreaming(t *testing.T) {
	e, _, uploader := headlessTerrain(t)

	ticks, renders := 0, 0
	e.SetTickCallback(func(float32) { ticks++ })
	e.SetRenderCallback(func(float32) {
		renders++
		if e.Terrain().ChunkDataDirty() {
			e.Terrain().ClearChunkDataDirty()
		}
	})

	assert.Equal(t, 20, e.RunFrames(20, 1.0/60))
	assert.Equal(t, 20, ticks)
	assert.Equal(t, 20, renders)
	assert.Equal(t, uint64(20), e.Terrain().Frame())

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, residency.Resident, e.Terrain().GetResidencyState(x, y, 0), "chunk %d,%d", x, y)
		}
	}
	assert.Positive(t, uploader.Stats().IndexBytes)
}

func TestRunFramesStopsAfterQuit(t *testing.T) {
	e, _, _ := headlessTerrain(t)
	e.SetTickCallback(func(float32) { e.Quit() })
	assert.Equal(t, 1, e.RunFrames(10, 1.0/60))
	e.Quit()
}

func TestTickMovesCameraBeforeStreaming(t *testing.T) {
	e, ctrl, _ := headlessTerrain(t)
	e.SetTickCallback(func(float32) { ctrl.PanRight(1) })
	e.Step(1.0 / 60)

	pos := ctrl.Position()
	assert.Equal(t, float32(127), pos.X(), "right is -X at zero yaw")
	want := mgl32.LookAtV(pos, pos.Add(ctrl.Forward()), mgl32.Vec3{0, 1, 0})
	assert.Equal(t, want, e.Camera().ViewMatrix())
	assert.Equal(t, uint64(1), e.Terrain().Frame())
}

func TestEngineWithoutTerrain(t *testing.T) {
	e := NewEngine()
	assert.Nil(t, e.Window())
	assert.Nil(t, e.Camera())
	assert.Nil(t, e.Terrain())
	assert.Equal(t, 3, e.RunFrames(3, 0.1))
}

func TestHeadlessRunReturnsOnQuit(t *testing.T) {
	e, _, _ := headlessTerrain(t)
	e.SetTickRate(500)
	var ticks atomic.Int32
	e.SetTickCallback(func(float32) { ticks.Add(1) })

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()

	require.Eventually(t, func() bool { return ticks.Load() > 0 }, 2*time.Second, time.Millisecond)
	e.Quit()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}
