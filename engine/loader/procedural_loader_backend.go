package loader

import (
	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
)

// NoiseSettings parameterizes the procedural heightfield.
type NoiseSettings struct {
	// Seed selects the noise permutation.
	Seed int64
	// Alpha is the amplitude falloff between octaves.
	Alpha float64
	// Beta is the frequency growth between octaves.
	Beta float64
	// Octaves is the number of noise octaves.
	Octaves int32
	// Frequency scales world coordinates before sampling.
	Frequency float64
	// Resolution is the number of quads along a chunk edge at LOD 0.
	Resolution int
	// LODDivisor divides the resolution at every coarser LOD.
	LODDivisor int
}

// DefaultNoiseSettings returns a rolling-hills heightfield with 32x32 quads per chunk at LOD 0
// and a quarter of that per edge at each coarser LOD.
func DefaultNoiseSettings() NoiseSettings {
	return NoiseSettings{
		Seed:       1337,
		Alpha:      2,
		Beta:       2,
		Octaves:    3,
		Frequency:  1.0 / 256,
		Resolution: 32,
		LODDivisor: 4,
	}
}

// ResolutionAt returns the quads per chunk edge at a LOD, never less than 1.
func (s NoiseSettings) ResolutionAt(lod int) int {
	r := s.Resolution
	for i := 0; i < lod && r > 1; i++ {
		r /= max(s.LODDivisor, 2)
	}
	return max(r, 1)
}

// proceduralLoaderBackend builds chunk meshes from a Perlin heightfield. Neighbouring chunks
// sample the same world positions on their shared edge, so seams line up within a LOD.
type proceduralLoaderBackend struct {
	grid     terrain.Grid
	lodCount int
	settings NoiseSettings
	noise    *perlin.Perlin
}

var _ loaderBackend = &proceduralLoaderBackend{}

func newProceduralLoaderBackend(grid terrain.Grid, lodCount int, settings NoiseSettings) *proceduralLoaderBackend {
	return &proceduralLoaderBackend{
		grid:     grid,
		lodCount: lodCount,
		settings: settings,
		noise:    perlin.NewPerlin(settings.Alpha, settings.Beta, settings.Octaves, settings.Seed),
	}
}

// height returns the terrain elevation at a world position, in [0, MaxHeight].
func (b *proceduralLoaderBackend) height(x, z float32) float32 {
	n := b.noise.Noise2D(float64(x)*b.settings.Frequency, float64(z)*b.settings.Frequency)
	return mgl32.Clamp(float32((n+1)/2), 0, 1) * b.grid.MaxHeight
}

func (b *proceduralLoaderBackend) load(coord terrain.ChunkCoord, lod int) (*terrain.ChunkMesh, error) {
	res := b.settings.ResolutionAt(lod)
	step := b.grid.ChunkWorldSize / float32(res)
	worldSize := b.grid.ChunkWorldSize * float32(b.grid.Size)
	x0 := float32(coord.X) * b.grid.ChunkWorldSize
	z0 := float32(coord.Y) * b.grid.ChunkWorldSize

	side := res + 1
	mesh := &terrain.ChunkMesh{
		Coord:    coord,
		LOD:      lod,
		Vertices: make([]terrain.GPUTerrainVertex, 0, side*side),
		Indices:  make([]uint32, 0, res*res*6),
	}
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			x := x0 + float32(i)*step
			z := z0 + float32(j)*step
			normal := mgl32.Vec3{
				b.height(x-step, z) - b.height(x+step, z),
				2 * step,
				b.height(x, z-step) - b.height(x, z+step),
			}
			mesh.Vertices = append(mesh.Vertices, terrain.GPUTerrainVertex{
				Position: [3]float32{x, b.height(x, z), z},
				UV:       [2]float32{x / worldSize, z / worldSize},
				Normal:   common.PackNormal(normal),
			})
		}
	}
	for i := 0; i < res; i++ {
		for j := 0; j < res; j++ {
			a := uint32(i*side + j)
			c := a + uint32(side)
			mesh.Indices = append(mesh.Indices, a, a+1, c, c, a+1, c+1)
		}
	}
	return mesh, nil
}
