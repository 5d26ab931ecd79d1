package streaming

import (
	"math"

	"github.com/Carmen-Shannon/oxy-terrain/engine/terrain"
)

// BuildChunkDataForGPU fills one descriptor per chunk in flat index order. Every LOD slot holds
// a drawable range: the LOD's own allocation when Resident, otherwise the always-resident one.
// Slots past the table's LOD count repeat the always-resident range.
func (m *managerImpl) BuildChunkDataForGPU() []terrain.GPUChunkData {
	if !m.initialized {
		return nil
	}
	count := m.lods.Count()
	limits := make([]float32, terrain.MaxLODs)
	for lod := range limits {
		limits[lod] = math.MaxFloat32
		if lod < count && !math.IsInf(float64(m.lods.MaxDistanceSq(lod)), 1) {
			limits[lod] = m.lods.MaxDistanceSq(lod)
		}
	}

	out := make([]terrain.GPUChunkData, m.table.Chunks())
	for i := range out {
		d := &out[i]
		box := m.aabbs[i]
		d.AABBMin = [4]float32{box.Min[0], box.Min[1], box.Min[2], 0}
		d.AABBMax = [4]float32{box.Max[0], box.Max[1], box.Max[2], 0}
		for lod := range terrain.MaxLODs {
			alloc := m.table.Resolve(i, min(lod, count-1)).Allocation()
			d.LODs[lod] = terrain.GPUChunkLOD{
				FirstIndex:    alloc.IndexOffset,
				IndexCount:    alloc.IndexCount,
				VertexOffset:  alloc.VertexOffset,
				MaxDistanceSq: limits[lod],
			}
		}
	}
	return out
}
