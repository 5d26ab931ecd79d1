package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrustum() Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 1, 1000)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	return ExtractFrustum(proj.Mul4(view))
}

func TestFrustumContainsPoint(t *testing.T) {
	f := testFrustum()

	assert.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, -10}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 10}), "behind the camera")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, -2000}), "beyond the far plane")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{100, 0, -10}), "outside the right plane")
}

func TestFrustumPlanesAreNormalized(t *testing.T) {
	f := testFrustum()
	for i, p := range f.Planes {
		assert.InDelta(t, 1.0, p.Normal.Len(), 1e-4, "plane %d", i)
	}
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := testFrustum()

	inside := AABB{Min: mgl32.Vec3{-1, -1, -20}, Max: mgl32.Vec3{1, 1, -10}}
	straddling := AABB{Min: mgl32.Vec3{-5, -5, -5}, Max: mgl32.Vec3{5, 5, 5}}
	behind := AABB{Min: mgl32.Vec3{-1, -1, 5}, Max: mgl32.Vec3{1, 1, 10}}
	farLeft := AABB{Min: mgl32.Vec3{-500, -1, -20}, Max: mgl32.Vec3{-400, 1, -10}}

	assert.True(t, f.IntersectsAABB(inside))
	assert.True(t, f.IntersectsAABB(straddling))
	assert.False(t, f.IntersectsAABB(behind))
	assert.False(t, f.IntersectsAABB(farLeft))
}

func TestAABBExtendAndCenter(t *testing.T) {
	b := EmptyAABB()
	require.True(t, b.IsEmpty())

	b.Extend(mgl32.Vec3{0, 2, 4})
	b.Extend(mgl32.Vec3{10, -2, 0})
	assert.False(t, b.IsEmpty())
	assert.Equal(t, mgl32.Vec3{0, -2, 0}, b.Min)
	assert.Equal(t, mgl32.Vec3{10, 2, 4}, b.Max)
	assert.Equal(t, mgl32.Vec3{5, 0, 2}, b.Center())
	assert.Equal(t, mgl32.Vec3{5, 2, 2}, b.Extents())
	assert.True(t, b.Contains(mgl32.Vec3{5, 0, 2}))
	assert.False(t, b.Contains(mgl32.Vec3{11, 0, 2}))
}

func TestPackNormalRoundTrip(t *testing.T) {
	normals := []mgl32.Vec3{
		{0, 1, 0},
		{1, 0, 0},
		{0, 0, -1},
		mgl32.Vec3{1, 1, 1}.Normalize(),
		mgl32.Vec3{-0.3, 0.9, 0.1}.Normalize(),
	}
	for _, n := range normals {
		got := UnpackNormal(PackNormal(n))
		assert.InDelta(t, n[0], got[0], 0.01)
		assert.InDelta(t, n[1], got[1], 0.01)
		assert.InDelta(t, n[2], got[2], 0.01)
	}
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, float32(2.5), Coalesce(float32(0), 2.5))
}

func TestDistanceSq(t *testing.T) {
	assert.Equal(t, float32(25), DistanceSq(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{3, 0, 4}))
}
