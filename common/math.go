package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DistanceSq returns the squared Euclidean distance between two points.
//
// Parameters:
//   - a: first point
//   - b: second point
//
// Returns:
//   - float32: |a - b|²
func DistanceSq(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	return d.Dot(d)
}

// PackNormal packs a unit normal into four signed 8-bit components (xyz + zero pad),
// the layout WebGPU reads with the snorm8x4 vertex format.
//
// Parameters:
//   - n: the normal to pack; it is normalized first
//
// Returns:
//   - uint32: the packed normal, x in the lowest byte
func PackNormal(n mgl32.Vec3) uint32 {
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	var packed uint32
	for i := 0; i < 3; i++ {
		c := int8(math.Round(float64(mgl32.Clamp(n[i], -1, 1)) * 127))
		packed |= uint32(uint8(c)) << (8 * i)
	}
	return packed
}

// UnpackNormal reverses PackNormal. The result is not renormalized.
//
// Parameters:
//   - packed: a value produced by PackNormal
//
// Returns:
//   - mgl32.Vec3: the decoded normal
func UnpackNormal(packed uint32) mgl32.Vec3 {
	var n mgl32.Vec3
	for i := 0; i < 3; i++ {
		c := int8(uint8(packed >> (8 * i)))
		n[i] = mgl32.Clamp(float32(c)/127, -1, 1)
	}
	return n
}
