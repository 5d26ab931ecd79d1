package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-terrain/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func level(position mgl32.Vec3) CameraController {
	return NewCameraController(WithPosition(position), WithHeading(0, 0))
}

func TestControllerDefaults(t *testing.T) {
	cc := NewCameraController()
	assert.Equal(t, mgl32.Vec3{0, 120, 0}, cc.Position())
	assert.InDelta(t, -0.2, cc.Pitch(), 1e-6)
	assert.InDelta(t, 1, cc.Forward().Len(), 1e-5)
}

func TestControllerPitchIsClamped(t *testing.T) {
	cc := NewCameraController(WithPitchLimit(0.5), WithHeading(0, 2))
	assert.InDelta(t, 0.5, cc.Pitch(), 1e-6)

	cc.SetPitch(-3)
	assert.InDelta(t, -0.5, cc.Pitch(), 1e-6)

	for range 100 {
		cc.TurnUp()
	}
	assert.InDelta(t, 0.5, cc.Pitch(), 1e-6)
}

func TestControllerPan(t *testing.T) {
	cc := level(mgl32.Vec3{0, 10, 0})

	cc.PanForward(5)
	assert.True(t, cc.Position().ApproxEqualThreshold(mgl32.Vec3{0, 10, 5}, 1e-5), "%v", cc.Position())

	cc.PanRight(2)
	assert.True(t, cc.Position().ApproxEqualThreshold(mgl32.Vec3{-2, 10, 5}, 1e-5), "%v", cc.Position())

	cc.PanUp(3)
	assert.True(t, cc.Position().ApproxEqualThreshold(mgl32.Vec3{-2, 13, 5}, 1e-5), "%v", cc.Position())
}

func TestControllerPanKeepsAltitudeWhenPitched(t *testing.T) {
	cc := NewCameraController(WithPosition(mgl32.Vec3{0, 50, 0}), WithHeading(1, -0.7))
	cc.PanRight(10)
	assert.InDelta(t, 50, cc.Position().Y(), 1e-4)
}

func TestControllerLookAt(t *testing.T) {
	cc := level(mgl32.Vec3{0, 0, 0})

	cc.LookAt(mgl32.Vec3{10, 0, 0})
	assert.InDelta(t, math.Pi/2, cc.Yaw(), 1e-5)
	assert.True(t, cc.Forward().ApproxEqualThreshold(mgl32.Vec3{1, 0, 0}, 1e-5))

	cc.LookAt(mgl32.Vec3{10, 10, 0})
	assert.InDelta(t, math.Pi/4, cc.Pitch(), 1e-5)

	before := cc.Forward()
	cc.LookAt(cc.Position())
	assert.Equal(t, before, cc.Forward(), "looking at its own position changes nothing")
}

func TestCameraWithoutController(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, mgl32.Ident4(), c.ViewMatrix())
	assert.Equal(t, mgl32.Vec3{}, c.Position())
	c.Update()
	assert.Nil(t, c.Controller())
}

func TestCameraFrustumFollowsController(t *testing.T) {
	cc := level(mgl32.Vec3{0, 120, 0})
	c := NewCamera(WithController(cc), WithClipPlanes(1, 1000))

	f := c.Frustum()
	assert.True(t, f.ContainsPoint(mgl32.Vec3{0, 120, 50}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 120, -50}), "behind the camera")
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 120, 2000}), "past the far plane")

	cc.SetYaw(math.Pi)
	c.Update()
	f = c.Frustum()
	assert.True(t, f.ContainsPoint(mgl32.Vec3{0, 120, -50}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 120, 50}))
}

func TestCameraRightAxisMatchesScreen(t *testing.T) {
	cc := level(mgl32.Vec3{})
	c := NewCamera(WithController(cc), WithAspect(1))

	cc.PanRight(1)
	c.Update()
	// after moving right the old view axis lies on the camera's left
	clip := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 10, 1})
	assert.Less(t, clip.X()/clip.W(), float32(0))
}

func TestCameraSetters(t *testing.T) {
	c := NewCamera(WithController(level(mgl32.Vec3{})))
	before := c.ProjectionMatrix()

	c.SetFov(mgl32.DegToRad(30))
	assert.NotEqual(t, before, c.ProjectionMatrix())
	c.SetAspect(2)
	c.SetNear(2)
	c.SetFar(50)
	assert.Equal(t, float32(2), c.Aspect())
	assert.Equal(t, float32(2), c.Near())
	assert.Equal(t, float32(50), c.Far())
	assert.Equal(t, c.ProjectionMatrix().Mul4(c.ViewMatrix()), c.ViewProjectionMatrix())
}

func TestFlightPath(t *testing.T) {
	_, err := NewFlightPath(false, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1})
	require.ErrorIs(t, err, ErrTooFewWaypoints)

	path, err := NewFlightPath(false, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{10, 0, 0}, mgl32.Vec3{10, 0, 10})
	require.NoError(t, err)
	assert.InDelta(t, 20, path.Length(), 1e-5)

	pos, dir := path.At(5)
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, pos)
	assert.True(t, dir.ApproxEqual(mgl32.Vec3{1, 0, 0}))

	pos, dir = path.At(15)
	assert.True(t, pos.ApproxEqual(mgl32.Vec3{10, 0, 5}))
	assert.True(t, dir.ApproxEqual(mgl32.Vec3{0, 0, 1}))

	pos, _ = path.At(100)
	assert.True(t, pos.ApproxEqual(mgl32.Vec3{10, 0, 10}), "clamped to the end")
	pos, _ = path.At(-3)
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, pos)
}

func TestFlightPathLoop(t *testing.T) {
	path, err := NewFlightPath(true, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{10, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 20, path.Length(), 1e-5)

	pos, dir := path.At(25)
	assert.True(t, pos.ApproxEqual(mgl32.Vec3{5, 0, 0}), "%v", pos)
	assert.True(t, dir.ApproxEqual(mgl32.Vec3{1, 0, 0}))

	pos, dir = path.At(15)
	assert.True(t, pos.ApproxEqual(mgl32.Vec3{5, 0, 0}), "%v", pos)
	assert.True(t, dir.ApproxEqual(mgl32.Vec3{-1, 0, 0}))
}

func TestFlightPathDrive(t *testing.T) {
	path, err := NewFlightPath(false, mgl32.Vec3{0, 50, 0}, mgl32.Vec3{0, 50, 100})
	require.NoError(t, err)

	cc := NewCameraController()
	path.Drive(cc, 40)
	assert.True(t, cc.Position().ApproxEqual(mgl32.Vec3{0, 50, 40}))
	assert.True(t, cc.Forward().ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5))
}

func TestKeyBindingsApply(t *testing.T) {
	cc := level(mgl32.Vec3{0, 10, 0})
	held := map[uint32]bool{common.KeyW: true, common.KeySpace: true}
	DefaultKeyBindings().Apply(cc, func(k uint32) bool { return held[k] }, 2)
	assert.True(t, cc.Position().ApproxEqualThreshold(mgl32.Vec3{0, 12, 2}, 1e-5), "%v", cc.Position())

	held = map[uint32]bool{common.KeyQ: true}
	DefaultKeyBindings().Apply(cc, func(k uint32) bool { return held[k] }, 2)
	assert.InDelta(t, cc.TurnSpeed(), cc.Yaw(), 1e-6)

	held = map[uint32]bool{common.KeyW: true, common.KeyS: true}
	before := cc.Position()
	DefaultKeyBindings().Apply(cc, func(k uint32) bool { return held[k] }, 2)
	assert.True(t, cc.Position().ApproxEqualThreshold(before, 1e-4), "opposing keys cancel")
}
