package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// cameraControllerImpl is the single implementation of CameraController.
// Look methods modify yaw and pitch; planar methods translate the position along the
// camera's local axes, keeping the heading.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3

	yaw   float32 // Heading around Y axis, 0 faces +Z
	pitch float32 // Tilt from the horizontal plane

	pitchLimit float32

	turnSpeed float32
	panSpeed  float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new fly-through camera controller with defaults suited to
// terrain: hovering 120 units above the origin, looking along +Z and slightly down.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:       &sync.Mutex{},
		position: mgl32.Vec3{0, 120, 0},

		yaw:   0,
		pitch: -0.2,

		pitchLimit: float32(math.Pi/2 - 0.05),

		turnSpeed: 0.03,
		panSpeed:  1.0,
	}

	for _, option := range options {
		option(cc)
	}

	cc.pitch = cc.clampPitch(cc.pitch)
	return cc
}

// --- internal helpers ---

// clampPitch limits a pitch to the controller's range.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) clampPitch(pitch float32) float32 {
	return mgl32.Clamp(pitch, -cc.pitchLimit, cc.pitchLimit)
}

// localAxes computes the camera's local coordinate axes consistent with the LookAt matrix.
// Returns the unit forward vector and the horizontal unit right vector.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) localAxes() (forward, right mgl32.Vec3) {
	sinYaw, cosYaw := math.Sincos(float64(cc.yaw))
	sinPitch, cosPitch := math.Sincos(float64(cc.pitch))

	forward = mgl32.Vec3{
		float32(cosPitch * sinYaw),
		float32(sinPitch),
		float32(cosPitch * cosYaw),
	}
	// right = cross(forward, worldUp), flattened onto the ground plane
	right = mgl32.Vec3{float32(-cosYaw), 0, float32(sinYaw)}
	return forward, right
}

// --- CameraController shared methods ---

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(position mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = position
}

func (cc *cameraControllerImpl) Forward() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	forward, _ := cc.localAxes()
	return forward
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	forward, _ := cc.localAxes()
	return cc.position.Add(forward)
}

func (cc *cameraControllerImpl) LookAt(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	d := target.Sub(cc.position)
	horizontal := float32(math.Hypot(float64(d.X()), float64(d.Z())))
	if horizontal < 1e-6 && math.Abs(float64(d.Y())) < 1e-6 {
		return
	}
	if horizontal >= 1e-6 {
		cc.yaw = float32(math.Atan2(float64(d.X()), float64(d.Z())))
	}
	cc.pitch = cc.clampPitch(float32(math.Atan2(float64(d.Y()), float64(horizontal))))
}

// --- lookCameraController methods ---

func (cc *cameraControllerImpl) TurnLeft() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw += cc.turnSpeed
}

func (cc *cameraControllerImpl) TurnRight() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw -= cc.turnSpeed
}

func (cc *cameraControllerImpl) TurnUp() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pitch = cc.clampPitch(cc.pitch + cc.turnSpeed)
}

func (cc *cameraControllerImpl) TurnDown() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pitch = cc.clampPitch(cc.pitch - cc.turnSpeed)
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) SetYaw(yaw float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) SetPitch(pitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pitch = cc.clampPitch(pitch)
}

func (cc *cameraControllerImpl) PitchLimit() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitchLimit
}

func (cc *cameraControllerImpl) TurnSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.turnSpeed
}

// --- planarCameraController methods ---

// PanRight translates the camera along its horizontal right axis.
func (cc *cameraControllerImpl) PanRight(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, right := cc.localAxes()
	cc.position = cc.position.Add(right.Mul(delta * cc.panSpeed))
}

// PanUp translates the camera along the world Y axis.
func (cc *cameraControllerImpl) PanUp(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position[1] += delta * cc.panSpeed
}

// PanForward translates the camera along its view direction.
func (cc *cameraControllerImpl) PanForward(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	forward, _ := cc.localAxes()
	cc.position = cc.position.Add(forward.Mul(delta * cc.panSpeed))
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}
