package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController defines the union interface for camera control systems.
// Controllers own positional state (position, heading). Camera reads from controller
// and computes view/projection matrices. Embeds both lookCameraController and
// planarCameraController so a single fly-through controller can turn and translate.
type CameraController interface {
	lookCameraController
	planarCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - position: world-space coordinates
	SetPosition(position mgl32.Vec3)

	// Forward returns the unit view direction derived from yaw and pitch.
	//
	// Returns:
	//   - mgl32.Vec3: unit forward vector
	Forward() mgl32.Vec3

	// Target returns a look-at point one unit ahead of the camera.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// LookAt turns the camera toward a world-space point, keeping its position.
	// Pitch is clamped to the controller's limit. Looking at the camera's own position is a no-op.
	//
	// Parameters:
	//   - target: the point to face
	LookAt(target mgl32.Vec3)
}

// lookCameraController defines heading control methods.
// Yaw rotates around the world Y axis (0 faces +Z), pitch tilts from the horizontal plane.
type lookCameraController interface {
	// TurnLeft rotates the heading left by one turn speed step.
	TurnLeft()

	// TurnRight rotates the heading right by one turn speed step.
	TurnRight()

	// TurnUp tilts the heading up by one turn speed step, clamped to the pitch limit.
	TurnUp()

	// TurnDown tilts the heading down by one turn speed step, clamped to the pitch limit.
	TurnDown()

	// Yaw returns the current heading around the Y axis in radians.
	Yaw() float32

	// SetYaw sets the heading around the Y axis in radians.
	SetYaw(yaw float32)

	// Pitch returns the current tilt from the horizontal plane in radians.
	Pitch() float32

	// SetPitch sets the tilt in radians, clamped to the pitch limit.
	SetPitch(pitch float32)

	// PitchLimit returns the largest allowed absolute pitch in radians.
	PitchLimit() float32

	// TurnSpeed returns the keyboard turn speed in radians per step.
	TurnSpeed() float32
}

// planarCameraController defines translation control methods.
// Panning moves the camera along its local axes without changing its heading.
type planarCameraController interface {
	// PanRight translates the camera along its local right axis.
	// Positive delta moves right, negative moves left.
	//
	// Parameters:
	//   - delta: pan amount scaled by PanSpeed
	PanRight(delta float32)

	// PanUp translates the camera along the world up axis.
	// Positive delta moves up, negative moves down.
	//
	// Parameters:
	//   - delta: pan amount scaled by PanSpeed
	PanUp(delta float32)

	// PanForward translates the camera along its forward axis.
	// Positive delta moves ahead, negative moves back.
	//
	// Parameters:
	//   - delta: pan amount scaled by PanSpeed
	PanForward(delta float32)

	// PanSpeed returns the pan speed multiplier.
	//
	// Returns:
	//   - float32: world units per unit of pan input
	PanSpeed() float32
}
