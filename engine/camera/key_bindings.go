package camera

import "github.com/Carmen-Shannon/oxy-terrain/common"

// Action is a continuous camera movement triggered while a key is held.
type Action uint8

const (
	ActionForward Action = iota
	ActionBack
	ActionLeft
	ActionRight
	ActionAscend
	ActionDescend
	ActionTurnLeft
	ActionTurnRight
	ActionTurnUp
	ActionTurnDown
)

// KeyBindings maps key codes to camera actions.
type KeyBindings map[uint32]Action

// DefaultKeyBindings returns WASD movement, Space/Shift altitude, Q/E and the arrow keys for turning.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		common.KeyW:          ActionForward,
		common.KeyS:          ActionBack,
		common.KeyA:          ActionLeft,
		common.KeyD:          ActionRight,
		common.KeySpace:      ActionAscend,
		common.KeyLeftShift:  ActionDescend,
		common.KeyQ:          ActionTurnLeft,
		common.KeyE:          ActionTurnRight,
		common.KeyArrowLeft:  ActionTurnLeft,
		common.KeyArrowRight: ActionTurnRight,
		common.KeyArrowUp:    ActionTurnUp,
		common.KeyArrowDown:  ActionTurnDown,
	}
}

// Apply moves the controller for every bound key that is held.
//
// Parameters:
//   - ctrl: the controller to move
//   - held: reports whether a key code is down, usually window.Window.KeyHeld
//   - distance: pan distance for this tick before the controller's pan speed is applied
func (b KeyBindings) Apply(ctrl CameraController, held func(keyCode uint32) bool, distance float32) {
	for key, action := range b {
		if !held(key) {
			continue
		}
		switch action {
		case ActionForward:
			ctrl.PanForward(distance)
		case ActionBack:
			ctrl.PanForward(-distance)
		case ActionLeft:
			ctrl.PanRight(-distance)
		case ActionRight:
			ctrl.PanRight(distance)
		case ActionAscend:
			ctrl.PanUp(distance)
		case ActionDescend:
			ctrl.PanUp(-distance)
		case ActionTurnLeft:
			ctrl.TurnLeft()
		case ActionTurnRight:
			ctrl.TurnRight()
		case ActionTurnUp:
			ctrl.TurnUp()
		case ActionTurnDown:
			ctrl.TurnDown()
		}
	}
}
