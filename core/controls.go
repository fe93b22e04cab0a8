package core

import "github.com/go-gl/mathgl/mgl32"

// Action is a movement intent the camera reacts to. Key bindings live with the input layer.
type Action int

const (
	MoveForward Action = iota
	MoveBackward
	StrafeLeft
	StrafeRight
	Jump
	Run
)

// Actions lists every action in declaration order.
func Actions() []Action {
	return []Action{MoveForward, MoveBackward, StrafeLeft, StrafeRight, Jump, Run}
}

func (a Action) String() string {
	switch a {
	case MoveForward:
		return "forward"
	case MoveBackward:
		return "backward"
	case StrafeLeft:
		return "left"
	case StrafeRight:
		return "right"
	case Jump:
		return "jump"
	case Run:
		return "run"
	default:
		return "unknown"
	}
}

// Controls is the per-frame input the camera consumes.
type Controls interface {
	ActionDown(a Action) bool
	CursorPosition() mgl32.Vec2
	ScrollValue() float32
}

// Occupancy is the read-only grid view used for collision.
type Occupancy interface {
	Size() (int, int, int)
	IsEmpty(x, y, z int) bool
}
