package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/blockwalk/volume"
)

const (
	DefaultYaw         float32 = -90
	DefaultWalkSpeed   float32 = 2.5
	DefaultRunSpeed    float32 = 10
	DefaultSensitivity float32 = 0.1

	// FallStep is applied once per update while falling, independent of frame time.
	FallStep   float32 = 0.1
	JumpHeight float32 = 1

	MinZoom  float32 = 1
	MaxPitch float32 = 89

	NearPlane float32 = 0.1
	FarPlane  float32 = 100
)

type MovementState int

const (
	Grounded MovementState = iota
	Falling
)

func (s MovementState) String() string {
	if s == Falling {
		return "falling"
	}
	return "grounded"
}

// Camera is a first-person camera that walks over a voxel grid.
// Without a map every cell counts as blocked: the camera can look around but not move.
type Camera struct {
	position mgl32.Vec3
	front    mgl32.Vec3
	up       mgl32.Vec3
	right    mgl32.Vec3
	worldUp  mgl32.Vec3

	yaw   float32
	pitch float32

	movementSpeed    float32
	walkSpeed        float32
	runSpeed         float32
	mouseSensitivity float32

	prevCursor mgl32.Vec2
	cursorSeen bool

	zoom    float32
	maxZoom float32

	userControlEnabled bool
	state              MovementState
	grid               Occupancy
}

func NewCamera(position, worldUp mgl32.Vec3, maxZoom float32) *Camera {
	if maxZoom < MinZoom {
		maxZoom = MinZoom
	}
	if worldUp.Len() == 0 {
		worldUp = mgl32.Vec3{0, 1, 0}
	}
	c := &Camera{
		position:           position,
		worldUp:            worldUp.Normalize(),
		yaw:                DefaultYaw,
		walkSpeed:          DefaultWalkSpeed,
		runSpeed:           DefaultRunSpeed,
		movementSpeed:      DefaultWalkSpeed,
		mouseSensitivity:   DefaultSensitivity,
		zoom:               maxZoom,
		maxZoom:            maxZoom,
		userControlEnabled: true,
	}
	c.updateVectors()
	return c
}

// SetMap hands the camera a read-only view of the world grid.
func (c *Camera) SetMap(grid Occupancy) {
	c.grid = grid
}

// Update advances the camera by one frame.
func (c *Camera) Update(dt float32, in Controls) {
	if !c.userControlEnabled {
		return
	}

	c.resolveVertical()

	if in.ActionDown(Run) {
		c.movementSpeed = c.runSpeed
	} else {
		c.movementSpeed = c.walkSpeed
	}

	velocity := c.movementSpeed * dt
	forward := c.horizontal(c.front).Mul(velocity)
	strafe := c.horizontal(c.right).Mul(velocity)

	if in.ActionDown(MoveForward) {
		c.tryMove(c.position.Add(forward))
	}
	if in.ActionDown(MoveBackward) {
		c.tryMove(c.position.Sub(forward))
	}
	if in.ActionDown(StrafeLeft) {
		c.tryMove(c.position.Sub(strafe))
	}
	if in.ActionDown(StrafeRight) {
		c.tryMove(c.position.Add(strafe))
	}

	if in.ActionDown(Jump) && c.state != Falling {
		c.tryMove(c.position.Add(mgl32.Vec3{0, JumpHeight, 0}))
	}

	c.look(in.CursorPosition())

	c.zoom = mgl32.Clamp(c.zoom-in.ScrollValue(), MinZoom, c.maxZoom)
}

// IsPositionAllowed reports whether the camera may occupy p: the rounded cell and the one
// below it must be empty, and the column must lie inside the grid's one-cell border.
func (c *Camera) IsPositionAllowed(p mgl32.Vec3) bool {
	if c.grid == nil {
		return false
	}
	sizeX, _, sizeZ := c.grid.Size()
	x, y, z := cell(p)
	if x <= 0 || x >= sizeX-1 || z <= 0 || z >= sizeZ-1 {
		return false
	}
	return c.grid.IsEmpty(x, y, z) && c.grid.IsEmpty(x, y-1, z)
}

func (c *Camera) resolveVertical() {
	x, y, z := cell(c.position)
	if c.grid != nil && c.grid.IsEmpty(x, y-2, z) {
		c.state = Falling
		c.position[1] -= FallStep
		return
	}
	c.state = Grounded
}

func (c *Camera) tryMove(candidate mgl32.Vec3) bool {
	if !c.IsPositionAllowed(candidate) {
		return false
	}
	c.position = candidate
	return true
}

// horizontal drops the worldUp component of v so walking never changes height.
// The step shrinks with pitch: looking straight down barely moves the camera.
func (c *Camera) horizontal(v mgl32.Vec3) mgl32.Vec3 {
	return v.Sub(c.worldUp.Mul(v.Dot(c.worldUp)))
}

func (c *Camera) look(cursor mgl32.Vec2) {
	if !c.cursorSeen {
		c.prevCursor = cursor
		c.cursorSeen = true
		return
	}

	xOffset := (cursor.X() - c.prevCursor.X()) * c.mouseSensitivity
	yOffset := (c.prevCursor.Y() - cursor.Y()) * c.mouseSensitivity
	c.prevCursor = cursor

	c.yaw += xOffset
	c.pitch = mgl32.Clamp(c.pitch+yOffset, -MaxPitch, MaxPitch)

	c.updateVectors()
}

func (c *Camera) updateVectors() {
	yaw := float64(mgl32.DegToRad(c.yaw))
	pitch := float64(mgl32.DegToRad(c.pitch))

	c.front = mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}.Normalize()
	c.right = c.front.Cross(c.worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}

func cell(p mgl32.Vec3) (int, int, int) {
	return volume.Cell(p.X(), p.Y(), p.Z())
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.front), c.up)
}

func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.zoom), aspect, NearPlane, FarPlane)
}

func (c *Camera) Position() mgl32.Vec3 { return c.position }
func (c *Camera) Front() mgl32.Vec3    { return c.front }
func (c *Camera) Right() mgl32.Vec3    { return c.right }
func (c *Camera) Up() mgl32.Vec3       { return c.up }
func (c *Camera) WorldUp() mgl32.Vec3  { return c.worldUp }
func (c *Camera) Yaw() float32         { return c.yaw }
func (c *Camera) Pitch() float32       { return c.pitch }
func (c *Camera) Zoom() float32        { return c.zoom }
func (c *Camera) MaxZoom() float32     { return c.maxZoom }
func (c *Camera) State() MovementState { return c.state }

func (c *Camera) MovementSpeed() float32    { return c.movementSpeed }
func (c *Camera) MouseSensitivity() float32 { return c.mouseSensitivity }
func (c *Camera) UserControlEnabled() bool  { return c.userControlEnabled }

func (c *Camera) SetPosition(p mgl32.Vec3) { c.position = p }

// SetFront points the camera along dir; yaw and pitch are derived from it.
func (c *Camera) SetFront(dir mgl32.Vec3) {
	if dir.Len() == 0 {
		return
	}
	dir = dir.Normalize()
	c.pitch = mgl32.Clamp(mgl32.RadToDeg(float32(math.Asin(float64(dir.Y())))), -MaxPitch, MaxPitch)
	c.yaw = mgl32.RadToDeg(float32(math.Atan2(float64(dir.Z()), float64(dir.X()))))
	c.updateVectors()
}

func (c *Camera) SetWorldUp(up mgl32.Vec3) {
	c.worldUp = up.Normalize()
	c.updateVectors()
}

func (c *Camera) SetZoom(zoom float32) {
	c.zoom = mgl32.Clamp(zoom, MinZoom, c.maxZoom)
}

func (c *Camera) SetSpeeds(walk, run float32) {
	c.walkSpeed = walk
	c.runSpeed = run
	c.movementSpeed = walk
}

func (c *Camera) SetMouseSensitivity(s float32) { c.mouseSensitivity = s }

func (c *Camera) SetUserControlEnabled(enabled bool) {
	c.userControlEnabled = enabled
	// Re-enabling must not turn the cursor travel while disabled into a jump.
	c.cursorSeen = false
}
