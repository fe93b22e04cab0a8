package blockwalk

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/blockwalk/core"
)

// FirstPersonCameraModule provides the core.Camera resource and drives it once per Running frame.
type FirstPersonCameraModule struct {
	Config CameraConfig
}

func NewCameraFromConfig(cfg CameraConfig) *core.Camera {
	maxZoom := cfg.MaxZoom
	if maxZoom < core.MinZoom {
		maxZoom = 45
	}
	cam := core.NewCamera(mgl32.Vec3{0, 0, 3}, mgl32.Vec3{0, 1, 0}, maxZoom)
	if cfg.WalkSpeed > 0 && cfg.RunSpeed > 0 {
		cam.SetSpeeds(cfg.WalkSpeed, cfg.RunSpeed)
	}
	if cfg.Sensitivity > 0 {
		cam.SetMouseSensitivity(cfg.Sensitivity)
	}
	return cam
}

func (mod FirstPersonCameraModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewCameraFromConfig(mod.Config))

	spawn := mod.Config.Position
	app.UseSystem(
		System(func(cam *core.Camera, world *World, lc *Lifecycle, log Logger) {
			cameraPlaceSystem(spawn, cam, world, lc, log)
		}).
			InStage(PostUpdate).
			InState(OnEnter(Initializing)),
	)
	app.UseSystem(
		System(cameraUpdateSystem).
			InStage(Update).
			InState(OnExecute(Running)),
	)
}

// cameraPlaceSystem hands the world grid to the camera and puts it at the spawn point.
func cameraPlaceSystem(spawn *[3]float32, cam *core.Camera, world *World, lc *Lifecycle, log Logger) {
	if lc.Failed() || world.Grid == nil {
		return
	}
	cam.SetMap(world.Grid)

	pos := world.SpawnPoint()
	if spawn != nil {
		pos = mgl32.Vec3(*spawn)
	}
	cam.SetPosition(pos)
	if !cam.IsPositionAllowed(pos) {
		log.Warnf("camera spawn %v is blocked; movement stays blocked until it falls free", pos)
	}
	log.Debugf("camera placed at %v", pos)
}

// cameraUpdateSystem steps the camera. Releasing the cursor (Tab) suspends user control so the
// pointer can leave the window; recapturing resumes it without a look jump.
func cameraUpdateSystem(cam *core.Camera, input *Input, t *Time) {
	if cam.UserControlEnabled() != input.MouseCaptured {
		cam.SetUserControlEnabled(input.MouseCaptured)
	}
	cam.Update(t.DtSeconds(), input)
}
