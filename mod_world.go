package blockwalk

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/blockwalk/volume"
)

// World owns the one block grid of the session. Tints holds per-block colours for sources
// that carry them (a .vox palette); blocks without a tint render white.
type World struct {
	Grid   *volume.Grid
	Tints  map[volume.Block][4]uint8
	Source WorldSource
}

// LoadWorld builds the grid for the configured source.
func LoadWorld(cfg WorldConfig) (*World, error) {
	switch cfg.Source {
	case WorldLab, "":
		return &World{Grid: volume.GenerateLab(cfg.Size), Tints: defaultTints(), Source: WorldLab}, nil
	case WorldTerrain:
		grid := volume.GenerateTerrain(cfg.Size, volume.DefaultTerrainParams(cfg.Seed))
		return &World{Grid: grid, Tints: defaultTints(), Source: WorldTerrain}, nil
	case WorldVox:
		vf, err := LoadVoxFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("load world: %w", err)
		}
		model := vf.Models[0]
		tints := make(map[volume.Block][4]uint8)
		for _, v := range model.Voxels {
			if v.ColorIndex != 0 {
				tints[volume.Block(v.ColorIndex)] = vf.Palette[v.ColorIndex]
			}
		}
		return &World{Grid: model.Grid(), Tints: tints, Source: WorldVox}, nil
	default:
		return nil, fmt.Errorf("%w: unknown world source %q", ErrInvalidConfig, cfg.Source)
	}
}

func defaultTints() map[volume.Block][4]uint8 {
	return map[volume.Block][4]uint8{
		volume.Stone:    {128, 128, 128, 255},
		volume.Redstone: {170, 30, 24, 255},
		volume.Gold:     {240, 200, 60, 255},
		volume.Dirt:     {121, 85, 58, 255},
		volume.Grass:    {96, 160, 64, 255},
	}
}

// SpawnPoint is an eye position standing on the centre column: the feet cell sits directly on
// the highest solid block. An empty centre column spawns at the top of the volume.
func (w *World) SpawnPoint() mgl32.Vec3 {
	sx, sy, sz := w.Grid.Size()
	x, z := sx/2, sz/2
	y := w.Grid.Surface(x, z) + 2
	if y < 2 {
		y = sy - 1
	}
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

type WorldModule struct {
	Config WorldConfig
}

func (mod WorldModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&World{Source: mod.Config.Source})

	cfg := mod.Config
	app.UseSystem(
		System(func(world *World, lc *Lifecycle, log Logger) {
			worldLoadSystem(cfg, world, lc, log)
		}).
			InStage(Update).
			InState(OnEnter(Initializing)),
	)
}

func worldLoadSystem(cfg WorldConfig, world *World, lc *Lifecycle, log Logger) {
	if lc.Failed() {
		return
	}
	loaded, err := LoadWorld(cfg)
	if err != nil {
		lc.Fail(err)
		return
	}
	*world = *loaded

	sx, sy, sz := world.Grid.Size()
	log.Infof("world %s loaded: %dx%dx%d, %d solid blocks", world.Source, sx, sy, sz, world.Grid.SolidCount())
}
