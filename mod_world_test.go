package blockwalk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/blockwalk/core"
	"github.com/gekko3d/blockwalk/volume"
)

func TestLoadWorld_LabSpawnIsStandable(t *testing.T) {
	world, err := LoadWorld(WorldConfig{Source: WorldLab, Size: 32})
	require.NoError(t, err)

	assert.Equal(t, WorldLab, world.Source)
	spawn := world.SpawnPoint()
	assert.Equal(t, mgl32.Vec3{16, 3, 16}, spawn)

	cam := core.NewCamera(spawn, mgl32.Vec3{0, 1, 0}, 45)
	cam.SetMap(world.Grid)
	assert.True(t, cam.IsPositionAllowed(spawn))
	assert.False(t, world.Grid.IsEmpty(16, 1, 16), "spawn stands on the floor")
}

func TestLoadWorld_Terrain(t *testing.T) {
	cfg := WorldConfig{Source: WorldTerrain, Seed: 3, Size: 24}
	a, err := LoadWorld(cfg)
	require.NoError(t, err)
	b, err := LoadWorld(cfg)
	require.NoError(t, err)

	assert.Equal(t, WorldTerrain, a.Source)
	assert.Equal(t, a.Grid.SolidCount(), b.Grid.SolidCount(), "same seed, same terrain")
	assert.Contains(t, a.Tints, volume.Grass)
}

func TestLoadWorld_Vox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.vox")
	require.NoError(t, os.WriteFile(path, sampleVox(), 0o644))

	world, err := LoadWorld(WorldConfig{Source: WorldVox, Path: path})
	require.NoError(t, err)

	assert.Equal(t, WorldVox, world.Source)
	assert.Equal(t, 2, world.Grid.SolidCount())
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, world.Tints[1])
	assert.Equal(t, [4]uint8{10, 20, 30, 255}, world.Tints[7])
}

func TestLoadWorld_Errors(t *testing.T) {
	_, err := LoadWorld(WorldConfig{Source: "sky", Size: 8})
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = LoadWorld(WorldConfig{Source: WorldVox, Path: filepath.Join(t.TempDir(), "nope.vox")})
	assert.Error(t, err)
}

func TestWorld_SpawnPointEmptyColumn(t *testing.T) {
	world := &World{Grid: volume.NewGrid(5, 6, 5)}

	assert.Equal(t, mgl32.Vec3{2, 5, 2}, world.SpawnPoint())
}

func TestWorldModule_FailureIsRecorded(t *testing.T) {
	app := newLifecycleApp(WorldModule{Config: WorldConfig{Source: WorldVox, Path: filepath.Join(t.TempDir(), "nope.vox")}})

	app.Run()

	lc := Resource[Lifecycle](app)
	assert.True(t, lc.Failed())
	assert.True(t, errors.Is(lc.Err, os.ErrNotExist))
	assert.Equal(t, Unloading, app.State())
}
