package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateLab_Floor(t *testing.T) {
	g := GenerateLab(32)

	sx, sy, sz := g.Size()
	assert.Equal(t, [3]int{32, 32, 32}, [3]int{sx, sy, sz})

	// Floor under the spawn column, open air above it.
	assert.False(t, g.IsEmpty(16, 0, 16))
	assert.False(t, g.IsEmpty(16, 1, 16))
	assert.True(t, g.IsEmpty(16, 2, 16))
	assert.True(t, g.IsEmpty(16, 3, 16))

	// Pit goes through the floor.
	assert.True(t, g.IsEmpty(3, 0, 3))
	assert.True(t, g.IsEmpty(3, 1, 3))

	assert.Equal(t, 1, g.Surface(16, 16))
	assert.Equal(t, -1, g.Surface(3, 3))
}

func TestGenerateTerrain_Deterministic(t *testing.T) {
	a := GenerateTerrain(16, DefaultTerrainParams(42))
	b := GenerateTerrain(16, DefaultTerrainParams(42))

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			assert.Equal(t, a.Surface(x, z), b.Surface(x, z), "column (%d, %d)", x, z)
		}
	}
}

func TestGenerateTerrain_ColumnsAreFilledAndCapped(t *testing.T) {
	g := GenerateTerrain(16, DefaultTerrainParams(7))

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			top := g.Surface(x, z)
			assert.GreaterOrEqual(t, top, 0)
			assert.Less(t, top, 15)

			b, err := g.At(x, top, z)
			assert.NoError(t, err)
			assert.Equal(t, Grass, b)

			for y := 0; y < top; y++ {
				assert.False(t, g.IsEmpty(x, y, z))
			}
		}
	}
}
