package volume

import (
	"github.com/ojrac/opensimplex-go"
)

const (
	Stone Block = iota + 1
	Redstone
	Gold
	Dirt
	Grass
)

// GenerateLab builds the hand-authored test map: a two-layer stone floor, a ring of redstone
// pillars, a gold staircase and a pit in one corner.
func GenerateLab(size int) *Grid {
	g := NewGrid(size, size, size)
	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			_ = g.Set(x, 0, z, Stone)
			_ = g.Set(x, 1, z, Stone)
		}
	}

	mid := size / 2
	for _, p := range [][2]int{{mid - 6, mid - 6}, {mid + 6, mid - 6}, {mid - 6, mid + 6}, {mid + 6, mid + 6}} {
		for y := 2; y < 6; y++ {
			_ = g.Set(p[0], y, p[1], Redstone)
		}
	}

	// Staircase rising along +x, one block per step.
	for step := 0; step < 4; step++ {
		x := mid + 2 + step
		for y := 2; y <= 2+step; y++ {
			_ = g.Set(x, y, mid, Gold)
		}
	}

	// Pit: drop straight through the floor.
	for x := 2; x < 5; x++ {
		for z := 2; z < 5; z++ {
			_ = g.Set(x, 0, z, Empty)
			_ = g.Set(x, 1, z, Empty)
		}
	}
	return g
}

type TerrainParams struct {
	Seed        int64
	BaseHeight  int
	Amplitude   float32
	Scale       float32
	Octaves     int
	Lacunarity  float32
	Persistence float32
}

func DefaultTerrainParams(seed int64) TerrainParams {
	return TerrainParams{
		Seed:        seed,
		BaseHeight:  6,
		Amplitude:   4,
		Scale:       24,
		Octaves:     3,
		Lacunarity:  2,
		Persistence: 0.5,
	}
}

// GenerateTerrain fills a size×size×size grid from a fractal simplex heightmap.
func GenerateTerrain(size int, p TerrainParams) *Grid {
	g := NewGrid(size, size, size)
	noise := opensimplex.New32(p.Seed)

	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			h := p.BaseHeight + int(fractalNoise(noise, float32(x), float32(z), p))
			if h < 1 {
				h = 1
			}
			if h >= size {
				h = size - 1
			}
			for y := 0; y < h; y++ {
				var b Block
				switch {
				case y == h-1:
					b = Grass
				case y > h-4:
					b = Dirt
				default:
					b = Stone
				}
				_ = g.Set(x, y, z, b)
			}
		}
	}
	return g
}

func fractalNoise(noise opensimplex.Noise32, x, z float32, p TerrainParams) float32 {
	val := float32(0)
	amplitude := p.Amplitude
	for i := 0; i < p.Octaves; i++ {
		val += noise.Eval2(x/p.Scale, z/p.Scale) * amplitude
		x *= p.Lacunarity
		z *= p.Lacunarity
		amplitude *= p.Persistence
	}
	return val
}

// Surface returns the y of the highest solid block in column (x, z), or -1 if the column is empty.
func (g *Grid) Surface(x, z int) int {
	for y := g.sizeY - 1; y >= 0; y-- {
		if b, err := g.At(x, y, z); err == nil && b != Empty {
			return y
		}
	}
	return -1
}
