package volume

import (
	"errors"
	"fmt"
	"math"
)

// Block is a voxel code. Zero is empty, any other value is solid and selects a visual variant.
type Block uint8

const Empty Block = 0

var ErrOutOfBounds = errors.New("voxel coordinate out of bounds")

// Grid is a fixed W×H×D block volume indexed (x, y, z).
type Grid struct {
	sizeX, sizeY, sizeZ int
	blocks              []Block
}

func NewGrid(sizeX, sizeY, sizeZ int) *Grid {
	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		panic(fmt.Sprintf("invalid grid size %dx%dx%d", sizeX, sizeY, sizeZ))
	}
	return &Grid{
		sizeX:  sizeX,
		sizeY:  sizeY,
		sizeZ:  sizeZ,
		blocks: make([]Block, sizeX*sizeY*sizeZ),
	}
}

func (g *Grid) Size() (int, int, int) {
	return g.sizeX, g.sizeY, g.sizeZ
}

func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.sizeX &&
		y >= 0 && y < g.sizeY &&
		z >= 0 && z < g.sizeZ
}

func (g *Grid) index(x, y, z int) int {
	return (x*g.sizeY+y)*g.sizeZ + z
}

// At returns the block at (x, y, z) or ErrOutOfBounds.
func (g *Grid) At(x, y, z int) (Block, error) {
	if !g.InBounds(x, y, z) {
		return Empty, fmt.Errorf("get (%d, %d, %d): %w", x, y, z, ErrOutOfBounds)
	}
	return g.blocks[g.index(x, y, z)], nil
}

// Set is intended for world generation only; the grid is treated as read-only afterwards.
func (g *Grid) Set(x, y, z int, b Block) error {
	if !g.InBounds(x, y, z) {
		return fmt.Errorf("set (%d, %d, %d): %w", x, y, z, ErrOutOfBounds)
	}
	g.blocks[g.index(x, y, z)] = b
	return nil
}

// IsEmpty reports whether the cell holds no block. Out-of-bounds cells are solid.
func (g *Grid) IsEmpty(x, y, z int) bool {
	b, err := g.At(x, y, z)
	if err != nil {
		return false
	}
	return b == Empty
}

// Cell rounds a continuous position to the nearest cell.
func Cell(x, y, z float32) (int, int, int) {
	return round(x), round(y), round(z)
}

func round(v float32) int {
	return int(math.Round(float64(v)))
}

// Each calls fn for every non-empty cell in x, y, z order until fn returns false.
func (g *Grid) Each(fn func(x, y, z int, b Block) bool) {
	for x := 0; x < g.sizeX; x++ {
		for y := 0; y < g.sizeY; y++ {
			for z := 0; z < g.sizeZ; z++ {
				b := g.blocks[g.index(x, y, z)]
				if b == Empty {
					continue
				}
				if !fn(x, y, z, b) {
					return
				}
			}
		}
	}
}

func (g *Grid) SolidCount() int {
	n := 0
	for _, b := range g.blocks {
		if b != Empty {
			n++
		}
	}
	return n
}
