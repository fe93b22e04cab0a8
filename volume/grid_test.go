package volume

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid_SetAndAt(t *testing.T) {
	g := NewGrid(4, 3, 2)

	require.NoError(t, g.Set(3, 2, 1, Gold))

	b, err := g.At(3, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, Gold, b)

	b, err = g.At(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, Empty, b)
}

func TestGrid_OutOfBounds(t *testing.T) {
	g := NewGrid(4, 4, 4)

	cases := [][3]int{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}, {4, 0, 0}, {0, 4, 0}, {0, 0, 4}}
	for _, c := range cases {
		_, err := g.At(c[0], c[1], c[2])
		assert.True(t, errors.Is(err, ErrOutOfBounds), "At%v", c)

		err = g.Set(c[0], c[1], c[2], Stone)
		assert.True(t, errors.Is(err, ErrOutOfBounds), "Set%v", c)

		assert.False(t, g.IsEmpty(c[0], c[1], c[2]), "out-of-bounds cell %v must read as solid", c)
	}
}

func TestGrid_IsEmpty(t *testing.T) {
	g := NewGrid(2, 2, 2)
	require.NoError(t, g.Set(1, 1, 1, Redstone))

	assert.True(t, g.IsEmpty(0, 0, 0))
	assert.False(t, g.IsEmpty(1, 1, 1))
}

func TestGrid_IndexingDoesNotAlias(t *testing.T) {
	g := NewGrid(3, 5, 7)
	n := 0
	for x := 0; x < 3; x++ {
		for y := 0; y < 5; y++ {
			for z := 0; z < 7; z++ {
				n++
				require.NoError(t, g.Set(x, y, z, Block(n%250+1)))
			}
		}
	}
	n = 0
	for x := 0; x < 3; x++ {
		for y := 0; y < 5; y++ {
			for z := 0; z < 7; z++ {
				n++
				b, err := g.At(x, y, z)
				require.NoError(t, err)
				assert.Equal(t, Block(n%250+1), b)
			}
		}
	}
}

func TestCell_RoundsToNearest(t *testing.T) {
	x, y, z := Cell(1.49, 2.5, -0.6)
	assert.Equal(t, 1, x)
	assert.Equal(t, 3, y)
	assert.Equal(t, -1, z)
}

func TestGrid_EachAndSolidCount(t *testing.T) {
	g := NewGrid(3, 3, 3)
	require.NoError(t, g.Set(0, 0, 0, Stone))
	require.NoError(t, g.Set(2, 1, 0, Gold))

	var seen []Block
	g.Each(func(x, y, z int, b Block) bool {
		seen = append(seen, b)
		return true
	})
	assert.Equal(t, []Block{Stone, Gold}, seen)
	assert.Equal(t, 2, g.SolidCount())

	calls := 0
	g.Each(func(x, y, z int, b Block) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}

func TestNewGrid_PanicsOnInvalidSize(t *testing.T) {
	assert.Panics(t, func() { NewGrid(0, 1, 1) })
}
