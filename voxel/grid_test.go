package voxel

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNewTransform(t *testing.T) {
	b := Bounds{Min: Vec3{0, 0, 0}, Max: Vec3{2, 1, 1}}
	tr, err := NewTransform(b, 4)
	require.NoError(t, err)
	require.Equal(t, 0.5, tr.VoxelSize)
	require.Equal(t, Vec3{0, -0.5, -0.5}, tr.Origin)
	require.Equal(t, 4, tr.Dim)

	require.Equal(t, Vec3{0, 1, 1}, tr.ToGrid(b.Min))
	require.Equal(t, Vec3{4, 3, 3}, tr.ToGrid(b.Max))
	require.Equal(t, b.Max, tr.ToWorld(tr.ToGrid(b.Max)))
}

func TestNewTransformMapsVerticesIntoGrid(t *testing.T) {
	verts := []Vec3{
		{-3.25, 1, 7},
		{12.5, -0.75, 2},
		{0.1, 4.4, 3.3},
		{5, 5, 5},
	}
	b := EmptyBounds()
	for _, v := range verts {
		b.Extend(v)
	}

	for _, dim := range []int{1, 7, 256, DefaultDim, MaxDim} {
		tr, err := NewTransform(b, dim)
		require.NoError(t, err)
		require.Greater(t, tr.VoxelSize, 0.0)

		for _, v := range verts {
			g := tr.ToGrid(v)
			for i := range 3 {
				require.GreaterOrEqual(t, g[i], -1e-9)
				require.LessOrEqual(t, g[i], float64(dim)+1e-9)
			}
			c := tr.Cell(g)
			require.True(t, tr.In(c))
		}
	}
}

func TestNewTransformErrors(t *testing.T) {
	t.Run("zero extent", func(t *testing.T) {
		p := Vec3{1, 2, 3}
		_, err := NewTransform(Bounds{Min: p, Max: p}, 8)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidGeometry, errors.Type(err))
	})

	t.Run("empty bounds", func(t *testing.T) {
		_, err := NewTransform(EmptyBounds(), 8)
		require.Error(t, err)
		require.Equal(t, ErrTypeInvalidGeometry, errors.Type(err))
	})

	t.Run("resolution", func(t *testing.T) {
		b := Bounds{Max: Vec3{1, 1, 1}}
		for _, dim := range []int{0, -1, MaxDim + 1} {
			_, err := NewTransform(b, dim)
			require.Error(t, err)
			require.Equal(t, ErrTypeInvalidConfig, errors.Type(err))
		}
	})
}

func TestCellClamps(t *testing.T) {
	tr := Transform{VoxelSize: 1, Dim: 4}
	require.Equal(t, Coord{0, 0, 0}, tr.Cell(Vec3{-0.5, 0, 0.99}))
	require.Equal(t, Coord{3, 3, 3}, tr.Cell(Vec3{4, 4, 4}))
	require.Equal(t, Coord{3, 2, 1}, tr.Cell(Vec3{3.5, 2, 1.01}))
	require.Equal(t, Coord{3, 0, 0}, tr.Cell(Vec3{math.MaxFloat64, -math.MaxFloat64, 0}))
}

func TestMortonKeys(t *testing.T) {
	coords := []Coord{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{255, 17, 3},
		{4093, 4093, 4093},
		{300, 512, 1021},
	}
	for _, c := range coords {
		require.Equal(t, c, KeyCoord(Key(c)))

		tile := Coord{c[0] / ChunkSize, c[1] / ChunkSize, c[2] / ChunkSize}
		require.Equal(t, Key(tile), Key(c)>>chunkShift)
	}

	require.Equal(t, uint64(1), Key(Coord{1, 0, 0}))
	require.Equal(t, uint64(2), Key(Coord{0, 1, 0}))
	require.Equal(t, uint64(4), Key(Coord{0, 0, 1}))
	require.Equal(t, uint64(7<<57), Key(Coord{1 << 19, 1 << 19, 1 << 19}))
}

func TestSpreadGather(t *testing.T) {
	require.Equal(t, uint64(0b1001001), spread(0b111))
	require.Equal(t, uint64(0x1249249249249249), spread(0x1fffff))
	for _, v := range []uint32{0, 1, 2, 0x155555, 0x0aaaaa, 0x1fffff, 123456} {
		require.Equal(t, v, gather(spread(v)))
	}
	// Bits above 21 are dropped.
	require.Equal(t, spread(5), spread(5|1<<21))
}
