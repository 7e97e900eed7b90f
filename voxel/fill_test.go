package voxel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFillClosedCube(t *testing.T) {
	surface := Color{200, 100, 50, 255}
	g := cubeGeometry(Vec3{0, 0, 0}, Vec3{1, 1, 1}, surface)
	tr, err := NewTransform(g.Bounds, 8)
	require.NoError(t, err)

	for _, sparse := range []bool{true, false} {
		s, err := NewStore(8, sparse)
		require.NoError(t, err)

		rs := Voxelize(g, tr, s, ModeTriangles)
		require.Equal(t, 8*8*8-6*6*6, rs.Voxels)

		fs := Fill(g, tr, s, nil)
		require.Equal(t, 6*6*6, fs.Filled)
		require.Equal(t, 0, fs.Unbalanced)
		require.Equal(t, 64, fs.Columns)
		require.Equal(t, 8*8*8, s.Len())

		for c, col := range s.All() {
			require.True(t, tr.In(c))
			require.Equal(t, surface, col)
		}
	}
}

func TestFillConstantColor(t *testing.T) {
	fill := Color{1, 2, 3, 255}
	g := cubeGeometry(Vec3{-2, -2, -2}, Vec3{2, 2, 2}, White)
	tr, err := NewTransform(g.Bounds, 10)
	require.NoError(t, err)

	s := NewSparseStore(10)
	Voxelize(g, tr, s, ModeTriangles)
	Fill(g, tr, s, &fill)

	col, ok := s.Get(Coord{5, 5, 5})
	require.True(t, ok)
	require.Equal(t, fill, col)

	col, ok = s.Get(Coord{0, 5, 5})
	require.True(t, ok)
	require.Equal(t, White, col)
}

func TestFillOpenMeshLeavesHoles(t *testing.T) {
	g := cubeGeometry(Vec3{0, 0, 0}, Vec3{1, 1, 1}, White)
	// Drop the +X face: every column now crosses the surface once.
	open := NewGeometry()
	for i, tri := range g.Triangles {
		if i == 2 || i == 3 {
			continue
		}
		open.Add(tri)
	}
	tr, err := NewTransform(open.Bounds, 8)
	require.NoError(t, err)

	s := NewSparseStore(8)
	rs := Voxelize(open, tr, s, ModeTriangles)
	fs := Fill(open, tr, s, nil)

	require.Equal(t, 0, fs.Filled)
	require.Equal(t, 64, fs.Unbalanced)
	require.Equal(t, rs.Voxels, s.Len())
}

func TestFillSharedEdgeCountedOnce(t *testing.T) {
	// Two triangles sharing the diagonal y == z, which passes through the
	// centre of every diagonal column.
	a := [2]float64{0, 0}
	b := [2]float64{8, 0}
	c := [2]float64{8, 8}
	d := [2]float64{0, 8}

	for j := range 8 {
		p := [2]float64{float64(j) + 0.5, float64(j) + 0.5}
		first := covers(a, b, p) && covers(b, c, p) && covers(c, a, p)
		second := covers(a, c, p) && covers(c, d, p) && covers(d, a, p)
		require.True(t, first != second, "column %d", j)
	}
}

func TestSortCrossingsKeepsTieOrder(t *testing.T) {
	var xs []crossing
	for i := range 64 {
		xs = append(xs, crossing{x: float64(2 - i%2*2), color: Color{R: uint8(i), A: 255}})
	}
	sortCrossings(xs)

	for i, c := range xs[:32] {
		require.Equal(t, 0.0, c.x)
		require.Equal(t, uint8(2*i+1), c.color.R)
	}
	for i, c := range xs[32:] {
		require.Equal(t, 2.0, c.x)
		require.Equal(t, uint8(2*i), c.color.R)
	}
}
