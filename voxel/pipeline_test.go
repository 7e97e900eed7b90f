package voxel

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/stretchr/testify/require"
)

func TestConvertSolidCube(t *testing.T) {
	g := cubeGeometry(Vec3{0, 0, 0}, Vec3{1, 1, 1}, Color{40, 80, 120, 255})
	opts := DefaultOptions()
	opts.Dim = 8
	opts.Solid = true

	for _, sparse := range []bool{true, false} {
		opts.Sparse = sparse
		res, err := Convert(g, opts)
		require.NoError(t, err)

		require.Equal(t, 12, res.Stats.Triangles)
		require.Equal(t, 296, res.Stats.Surface)
		require.Equal(t, 216, res.Stats.Filled)
		require.Equal(t, 1, res.Stats.Colors)
		require.Equal(t, 512, res.Store.Len())

		require.Len(t, res.Chunks, 1)
		ch := res.Chunks[0]
		require.Equal(t, [3]int{8, 8, 8}, ch.Size)
		require.Len(t, ch.Voxels, 512)
		for _, v := range ch.Voxels {
			require.Equal(t, uint8(1), v.Index)
		}
	}
}

func TestConvertSolidOnlyForSurfaces(t *testing.T) {
	g := cubeGeometry(Vec3{0, 0, 0}, Vec3{1, 1, 1}, White)
	opts := DefaultOptions()
	opts.Dim = 8
	opts.Solid = true
	opts.Mode = ModePoints

	res, err := Convert(g, opts)
	require.NoError(t, err)
	require.Equal(t, 0, res.Stats.Filled)
	require.Equal(t, 8, res.Store.Len())
}

func TestConvertInvalidGeometry(t *testing.T) {
	g := NewGeometry()
	_, err := Convert(g, DefaultOptions())
	require.Error(t, err)
	require.Equal(t, ErrTypeInvalidGeometry, errors.Type(err))

	p := Vec3{1, 1, 1}
	g.Add(Triangle{V: [3]Vec3{p, p, p}, Color: White})
	_, err = Convert(g, DefaultOptions())
	require.Error(t, err)
	require.Equal(t, ErrTypeInvalidGeometry, errors.Type(err))
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"zero resolution", func(o *Options) { o.Dim = 0 }},
		{"resolution above format limit", func(o *Options) { o.Dim = MaxDim + 1 }},
		{"dense store too large", func(o *Options) { o.Sparse = false; o.Dim = MaxDenseDim + 1 }},
		{"unknown mode", func(o *Options) { o.Mode = Mode(7) }},
		{"too many colors", func(o *Options) { o.MaxColors = 256 }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opts := DefaultOptions()
			test.modify(&opts)
			err := opts.Validate()
			require.Error(t, err)
			require.Equal(t, ErrTypeInvalidConfig, errors.Type(err))
		})
	}
}

func TestConvertLogsSkippedTriangles(t *testing.T) {
	var b strings.Builder
	logs.SetInlineEncoder()
	logs.SetLogger(func(e logs.Entry) {
		fmt.Fprint(&b, e)
	})

	g := unitTriangle(White)
	g.Add(Triangle{V: [3]Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, math.Inf(1)}}, Color: White})
	opts := DefaultOptions()
	opts.Dim = 4

	res, err := Convert(g, opts)
	require.NoError(t, err)
	require.Equal(t, 1, res.Stats.Skipped)
	require.Contains(t, b.String(), "degenerate triangles skipped")
}
