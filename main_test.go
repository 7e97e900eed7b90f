package main

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/voxelize/voxel"
)

func TestValidateConfig(t *testing.T) {
	conf := config{
		Input:     "model.glb",
		Output:    "model.vox",
		Dim:       256,
		Sparse:    true,
		Mode:      "Lines",
		Solid:     true,
		FillColor: "#102030",
		MaxColors: 64,
	}
	opts, err := validateConfig(conf)
	require.NoError(t, err)
	require.Equal(t, voxel.Options{
		Dim:       256,
		Sparse:    true,
		Mode:      voxel.ModeLines,
		Solid:     true,
		FillColor: &voxel.Color{R: 0x10, G: 0x20, B: 0x30, A: 0xff},
		MaxColors: 64,
	}, opts)

	for name, mutate := range map[string]func(*config){
		"no input":   func(c *config) { c.Input = "" },
		"no output":  func(c *config) { c.Output = "" },
		"mode":       func(c *config) { c.Mode = "voxels" },
		"fill color": func(c *config) { c.FillColor = "red" },
		"dim":        func(c *config) { c.Dim = 0 },
		"dense":      func(c *config) { c.Sparse = false; c.Dim = 1022 },
		"max colors": func(c *config) { c.MaxColors = 256 },
	} {
		t.Run(name, func(t *testing.T) {
			c := conf
			mutate(&c)
			_, err := validateConfig(c)
			require.Error(t, err)
			require.Equal(t, voxel.ErrTypeInvalidConfig, errors.Type(err))
		})
	}
}
