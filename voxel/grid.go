package voxel

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	// DefaultDim is the default grid resolution.
	DefaultDim = 1022
	// MaxDim bounds the resolution so that chunk translations stay within the
	// coordinate range of the output format.
	MaxDim = 4094
	// ChunkSize is the per-axis ceiling of a single output model.
	ChunkSize = 256
)

// Coord is an integer voxel coordinate (x, y, z), each in [0, Dim).
type Coord [3]int

// Transform maps mesh space onto a cubic Dim³ voxel grid.
type Transform struct {
	Origin    Vec3
	VoxelSize float64
	Dim       int
}

// NewTransform fits bounds into a Dim³ grid. The longest axis spans exactly
// dim voxels; the shorter axes use the same voxel size and are centered.
func NewTransform(b Bounds, dim int) (Transform, error) {
	if dim <= 0 || dim > MaxDim {
		return Transform{}, errors.New("resolution out of range").
			WithType(ErrTypeInvalidConfig).
			WithTag("resolution", dim).
			WithTag("max", MaxDim)
	}
	if !finite(b.Min) || !finite(b.Max) {
		return Transform{}, errors.New("mesh bounding box is empty or not finite").
			WithType(ErrTypeInvalidGeometry).
			WithTag("resolution", dim)
	}

	size := b.Size()
	longest := maxElem(size)
	if !(longest > 0) {
		return Transform{}, errors.New("mesh bounding box has zero extent").
			WithType(ErrTypeInvalidGeometry).
			WithTag("min", b.Min).
			WithTag("max", b.Max).
			WithTag("resolution", dim)
	}

	voxel := longest / float64(dim)
	span := voxel * float64(dim)
	var origin Vec3
	for i := range 3 {
		origin[i] = b.Min[i] - (span-size[i])/2
	}
	return Transform{Origin: origin, VoxelSize: voxel, Dim: dim}, nil
}

// ToGrid maps a mesh-space point to continuous grid coordinates, where voxel
// (i, j, k) covers [i, i+1) × [j, j+1) × [k, k+1).
func (t Transform) ToGrid(p Vec3) Vec3 {
	return p.Sub(t.Origin).Mul(1 / t.VoxelSize)
}

// ToWorld maps continuous grid coordinates back to mesh space.
func (t Transform) ToWorld(g Vec3) Vec3 {
	return g.Mul(t.VoxelSize).Add(t.Origin)
}

// Cell returns the voxel containing grid point g, clamped into the grid.
func (t Transform) Cell(g Vec3) Coord {
	var c Coord
	for i := range 3 {
		c[i] = t.clamp(math.Floor(g[i]))
	}
	return c
}

// clamp converts a floored grid coordinate into [0, Dim).
func (t Transform) clamp(v float64) int {
	if v < 0 {
		return 0
	}
	if v > float64(t.Dim-1) {
		return t.Dim - 1
	}
	return int(v)
}

// In reports whether c lies inside the grid.
func (t Transform) In(c Coord) bool {
	return inGrid(c, t.Dim)
}

func inGrid(c Coord, dim int) bool {
	return c[0] >= 0 && c[0] < dim && c[1] >= 0 && c[1] < dim && c[2] >= 0 && c[2] < dim
}
