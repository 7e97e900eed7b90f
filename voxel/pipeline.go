package voxel

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Options configures a conversion.
type Options struct {
	Dim       int
	Sparse    bool
	Mode      Mode
	Solid     bool
	FillColor *Color
	MaxColors int
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Dim:       DefaultDim,
		Sparse:    true,
		Mode:      ModeTriangles,
		MaxColors: MaxColors,
	}
}

// Validate reports options that cannot be honoured.
func (o Options) Validate() error {
	if o.Dim <= 0 || o.Dim > MaxDim {
		return errors.New("resolution out of range").
			WithType(ErrTypeInvalidConfig).
			WithTag("resolution", o.Dim).
			WithTag("max", MaxDim)
	}
	if !o.Sparse && o.Dim > MaxDenseDim {
		return errors.New("grid too large for a dense store, use the sparse store").
			WithType(ErrTypeInvalidConfig).
			WithTag("resolution", o.Dim).
			WithTag("max", MaxDenseDim)
	}
	if o.Mode < ModeTriangles || o.Mode > ModePoints {
		return errors.New("unknown voxelization mode").
			WithType(ErrTypeInvalidConfig).
			WithTag("mode", int(o.Mode))
	}
	if o.MaxColors < 0 || o.MaxColors > MaxColors {
		return errors.New("palette size out of range").
			WithType(ErrTypeInvalidConfig).
			WithTag("max-colors", o.MaxColors).
			WithTag("max", MaxColors)
	}
	return nil
}

// Stats reports what each stage of a conversion produced.
type Stats struct {
	Triangles  int
	Skipped    int
	Surface    int
	Filled     int
	Unbalanced int
	Distinct   int
	Colors     int
	Chunks     int

	Raster    time.Duration
	Fill      time.Duration
	Palette   time.Duration
	Partition time.Duration
}

// Result is the output of Convert, ready for a scene encoder.
type Result struct {
	Transform Transform
	Store     Store
	Palette   *Palette
	Chunks    []Chunk
	Stats     Stats
}

// Convert runs the voxelization pipeline on g: grid mapping, rasterization,
// optional interior fill, palette building and partitioning. Stages run one
// after another on a single goroutine.
func Convert(g *Geometry, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	t, err := NewTransform(g.Bounds, opts.Dim)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(opts.Dim, opts.Sparse)
	if err != nil {
		return nil, err
	}
	res := &Result{Transform: t, Store: store}

	start := time.Now()
	rs := Voxelize(g, t, store, opts.Mode)
	res.Stats.Triangles = rs.Triangles
	res.Stats.Skipped = rs.Skipped
	res.Stats.Surface = rs.Voxels
	res.Stats.Raster = time.Since(start)
	logs.WithTag("triangles", rs.Triangles).
		WithTag("skipped", rs.Skipped).
		WithTag("voxels", rs.Voxels).
		WithTag("resolution", opts.Dim).
		WithTag("mode", opts.Mode.String()).
		WithTag("duration", res.Stats.Raster.String()).
		Info("surface rasterized")

	if opts.Solid && opts.Mode == ModeTriangles {
		start = time.Now()
		fs := Fill(g, t, store, opts.FillColor)
		res.Stats.Filled = fs.Filled
		res.Stats.Unbalanced = fs.Unbalanced
		res.Stats.Fill = time.Since(start)
		logs.WithTag("filled", fs.Filled).
			WithTag("columns", fs.Columns).
			WithTag("duration", res.Stats.Fill.String()).
			Info("interior filled")
	}

	start = time.Now()
	pal, ps, err := BuildPalette(store, opts.MaxColors)
	if err != nil {
		return nil, err
	}
	res.Palette = pal
	res.Stats.Distinct = ps.Distinct
	res.Stats.Colors = ps.Colors
	res.Stats.Palette = time.Since(start)
	logs.WithTag("distinct", ps.Distinct).
		WithTag("colors", ps.Colors).
		WithTag("duration", res.Stats.Palette.String()).
		Debug("palette built")

	start = time.Now()
	chunks, err := Partition(store, pal)
	if err != nil {
		return nil, err
	}
	res.Chunks = chunks
	res.Stats.Chunks = len(chunks)
	res.Stats.Partition = time.Since(start)
	logs.WithTag("chunks", len(chunks)).
		WithTag("duration", res.Stats.Partition.String()).
		Debug("grid partitioned")

	return res, nil
}
