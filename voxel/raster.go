package voxel

import (
	"math"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Mode selects which part of each triangle becomes voxels.
type Mode int

const (
	// ModeTriangles voxelizes the full triangle surface.
	ModeTriangles Mode = iota
	// ModeLines voxelizes the three edges only.
	ModeLines
	// ModePoints voxelizes the three vertices only.
	ModePoints
)

var modeNames = [...]string{"triangles", "lines", "points"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// ParseMode parses a mode name as printed by Mode.String.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(s, n) {
			return Mode(i), nil
		}
	}
	return 0, errors.New("unknown voxelization mode").
		WithType(ErrTypeInvalidConfig).
		WithTag("mode", s)
}

// Rasterizer writes triangles into a store. Writes are sequential: when two
// triangles cover the same voxel the last one wins the color.
type Rasterizer struct {
	t     Transform
	store Store
	mode  Mode
}

func NewRasterizer(t Transform, s Store, mode Mode) *Rasterizer {
	return &Rasterizer{t: t, store: s, mode: mode}
}

// RasterStats summarizes a rasterization pass.
type RasterStats struct {
	Triangles int
	Skipped   int
	Voxels    int
}

// Voxelize rasterizes every triangle of g. Degenerate triangles are skipped
// and counted; they never abort the pass.
func Voxelize(g *Geometry, t Transform, s Store, mode Mode) RasterStats {
	r := NewRasterizer(t, s, mode)
	stats := RasterStats{Triangles: len(g.Triangles)}
	for i, tri := range g.Triangles {
		if err := r.Triangle(i, tri); err != nil {
			logs.WithTag("triangle", i).Debug(err)
			stats.Skipped++
		}
	}
	if stats.Skipped > 0 {
		logs.WithTag("skipped", stats.Skipped).
			WithTag("triangles", stats.Triangles).
			Warn("degenerate triangles skipped")
	}
	stats.Voxels = s.Len()
	return stats
}

// Triangle rasterizes triangle i.
func (r *Rasterizer) Triangle(i int, tri Triangle) error {
	var g [3]Vec3
	for k, v := range tri.V {
		if !finite(v) {
			return errors.New("triangle has a non-finite vertex").
				WithType(ErrTypeDegenerateTriangle).
				WithTag("triangle", i).
				WithTag("vertex", k).
				WithTag("resolution", r.t.Dim)
		}
		g[k] = r.t.ToGrid(v)
		if !finite(g[k]) {
			return errors.New("triangle vertex overflows grid space").
				WithType(ErrTypeDegenerateTriangle).
				WithTag("triangle", i).
				WithTag("vertex", k).
				WithTag("resolution", r.t.Dim)
		}
	}

	switch r.mode {
	case ModeLines:
		r.line(tri, g, g[0], g[1])
		r.line(tri, g, g[1], g[2])
		r.line(tri, g, g[2], g[0])
	case ModePoints:
		for _, p := range g {
			c := r.t.Cell(p)
			r.store.Set(c, shade(tri, g, c))
		}
	default:
		r.surface(tri, g)
	}
	return nil
}

// surface marks every voxel whose box overlaps the triangle. Candidates are
// walked over the projection onto the plane's dominant axis, so the cost
// follows the triangle area rather than its bounding box volume.
func (r *Rasterizer) surface(tri Triangle, g [3]Vec3) {
	lo := r.t.Cell(Vec3{min3(g[0][0], g[1][0], g[2][0]), min3(g[0][1], g[1][1], g[2][1]), min3(g[0][2], g[1][2], g[2][2])})
	hi := r.t.Cell(Vec3{max3(g[0][0], g[1][0], g[2][0]), max3(g[0][1], g[1][1], g[2][1]), max3(g[0][2], g[1][2], g[2][2])})

	n := g[1].Sub(g[0]).Cross(g[2].Sub(g[0]))
	k := 0
	for a := 1; a < 3; a++ {
		if math.Abs(n[a]) > math.Abs(n[k]) {
			k = a
		}
	}
	u, v := (k+1)%3, (k+2)%3

	if n[k] == 0 {
		// Collinear or coincident vertices: no plane to walk along.
		for z := lo[2]; z <= hi[2]; z++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for x := lo[0]; x <= hi[0]; x++ {
					r.test(tri, g, Coord{x, y, z})
				}
			}
		}
		return
	}

	d := n.Dot(g[0])
	planeAt := func(pu, pv float64) float64 {
		return (d - n[u]*pu - n[v]*pv) / n[k]
	}
	for cu := lo[u]; cu <= hi[u]; cu++ {
		for cv := lo[v]; cv <= hi[v]; cv++ {
			fu, fv := float64(cu), float64(cv)
			a, b := planeAt(fu, fv), planeAt(fu+1, fv)
			c, e := planeAt(fu, fv+1), planeAt(fu+1, fv+1)
			kLo := max(lo[k], r.t.clamp(math.Floor(math.Min(math.Min(a, b), math.Min(c, e)))))
			kHi := min(hi[k], r.t.clamp(math.Floor(math.Max(math.Max(a, b), math.Max(c, e)))))
			for ck := kLo; ck <= kHi; ck++ {
				var cell Coord
				cell[u], cell[v], cell[k] = cu, cv, ck
				r.test(tri, g, cell)
			}
		}
	}
}

func (r *Rasterizer) test(tri Triangle, g [3]Vec3, c Coord) {
	center := Vec3{float64(c[0]) + 0.5, float64(c[1]) + 0.5, float64(c[2]) + 0.5}
	if triBoxOverlap(center, 0.5, g) {
		r.store.Set(c, shade(tri, g, c))
	}
}

// line walks the voxels crossed by segment p1-p2 (Amanatides & Woo).
func (r *Rasterizer) line(tri Triangle, g [3]Vec3, p1, p2 Vec3) {
	p1, p2 = r.clampPoint(p1), r.clampPoint(p2)
	cell := r.t.Cell(p1)
	end := r.t.Cell(p2)
	r.store.Set(cell, shade(tri, g, cell))

	dir := p2.Sub(p1)
	var step Coord
	var tMax, tDelta Vec3
	for a := range 3 {
		switch {
		case dir[a] > 0:
			step[a] = 1
			tDelta[a] = 1 / dir[a]
			tMax[a] = (float64(cell[a]+1) - p1[a]) / dir[a]
		case dir[a] < 0:
			step[a] = -1
			tDelta[a] = -1 / dir[a]
			tMax[a] = (float64(cell[a]) - p1[a]) / dir[a]
		default:
			tMax[a] = math.Inf(1)
			tDelta[a] = math.Inf(1)
		}
	}

	steps := abs(end[0]-cell[0]) + abs(end[1]-cell[1]) + abs(end[2]-cell[2])
	for range steps {
		a := 0
		if tMax[1] < tMax[a] {
			a = 1
		}
		if tMax[2] < tMax[a] {
			a = 2
		}
		cell[a] += step[a]
		tMax[a] += tDelta[a]
		if !r.t.In(cell) {
			return
		}
		r.store.Set(cell, shade(tri, g, cell))
	}
}

// clampPoint pulls p inside [0, Dim) on every axis.
func (r *Rasterizer) clampPoint(p Vec3) Vec3 {
	top := math.Nextafter(float64(r.t.Dim), 0)
	for a := range 3 {
		p[a] = math.Min(math.Max(p[a], 0), top)
	}
	return p
}

// shade returns the color of triangle tri at the voxel c.
func shade(tri Triangle, g [3]Vec3, c Coord) Color {
	if tri.Shader == nil {
		return tri.Color
	}
	center := Vec3{float64(c[0]) + 0.5, float64(c[1]) + 0.5, float64(c[2]) + 0.5}
	return tri.Shader.Shade(barycentric(closestPoint(center, g), g))
}

// triBoxOverlap is the separating axis test of Akenine-Möller: the three box
// normals, the triangle normal and the nine edge/box-axis cross products.
// Touching counts as overlap.
func triBoxOverlap(center Vec3, half float64, tri [3]Vec3) bool {
	v := [3]Vec3{tri[0].Sub(center), tri[1].Sub(center), tri[2].Sub(center)}
	edges := [3]Vec3{v[1].Sub(v[0]), v[2].Sub(v[1]), v[0].Sub(v[2])}

	for _, e := range edges {
		for a := range 3 {
			var unit Vec3
			unit[a] = 1
			axis := unit.Cross(e)
			p0, p1, p2 := v[0].Dot(axis), v[1].Dot(axis), v[2].Dot(axis)
			rad := half * (math.Abs(axis[0]) + math.Abs(axis[1]) + math.Abs(axis[2]))
			if min3(p0, p1, p2) > rad || max3(p0, p1, p2) < -rad {
				return false
			}
		}
	}

	for a := range 3 {
		if min3(v[0][a], v[1][a], v[2][a]) > half || max3(v[0][a], v[1][a], v[2][a]) < -half {
			return false
		}
	}

	return planeBoxOverlap(edges[0].Cross(edges[1]), v[0], half)
}

func planeBoxOverlap(n, p Vec3, half float64) bool {
	var vmin, vmax Vec3
	for a := range 3 {
		if n[a] > 0 {
			vmin[a] = -half - p[a]
			vmax[a] = half - p[a]
		} else {
			vmin[a] = half - p[a]
			vmax[a] = -half - p[a]
		}
	}
	if n.Dot(vmin) > 0 {
		return false
	}
	return n.Dot(vmax) >= 0
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
