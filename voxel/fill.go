package voxel

import (
	"cmp"
	"math"
	"slices"

	"github.com/aukilabs/go-tooling/pkg/logs"
)

// FillStats summarizes an interior fill pass.
type FillStats struct {
	Filled     int
	Columns    int
	Unbalanced int
}

type crossing struct {
	x     float64
	color Color
}

// Fill marks the interior of a closed mesh. Rays are cast along +X through
// the centre of every (y, z) column; voxels whose centre lies between an
// entering and a leaving crossing are filled when still empty. Columns with
// an odd crossing count are left untouched, which leaves holes in meshes
// that are not watertight instead of flooding the grid.
//
// The fill color is the entering crossing's surface color unless fillColor
// is set.
func Fill(g *Geometry, t Transform, s Store, fillColor *Color) FillStats {
	columns := make(map[int][]crossing)
	for _, tri := range g.Triangles {
		var v [3]Vec3
		ok := true
		for k := range 3 {
			v[k] = t.ToGrid(tri.V[k])
			ok = ok && finite(tri.V[k]) && finite(v[k])
		}
		if ok {
			addCrossings(columns, t.Dim, tri, v)
		}
	}

	var stats FillStats
	for key, xs := range columns {
		stats.Columns++
		if len(xs)%2 != 0 {
			stats.Unbalanced++
			continue
		}
		sortCrossings(xs)

		y, z := key%t.Dim, key/t.Dim
		for p := 0; p < len(xs); p += 2 {
			col := xs[p].color
			if fillColor != nil {
				col = *fillColor
			}
			lo := max(0, int(math.Ceil(xs[p].x-0.5)))
			hi := min(t.Dim-1, int(math.Floor(xs[p+1].x-0.5)))
			for x := lo; x <= hi; x++ {
				c := Coord{x, y, z}
				if _, occupied := s.Get(c); !occupied {
					s.Set(c, col)
					stats.Filled++
				}
			}
		}
	}

	if stats.Unbalanced > 0 {
		logs.WithTag("columns", stats.Unbalanced).
			Warn("mesh is not watertight, interior fill skipped unbalanced columns")
	}
	return stats
}

// sortCrossings orders crossings by x. Ties keep triangle order so the
// entering color does not change from run to run.
func sortCrossings(xs []crossing) {
	slices.SortStableFunc(xs, func(a, b crossing) int { return cmp.Compare(a.x, b.x) })
}

// addCrossings records where the column rays cross triangle v (grid space).
// Column centres that fall exactly on an edge shared by two triangles are
// owned by one of them only (top-left rule).
func addCrossings(columns map[int][]crossing, dim int, tri Triangle, v [3]Vec3) {
	a := [2]float64{v[0][1], v[0][2]}
	b := [2]float64{v[1][1], v[1][2]}
	c := [2]float64{v[2][1], v[2][2]}
	area := edge(a, b, c)
	if area == 0 {
		return
	}
	if area < 0 {
		b, c = c, b
	}

	n := v[1].Sub(v[0]).Cross(v[2].Sub(v[0]))
	d := n.Dot(v[0])

	jLo := max(0, int(math.Ceil(min3(a[0], b[0], c[0])-0.5)))
	jHi := min(dim-1, int(math.Floor(max3(a[0], b[0], c[0])-0.5)))
	kLo := max(0, int(math.Ceil(min3(a[1], b[1], c[1])-0.5)))
	kHi := min(dim-1, int(math.Floor(max3(a[1], b[1], c[1])-0.5)))

	for k := kLo; k <= kHi; k++ {
		for j := jLo; j <= jHi; j++ {
			p := [2]float64{float64(j) + 0.5, float64(k) + 0.5}
			if !covers(a, b, p) || !covers(b, c, p) || !covers(c, a, p) {
				continue
			}
			x := (d - n[1]*p[0] - n[2]*p[1]) / n[0]
			col := tri.Color
			if tri.Shader != nil {
				col = tri.Shader.Shade(barycentric(Vec3{x, p[0], p[1]}, v))
			}
			key := j + k*dim
			columns[key] = append(columns[key], crossing{x: x, color: col})
		}
	}
}

// edge is the signed area of (p, q, s); positive when s is left of p→q.
func edge(p, q, s [2]float64) float64 {
	return (q[0]-p[0])*(s[1]-p[1]) - (q[1]-p[1])*(s[0]-p[0])
}

// covers reports whether s is inside the counter-clockwise edge p→q.
func covers(p, q, s [2]float64) bool {
	e := edge(p, q, s)
	if e != 0 {
		return e > 0
	}
	dy, dz := q[0]-p[0], q[1]-p[1]
	return dz < 0 || (dz == 0 && dy < 0)
}
