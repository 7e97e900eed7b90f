package voxel

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a point or direction in mesh or grid space.
type Vec3 = mgl64.Vec3

// maxElem returns the largest component.
func maxElem(a Vec3) float64 { return math.Max(a[0], math.Max(a[1], a[2])) }

// finite reports whether no component is NaN or infinite.
func finite(a Vec3) bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max Vec3
}

// EmptyBounds returns an inverted box that any Extend call replaces.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{Min: Vec3{inf, inf, inf}, Max: Vec3{-inf, -inf, -inf}}
}

// Extend grows the box to contain p.
func (b *Bounds) Extend(p Vec3) {
	for i := range 3 {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
}

// Size returns the extent on each axis.
func (b Bounds) Size() Vec3 { return b.Max.Sub(b.Min) }

// Shader colors a point of a triangle given its barycentric coordinates.
type Shader interface {
	Shade(bary Vec3) Color
}

// Triangle is one face of the input soup. When Shader is set it takes
// precedence over Color.
type Triangle struct {
	V      [3]Vec3
	Color  Color
	Shader Shader
}

// Geometry is the fully materialized input of a conversion.
type Geometry struct {
	Triangles []Triangle
	Bounds    Bounds
}

// NewGeometry returns an empty geometry ready for Add.
func NewGeometry() *Geometry {
	return &Geometry{Bounds: EmptyBounds()}
}

// Add appends a triangle and grows the bounds. Non-finite vertices are kept
// out of the bounds so the rasterizer can reject the triangle on its own.
func (g *Geometry) Add(t Triangle) {
	g.Triangles = append(g.Triangles, t)
	for _, v := range t.V {
		if finite(v) {
			g.Bounds.Extend(v)
		}
	}
}

// closestPoint returns the point of triangle tri nearest to p.
func closestPoint(p Vec3, tri [3]Vec3) Vec3 {
	a, b, c := tri[0], tri[1], tri[2]
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)

	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}
	denom := 1 / (va + vb + vc)
	return a.Add(ab.Mul(vb * denom)).Add(ac.Mul(vc * denom))
}

// barycentric returns the barycentric coordinates of p (assumed on the
// triangle's plane). Degenerate triangles weight the first vertex.
func barycentric(p Vec3, tri [3]Vec3) Vec3 {
	a, b, c := tri[0], tri[1], tri[2]
	v0, v1, v2 := b.Sub(a), c.Sub(a), p.Sub(a)
	d00, d01, d11 := v0.Dot(v0), v0.Dot(v1), v1.Dot(v1)
	d20, d21 := v2.Dot(v0), v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if denom == 0 {
		return Vec3{1, 0, 0}
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return Vec3{1 - v - w, v, w}
}
