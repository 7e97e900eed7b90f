package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/voxelsplace/voxelize/voxel"
)

var identity = mgl64.Ident4()

// apply transforms a vertex position by m.
func apply(m mgl64.Mat4, p [3]float32) voxel.Vec3 {
	return m.Mul4x1(mgl64.Vec4{float64(p[0]), float64(p[1]), float64(p[2]), 1}).Vec3()
}

// localMatrix returns the transform of n relative to its parent. glTF and
// mgl64 both store matrices column-major.
func localMatrix(n *gltf.Node) mgl64.Mat4 {
	if m := mgl64.Mat4(n.MatrixOrDefault()); m != identity {
		return m
	}
	t, r, s := n.TranslationOrDefault(), n.RotationOrDefault(), n.ScaleOrDefault()
	q := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}
