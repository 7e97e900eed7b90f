// Package mesh converts between glTF assets and the voxel pipeline.
package mesh

import (
	"image"
	"io"
	"math"
	"path/filepath"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/voxelsplace/voxelize/voxel"
)

// Load reads a .glb or .gltf file into a triangle soup in world space.
func Load(path string) (*voxel.Geometry, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.New("opening mesh failed").
			WithType(voxel.ErrTypeIO).
			WithTag("path", path).
			Wrap(err)
	}
	return FromDocument(doc, filepath.Dir(path))
}

// Decode reads a glTF asset from r. External buffers and images cannot be
// resolved; use Load for assets that reference sibling files.
func Decode(r io.Reader) (*voxel.Geometry, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.New("decoding gltf failed").
			WithType(voxel.ErrTypeInvalidFormat).
			Wrap(err)
	}
	return FromDocument(doc, "")
}

type material struct {
	color    voxel.Color
	texture  image.Image
	texCoord int
}

// FromDocument flattens the default scene of doc. dir resolves relative
// image URIs; it may be empty.
func FromDocument(doc *gltf.Document, dir string) (*voxel.Geometry, error) {
	l := loader{
		doc:       doc,
		geometry:  voxel.NewGeometry(),
		materials: resolveMaterials(doc, decodeImages(doc, dir)),
	}

	roots, err := l.roots()
	if err != nil {
		return nil, err
	}
	for _, n := range roots {
		if err := l.node(n, identity, 0); err != nil {
			return nil, err
		}
	}

	logs.WithTag("triangles", len(l.geometry.Triangles)).
		WithTag("primitives", l.primitives).
		WithTag("skipped_primitives", l.skipped).
		WithTag("images", len(doc.Images)).
		Info("mesh loaded")
	return l.geometry, nil
}

func resolveMaterials(doc *gltf.Document, images []image.Image) []material {
	materials := make([]material, len(doc.Materials))
	for i, m := range doc.Materials {
		materials[i].color = voxel.White
		pbr := m.PBRMetallicRoughness
		if pbr == nil {
			continue
		}
		f := pbr.BaseColorFactorOrDefault()
		materials[i].color = voxel.Color{R: unit(f[0]), G: unit(f[1]), B: unit(f[2]), A: unit(f[3])}

		if ti := pbr.BaseColorTexture; ti != nil && ti.Index < len(doc.Textures) {
			tex := doc.Textures[ti.Index]
			if tex.Source != nil && *tex.Source < len(images) {
				materials[i].texture = images[*tex.Source]
				materials[i].texCoord = ti.TexCoord
			}
		}
	}
	return materials
}

func unit(v float64) uint8 {
	return uint8(math.Round(math.Min(1, math.Max(0, v)) * 255))
}

type loader struct {
	doc        *gltf.Document
	geometry   *voxel.Geometry
	materials  []material
	primitives int
	skipped    int
}

// roots returns the root nodes of the default scene, or every mesh at the
// origin when the asset declares no scene.
func (l *loader) roots() ([]int, error) {
	doc := l.doc
	if len(doc.Scenes) == 0 {
		for i := range doc.Meshes {
			if err := l.mesh(i, identity); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	scene := 0
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		scene = *doc.Scene
	}
	return doc.Scenes[scene].Nodes, nil
}

func (l *loader) node(i int, parent mgl64.Mat4, depth int) error {
	if i < 0 || i >= len(l.doc.Nodes) || depth > len(l.doc.Nodes) {
		return errors.New("invalid node hierarchy").
			WithType(voxel.ErrTypeInvalidFormat).
			WithTag("node", i)
	}
	n := l.doc.Nodes[i]
	m := parent.Mul4(localMatrix(n))
	if n.Mesh != nil {
		if err := l.mesh(*n.Mesh, m); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := l.node(c, m, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) mesh(i int, m mgl64.Mat4) error {
	if i < 0 || i >= len(l.doc.Meshes) {
		return errors.New("node references a missing mesh").
			WithType(voxel.ErrTypeInvalidFormat).
			WithTag("mesh", i)
	}
	for p, prim := range l.doc.Meshes[i].Primitives {
		l.primitives++
		if err := l.primitive(prim, m); err != nil {
			if errors.Type(err) != errPrimitiveSkipped {
				return errors.New("reading primitive failed").
					WithType(voxel.ErrTypeInvalidFormat).
					WithTag("mesh", i).
					WithTag("primitive", p).
					Wrap(err)
			}
			logs.WithTag("mesh", i).
				WithTag("primitive", p).
				Warn(err)
			l.skipped++
		}
	}
	return nil
}

const errPrimitiveSkipped = "primitive-skipped"

func (l *loader) primitive(prim *gltf.Primitive, m mgl64.Mat4) error {
	doc := l.doc
	if prim.Mode != gltf.PrimitiveTriangles {
		return errors.New("only triangle lists are supported").
			WithType(errPrimitiveSkipped).
			WithTag("mode", int(prim.Mode))
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok || posIdx >= len(doc.Accessors) {
		return errors.New("primitive has no positions").WithType(errPrimitiveSkipped)
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return err
	}

	var indices []uint32
	if prim.Indices != nil {
		if *prim.Indices >= len(doc.Accessors) {
			return errors.New("indices accessor out of range").WithTag("accessor", *prim.Indices)
		}
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return err
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	mat := material{color: voxel.White}
	if prim.Material != nil && *prim.Material < len(l.materials) {
		mat = l.materials[*prim.Material]
	}

	var uvs [][2]float32
	if mat.texture != nil {
		if a, ok := prim.Attributes[texCoordAttr(mat.texCoord)]; ok && a < len(doc.Accessors) {
			if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[a], nil); err != nil {
				return err
			}
		}
	}
	var colors [][4]uint8
	if a, ok := prim.Attributes[gltf.COLOR_0]; ok && a < len(doc.Accessors) {
		if colors, err = modeler.ReadColor(doc, doc.Accessors[a], nil); err != nil {
			return err
		}
	}

	world := make([]voxel.Vec3, len(positions))
	for i, p := range positions {
		world[i] = apply(m, p)
	}

	for t := 0; t+2 < len(indices); t += 3 {
		var tri voxel.Triangle
		var idx [3]uint32
		for k := range 3 {
			idx[k] = indices[t+k]
			if int(idx[k]) >= len(world) {
				return errors.New("vertex index out of range").
					WithTag("index", idx[k]).
					WithTag("vertices", len(world))
			}
			tri.V[k] = world[idx[k]]
		}
		tri.Color = mat.color

		switch {
		case uvs != nil && inRange(idx, len(uvs)):
			tri.Shader = textureShader{
				img:    mat.texture,
				uv:     [3][2]float32{uvs[idx[0]], uvs[idx[1]], uvs[idx[2]]},
				factor: mat.color,
			}
		case colors != nil && inRange(idx, len(colors)):
			var vc [3]voxel.Color
			for k, j := range idx {
				c := colors[j]
				vc[k] = voxel.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
			}
			tri.Shader = vertexShader{colors: vc, factor: mat.color}
		}
		l.geometry.Add(tri)
	}
	return nil
}

func inRange(idx [3]uint32, n int) bool {
	return int(idx[0]) < n && int(idx[1]) < n && int(idx[2]) < n
}

func texCoordAttr(set int) string {
	switch set {
	case 0:
		return gltf.TEXCOORD_0
	case 1:
		return gltf.TEXCOORD_1
	}
	return "TEXCOORD_" + strconv.Itoa(set)
}
