package mesh

import (
	"fmt"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/voxelsplace/voxelize/voxel"
)

// Export builds a glTF scene from chunks: one node per non-empty chunk,
// translated by its offset, under a root node that maps grid units back to
// mesh space through t.
func Export(pal *voxel.Palette, chunks []voxel.Chunk, t voxel.Transform) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "voxelize"

	hasAlpha := false
	for _, c := range pal.Colors[1:] {
		if c.A < 255 {
			hasAlpha = true
			break
		}
	}
	material := &gltf.Material{
		Name: "Palette",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{1, 1, 1, 1},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
		AlphaMode: gltf.AlphaOpaque,
	}
	if hasAlpha {
		material.AlphaMode = gltf.AlphaBlend
	}
	doc.Materials = []*gltf.Material{material}

	scale := t.VoxelSize
	if !(scale > 0) {
		scale = 1
	}
	root := &gltf.Node{
		Name:        "Voxels",
		Translation: [3]float64{t.Origin[0], t.Origin[1], t.Origin[2]},
		Scale:       [3]float64{scale, scale, scale},
		Rotation:    [4]float64{0, 0, 0, 1},
	}
	doc.Nodes = []*gltf.Node{root}
	doc.Scenes[0].Nodes = []int{0}

	for _, c := range chunks {
		m := voxel.GreedyMesh(c)
		if len(m.Indices) == 0 {
			continue
		}

		positions := make([][3]float32, len(m.Vertices))
		normals := make([][3]float32, len(m.Vertices))
		colors := make([][4]float32, len(m.Vertices))
		for j, v := range m.Vertices {
			positions[j] = v.Position
			normals[j] = v.Normal
			colors[j] = pal.Color(v.Color).Float4()
		}

		prim := &gltf.Primitive{
			Attributes: map[string]int{
				gltf.POSITION: modeler.WritePosition(doc, positions),
				gltf.NORMAL:   modeler.WriteNormal(doc, normals),
				gltf.COLOR_0:  modeler.WriteColor(doc, colors),
			},
			Indices:  gltf.Index(modeler.WriteIndices(doc, m.Indices)),
			Material: gltf.Index(0),
		}
		name := fmt.Sprintf("Chunk_%d_%d_%d", c.Offset[0], c.Offset[1], c.Offset[2])
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})

		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:        name,
			Mesh:        gltf.Index(len(doc.Meshes) - 1),
			Translation: [3]float64{float64(c.Offset[0]), float64(c.Offset[1]), float64(c.Offset[2])},
			Rotation:    [4]float64{0, 0, 0, 1},
			Scale:       [3]float64{1, 1, 1},
		})
		root.Children = append(root.Children, len(doc.Nodes)-1)
	}
	return doc
}

// ExportStats summarizes an exported document.
type ExportStats struct {
	Meshes    int
	Vertices  int
	Triangles int
}

// Summarize counts the meshes and triangles of doc.
func Summarize(doc *gltf.Document) ExportStats {
	s := ExportStats{Meshes: len(doc.Meshes)}
	for _, m := range doc.Meshes {
		for _, p := range m.Primitives {
			if a, ok := p.Attributes[gltf.POSITION]; ok {
				s.Vertices += int(doc.Accessors[a].Count)
			}
			if p.Indices != nil {
				s.Triangles += int(doc.Accessors[*p.Indices].Count) / 3
			}
		}
	}
	return s
}

// Write encodes doc to w, as GLB when binary is set and as glTF JSON with
// embedded buffers otherwise.
func Write(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = binary
	if err := enc.Encode(doc); err != nil {
		return errors.New("encoding gltf failed").
			WithType(voxel.ErrTypeIO).
			Wrap(err)
	}
	return nil
}

// GridTransform returns the transform of a decoded scene, which carries no
// mesh-space placement: one unit per voxel, centered on the origin.
func GridTransform(dim int) voxel.Transform {
	h := -float64(dim) / 2
	return voxel.Transform{Origin: voxel.Vec3{h, 0, h}, VoxelSize: 1, Dim: dim}
}
