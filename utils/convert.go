package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/voxelsplace/voxelize/mesh"
	"github.com/voxelsplace/voxelize/vox"
	"github.com/voxelsplace/voxelize/voxel"
)

// Kind is the file format of a conversion input or output.
type Kind int

const (
	KindUnknown Kind = iota
	KindGLB
	KindGLTF
	KindVox
)

func (k Kind) String() string {
	switch k {
	case KindGLB:
		return "glb"
	case KindGLTF:
		return "gltf"
	case KindVox:
		return "vox"
	}
	return "unknown"
}

// KindOf picks the format of a file from its extension. Compressed scenes
// (.vox.zst, .vox.gz) are KindVox.
func KindOf(path string) Kind {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".glb"):
		return KindGLB
	case strings.HasSuffix(p, ".gltf"):
		return KindGLTF
	case strings.HasSuffix(p, ".vox"),
		strings.HasSuffix(p, ".vox.zst"),
		strings.HasSuffix(p, ".vox.gz"):
		return KindVox
	}
	return KindUnknown
}

func checkKind(path, role string) (Kind, error) {
	k := KindOf(path)
	if k == KindUnknown {
		return k, errors.New("unsupported file extension").
			WithType(voxel.ErrTypeInvalidConfig).
			WithTag(role, path).
			WithTag("extension", filepath.Ext(path))
	}
	return k, nil
}

// RunConvert converts inPath to outPath, choosing formats by extension.
// Meshes are voxelized with opts; .vox inputs are re-encoded or meshed as
// they are.
func RunConvert(inPath, outPath string, opts voxel.Options) (voxel.Stats, error) {
	in, err := checkKind(inPath, "input")
	if err != nil {
		return voxel.Stats{}, err
	}
	out, err := checkKind(outPath, "output")
	if err != nil {
		return voxel.Stats{}, err
	}

	start := time.Now()
	var res *voxel.Result
	if in == KindVox {
		res, err = loadScene(inPath)
	} else {
		res, err = voxelizeMesh(inPath, opts)
	}
	if err != nil {
		return voxel.Stats{}, err
	}

	err = WriteFileAtomic(outPath, func(w io.Writer) error {
		if out == KindVox {
			return vox.EncodeTo(w, vox.CompressionFor(outPath), res.Palette, res.Chunks)
		}
		doc := mesh.Export(res.Palette, res.Chunks, res.Transform)
		s := mesh.Summarize(doc)
		logs.WithTag("meshes", s.Meshes).
			WithTag("vertices", s.Vertices).
			WithTag("triangles", s.Triangles).
			Debug("surface mesh built")
		return mesh.Write(w, doc, out == KindGLB)
	})
	if err != nil {
		return voxel.Stats{}, err
	}

	logs.WithTag("input", inPath).
		WithTag("output", outPath).
		WithTag("voxels", res.Store.Len()).
		WithTag("colors", res.Stats.Colors).
		WithTag("chunks", res.Stats.Chunks).
		WithTag("duration", time.Since(start).String()).
		Info("conversion finished")
	return res.Stats, nil
}

func voxelizeMesh(path string, opts voxel.Options) (*voxel.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g, err := mesh.Load(path)
	if err != nil {
		return nil, err
	}
	return voxel.Convert(g, opts)
}

func loadScene(path string) (*voxel.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("opening scene failed", path, err)
	}
	defer f.Close()

	scene, err := vox.Decode(f)
	if err != nil {
		return nil, errors.New("reading scene failed").
			WithType(errors.Type(err)).
			WithTag("path", path).
			Wrap(err)
	}
	return sceneResult(scene), nil
}

// sceneResult rebuilds a voxel grid from a decoded scene. Scenes placed at
// negative offsets are shifted so the grid starts at the origin.
func sceneResult(scene *vox.Scene) *voxel.Result {
	chunks := scene.Chunks
	if shift := originShift(chunks); shift != (voxel.Coord{}) {
		chunks = make([]voxel.Chunk, len(scene.Chunks))
		for i, c := range scene.Chunks {
			for k := range 3 {
				c.Offset[k] += shift[k]
			}
			chunks[i] = c
		}
		logs.WithTag("shift_x", shift[0]).
			WithTag("shift_y", shift[1]).
			WithTag("shift_z", shift[2]).
			Info("scene shifted to a non-negative origin")
	}
	shifted := &vox.Scene{Version: scene.Version, Palette: scene.Palette, Chunks: chunks}

	dim := max(shifted.Dim(), 1)
	store := voxel.NewSparseStore(dim)
	for _, c := range chunks {
		for _, v := range c.Voxels {
			store.Set(voxel.Coord{
				c.Offset[0] + int(v.X),
				c.Offset[1] + int(v.Y),
				c.Offset[2] + int(v.Z),
			}, scene.Palette.Color(v.Index))
		}
	}
	return &voxel.Result{
		Transform: mesh.GridTransform(dim),
		Store:     store,
		Palette:   scene.Palette,
		Chunks:    chunks,
		Stats: voxel.Stats{
			Surface: store.Len(),
			Colors:  scene.Palette.Len(),
			Chunks:  len(chunks),
		},
	}
}

// originShift returns the translation that moves every chunk offset to a
// non-negative position. Axes already non-negative are left alone.
func originShift(chunks []voxel.Chunk) voxel.Coord {
	var shift voxel.Coord
	for _, c := range chunks {
		for k := range 3 {
			shift[k] = max(shift[k], -c.Offset[k])
		}
	}
	return shift
}
