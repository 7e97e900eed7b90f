// Package api runs conversions over in-memory byte slices, for callers
// without a file system such as the wasm build.
package api

import (
	"bytes"

	"github.com/voxelsplace/voxelize/mesh"
	"github.com/voxelsplace/voxelize/vox"
	"github.com/voxelsplace/voxelize/voxel"
)

// GLBToVox voxelizes a .glb or self-contained .gltf asset and returns the
// encoded .vox scene, compressed with c.
func GLBToVox(glb []byte, opts voxel.Options, c vox.Compression) ([]byte, voxel.Stats, error) {
	if err := opts.Validate(); err != nil {
		return nil, voxel.Stats{}, err
	}
	g, err := mesh.Decode(bytes.NewReader(glb))
	if err != nil {
		return nil, voxel.Stats{}, err
	}
	res, err := voxel.Convert(g, opts)
	if err != nil {
		return nil, voxel.Stats{}, err
	}

	var out bytes.Buffer
	if err := vox.EncodeTo(&out, c, res.Palette, res.Chunks); err != nil {
		return nil, voxel.Stats{}, err
	}
	return out.Bytes(), res.Stats, nil
}

// VoxToGLB meshes a .vox scene, plain or compressed, and returns it as GLB.
func VoxToGLB(data []byte) ([]byte, error) {
	scene, err := vox.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	doc := mesh.Export(scene.Palette, scene.Chunks, mesh.GridTransform(scene.Dim()))

	var out bytes.Buffer
	if err := mesh.Write(&out, doc, true); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
