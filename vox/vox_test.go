package vox

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/voxelsplace/voxelize/voxel"
)

func testPalette(t *testing.T) *voxel.Palette {
	pal, err := voxel.NewPalette([]voxel.Color{
		{255, 0, 0, 255},
		{0, 255, 0, 255},
		{0, 0, 255, 255},
	})
	require.NoError(t, err)
	return pal
}

// chunkIDs lists the ids of the chunks directly under MAIN.
func chunkIDs(t *testing.T, data []byte) []string {
	main, err := readChunk(bytes.NewReader(data[8:]))
	require.NoError(t, err)
	require.Equal(t, idMain, main.id)

	var ids []string
	r := bytes.NewReader(main.children)
	for r.Len() > 0 {
		c, err := readChunk(r)
		require.NoError(t, err)
		ids = append(ids, c.id)
	}
	return ids
}

func TestEncodeSingleChunk(t *testing.T) {
	pal := testPalette(t)
	chunks := []voxel.Chunk{{
		Size:   [3]int{4, 5, 6},
		Voxels: []voxel.ChunkVoxel{{X: 1, Y: 2, Z: 3, Index: 2}},
	}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, pal, chunks))
	data := buf.Bytes()

	require.Equal(t, "VOX ", string(data[:4]))
	require.Equal(t, uint32(150), binary.LittleEndian.Uint32(data[4:8]))
	require.Equal(t, []string{idSize, idXYZI, idRGBA}, chunkIDs(t, data))

	// MAIN header, then SIZE with x, z, y.
	size := data[8+12+12:]
	require.Equal(t, uint32(4), binary.LittleEndian.Uint32(size[0:]))
	require.Equal(t, uint32(6), binary.LittleEndian.Uint32(size[4:]))
	require.Equal(t, uint32(5), binary.LittleEndian.Uint32(size[8:]))

	xyzi := size[12+12:]
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(xyzi))
	require.Equal(t, []byte{1, 3, 2, 2}, xyzi[4:8])

	scene, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 150, scene.Version)
	require.Equal(t, chunks, scene.Chunks)
	require.Equal(t, pal.Colors, scene.Palette.Colors)
	require.Equal(t, 6, scene.Dim())
}

func TestEncodeSceneGraphRoundTrip(t *testing.T) {
	pal := testPalette(t)
	chunks := []voxel.Chunk{
		{
			Offset: voxel.Coord{0, 0, 0},
			Size:   [3]int{256, 256, 256},
			Voxels: []voxel.ChunkVoxel{{X: 0, Y: 0, Z: 0, Index: 1}, {X: 255, Y: 10, Z: 7, Index: 3}},
		},
		{
			Offset: voxel.Coord{0, 512, 0},
			Size:   [3]int{256, 88, 256},
			Voxels: []voxel.ChunkVoxel{{X: 3, Y: 87, Z: 1, Index: 2}},
		},
		{
			Offset: voxel.Coord{512, 256, 256},
			Size:   [3]int{87, 256, 256},
			Voxels: []voxel.ChunkVoxel{{X: 86, Y: 1, Z: 255, Index: 1}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, pal, chunks))
	require.Equal(t, []string{
		idSize, idXYZI, idSize, idXYZI, idSize, idXYZI,
		idTrn, idGrp,
		idTrn, idShp, idTrn, idShp, idTrn, idShp,
		idRGBA,
	}, chunkIDs(t, buf.Bytes()))

	scene, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, chunks, scene.Chunks)
	require.Equal(t, pal.Colors, scene.Palette.Colors)
	require.Equal(t, 600, scene.Dim())
}

func TestEncodeSingleChunkKeepsOffset(t *testing.T) {
	pal := testPalette(t)
	chunks := []voxel.Chunk{{
		Offset: voxel.Coord{256, 0, 0},
		Size:   [3]int{256, 256, 256},
		Voxels: []voxel.ChunkVoxel{{X: 4, Y: 5, Z: 6, Index: 3}},
	}}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, pal, chunks))
	require.Equal(t, []string{
		idSize, idXYZI,
		idTrn, idGrp,
		idTrn, idShp,
		idRGBA,
	}, chunkIDs(t, buf.Bytes()))

	scene, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, chunks, scene.Chunks)
	require.Equal(t, 512, scene.Dim())
}

func TestEncodeSharesIdenticalModels(t *testing.T) {
	pal := testPalette(t)
	voxels := []voxel.ChunkVoxel{{X: 1, Y: 1, Z: 1, Index: 1}}
	chunks := []voxel.Chunk{
		{Offset: voxel.Coord{0, 0, 0}, Size: [3]int{256, 256, 256}, Voxels: voxels},
		{Offset: voxel.Coord{256, 0, 0}, Size: [3]int{256, 256, 256}, Voxels: voxels},
		{Offset: voxel.Coord{0, 0, 256}, Size: [3]int{256, 256, 256}, Voxels: []voxel.ChunkVoxel{{Index: 2}}},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, pal, chunks))

	sizes := 0
	for _, id := range chunkIDs(t, buf.Bytes()) {
		if id == idSize {
			sizes++
		}
	}
	require.Equal(t, 2, sizes)

	scene, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, chunks, scene.Chunks)
}

func TestEncodeErrors(t *testing.T) {
	pal := testPalette(t)

	err := Encode(&bytes.Buffer{}, pal, nil)
	require.Error(t, err)
	require.Equal(t, voxel.ErrTypeInvalidFormat, errors.Type(err))

	err = Encode(&bytes.Buffer{}, pal, []voxel.Chunk{{Size: [3]int{300, 1, 1}}})
	require.Error(t, err)
	require.Equal(t, voxel.ErrTypeInvalidFormat, errors.Type(err))

	err = Encode(&bytes.Buffer{}, pal, []voxel.Chunk{{Size: [3]int{2, 2, 2}, Voxels: []voxel.ChunkVoxel{{Index: 9}}}})
	require.Error(t, err)
	require.Equal(t, voxel.ErrTypeInvalidFormat, errors.Type(err))

	err = Encode(failingWriter{}, pal, []voxel.Chunk{{Size: [3]int{2, 2, 2}}})
	require.Error(t, err)
	require.Equal(t, voxel.ErrTypeIO, errors.Type(err))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, bytes.ErrTooLarge }

func TestDecodeErrors(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     {},
		"magic":     []byte("VOXL\x96\x00\x00\x00"),
		"truncated": []byte("VOX \x96\x00\x00\x00MAIN\x00\x00\x00\x00\xff\x00\x00\x00"),
		"no models": []byte("VOX \x96\x00\x00\x00MAIN\x00\x00\x00\x00\x00\x00\x00\x00"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(data))
			require.Error(t, err)
			require.Equal(t, voxel.ErrTypeInvalidFormat, errors.Type(err))
		})
	}
}

func TestDecodeWithoutPaletteUsesDefault(t *testing.T) {
	var model bytes.Buffer
	var content bytes.Buffer
	for _, v := range []uint32{2, 2, 2} {
		binary.Write(&content, binary.LittleEndian, v)
	}
	writeChunk(&model, idSize, content.Bytes(), nil)
	content.Reset()
	binary.Write(&content, binary.LittleEndian, uint32(1))
	content.Write([]byte{1, 0, 1, 79})
	writeChunk(&model, idXYZI, content.Bytes(), nil)

	var file bytes.Buffer
	file.WriteString(magic)
	writeInt32(&file, version)
	writeChunk(&file, idMain, nil, model.Bytes())

	scene, err := Decode(&file)
	require.NoError(t, err)
	require.Equal(t, voxel.MaxColors, scene.Palette.Len())
	require.Equal(t, voxel.Color{R: 255, G: 255, B: 255, A: 255}, scene.Palette.Color(1))
	require.Equal(t, voxel.Color{R: 0x11, G: 0x11, B: 0x11, A: 255}, scene.Palette.Color(255))
	require.Equal(t, []voxel.ChunkVoxel{{X: 1, Y: 1, Z: 0, Index: 79}}, scene.Chunks[0].Voxels)
}

func TestCompressedRoundTrip(t *testing.T) {
	pal := testPalette(t)
	chunks := []voxel.Chunk{{
		Size:   [3]int{8, 8, 8},
		Voxels: []voxel.ChunkVoxel{{X: 1, Y: 2, Z: 3, Index: 1}, {X: 7, Y: 7, Z: 7, Index: 3}},
	}}

	for _, name := range []string{"scene.vox", "scene.vox.zst", "scene.vox.gz"} {
		t.Run(name, func(t *testing.T) {
			c := CompressionFor(name)
			var buf bytes.Buffer
			require.NoError(t, EncodeTo(&buf, c, pal, chunks))
			if c == NoCompression {
				require.Equal(t, magic, buf.String()[:4])
			} else {
				require.NotEqual(t, magic, buf.String()[:4])
			}

			scene, err := Decode(&buf)
			require.NoError(t, err)
			require.Equal(t, chunks, scene.Chunks)
			require.Equal(t, pal.Colors, scene.Palette.Colors)
		})
	}

	require.Equal(t, Zstd, CompressionFor("A.VOX.ZST"))
	require.Equal(t, Gzip, CompressionFor("a.vox.gz"))
	require.Equal(t, NoCompression, CompressionFor("a.vox"))
}

func TestPipelineRoundTrip(t *testing.T) {
	s := voxel.NewSparseStore(600)
	coords := []voxel.Coord{{0, 0, 0}, {599, 0, 0}, {300, 300, 300}, {0, 599, 0}, {598, 598, 598}}
	for i, c := range coords {
		s.Set(c, voxel.Color{R: uint8(40 * i), G: 100, B: 200, A: 255})
	}
	pal, _, err := voxel.BuildPalette(s, voxel.MaxColors)
	require.NoError(t, err)
	chunks, err := voxel.Partition(s, pal)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, pal, chunks))
	scene, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, chunks, scene.Chunks)

	got := make(map[voxel.Coord]voxel.Color)
	for _, c := range scene.Chunks {
		for _, v := range c.Voxels {
			coord := voxel.Coord{c.Offset[0] + int(v.X), c.Offset[1] + int(v.Y), c.Offset[2] + int(v.Z)}
			got[coord] = scene.Palette.Color(v.Index)
		}
	}
	want := make(map[voxel.Coord]voxel.Color)
	for c, col := range s.All() {
		want[c] = col
	}
	require.Equal(t, want, got)
}
