package vox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	xxhash "github.com/cespare/xxhash/v2"
	"github.com/voxelsplace/voxelize/voxel"
)

// toVox converts a grid (Y up) triple to .vox axes (Z up).
func toVox(v [3]int) [3]int { return [3]int{v[0], v[2], v[1]} }

// fromVox converts a .vox (Z up) triple to grid axes (Y up).
func fromVox(v [3]int) [3]int { return [3]int{v[0], v[2], v[1]} }

// Encode writes pal and chunks as a .vox scene. A single chunk at the origin
// is written as a plain model; otherwise a scene graph places one model per
// chunk at its offset. Chunks with identical content share a model.
func Encode(w io.Writer, pal *voxel.Palette, chunks []voxel.Chunk) error {
	if len(chunks) == 0 {
		return errors.New("no chunks to encode").WithType(voxel.ErrTypeInvalidFormat)
	}
	if pal.Len() > voxel.MaxColors {
		return errors.New("palette does not fit the format").
			WithType(voxel.ErrTypePaletteOverflow).
			WithTag("colors", pal.Len())
	}

	var children bytes.Buffer
	var models [][]byte
	index := make(map[uint64]int, len(chunks))
	modelOf := make([]int, len(chunks))

	addModel := func(b []byte) int {
		h := xxhash.Sum64(b)
		if idx, ok := index[h]; ok && bytes.Equal(models[idx], b) {
			return idx
		}
		idx := len(models)
		models = append(models, b)
		index[h] = idx
		return idx
	}

	for i, c := range chunks {
		b, err := modelBytes(c, pal)
		if err != nil {
			return errors.New("invalid chunk").
				WithType(voxel.ErrTypeInvalidFormat).
				WithTag("chunk", i).
				Wrap(err)
		}
		modelOf[i] = addModel(b)
	}
	for _, m := range models {
		children.Write(m)
	}

	if len(chunks) > 1 || chunks[0].Offset != (voxel.Coord{}) {
		writeSceneGraph(&children, chunks, modelOf)
	}
	writeChunk(&children, idRGBA, paletteBytes(pal), nil)

	var out bytes.Buffer
	out.WriteString(magic)
	writeInt32(&out, version)
	writeChunk(&out, idMain, nil, children.Bytes())

	if _, err := w.Write(out.Bytes()); err != nil {
		return errors.New("writing vox scene failed").
			WithType(voxel.ErrTypeIO).
			Wrap(err)
	}
	return nil
}

// modelBytes returns the SIZE and XYZI chunks of c.
func modelBytes(c voxel.Chunk, pal *voxel.Palette) ([]byte, error) {
	size := toVox(c.Size)
	for _, s := range size {
		if s <= 0 || s > voxel.ChunkSize {
			return nil, fmt.Errorf("model size %v out of range", c.Size)
		}
	}

	var content bytes.Buffer
	for _, s := range size {
		binary.Write(&content, binary.LittleEndian, uint32(s))
	}
	var buf bytes.Buffer
	writeChunk(&buf, idSize, content.Bytes(), nil)

	content.Reset()
	binary.Write(&content, binary.LittleEndian, uint32(len(c.Voxels)))
	for _, v := range c.Voxels {
		if int(v.X) >= c.Size[0] || int(v.Y) >= c.Size[1] || int(v.Z) >= c.Size[2] {
			return nil, fmt.Errorf("voxel (%d, %d, %d) outside model size %v", v.X, v.Y, v.Z, c.Size)
		}
		if v.Index == 0 || int(v.Index) > pal.Len() {
			return nil, fmt.Errorf("voxel color index %d outside palette of %d colors", v.Index, pal.Len())
		}
		content.Write([]byte{v.X, v.Z, v.Y, v.Index})
	}
	writeChunk(&buf, idXYZI, content.Bytes(), nil)
	return buf.Bytes(), nil
}

// writeSceneGraph writes root nTRN(0) -> nGRP(1) -> one nTRN(2+2k) and
// nSHP(3+2k) pair per chunk. Translations are model centres.
func writeSceneGraph(buf *bytes.Buffer, chunks []voxel.Chunk, modelOf []int) {
	var content bytes.Buffer
	writeTransform(&content, 0, 1, -1, nil)
	writeChunk(buf, idTrn, content.Bytes(), nil)

	content.Reset()
	writeInt32(&content, 1)
	writeDict(&content, nil)
	writeInt32(&content, int32(len(chunks)))
	for k := range chunks {
		writeInt32(&content, int32(2+2*k))
	}
	writeChunk(buf, idGrp, content.Bytes(), nil)

	for k, c := range chunks {
		off, size := toVox(c.Offset), toVox(c.Size)
		t := fmt.Sprintf("%d %d %d", off[0]+size[0]/2, off[1]+size[1]/2, off[2]+size[2]/2)

		content.Reset()
		writeTransform(&content, int32(2+2*k), int32(3+2*k), 0, []attr{{"_t", t}})
		writeChunk(buf, idTrn, content.Bytes(), nil)

		content.Reset()
		writeInt32(&content, int32(3+2*k))
		writeDict(&content, nil)
		writeInt32(&content, 1)
		writeInt32(&content, int32(modelOf[k]))
		writeDict(&content, nil)
		writeChunk(buf, idShp, content.Bytes(), nil)
	}
}

func writeTransform(buf *bytes.Buffer, id, child, layer int32, frame []attr) {
	writeInt32(buf, id)
	writeDict(buf, nil)
	writeInt32(buf, child)
	writeInt32(buf, -1)
	writeInt32(buf, layer)
	writeInt32(buf, 1)
	writeDict(buf, frame)
}

// paletteBytes lays the palette out as 256 RGBA entries: entry k holds color
// index k+1, the last entry is unused.
func paletteBytes(pal *voxel.Palette) []byte {
	b := make([]byte, 256*4)
	for i := 1; i < len(pal.Colors) && i <= voxel.MaxColors; i++ {
		c := pal.Colors[i]
		copy(b[(i-1)*4:], []byte{c.R, c.G, c.B, c.A})
	}
	return b
}
