package vox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelsplace/voxelize/voxel"
)

// Scene is a decoded .vox file.
type Scene struct {
	Version int
	Palette *voxel.Palette
	// Chunks holds one entry per placed model, in grid axes.
	Chunks []voxel.Chunk
}

// Dim returns the edge of the smallest cube holding every chunk.
func (s *Scene) Dim() int {
	dim := 0
	for _, c := range s.Chunks {
		for i := range 3 {
			dim = max(dim, c.Offset[i]+c.Size[i])
		}
	}
	return dim
}

type model struct {
	size   [3]int
	voxels []voxel.ChunkVoxel
}

type node struct {
	kind      string
	children  []int
	translate [3]int
	model     int
}

// Decode reads a .vox scene. Zstandard and gzip streams are decompressed
// transparently.
func Decode(r io.Reader) (*Scene, error) {
	rc, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.New("reading vox scene failed").
			WithType(voxel.ErrTypeIO).
			Wrap(err)
	}
	s, err := decode(data)
	if err != nil {
		return nil, errors.New("invalid vox scene").
			WithType(voxel.ErrTypeInvalidFormat).
			Wrap(err)
	}
	return s, nil
}

func decode(data []byte) (*Scene, error) {
	if len(data) < 8 || string(data[:4]) != magic {
		return nil, fmt.Errorf("missing %q magic", magic)
	}
	s := &Scene{Version: int(binary.LittleEndian.Uint32(data[4:8]))}

	main, err := readChunk(bytes.NewReader(data[8:]))
	if err != nil {
		return nil, err
	}
	if main.id != idMain {
		return nil, fmt.Errorf("first chunk is %q, want %q", main.id, idMain)
	}

	var (
		models  []model
		size    *[3]int
		palette []voxel.Color
		nodes   = make(map[int]*node)
	)

	r := bytes.NewReader(main.children)
	for {
		c, err := readChunk(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch c.id {
		case idSize:
			if len(c.content) < 12 {
				return nil, fmt.Errorf("SIZE chunk too short: %d bytes", len(c.content))
			}
			var v [3]int
			for i := range 3 {
				v[i] = int(binary.LittleEndian.Uint32(c.content[i*4:]))
				if v[i] <= 0 || v[i] > voxel.ChunkSize {
					return nil, fmt.Errorf("model size %v out of range", v)
				}
			}
			size = &v

		case idXYZI:
			if size == nil {
				return nil, fmt.Errorf("XYZI chunk without SIZE")
			}
			m, err := parseModel(*size, c.content)
			if err != nil {
				return nil, fmt.Errorf("model %d: %w", len(models), err)
			}
			models = append(models, m)
			size = nil

		case idRGBA:
			if len(c.content) < 256*4 {
				return nil, fmt.Errorf("RGBA chunk too short: %d bytes", len(c.content))
			}
			palette = make([]voxel.Color, voxel.MaxColors)
			for i := range palette {
				b := c.content[i*4:]
				palette[i] = voxel.Color{R: b[0], G: b[1], B: b[2], A: b[3]}
			}

		case idTrn, idGrp, idShp:
			id, n, err := parseNode(c)
			if err != nil {
				return nil, err
			}
			nodes[id] = n
		}
	}

	if len(models) == 0 {
		return nil, fmt.Errorf("no models")
	}

	if len(nodes) == 0 {
		for _, m := range models {
			s.Chunks = append(s.Chunks, voxel.Chunk{Size: m.size, Voxels: m.voxels})
		}
	} else {
		root, ok := nodes[0]
		if !ok {
			return nil, fmt.Errorf("scene graph has no root node")
		}
		if err := place(s, nodes, models, root, [3]int{}, 0); err != nil {
			return nil, err
		}
	}

	maxIndex := 0
	for _, c := range s.Chunks {
		for _, v := range c.Voxels {
			maxIndex = max(maxIndex, int(v.Index))
		}
	}
	if palette == nil {
		palette = defaultPalette[1:]
	} else {
		n := len(palette)
		for n > maxIndex && palette[n-1] == (voxel.Color{}) {
			n--
		}
		palette = palette[:n]
	}
	if s.Palette, err = voxel.NewPalette(palette); err != nil {
		return nil, err
	}
	return s, nil
}

func parseModel(size [3]int, content []byte) (model, error) {
	if len(content) < 4 {
		return model{}, fmt.Errorf("XYZI chunk too short")
	}
	n := int(binary.LittleEndian.Uint32(content))
	if len(content)-4 < n*4 {
		return model{}, fmt.Errorf("XYZI declares %d voxels, holds %d", n, (len(content)-4)/4)
	}
	m := model{size: fromVox(size), voxels: make([]voxel.ChunkVoxel, n)}
	for i := range n {
		b := content[4+i*4:]
		if int(b[0]) >= size[0] || int(b[1]) >= size[1] || int(b[2]) >= size[2] {
			return model{}, fmt.Errorf("voxel (%d, %d, %d) outside size %v", b[0], b[1], b[2], size)
		}
		m.voxels[i] = voxel.ChunkVoxel{X: b[0], Y: b[2], Z: b[1], Index: b[3]}
	}
	return m, nil
}

func parseNode(c rawChunk) (int, *node, error) {
	f := newFieldReader(c.content)
	id := int(f.int32())
	f.dict()
	n := &node{kind: c.id}

	switch c.id {
	case idTrn:
		n.children = []int{int(f.int32())}
		f.int32() // reserved
		f.int32() // layer
		frames := f.int32()
		for i := range frames {
			frame := f.dict()
			if f.err != nil {
				break
			}
			if t, ok := frame["_t"]; ok && i == 0 {
				v, err := parseVec3(t)
				if err != nil {
					return 0, nil, fmt.Errorf("node %d: %w", id, err)
				}
				n.translate = v
			}
		}
	case idGrp:
		count := f.int32()
		if f.err == nil && (count < 0 || int(count)*4 > f.r.Len()) {
			return 0, nil, fmt.Errorf("node %d: child count %d out of range", id, count)
		}
		for range count {
			n.children = append(n.children, int(f.int32()))
		}
	case idShp:
		if f.int32() < 1 && f.err == nil {
			return 0, nil, fmt.Errorf("node %d: shape without models", id)
		}
		n.model = int(f.int32())
	}

	if f.err != nil {
		return 0, nil, fmt.Errorf("node %d (%s): %w", id, c.id, f.err)
	}
	return id, n, nil
}

// place walks the scene graph from n, accumulating translations, and appends
// one chunk per shape.
func place(s *Scene, nodes map[int]*node, models []model, n *node, t [3]int, depth int) error {
	if depth > len(nodes) {
		return fmt.Errorf("scene graph has a cycle")
	}
	switch n.kind {
	case idTrn:
		for i := range 3 {
			t[i] += n.translate[i]
		}
	case idShp:
		if n.model < 0 || n.model >= len(models) {
			return fmt.Errorf("shape references model %d of %d", n.model, len(models))
		}
		s.Chunks = append(s.Chunks, models[n.model].chunkAt(t))
		return nil
	}
	for _, id := range n.children {
		child, ok := nodes[id]
		if !ok {
			return fmt.Errorf("scene graph references missing node %d", id)
		}
		if err := place(s, nodes, models, child, t, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// chunkAt places m with its .vox centre at t.
func (m model) chunkAt(t [3]int) voxel.Chunk {
	size := toVox(m.size)
	var off [3]int
	for i := range 3 {
		off[i] = t[i] - size[i]/2
	}
	return voxel.Chunk{
		Offset: voxel.Coord(fromVox(off)),
		Size:   m.size,
		Voxels: m.voxels,
	}
}
