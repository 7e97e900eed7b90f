// Package vox reads and writes MagicaVoxel .vox scenes.
package vox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

const (
	magic   = "VOX "
	version = 150
)

// Chunk ids.
const (
	idMain = "MAIN"
	idSize = "SIZE"
	idXYZI = "XYZI"
	idRGBA = "RGBA"
	idTrn  = "nTRN"
	idGrp  = "nGRP"
	idShp  = "nSHP"
)

// attr is one key/value pair of a DICT. DICTs are written in slice order.
type attr struct {
	key, value string
}

// writeChunk appends a chunk with its 12 byte header to buf.
func writeChunk(buf *bytes.Buffer, id string, content, children []byte) {
	buf.WriteString(id)
	binary.Write(buf, binary.LittleEndian, uint32(len(content)))
	binary.Write(buf, binary.LittleEndian, uint32(len(children)))
	buf.Write(content)
	buf.Write(children)
}

func writeInt32(buf *bytes.Buffer, v int32) {
	binary.Write(buf, binary.LittleEndian, v)
}

func writeString(buf *bytes.Buffer, s string) {
	writeInt32(buf, int32(len(s)))
	buf.WriteString(s)
}

func writeDict(buf *bytes.Buffer, attrs []attr) {
	writeInt32(buf, int32(len(attrs)))
	for _, a := range attrs {
		writeString(buf, a.key)
		writeString(buf, a.value)
	}
}

// rawChunk is a chunk as read from a file.
type rawChunk struct {
	id       string
	content  []byte
	children []byte
}

// readChunk reads the next chunk. It returns io.EOF at a clean end of input.
func readChunk(r *bytes.Reader) (rawChunk, error) {
	if r.Len() == 0 {
		return rawChunk{}, io.EOF
	}
	var hdr struct {
		ID       [4]byte
		Content  uint32
		Children uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return rawChunk{}, fmt.Errorf("reading chunk header: %w", err)
	}
	if int64(hdr.Content)+int64(hdr.Children) > int64(r.Len()) {
		return rawChunk{}, fmt.Errorf("chunk %q overruns input: %d+%d bytes, %d left",
			hdr.ID[:], hdr.Content, hdr.Children, r.Len())
	}
	c := rawChunk{
		id:       string(hdr.ID[:]),
		content:  make([]byte, hdr.Content),
		children: make([]byte, hdr.Children),
	}
	io.ReadFull(r, c.content)
	io.ReadFull(r, c.children)
	return c, nil
}

// fieldReader decodes the little endian fields of a chunk's content.
type fieldReader struct {
	r   *bytes.Reader
	err error
}

func newFieldReader(b []byte) *fieldReader {
	return &fieldReader{r: bytes.NewReader(b)}
}

func (f *fieldReader) int32() int32 {
	var v int32
	if f.err == nil {
		f.err = binary.Read(f.r, binary.LittleEndian, &v)
	}
	return v
}

func (f *fieldReader) string() string {
	n := f.int32()
	if f.err != nil {
		return ""
	}
	if n < 0 || int(n) > f.r.Len() {
		f.err = fmt.Errorf("string length %d out of range", n)
		return ""
	}
	b := make([]byte, n)
	io.ReadFull(f.r, b)
	return string(b)
}

func (f *fieldReader) dict() map[string]string {
	n := f.int32()
	if f.err != nil {
		return nil
	}
	if n < 0 || int(n) > f.r.Len() {
		f.err = fmt.Errorf("dict size %d out of range", n)
		return nil
	}
	d := make(map[string]string, n)
	for range n {
		k := f.string()
		v := f.string()
		if f.err != nil {
			return nil
		}
		d[k] = v
	}
	return d
}

// parseVec3 parses a "_t" style "x y z" translation.
func parseVec3(s string) ([3]int, error) {
	var v [3]int
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return v, fmt.Errorf("translation %q does not have 3 fields", s)
	}
	for i, f := range fields {
		if _, err := fmt.Sscan(f, &v[i]); err != nil {
			return v, fmt.Errorf("translation %q: %w", s, err)
		}
	}
	return v, nil
}
