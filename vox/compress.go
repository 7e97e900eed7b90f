package vox

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/voxelsplace/voxelize/voxel"
)

// Compression is the stream wrapping of a .vox file.
type Compression int

const (
	NoCompression Compression = iota
	Zstd
	Gzip
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// CompressionFor picks the compression matching a file name:
// ".vox.zst" and ".vox.gz" are compressed, anything else is not.
func CompressionFor(path string) Compression {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".zst"):
		return Zstd
	case strings.HasSuffix(p, ".gz"):
		return Gzip
	}
	return NoCompression
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w with c. Closing the returned writer flushes the
// compressor; it does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, errors.New("creating zstd writer failed").
				WithType(voxel.ErrTypeIO).
				Wrap(err)
		}
		return zw, nil
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return nil, errors.New("creating gzip writer failed").
				WithType(voxel.ErrTypeIO).
				Wrap(err)
		}
		return gw, nil
	}
	return nopWriteCloser{w}, nil
}

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// NewReader returns r decompressed according to its leading magic bytes.
// Plain input is returned as is.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.New("opening zstd stream failed").
				WithType(voxel.ErrTypeInvalidFormat).
				Wrap(err)
		}
		return zstdReadCloser{zr}, nil
	case bytes.HasPrefix(head, gzipMagic):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.New("opening gzip stream failed").
				WithType(voxel.ErrTypeInvalidFormat).
				Wrap(err)
		}
		return gr, nil
	}
	return io.NopCloser(br), nil
}

// EncodeTo writes the scene to w with compression c.
func EncodeTo(w io.Writer, c Compression, pal *voxel.Palette, chunks []voxel.Chunk) error {
	cw, err := NewWriter(w, c)
	if err != nil {
		return err
	}
	if err := Encode(cw, pal, chunks); err != nil {
		cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return errors.New("flushing compressed vox scene failed").
			WithType(voxel.ErrTypeIO).
			Wrap(err)
	}
	return nil
}
