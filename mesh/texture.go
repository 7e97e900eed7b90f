package mesh

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/qmuntal/gltf"
	"github.com/voxelsplace/voxelize/voxel"
)

// decodeImages decodes every image of doc concurrently. Images that cannot
// be read or decoded are logged and left nil; triangles using them fall back
// to the material's base color.
func decodeImages(doc *gltf.Document, dir string) []image.Image {
	images := make([]image.Image, len(doc.Images))

	var wg sync.WaitGroup
	for i, img := range doc.Images {
		wg.Add(1)
		go func(i int, img *gltf.Image) {
			defer wg.Done()

			data, err := imageData(doc, img, dir)
			if err == nil {
				images[i], _, err = image.Decode(bytes.NewReader(data))
			}
			if err != nil {
				logs.WithTag("image", i).
					WithTag("name", img.Name).
					Warn(errors.New("decoding texture failed").Wrap(err))
				images[i] = nil
			}
		}(i, img)
	}
	wg.Wait()
	return images
}

func imageData(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		if *img.BufferView >= len(doc.BufferViews) {
			return nil, errors.New("image buffer view out of range").WithTag("buffer_view", *img.BufferView)
		}
		bv := doc.BufferViews[*img.BufferView]
		if bv.Buffer >= len(doc.Buffers) {
			return nil, errors.New("buffer view references a missing buffer").WithTag("buffer", bv.Buffer)
		}
		data := doc.Buffers[bv.Buffer].Data
		if bv.ByteOffset+bv.ByteLength > len(data) {
			return nil, errors.New("image buffer view overruns its buffer").WithTag("buffer_view", *img.BufferView)
		}
		return data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], nil

	case img.IsEmbeddedResource():
		return img.MarshalData()

	case img.URI != "" && dir != "":
		name, err := url.PathUnescape(img.URI)
		if err != nil {
			name = img.URI
		}
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	}
	return nil, errors.New("image has no data source")
}

// textureShader samples a base color texture at the interpolated UV.
type textureShader struct {
	img    image.Image
	uv     [3][2]float32
	factor voxel.Color
}

// Shade wraps UVs into [0, 1) and returns the nearest texel times the
// material factor.
func (s textureShader) Shade(b voxel.Vec3) voxel.Color {
	var uv [2]float64
	for i := range 3 {
		uv[0] += b[i] * float64(s.uv[i][0])
		uv[1] += b[i] * float64(s.uv[i][1])
	}
	uv[0] -= math.Floor(uv[0])
	uv[1] -= math.Floor(uv[1])

	r := s.img.Bounds()
	x := r.Min.X + int(float64(r.Dx()-1)*uv[0])
	y := r.Min.Y + int(float64(r.Dy()-1)*uv[1])
	c := color.NRGBAModel.Convert(s.img.At(x, y)).(color.NRGBA)
	return voxel.Color{R: c.R, G: c.G, B: c.B, A: c.A}.Mul(s.factor)
}

// vertexShader interpolates per-vertex colors.
type vertexShader struct {
	colors [3]voxel.Color
	factor voxel.Color
}

func (s vertexShader) Shade(b voxel.Vec3) voxel.Color {
	var acc [4]float64
	for i, c := range s.colors {
		acc[0] += b[i] * float64(c.R)
		acc[1] += b[i] * float64(c.G)
		acc[2] += b[i] * float64(c.B)
		acc[3] += b[i] * float64(c.A)
	}
	return voxel.Color{R: channel(acc[0]), G: channel(acc[1]), B: channel(acc[2]), A: channel(acc[3])}.Mul(s.factor)
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Min(255, math.Max(0, v))))
}
