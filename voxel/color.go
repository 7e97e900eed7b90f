package voxel

import (
	"fmt"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// White is the color used for triangles without a material.
var White = Color{255, 255, 255, 255}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func ParseHexColor(hex string) (Color, error) {
	if len(hex) == 0 || hex[0] != '#' {
		return Color{}, errors.New("hex color must start with #").
			WithType(ErrTypeInvalidConfig).
			WithTag("color", hex)
	}
	h := hex[1:]
	if len(h) != 6 && len(h) != 8 {
		return Color{}, errors.New("hex color must have 6 or 8 digits").
			WithType(ErrTypeInvalidConfig).
			WithTag("color", hex)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, errors.New("invalid hex color").
			WithType(ErrTypeInvalidConfig).
			WithTag("color", hex).
			Wrap(err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Hex formats the color as "#RRGGBBAA".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Float4 returns the color normalized to [0,1].
func (c Color) Float4() [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// Mul multiplies two colors channel by channel.
func (c Color) Mul(o Color) Color {
	return Color{
		R: uint8(uint16(c.R) * uint16(o.R) / 255),
		G: uint8(uint16(c.G) * uint16(o.G) / 255),
		B: uint8(uint16(c.B) * uint16(o.B) / 255),
		A: uint8(uint16(c.A) * uint16(o.A) / 255),
	}
}

// distSq is the squared euclidean distance in RGB space. Alpha is ignored.
func distSq(a, b Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}
