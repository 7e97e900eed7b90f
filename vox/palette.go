package vox

import "github.com/voxelsplace/voxelize/voxel"

// defaultPalette is the palette MagicaVoxel uses for files without an RGBA
// chunk, indexed by color index (entry 0 unused): a 6×6×6 color cube without
// black, followed by red, green, blue and gray ramps.
var defaultPalette = func() [256]voxel.Color {
	var p [256]voxel.Color
	i := 1
	steps := []uint8{0xff, 0xcc, 0x99, 0x66, 0x33, 0x00}
	for _, r := range steps {
		for _, g := range steps {
			for _, b := range steps {
				if r == 0 && g == 0 && b == 0 {
					continue
				}
				p[i] = voxel.Color{R: r, G: g, B: b, A: 0xff}
				i++
			}
		}
	}
	ramp := []uint8{0xee, 0xdd, 0xbb, 0xaa, 0x88, 0x77, 0x55, 0x44, 0x22, 0x11}
	for ch := range 4 {
		for _, v := range ramp {
			c := voxel.Color{A: 0xff}
			switch ch {
			case 0:
				c.R = v
			case 1:
				c.G = v
			case 2:
				c.B = v
			default:
				c.R, c.G, c.B = v, v, v
			}
			p[i] = c
			i++
		}
	}
	return p
}()
