package voxel

import (
	"cmp"
	"slices"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	// MaxColors is the number of real colors a palette holds. Index 0 is
	// reserved for empty voxels.
	MaxColors = 255

	// quantizeLimit caps the number of colors fed to the merge step.
	quantizeLimit = 1024
)

// Palette is an indexed color table. Colors[0] is the empty slot.
type Palette struct {
	Colors []Color
	index  map[Color]uint8
}

// NewPalette returns a palette whose index i+1 holds colors[i].
func NewPalette(colors []Color) (*Palette, error) {
	if len(colors) > MaxColors {
		return nil, errors.New("too many palette colors").
			WithType(ErrTypePaletteOverflow).
			WithTag("colors", len(colors)).
			WithTag("max", MaxColors)
	}
	p := &Palette{
		Colors: make([]Color, 1, len(colors)+1),
		index:  make(map[Color]uint8, len(colors)),
	}
	for _, c := range colors {
		p.Colors = append(p.Colors, c)
		if _, ok := p.index[c]; !ok {
			p.index[c] = uint8(len(p.Colors) - 1)
		}
	}
	return p, nil
}

// Len returns the number of real colors.
func (p *Palette) Len() int { return len(p.Colors) - 1 }

// Index returns the palette index of c, 0 when c has no entry.
func (p *Palette) Index(c Color) uint8 { return p.index[c] }

// Color returns the color at index i.
func (p *Palette) Color(i uint8) Color {
	if int(i) >= len(p.Colors) {
		return Color{}
	}
	return p.Colors[i]
}

// PaletteStats describes a palette reduction.
type PaletteStats struct {
	Distinct  int
	Quantized int
	Colors    int
}

// BuildPalette collects every color of s into a palette of at most maxColors
// entries. Colors are considered in first-seen order, the order in which
// they first appear when voxels are visited by ascending Morton key, so the
// result is the same for any store backing.
//
// Above quantizeLimit distinct colors, low bits are dropped until the count
// fits. The remaining colors are merged closest pair first (RGB euclidean);
// ties go to the earliest colors and the earlier color of a pair survives.
func BuildPalette(s Store, maxColors int) (*Palette, PaletteStats, error) {
	if maxColors <= 0 || maxColors > MaxColors {
		maxColors = MaxColors
	}

	firstSeen := make(map[Color]uint64)
	for c, col := range s.All() {
		k := Key(c)
		if prev, ok := firstSeen[col]; !ok || k < prev {
			firstSeen[col] = k
		}
	}
	distinct := make([]Color, 0, len(firstSeen))
	for col := range firstSeen {
		distinct = append(distinct, col)
	}
	slices.SortFunc(distinct, func(a, b Color) int {
		return cmp.Compare(firstSeen[a], firstSeen[b])
	})

	stats := PaletteStats{Distinct: len(distinct)}
	reps, owner := quantize(distinct)
	stats.Quantized = len(reps)

	root := mergeClosest(reps, maxColors)

	kept := make(map[int]uint8)
	var colors []Color
	for i := range reps {
		if root[i] == i {
			colors = append(colors, reps[i])
			kept[i] = uint8(len(colors))
		}
	}
	if len(colors) > maxColors {
		return nil, stats, errors.New("palette reduction left too many colors").
			WithType(ErrTypePaletteOverflow).
			WithTag("colors", len(colors)).
			WithTag("max", maxColors)
	}

	p := &Palette{
		Colors: append([]Color{{}}, colors...),
		index:  make(map[Color]uint8, len(distinct)),
	}
	for i, col := range distinct {
		p.index[col] = kept[root[owner[i]]]
	}
	stats.Colors = p.Len()
	return p, stats, nil
}

// quantize buckets colors by dropping their low bits until at most
// quantizeLimit buckets remain. It returns the bucket representatives (the
// first-seen member of each bucket) and, for every input color, its bucket.
func quantize(colors []Color) ([]Color, []int) {
	owner := make([]int, len(colors))
	if len(colors) <= quantizeLimit {
		for i := range owner {
			owner[i] = i
		}
		return colors, owner
	}

	for drop := uint(1); drop <= 8; drop++ {
		mask := uint8(0xff << drop)
		buckets := make(map[Color]int)
		var reps []Color
		for i, c := range colors {
			b := Color{c.R & mask, c.G & mask, c.B & mask, c.A & mask}
			r, ok := buckets[b]
			if !ok {
				r = len(reps)
				buckets[b] = r
				reps = append(reps, c)
			}
			owner[i] = r
		}
		if len(reps) <= quantizeLimit {
			return reps, owner
		}
	}
	return colors[:1], make([]int, len(colors))
}

// mergeClosest merges colors until at most limit remain and returns, for
// each color, the index of the kept color it was merged into.
func mergeClosest(colors []Color, limit int) []int {
	n := len(colors)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	if n <= limit {
		return parent
	}

	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}
	nn := make([]int, n)
	nnDist := make([]int, n)
	nearest := func(i int) {
		nn[i], nnDist[i] = -1, 0
		for j := range n {
			if j == i || !alive[j] {
				continue
			}
			if d := distSq(colors[i], colors[j]); nn[i] < 0 || d < nnDist[i] {
				nn[i], nnDist[i] = j, d
			}
		}
	}
	for i := range n {
		nearest(i)
	}

	for remaining := n; remaining > limit; remaining-- {
		best := -1
		for i := range n {
			if alive[i] && nn[i] >= 0 && (best < 0 || nnDist[i] < nnDist[best]) {
				best = i
			}
		}
		a, b := best, nn[best]
		if b < a {
			a, b = b, a
		}
		alive[b] = false
		parent[b] = a
		for i := range n {
			if alive[i] && nn[i] == b {
				nearest(i)
			}
		}
	}

	for i := range parent {
		r := i
		for parent[r] != r {
			r = parent[r]
		}
		parent[i] = r
	}
	return parent
}
