package voxel

import (
	"iter"
	"math/bits"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// MaxDenseDim is the largest resolution a dense store accepts.
const MaxDenseDim = 512

// Store maps occupied voxel coordinates to colors. Both backings honour the
// same contract; iteration order is unspecified.
type Store interface {
	// Set marks c occupied with col. Coordinates outside the grid are ignored.
	Set(c Coord, col Color)
	// Get returns the color at c and whether c is occupied.
	Get(c Coord) (Color, bool)
	// Len returns the number of occupied voxels.
	Len() int
	// Dim returns the grid resolution.
	Dim() int
	// All yields every occupied voxel once.
	All() iter.Seq2[Coord, Color]
}

// NewStore returns a sparse or dense store for a dim³ grid.
func NewStore(dim int, sparse bool) (Store, error) {
	if dim <= 0 {
		return nil, errors.New("resolution must be positive").
			WithType(ErrTypeInvalidConfig).
			WithTag("resolution", dim)
	}
	if sparse {
		return NewSparseStore(dim), nil
	}
	return NewDenseStore(dim)
}

// SparseStore keeps only occupied voxels, keyed by Morton key.
type SparseStore struct {
	dim    int
	voxels map[uint64]Color
}

func NewSparseStore(dim int) *SparseStore {
	return &SparseStore{dim: dim, voxels: make(map[uint64]Color)}
}

func (s *SparseStore) Set(c Coord, col Color) {
	if !inGrid(c, s.dim) {
		return
	}
	s.voxels[Key(c)] = col
}

func (s *SparseStore) Get(c Coord) (Color, bool) {
	if !inGrid(c, s.dim) {
		return Color{}, false
	}
	col, ok := s.voxels[Key(c)]
	return col, ok
}

func (s *SparseStore) Len() int { return len(s.voxels) }
func (s *SparseStore) Dim() int { return s.dim }

func (s *SparseStore) All() iter.Seq2[Coord, Color] {
	return func(yield func(Coord, Color) bool) {
		for k, col := range s.voxels {
			if !yield(KeyCoord(k), col) {
				return
			}
		}
	}
}

// DenseStore is a flat dim³ array with an occupancy bitmap, x fastest.
type DenseStore struct {
	dim      int
	colors   []Color
	occupied []uint64
	n        int
}

func NewDenseStore(dim int) (*DenseStore, error) {
	if dim <= 0 || dim > MaxDenseDim {
		return nil, errors.New("grid too large for a dense store, use the sparse store").
			WithType(ErrTypeInvalidConfig).
			WithTag("resolution", dim).
			WithTag("max", MaxDenseDim)
	}
	cells := dim * dim * dim
	return &DenseStore{
		dim:      dim,
		colors:   make([]Color, cells),
		occupied: make([]uint64, (cells+63)/64),
	}, nil
}

func (s *DenseStore) index(c Coord) int {
	return c[0] + c[1]*s.dim + c[2]*s.dim*s.dim
}

func (s *DenseStore) Set(c Coord, col Color) {
	if !inGrid(c, s.dim) {
		return
	}
	i := s.index(c)
	if s.occupied[i>>6]&(1<<(uint(i)&63)) == 0 {
		s.occupied[i>>6] |= 1 << (uint(i) & 63)
		s.n++
	}
	s.colors[i] = col
}

func (s *DenseStore) Get(c Coord) (Color, bool) {
	if !inGrid(c, s.dim) {
		return Color{}, false
	}
	i := s.index(c)
	if s.occupied[i>>6]&(1<<(uint(i)&63)) == 0 {
		return Color{}, false
	}
	return s.colors[i], true
}

func (s *DenseStore) Len() int { return s.n }
func (s *DenseStore) Dim() int { return s.dim }

func (s *DenseStore) All() iter.Seq2[Coord, Color] {
	return func(yield func(Coord, Color) bool) {
		for w, word := range s.occupied {
			for word != 0 {
				b := bits.TrailingZeros64(word)
				word &= word - 1
				i := w<<6 + b
				c := Coord{i % s.dim, (i / s.dim) % s.dim, i / (s.dim * s.dim)}
				if !yield(c, s.colors[i]) {
					return
				}
			}
		}
	}
}
