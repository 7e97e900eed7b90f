package voxel

import (
	"cmp"
	"slices"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// ChunkVoxel is one voxel of a chunk in local coordinates.
type ChunkVoxel struct {
	X, Y, Z uint8
	Index   uint8
}

// Chunk is an axis-aligned sub-volume of at most ChunkSize voxels per axis.
// Offset places its local origin in the full grid.
type Chunk struct {
	Offset Coord
	Size   [3]int
	Voxels []ChunkVoxel
}

// Partition splits s into chunks. Grids up to ChunkSize yield exactly one
// chunk, even when empty. Larger grids are tiled on ChunkSize boundaries and
// only tiles holding at least one voxel are returned. Chunks are ordered by
// offset X, then Y, then Z; voxels inside a chunk by local Morton order.
func Partition(s Store, pal *Palette) ([]Chunk, error) {
	dim := s.Dim()
	tiles := make(map[Coord]*Chunk)

	for c, col := range s.All() {
		idx := pal.Index(col)
		if idx == 0 {
			return nil, errors.New("voxel color missing from palette").
				WithType(ErrTypePaletteOverflow).
				WithTag("coord", c).
				WithTag("color", col.Hex())
		}

		tile := Coord{c[0] / ChunkSize, c[1] / ChunkSize, c[2] / ChunkSize}
		ch, ok := tiles[tile]
		if !ok {
			ch = newChunk(tile, dim)
			tiles[tile] = ch
		}
		ch.Voxels = append(ch.Voxels, ChunkVoxel{
			X:     uint8(c[0] - ch.Offset[0]),
			Y:     uint8(c[1] - ch.Offset[1]),
			Z:     uint8(c[2] - ch.Offset[2]),
			Index: idx,
		})
	}

	if dim <= ChunkSize && len(tiles) == 0 {
		tiles[Coord{}] = newChunk(Coord{}, dim)
	}

	chunks := make([]Chunk, 0, len(tiles))
	for _, ch := range tiles {
		slices.SortFunc(ch.Voxels, func(a, b ChunkVoxel) int {
			return cmp.Compare(localRank(a.X, a.Y, a.Z), localRank(b.X, b.Y, b.Z))
		})
		chunks = append(chunks, *ch)
	}
	slices.SortFunc(chunks, func(a, b Chunk) int {
		for i := range 3 {
			if c := cmp.Compare(a.Offset[i], b.Offset[i]); c != 0 {
				return c
			}
		}
		return 0
	})
	return chunks, nil
}

func newChunk(tile Coord, dim int) *Chunk {
	ch := &Chunk{}
	for i := range 3 {
		ch.Offset[i] = tile[i] * ChunkSize
		ch.Size[i] = min(ChunkSize, dim-ch.Offset[i])
	}
	return ch
}
