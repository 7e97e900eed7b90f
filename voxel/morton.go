package voxel

// Morton (Z-order) keys interleave the bits of x, y and z: bit 3i holds bit i
// of x, bit 3i+1 of y, bit 3i+2 of z. Up to 21 bits per axis.

// chunkShift drops the low log2(ChunkSize) bits of every axis from a key,
// leaving the Morton key of the enclosing 256³ sub-volume.
const chunkShift = 3 * 8

// Key returns the Morton key of c.
func Key(c Coord) uint64 {
	return spread(uint32(c[0])) | spread(uint32(c[1]))<<1 | spread(uint32(c[2]))<<2
}

// KeyCoord decodes a Morton key.
func KeyCoord(k uint64) Coord {
	return Coord{int(gather(k)), int(gather(k >> 1)), int(gather(k >> 2))}
}

// localRank orders voxels inside one chunk.
func localRank(x, y, z uint8) uint32 {
	return uint32(Key(Coord{int(x), int(y), int(z)}))
}

// spread moves bit i of the low 21 bits of v to bit 3i.
func spread(v uint32) uint64 {
	x := uint64(v) & 0x1fffff
	for _, s := range spreadSteps {
		x = (x | x<<s.shift) & s.mask
	}
	return x
}

// gather is the inverse of spread: it collects every third bit of k,
// starting at bit 0.
func gather(k uint64) uint32 {
	x := k & spreadSteps[len(spreadSteps)-1].mask
	for i := len(spreadSteps) - 1; i >= 0; i-- {
		mask := uint64(0x1fffff)
		if i > 0 {
			mask = spreadSteps[i-1].mask
		}
		x = (x ^ x>>spreadSteps[i].shift) & mask
	}
	return uint32(x)
}

var spreadSteps = [...]struct {
	shift uint
	mask  uint64
}{
	{32, 0x001f00000000ffff},
	{16, 0x001f0000ff0000ff},
	{8, 0x100f00f00f00f00f},
	{4, 0x10c30c30c30c30c3},
	{2, 0x1249249249249249},
}
