package voxel

// Vertex is a mesh vertex in chunk-local voxel units.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    uint8
}

// Mesh is an indexed triangle list with palette-indexed vertex colors.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

type faceDir struct {
	normal [3]float32
	u, v   int
	du, dv [3]int
}

var faceDirs = []faceDir{
	{[3]float32{1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{-1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, -1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 0, 1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
	{[3]float32{0, 0, -1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
}

// localGrid is a dense copy of a chunk, x fastest.
type localGrid struct {
	size  [3]int
	cells []uint8
}

func newLocalGrid(c Chunk) *localGrid {
	g := &localGrid{size: c.Size, cells: make([]uint8, c.Size[0]*c.Size[1]*c.Size[2])}
	for _, v := range c.Voxels {
		g.cells[int(v.X)+int(v.Y)*g.size[0]+int(v.Z)*g.size[0]*g.size[1]] = v.Index
	}
	return g
}

func (g *localGrid) at(p [3]int) uint8 {
	for i := range 3 {
		if p[i] < 0 || p[i] >= g.size[i] {
			return 0
		}
	}
	return g.cells[p[0]+p[1]*g.size[0]+p[2]*g.size[0]*g.size[1]]
}

// GreedyMesh builds the exposed faces of a chunk, merging coplanar faces of
// the same color into rectangles. Positions are chunk-local.
func GreedyMesh(c Chunk) *Mesh {
	grid := newLocalGrid(c)
	mesh := &Mesh{}
	dims := c.Size

	for _, dir := range faceDirs {
		perp := 3 - dir.u - dir.v
		mask := make([]uint8, dims[dir.u]*dims[dir.v])
		visited := make([]bool, len(mask))
		at := func(u, v int) int { return u*dims[dir.v] + v }

		for p := range dims[perp] {
			clear(mask)
			clear(visited)

			for u := range dims[dir.u] {
				for v := range dims[dir.v] {
					var pos [3]int
					pos[dir.u], pos[dir.v], pos[perp] = u, v, p
					idx := grid.at(pos)
					if idx == 0 {
						continue
					}
					adj := pos
					if dir.normal[perp] < 0 {
						adj[perp]--
					} else {
						adj[perp]++
					}
					if grid.at(adj) == 0 {
						mask[at(u, v)] = idx
					}
				}
			}

			for u := range dims[dir.u] {
				for v := 0; v < dims[dir.v]; {
					idx := mask[at(u, v)]
					if idx == 0 || visited[at(u, v)] {
						v++
						continue
					}
					width := 1
					for w := v + 1; w < dims[dir.v] && mask[at(u, w)] == idx && !visited[at(u, w)]; w++ {
						width++
					}
					height := 1
				grow:
					for h := u + 1; h < dims[dir.u]; h++ {
						for w := v; w < v+width; w++ {
							if mask[at(h, w)] != idx || visited[at(h, w)] {
								break grow
							}
						}
						height++
					}
					for hu := u; hu < u+height; hu++ {
						for hv := v; hv < v+width; hv++ {
							visited[at(hu, hv)] = true
						}
					}
					addQuad(mesh, dir, [3]int{p, u, v}, width, height, idx, perp)
					v += width
				}
			}
		}
	}
	return mesh
}

func addQuad(mesh *Mesh, dir faceDir, start [3]int, w, h int, idx uint8, perp int) {
	var base [3]float32
	base[perp] = float32(start[0])
	if dir.normal[perp] > 0 {
		base[perp]++
	}
	base[dir.u] = float32(start[1])
	base[dir.v] = float32(start[2])

	corner := func(hu, wv int) Vertex {
		p := base
		for i := range 3 {
			p[i] += float32(dir.du[i]*hu + dir.dv[i]*wv)
		}
		return Vertex{Position: p, Normal: dir.normal, Color: idx}
	}
	verts := [4]Vertex{corner(0, 0), corner(h, 0), corner(h, w), corner(0, w)}

	// Counter-clockwise seen from the normal.
	if (dir.normal[perp] < 0) != (perp == 1) {
		verts[1], verts[3] = verts[3], verts[1]
	}

	first := uint32(len(mesh.Vertices))
	mesh.Vertices = append(mesh.Vertices, verts[:]...)
	mesh.Indices = append(mesh.Indices, first, first+1, first+2, first, first+2, first+3)
}
