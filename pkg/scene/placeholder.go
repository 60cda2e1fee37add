package scene

import (
	"github.com/kivell/bricklab/pkg/catalog"
	"github.com/kivell/bricklab/pkg/kernel"
)

// boxFaces describes a unit box as 6 quads with outward normals.
// Each face contributes 4 vertices so normals stay flat per face.
var boxFaces = [6]struct {
	n [3]float32    // face normal
	q [4][3]float32 // corners, counter-clockwise from outside
}{
	{n: [3]float32{0, 0, -1}, q: [4][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}},
	{n: [3]float32{0, 0, 1}, q: [4][3]float32{{0, 0, 1}, {0, 1, 1}, {1, 1, 1}, {1, 0, 1}}},
	{n: [3]float32{0, -1, 0}, q: [4][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 1}, {1, 0, 0}}},
	{n: [3]float32{0, 1, 0}, q: [4][3]float32{{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1}}},
	{n: [3]float32{-1, 0, 0}, q: [4][3]float32{{0, 0, 0}, {0, 1, 0}, {0, 1, 1}, {0, 0, 1}}},
	{n: [3]float32{1, 0, 0}, q: [4][3]float32{{1, 0, 0}, {1, 0, 1}, {1, 1, 1}, {1, 1, 0}}},
}

// placeholderMesh builds a plain box at a kind's footprint and height.
// It stands in for the compiled mesh so the scene is selectable and
// draggable the moment a part list arrives.
func placeholderMesh(kind catalog.Kind) *kernel.Mesh {
	w := float32(float64(kind.Width) * catalog.Pitch)
	d := float32(float64(kind.Depth) * catalog.Pitch)
	h := float32(kind.Height())

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, 6*4*3),
		Normals:  make([]float32, 0, 6*4*3),
		Indices:  make([]uint32, 0, 6*2*3),
		Kind:     kind.Name,
	}
	for _, face := range boxFaces {
		base := uint32(len(m.Vertices) / 3)
		for _, c := range face.q {
			m.Vertices = append(m.Vertices, c[0]*w, c[1]*d, c[2]*h)
			m.Normals = append(m.Normals, face.n[0], face.n[1], face.n[2])
		}
		m.Indices = append(m.Indices,
			base, base+1, base+2,
			base, base+2, base+3)
	}
	return m
}
