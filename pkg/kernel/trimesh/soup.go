package trimesh

import (
	"math"

	"github.com/chazu/caliper/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

type weldKey struct {
	x, y, z int64
}

// FromSoup builds an indexed mesh from independent triangles, welding
// vertices that fall into the same cell of size quantum.
func FromSoup(tris [][3]r3.Vec, quantum float64) *Mesh {
	m := &Mesh{Triangles: make([][3]int, 0, len(tris))}
	seen := make(map[weldKey]int, len(tris))
	for _, tri := range tris {
		var t [3]int
		for j, v := range tri {
			k := weldKey{
				x: int64(math.Round(v.X / quantum)),
				y: int64(math.Round(v.Y / quantum)),
				z: int64(math.Round(v.Z / quantum)),
			}
			idx, ok := seen[k]
			if !ok {
				idx = len(m.Vertices)
				seen[k] = idx
				m.Vertices = append(m.Vertices, v)
			}
			t[j] = idx
		}
		// Triangles collapsed by welding carry no area.
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		m.Triangles = append(m.Triangles, t)
	}
	return m
}

// Flatten converts the mesh to the flat export layout with one flat
// normal per triangle corner.
func (m *Mesh) Flatten() *kernel.Mesh {
	out := &kernel.Mesh{
		Vertices: make([]float32, 0, len(m.Triangles)*9),
		Normals:  make([]float32, 0, len(m.Triangles)*9),
		Indices:  make([]uint32, 0, len(m.Triangles)*3),
	}
	for i, t := range m.Triangles {
		a, b, c := m.corners(t)
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if l := r3.Norm(n); l > 0 {
			n = r3.Scale(1/l, n)
		}
		for j, v := range [3]r3.Vec{a, b, c} {
			out.Vertices = append(out.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			out.Normals = append(out.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			out.Indices = append(out.Indices, uint32(i*3+j))
		}
	}
	return out
}
