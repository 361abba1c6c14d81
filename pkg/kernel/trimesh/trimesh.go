// Package trimesh answers the kernel query surface (planar faces,
// centroid, bounds, mass properties) for closed, outward-wound triangle
// meshes. Both kernel backends reduce their solids to a Mesh and delegate
// here.
package trimesh

import (
	"fmt"
	"math"

	"github.com/chazu/caliper/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh. Triangles reference Vertices by index
// and are wound counterclockwise when seen from outside.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles [][3]int
}

// Transform returns a copy of the mesh with f applied to every vertex.
// f must preserve orientation (a proper rigid motion).
func (m *Mesh) Transform(f func(r3.Vec) r3.Vec) *Mesh {
	out := &Mesh{
		Vertices:  make([]r3.Vec, len(m.Vertices)),
		Triangles: m.Triangles,
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = f(v)
	}
	return out
}

// Append returns a new mesh holding the triangles of m followed by those
// of o. Vertices are not shared between the two inputs.
func (m *Mesh) Append(o *Mesh) *Mesh {
	out := &Mesh{
		Vertices:  make([]r3.Vec, 0, len(m.Vertices)+len(o.Vertices)),
		Triangles: make([][3]int, 0, len(m.Triangles)+len(o.Triangles)),
	}
	out.Vertices = append(out.Vertices, m.Vertices...)
	out.Vertices = append(out.Vertices, o.Vertices...)
	out.Triangles = append(out.Triangles, m.Triangles...)
	base := len(m.Vertices)
	for _, t := range o.Triangles {
		out.Triangles = append(out.Triangles, [3]int{t[0] + base, t[1] + base, t[2] + base})
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (kernel.Box, error) {
	if len(m.Vertices) == 0 {
		return kernel.Box{}, fmt.Errorf("trimesh: empty mesh: %w", kernel.ErrDegenerate)
	}
	b := kernel.EmptyBox()
	for _, v := range m.Vertices {
		b = b.Include(v)
	}
	return b, nil
}

func (m *Mesh) corners(t [3]int) (a, b, c r3.Vec) {
	return m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
}

// signedVolume sums the signed tetrahedra spanned by the origin and
// each triangle. It is positive for an outward-wound closed mesh.
func (m *Mesh) signedVolume() float64 {
	var v float64
	for _, t := range m.Triangles {
		a, b, c := m.corners(t)
		v += r3.Dot(a, r3.Cross(b, c))
	}
	return v / 6
}

// Volume returns the enclosed volume.
func (m *Mesh) Volume() float64 {
	return math.Abs(m.signedVolume())
}

// Area returns the total surface area.
func (m *Mesh) Area() float64 {
	var area float64
	for _, t := range m.Triangles {
		a, b, c := m.corners(t)
		area += r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
	}
	return area / 2
}

// MassProperties returns volume and surface area.
func (m *Mesh) MassProperties() (kernel.MassProperties, error) {
	mp := kernel.MassProperties{Volume: m.Volume(), SurfaceArea: m.Area()}
	if mp.Volume <= 0 || mp.SurfaceArea <= 0 {
		return mp, fmt.Errorf("trimesh: volume %g, area %g: %w", mp.Volume, mp.SurfaceArea, kernel.ErrDegenerate)
	}
	return mp, nil
}

// Centroid returns the volumetric center of mass.
func (m *Mesh) Centroid() (r3.Vec, error) {
	// Tetrahedra are taken against a point inside the bounds rather than
	// the origin so that far-away solids keep their precision.
	bounds, err := m.Bounds()
	if err != nil {
		return r3.Vec{}, err
	}
	ref := bounds.Center()

	var total float64
	var acc r3.Vec
	for _, t := range m.Triangles {
		a, b, c := m.corners(t)
		a, b, c = r3.Sub(a, ref), r3.Sub(b, ref), r3.Sub(c, ref)
		v := r3.Dot(a, r3.Cross(b, c)) / 6
		total += v
		acc = r3.Add(acc, r3.Scale(v/4, r3.Add(a, r3.Add(b, c))))
	}
	if math.Abs(total) < 1e-12 {
		return r3.Vec{}, fmt.Errorf("trimesh: centroid of zero-volume mesh: %w", kernel.ErrDegenerate)
	}
	return r3.Add(ref, r3.Scale(1/total, acc)), nil
}
