package kernel

import "gonum.org/v1/gonum/spatial/r3"

// Mesh is a flat triangle mesh, the export format of a solid.
// Vertices has 3 floats per vertex (x,y,z), Normals has 3 floats per
// vertex, Indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	SolidID  string    `json:"solidId,omitempty"`
	PartName string    `json:"partName,omitempty"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Bounds returns the axis-aligned bounds of the vertices. The second
// result is false for an empty mesh.
func (m *Mesh) Bounds() (Box, bool) {
	if m.IsEmpty() {
		return Box{}, false
	}
	b := EmptyBox()
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		b = b.Include(r3.Vec{
			X: float64(m.Vertices[i]),
			Y: float64(m.Vertices[i+1]),
			Z: float64(m.Vertices[i+2]),
		})
	}
	return b, true
}
