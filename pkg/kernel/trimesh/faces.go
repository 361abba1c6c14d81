package trimesh

import (
	"fmt"
	"math"

	"github.com/chazu/caliper/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// coplanarDot is the minimum dot product between two triangle normals
// for them to belong to the same planar face.
const coplanarDot = 1 - 1e-9

// coplanarDist is the plane offset tolerance relative to the mesh extent.
const coplanarDist = 1e-9

// FaceOptions controls how triangles are grouped into planar faces.
type FaceOptions struct {
	// MinDot is the smallest dot product between the normals of two
	// neighbouring triangles in one face.
	MinDot float64

	// PlaneDist is how far, relative to the mesh extent, the corners of
	// the smaller of two neighbouring triangles may lie from the plane of
	// the larger.
	PlaneDist float64

	// MinWidth drops faces narrower than this. Width is the face area
	// divided by the diagonal of the face's bounds, so a strip of any
	// length one cell wide stays narrow.
	MinWidth float64
}

// DefaultFaceOptions groups exactly coplanar triangles and keeps every face.
func DefaultFaceOptions() FaceOptions {
	return FaceOptions{MinDot: coplanarDot, PlaneDist: coplanarDist}
}

type facet struct {
	normal  r3.Vec // unit
	cross   r3.Vec // unnormalized, |cross| = 2*area
	offset  float64
	area    float64
	center  r3.Vec
	corners [3]r3.Vec
}

// coplanar reports whether the smaller facet lies in the plane of the larger.
func coplanar(fi, fj facet, minDot, distTol float64) bool {
	if r3.Dot(fi.normal, fj.normal) < minDot {
		return false
	}
	if fj.area > fi.area {
		fi, fj = fj, fi
	}
	for _, c := range fj.corners {
		if math.Abs(r3.Dot(fi.normal, c)-fi.offset) > distTol {
			return false
		}
	}
	return true
}

// PlanarFaces groups triangles into planar faces with DefaultFaceOptions.
func (m *Mesh) PlanarFaces() ([]kernel.Face, error) {
	return m.PlanarFacesWith(DefaultFaceOptions())
}

// PlanarFacesWith groups triangles into planar faces. Two triangles belong
// to the same face when they share a vertex and lie in the same plane, so
// coplanar but disconnected regions are reported as separate faces.
// Normals point outward even if the whole mesh is wound inside out.
func (m *Mesh) PlanarFacesWith(opt FaceOptions) ([]kernel.Face, error) {
	bounds, err := m.Bounds()
	if err != nil {
		return nil, err
	}
	distTol := opt.PlaneDist * math.Max(1, r3.Norm(bounds.Size()))

	sign := 1.0
	if m.signedVolume() < 0 {
		sign = -1
	}

	facets := make([]facet, len(m.Triangles))
	valid := make([]bool, len(m.Triangles))
	incident := make(map[int][]int, len(m.Vertices))
	for i, t := range m.Triangles {
		a, b, c := m.corners(t)
		cross := r3.Scale(sign, r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
		n := r3.Norm(cross)
		if n < 1e-15 {
			continue
		}
		unit := r3.Scale(1/n, cross)
		facets[i] = facet{
			normal:  unit,
			cross:   cross,
			offset:  r3.Dot(unit, a),
			area:    n / 2,
			center:  r3.Scale(1.0/3, r3.Add(a, r3.Add(b, c))),
			corners: [3]r3.Vec{a, b, c},
		}
		valid[i] = true
		for _, v := range t {
			incident[v] = append(incident[v], i)
		}
	}

	uf := newUnionFind(len(m.Triangles))
	for _, tris := range incident {
		for x := 0; x < len(tris); x++ {
			for y := x + 1; y < len(tris); y++ {
				if coplanar(facets[tris[x]], facets[tris[y]], opt.MinDot, distTol) {
					uf.union(tris[x], tris[y])
				}
			}
		}
	}

	// Faces are emitted in order of their first triangle.
	index := make(map[int]int)
	var groups [][]int
	for i := range m.Triangles {
		if !valid[i] {
			continue
		}
		root := uf.find(i)
		g, ok := index[root]
		if !ok {
			g = len(groups)
			index[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}

	faces := make([]kernel.Face, 0, len(groups))
	for _, g := range groups {
		var area float64
		var cross, moment r3.Vec
		extent := kernel.EmptyBox()
		for _, i := range g {
			f := facets[i]
			area += f.area
			cross = r3.Add(cross, f.cross)
			moment = r3.Add(moment, r3.Scale(f.area, f.center))
			for _, c := range f.corners {
				extent = extent.Include(c)
			}
		}
		norm := r3.Norm(cross)
		if norm == 0 || area == 0 {
			return nil, fmt.Errorf("trimesh: face with zero area: %w", kernel.ErrDegenerate)
		}
		if opt.MinWidth > 0 && area < opt.MinWidth*r3.Norm(extent.Size()) {
			continue
		}
		faces = append(faces, kernel.Face{
			Centroid: r3.Scale(1/area, moment),
			Normal:   r3.Scale(1/norm, cross),
			Area:     area,
		})
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("trimesh: no planar faces: %w", kernel.ErrDegenerate)
	}
	return faces, nil
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
