// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Queries run against a marching cubes tessellation of the signed distance
// field, so results are accurate to roughly one cell. The tessellation is
// built once per solid, on first query.
package sdfx

import (
	"fmt"
	"math"
	"sync"

	"github.com/chazu/caliper/pkg/kernel"
	"github.com/chazu/caliper/pkg/kernel/trimesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel   = (*SdfxKernel)(nil)
	_ kernel.Booleans = (*SdfxKernel)(nil)
	_ kernel.Solid    = (*sdfxSolid)(nil)
)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 200

// weldFraction scales the welding quantum to the size of the solid.
const weldFraction = 1e-9

// minFaceCells is the narrowest face reported, in marching cubes cells.
// Edges and corners tessellate into strips and patches about one cell wide.
const minFaceCells = 2

// faceMinDot tolerates normal noise on small marching cubes triangles.
// Grouping still requires every corner to lie on the neighbouring plane.
const faceMinDot = 1 - 1e-6

var identity = sdf.Translate3d(v3.Vec{})

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	id    string
	s     sdf.SDF3
	m     sdf.M44
	cells int

	once sync.Once
	mesh *trimesh.Mesh
}

func (s *sdfxSolid) tessellate() *trimesh.Mesh {
	s.once.Do(func() {
		var soup [][3]r3.Vec
		for _, tri := range render.ToTriangles(s.s, render.NewMarchingCubesUniform(s.cells)) {
			soup = append(soup, [3]r3.Vec{fromV3(tri[0]), fromV3(tri[1]), fromV3(tri[2])})
		}
		bb := s.s.BoundingBox()
		diag := math.Sqrt(bb.Size().Dot(bb.Size()))
		s.mesh = trimesh.FromSoup(soup, math.Max(diag, 1)*weldFraction)
	})
	return s.mesh
}

// ID returns the solid's handle.
func (s *sdfxSolid) ID() string { return s.id }

// cellSize returns the edge length of one marching cubes cell.
func (s *sdfxSolid) cellSize() float64 {
	return s.s.BoundingBox().Size().MaxComponent() / float64(s.cells)
}

// PlanarFaces enumerates the planar regions of the tessellation that are
// at least minFaceCells wide.
func (s *sdfxSolid) PlanarFaces() ([]kernel.Face, error) {
	opt := trimesh.DefaultFaceOptions()
	opt.MinDot = faceMinDot
	opt.MinWidth = minFaceCells * s.cellSize()
	return s.tessellate().PlanarFacesWith(opt)
}

// Centroid returns the volumetric center of the tessellation.
func (s *sdfxSolid) Centroid() (r3.Vec, error) { return s.tessellate().Centroid() }

// BoundingBox returns the bounds of the tessellation. The field's own
// bounding box is conservative for rotated solids, so it is not used here.
func (s *sdfxSolid) BoundingBox() (kernel.Box, error) { return s.tessellate().Bounds() }

// MassProperties returns volume and surface area of the tessellation.
func (s *sdfxSolid) MassProperties() (kernel.MassProperties, error) {
	return s.tessellate().MassProperties()
}

// Rotation returns the linear part of the accumulated transform.
func (s *sdfxSolid) Rotation() [3][3]float64 {
	o := fromV3(s.m.MulPosition(v3.Vec{}))
	var r [3][3]float64
	for j, e := range [3]v3.Vec{{X: 1}, {Y: 1}, {Z: 1}} {
		c := r3.Sub(fromV3(s.m.MulPosition(e)), o)
		r[0][j], r[1][j], r[2][j] = c.X, c.Y, c.Z
	}
	return r
}

// Option configures an SdfxKernel.
type Option func(*SdfxKernel)

// WithMeshCells sets the number of marching cubes cells along the longest
// axis of a solid. Values below 8 are ignored.
func WithMeshCells(n int) Option {
	return func(k *SdfxKernel) {
		if n >= 8 {
			k.cells = n
		}
	}
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel.
func New(opts ...Option) *SdfxKernel {
	k := &SdfxKernel{cells: DefaultMeshCells}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// unwrap extracts the concrete solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	ss, ok := s.(*sdfxSolid)
	if !ok {
		panic(fmt.Sprintf("sdfx: solid %T was not created by this kernel", s))
	}
	return ss
}

func (k *SdfxKernel) wrap(s sdf.SDF3, m sdf.M44) kernel.Solid {
	return &sdfxSolid{id: uuid.NewString(), s: s, m: m, cells: k.cells}
}

// Box creates a box with the given dimensions centered on the origin.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Box3D: %v", err))
	}
	return k.wrap(s, identity)
}

// Cylinder creates a cylinder with the given height and radius along Z.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Cylinder3D: %v", err))
	}
	return k.wrap(s, identity)
}

// Sphere creates a sphere centered on the origin. Segments is ignored.
func (k *SdfxKernel) Sphere(radius float64, segments int) kernel.Solid {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		panic(fmt.Sprintf("sdfx.Sphere3D: %v", err))
	}
	return k.wrap(s, identity)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return k.wrap(sdf.Union3D(unwrap(a).s, unwrap(b).s), identity)
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return k.wrap(sdf.Difference3D(unwrap(a).s, unwrap(b).s), identity)
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return k.wrap(sdf.Intersect3D(unwrap(a).s, unwrap(b).s), identity)
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss := unwrap(s)
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return k.wrap(sdf.Transform3D(ss.s, m), m.Mul(ss.m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ss := unwrap(s)
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return k.wrap(sdf.Transform3D(ss.s, m), m.Mul(ss.m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ss := unwrap(s)
	mesh := ss.tessellate()
	if len(mesh.Triangles) == 0 {
		return nil, fmt.Errorf("sdfx: solid %s produced no triangles: %w", ss.id, kernel.ErrDegenerate)
	}
	out := mesh.Flatten()
	out.SolidID = ss.id
	return out, nil
}

func fromV3(p v3.Vec) r3.Vec { return r3.Vec{X: p.X, Y: p.Y, Z: p.Z} }
