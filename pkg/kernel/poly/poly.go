// Package poly implements the kernel.Kernel interface with exact
// polyhedra. Boxes are exact; cylinders and spheres are faceted with the
// requested segment count. Transforms are accumulated as sdfx matrices and
// applied to the vertices once, when a solid is first queried.
package poly

import (
	"fmt"
	"math"
	"sync"

	"github.com/chazu/caliper/pkg/kernel"
	"github.com/chazu/caliper/pkg/kernel/trimesh"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel     = (*Kernel)(nil)
	_ kernel.Compounder = (*Kernel)(nil)
	_ kernel.Solid      = (*polySolid)(nil)
)

// Minimum facet counts for curved primitives.
const (
	minCylinderSegments = 3
	minSphereSegments   = 8
)

// identity is the sdfx identity transform.
var identity = sdf.Translate3d(v3.Vec{})

// polySolid is a mesh in its local frame plus the accumulated transform
// that places it in the world.
type polySolid struct {
	id    string
	local *trimesh.Mesh
	m     sdf.M44

	once  sync.Once
	world *trimesh.Mesh
}

func newSolid(local *trimesh.Mesh, m sdf.M44) *polySolid {
	return &polySolid{id: uuid.NewString(), local: local, m: m}
}

func (s *polySolid) mesh() *trimesh.Mesh {
	s.once.Do(func() {
		s.world = s.local.Transform(func(p r3.Vec) r3.Vec {
			return fromV3(s.m.MulPosition(toV3(p)))
		})
	})
	return s.world
}

// ID returns the solid's handle.
func (s *polySolid) ID() string { return s.id }

// PlanarFaces enumerates the planar faces of the world-frame mesh.
func (s *polySolid) PlanarFaces() ([]kernel.Face, error) { return s.mesh().PlanarFaces() }

// Centroid returns the volumetric center.
func (s *polySolid) Centroid() (r3.Vec, error) { return s.mesh().Centroid() }

// BoundingBox returns the world-frame axis-aligned bounding box.
func (s *polySolid) BoundingBox() (kernel.Box, error) { return s.mesh().Bounds() }

// MassProperties returns volume and surface area.
func (s *polySolid) MassProperties() (kernel.MassProperties, error) {
	return s.mesh().MassProperties()
}

// Rotation returns the linear part of the accumulated transform.
func (s *polySolid) Rotation() [3][3]float64 { return linearPart(s.m) }

// Kernel implements kernel.Kernel with exact polyhedra.
type Kernel struct{}

// New returns a new polyhedral Kernel.
func New() *Kernel {
	return &Kernel{}
}

// unwrap extracts the concrete solid from a kernel.Solid.
func unwrap(s kernel.Solid) *polySolid {
	ps, ok := s.(*polySolid)
	if !ok {
		panic(fmt.Sprintf("poly: solid %T was not created by this kernel", s))
	}
	return ps
}

// Box creates a box with the given dimensions centered on the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	if x <= 0 || y <= 0 || z <= 0 {
		panic(fmt.Sprintf("poly.Box: dimensions must be positive, got %g x %g x %g", x, y, z))
	}
	return newSolid(boxMesh(x, y, z), identity)
}

// Cylinder creates a faceted cylinder along Z centered on the origin.
// When segments is a multiple of four, four side facets face exactly
// +X, +Y, -X and -Y.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	if height <= 0 || radius <= 0 {
		panic(fmt.Sprintf("poly.Cylinder: height and radius must be positive, got %g, %g", height, radius))
	}
	if segments < minCylinderSegments {
		segments = minCylinderSegments
	}
	return newSolid(cylinderMesh(height, radius, segments), identity)
}

// Sphere creates a UV sphere centered on the origin with segments facets
// around the equator and segments/2 bands from pole to pole.
func (k *Kernel) Sphere(radius float64, segments int) kernel.Solid {
	if radius <= 0 {
		panic(fmt.Sprintf("poly.Sphere: radius must be positive, got %g", radius))
	}
	if segments < minSphereSegments {
		segments = minSphereSegments
	}
	return newSolid(sphereMesh(radius, segments), identity)
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ps := unwrap(s)
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return newSolid(ps.local, m.Mul(ps.m))
}

// Rotate rotates a solid about the world origin by Euler angles in
// degrees: first about X, then Y, then Z.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ps := unwrap(s)
	m := eulerMatrix(x, y, z)
	return newSolid(ps.local, m.Mul(ps.m))
}

// Compound merges two solids that do not overlap. Overlapping inputs
// produce a solid whose volume counts the overlap twice.
func (k *Kernel) Compound(a, b kernel.Solid) kernel.Solid {
	return newSolid(unwrap(a).mesh().Append(unwrap(b).mesh()), identity)
}

// ToMesh converts a solid to a flat triangle mesh.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ps := unwrap(s)
	mesh := ps.mesh().Flatten()
	mesh.SolidID = ps.id
	return mesh, nil
}

// eulerMatrix composes Rz * Ry * Rx from angles in degrees.
func eulerMatrix(x, y, z float64) sdf.M44 {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0
	return sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
}

// linearPart reads the 3x3 linear block of m by transforming the basis.
func linearPart(m sdf.M44) [3][3]float64 {
	o := fromV3(m.MulPosition(v3.Vec{}))
	basis := [3]v3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	var r [3][3]float64
	for j, e := range basis {
		c := r3.Sub(fromV3(m.MulPosition(e)), o)
		r[0][j], r[1][j], r[2][j] = c.X, c.Y, c.Z
	}
	return r
}

func toV3(p r3.Vec) v3.Vec   { return v3.Vec{X: p.X, Y: p.Y, Z: p.Z} }
func fromV3(p v3.Vec) r3.Vec { return r3.Vec{X: p.X, Y: p.Y, Z: p.Z} }
