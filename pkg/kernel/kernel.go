// Package kernel defines the abstract geometry kernel interface.
// Implementations (poly, sdfx) build solids behind this interface and
// answer read-only queries about them. Every Solid is an immutable value
// with all of its transforms already applied in world coordinates, so the
// rest of the system can measure it without knowing which backend made it.
package kernel

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerate is reported when a query has no defined answer for a
// solid, such as the centroid of a solid with zero volume.
var ErrDegenerate = errors.New("kernel: degenerate geometry")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations must be safe for concurrent queries.
type Solid interface {
	// ID is a backend-assigned handle used in diagnostics.
	ID() string

	// PlanarFaces enumerates the planar faces of the solid, each with its
	// area-weighted centroid and outward unit normal.
	PlanarFaces() ([]Face, error)

	// Centroid returns the volumetric center of mass.
	Centroid() (r3.Vec, error)

	// BoundingBox returns the world-frame axis-aligned bounding box.
	BoundingBox() (Box, error)

	// MassProperties returns volume and surface area.
	MassProperties() (MassProperties, error)

	// Rotation returns the linear part of the accumulated world
	// transform, row-major.
	Rotation() [3][3]float64
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centered on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid // axis along Z
	Sphere(radius float64, segments int) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees, applied X then Y then Z

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Booleans is implemented by kernels with full CSG support.
// The result of a boolean starts a fresh frame: its Rotation is the identity.
type Booleans interface {
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid
}

// Compounder is implemented by kernels that can merge solids which do not
// overlap into one solid without a general boolean.
type Compounder interface {
	Compound(a, b Solid) Solid
}
