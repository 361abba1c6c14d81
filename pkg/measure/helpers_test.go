package measure

import (
	"testing"

	"github.com/chazu/caliper/pkg/kernel"
	"github.com/chazu/caliper/pkg/kernel/poly"
	"gonum.org/v1/gonum/spatial/r3"
)

var k = poly.New()

// box returns a part for a centered box moved to (x, y, z).
func box(t *testing.T, name string, size, at r3.Vec) Part {
	t.Helper()
	return MustPart(name, k.Translate(k.Box(size.X, size.Y, size.Z), at.X, at.Y, at.Z))
}

func cube(t *testing.T, name string, side float64) Part {
	t.Helper()
	return MustPart(name, k.Box(side, side, side))
}

func rotated(t *testing.T, name string, s kernel.Solid, x, y, z float64) Part {
	t.Helper()
	return MustPart(name, k.Rotate(s, x, y, z))
}

// fakeSolid answers queries from canned values.
type fakeSolid struct {
	faces       []kernel.Face
	facesErr    error
	centroid    r3.Vec
	centroidErr error
	box         kernel.Box
	boxErr      error
	mp          kernel.MassProperties
	mpErr       error
	rot         [3][3]float64
}

func (f *fakeSolid) ID() string                          { return "fake" }
func (f *fakeSolid) PlanarFaces() ([]kernel.Face, error) { return f.faces, f.facesErr }
func (f *fakeSolid) Centroid() (r3.Vec, error)           { return f.centroid, f.centroidErr }
func (f *fakeSolid) BoundingBox() (kernel.Box, error)    { return f.box, f.boxErr }
func (f *fakeSolid) Rotation() [3][3]float64             { return f.rot }
func (f *fakeSolid) MassProperties() (kernel.MassProperties, error) {
	return f.mp, f.mpErr
}

var identityRot = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
