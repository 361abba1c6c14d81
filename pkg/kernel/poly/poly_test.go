package poly

import (
	"math"
	"testing"

	"github.com/chazu/caliper/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBoxIsCentered(t *testing.T) {
	k := New()
	b := k.Box(10, 20, 30)

	bb, err := b.BoundingBox()
	require.NoError(t, err)
	assert.InDelta(t, -5, bb.Min.X, 1e-12)
	assert.InDelta(t, 15, bb.Max.Z, 1e-12)

	mp, err := b.MassProperties()
	require.NoError(t, err)
	assert.InDelta(t, 6000, mp.Volume, 1e-9)
	assert.InDelta(t, 2*(200+300+600.0), mp.SurfaceArea, 1e-9)

	faces, err := b.PlanarFaces()
	require.NoError(t, err)
	assert.Len(t, faces, 6)
}

func TestTranslateMovesCentroid(t *testing.T) {
	k := New()
	b := k.Translate(k.Box(2, 2, 2), 100, -50, 7)

	c, err := b.Centroid()
	require.NoError(t, err)
	assert.InDelta(t, 100, c.X, 1e-9)
	assert.InDelta(t, -50, c.Y, 1e-9)
	assert.InDelta(t, 7, c.Z, 1e-9)

	// Translation leaves the frame unrotated.
	r := b.Rotation()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, r[i][j], 1e-12)
		}
	}
}

func TestRotate45WidensBoundingBox(t *testing.T) {
	k := New()
	b := k.Rotate(k.Box(10, 10, 10), 0, 0, 45)

	bb, err := b.BoundingBox()
	require.NoError(t, err)
	assert.InDelta(t, 10*math.Sqrt2, bb.Size().X, 1e-9)
	assert.InDelta(t, 10*math.Sqrt2, bb.Size().Y, 1e-9)
	assert.InDelta(t, 10, bb.Size().Z, 1e-9)
}

func TestRotationsCompose(t *testing.T) {
	k := New()
	base := k.Box(4, 6, 8)
	twice := k.Rotate(k.Rotate(base, 0, 0, 90), 0, 0, 90)
	once := k.Rotate(base, 0, 0, 180)

	a, b := twice.Rotation(), once.Rotation()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, b[i][j], a[i][j], 1e-12)
		}
	}

	full := k.Rotate(base, 0, 0, 360)
	bb, err := full.BoundingBox()
	require.NoError(t, err)
	assert.InDelta(t, 4, bb.Size().X, 1e-9)
	assert.InDelta(t, 6, bb.Size().Y, 1e-9)
}

func TestRotationMatchesEulerOrder(t *testing.T) {
	k := New()
	s := k.Rotate(k.Box(1, 1, 1), 90, 0, 90)
	r := s.Rotation()

	// Rx(90) sends Y to Z; Rz(90) then leaves Z alone.
	y := r3.Vec{X: r[0][1], Y: r[1][1], Z: r[2][1]}
	assert.InDelta(t, 1, y.Z, 1e-12)
	// X is untouched by Rx and sent to Y by Rz.
	x := r3.Vec{X: r[0][0], Y: r[1][0], Z: r[2][0]}
	assert.InDelta(t, 1, x.Y, 1e-12)
}

func TestCylinderVolumeMatchesPolygon(t *testing.T) {
	k := New()
	const n, r, h = 32, 5.0, 10.0
	c := k.Cylinder(h, r, n)

	mp, err := c.MassProperties()
	require.NoError(t, err)
	want := float64(n) / 2 * r * r * math.Sin(2*math.Pi/n) * h
	assert.InDelta(t, want, mp.Volume, 1e-9)

	faces, err := c.PlanarFaces()
	require.NoError(t, err)
	assert.Len(t, faces, n+2)
}

func TestCylinderHasAxisFacingSides(t *testing.T) {
	k := New()
	c := k.Cylinder(10, 5, 8)
	faces, err := c.PlanarFaces()
	require.NoError(t, err)

	for _, dir := range []r3.Vec{{X: 1}, {Y: 1}, {X: -1}, {Y: -1}} {
		var found bool
		for _, f := range faces {
			if r3.Dot(f.Normal, dir) > 1-1e-12 {
				found = true
			}
		}
		assert.True(t, found, "no side facet facing %v", dir)
	}
}

func TestSphereApproachesAnalyticVolume(t *testing.T) {
	k := New()
	s := k.Sphere(10, 64)

	mp, err := s.MassProperties()
	require.NoError(t, err)
	want := 4.0 / 3 * math.Pi * 1000
	assert.InEpsilon(t, want, mp.Volume, 0.01)

	c, err := s.Centroid()
	require.NoError(t, err)
	assert.InDelta(t, 0, r3.Norm(c), 1e-9)
}

func TestSegmentsAreClamped(t *testing.T) {
	k := New()
	c := k.Cylinder(1, 1, 1)
	faces, err := c.PlanarFaces()
	require.NoError(t, err)
	assert.Len(t, faces, minCylinderSegments+2)
}

func TestInvalidDimensionsPanic(t *testing.T) {
	k := New()
	assert.Panics(t, func() { k.Box(0, 1, 1) })
	assert.Panics(t, func() { k.Cylinder(1, -1, 8) })
	assert.Panics(t, func() { k.Sphere(0, 8) })
}

func TestCompoundAddsVolumes(t *testing.T) {
	k := New()
	a := k.Box(1, 1, 1)
	b := k.Translate(k.Box(2, 2, 2), 10, 0, 0)
	c := k.Compound(a, b)

	mp, err := c.MassProperties()
	require.NoError(t, err)
	assert.InDelta(t, 9, mp.Volume, 1e-9)

	faces, err := c.PlanarFaces()
	require.NoError(t, err)
	assert.Len(t, faces, 12)
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestForeignSolidPanics(t *testing.T) {
	k := New()
	assert.Panics(t, func() { k.Translate(foreign{}, 1, 0, 0) })
}

func TestToMesh(t *testing.T) {
	k := New()
	b := k.Box(1, 2, 3)

	m, err := k.ToMesh(b)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), m.SolidID)
	assert.Equal(t, 12, m.TriangleCount())
	assert.False(t, m.IsEmpty())
}

type foreign struct{}

func (foreign) ID() string                                   { return "foreign" }
func (foreign) PlanarFaces() ([]kernel.Face, error)          { return nil, nil }
func (foreign) Centroid() (r3.Vec, error)                    { return r3.Vec{}, nil }
func (foreign) BoundingBox() (kernel.Box, error)             { return kernel.Box{}, nil }
func (foreign) MassProperties() (kernel.MassProperties, error) { return kernel.MassProperties{}, nil }
func (foreign) Rotation() [3][3]float64                      { return [3][3]float64{} }
