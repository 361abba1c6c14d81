package trimesh

import (
	"errors"
	"testing"

	"github.com/chazu/caliper/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// cuboid returns an outward-wound box spanning min..min+size.
func cuboid(min, size r3.Vec) *Mesh {
	m := &Mesh{}
	for i := 0; i < 8; i++ {
		v := min
		if i&1 != 0 {
			v.X += size.X
		}
		if i&2 != 0 {
			v.Y += size.Y
		}
		if i&4 != 0 {
			v.Z += size.Z
		}
		m.Vertices = append(m.Vertices, v)
	}
	m.Triangles = [][3]int{
		{0, 2, 1}, {1, 2, 3}, // -Z
		{4, 5, 6}, {5, 7, 6}, // +Z
		{0, 1, 5}, {0, 5, 4}, // -Y
		{2, 6, 7}, {2, 7, 3}, // +Y
		{0, 4, 6}, {0, 6, 2}, // -X
		{1, 3, 7}, {1, 7, 5}, // +X
	}
	return m
}

func inverted(m *Mesh) *Mesh {
	out := &Mesh{Vertices: m.Vertices}
	for _, t := range m.Triangles {
		out.Triangles = append(out.Triangles, [3]int{t[0], t[2], t[1]})
	}
	return out
}

func TestMassPropertiesOfCuboid(t *testing.T) {
	m := cuboid(r3.Vec{X: -1, Y: -2, Z: -3}, r3.Vec{X: 2, Y: 4, Z: 6})

	mp, err := m.MassProperties()
	require.NoError(t, err)
	assert.InDelta(t, 48.0, mp.Volume, 1e-9)
	assert.InDelta(t, 2*(8+12+24.0), mp.SurfaceArea, 1e-9)

	c, err := m.Centroid()
	require.NoError(t, err)
	assert.InDelta(t, 0, r3.Norm(c), 1e-9)
}

func TestCentroidFarFromOrigin(t *testing.T) {
	m := cuboid(r3.Vec{X: 1e6, Y: 1e6, Z: 1e6}, r3.Vec{X: 2, Y: 2, Z: 2})
	c, err := m.Centroid()
	require.NoError(t, err)
	assert.InDelta(t, 1e6+1, c.X, 1e-6)
	assert.InDelta(t, 1e6+1, c.Y, 1e-6)
	assert.InDelta(t, 1e6+1, c.Z, 1e-6)
}

func TestPlanarFacesOfCuboid(t *testing.T) {
	m := cuboid(r3.Vec{}, r3.Vec{X: 10, Y: 20, Z: 30})

	faces, err := m.PlanarFaces()
	require.NoError(t, err)
	require.Len(t, faces, 6)

	want := map[r3.Vec]r3.Vec{
		{Z: -1}: {X: 5, Y: 10, Z: 0},
		{Z: 1}:  {X: 5, Y: 10, Z: 30},
		{Y: -1}: {X: 5, Y: 0, Z: 15},
		{Y: 1}:  {X: 5, Y: 20, Z: 15},
		{X: -1}: {X: 0, Y: 10, Z: 15},
		{X: 1}:  {X: 10, Y: 10, Z: 15},
	}
	for _, f := range faces {
		var matched bool
		for n, c := range want {
			if r3.Dot(f.Normal, n) > 1-1e-12 {
				matched = true
				assert.InDelta(t, 0, r3.Norm(r3.Sub(f.Centroid, c)), 1e-9, "centroid of face %v", n)
			}
		}
		assert.True(t, matched, "unexpected face normal %v", f.Normal)
		assert.InDelta(t, 1, r3.Norm(f.Normal), 1e-12)
	}
}

func TestPlanarFacesInvertedWinding(t *testing.T) {
	m := inverted(cuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}))

	faces, err := m.PlanarFaces()
	require.NoError(t, err)
	for _, f := range faces {
		// Outward means pointing away from the cube center.
		away := r3.Sub(f.Centroid, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
		assert.Greater(t, r3.Dot(away, f.Normal), 0.0, "face at %v points inward", f.Centroid)
	}
	assert.InDelta(t, 1, m.Volume(), 1e-12)
}

func TestPlanarFacesKeepsDisconnectedCoplanarRegions(t *testing.T) {
	a := cuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	b := cuboid(r3.Vec{X: 3}, r3.Vec{X: 1, Y: 1, Z: 1})
	m := a.Append(b)

	faces, err := m.PlanarFaces()
	require.NoError(t, err)
	assert.Len(t, faces, 12)

	var tops int
	for _, f := range faces {
		if r3.Dot(f.Normal, r3.Vec{Z: 1}) > 1-1e-12 {
			tops++
		}
	}
	assert.Equal(t, 2, tops)
	assert.InDelta(t, 2, m.Volume(), 1e-12)
}

func TestPlanarFacesWithDropsNarrowFaces(t *testing.T) {
	// A 10 mm cube next to a 0.1 mm square rod, like the edge strips a
	// voxel tessellation leaves behind.
	block := cuboid(r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 10})
	rod := cuboid(r3.Vec{X: 20}, r3.Vec{X: 10, Y: 0.1, Z: 0.1})
	m := block.Append(rod)

	all, err := m.PlanarFaces()
	require.NoError(t, err)
	assert.Len(t, all, 12)

	opt := DefaultFaceOptions()
	opt.MinWidth = 0.5
	wide, err := m.PlanarFacesWith(opt)
	require.NoError(t, err)
	require.Len(t, wide, 6)
	for _, f := range wide {
		assert.InDelta(t, 100, f.Area, 1e-9)
		assert.Less(t, f.Centroid.X, 10+1e-9)
	}

	opt.MinWidth = 100
	_, err = m.PlanarFacesWith(opt)
	assert.True(t, errors.Is(err, kernel.ErrDegenerate))
}

func TestPlanarFacesWithChecksCornersAgainstPlane(t *testing.T) {
	// Two triangles sharing a diagonal, one corner lifted by 1e-4.
	m := &Mesh{
		Vertices: []r3.Vec{
			{}, {X: 1}, {X: 1, Y: 1}, {Y: 1, Z: 1e-4},
		},
		Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}

	opt := DefaultFaceOptions()
	opt.MinDot = 1 - 1e-3
	faces, err := m.PlanarFacesWith(opt)
	require.NoError(t, err)
	assert.Len(t, faces, 2)

	opt.PlaneDist = 1e-3
	faces, err = m.PlanarFacesWith(opt)
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.InDelta(t, 1, faces[0].Area, 1e-6)
}

func TestFromSoupWeldsSharedCorners(t *testing.T) {
	src := cuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	var soup [][3]r3.Vec
	for _, tri := range src.Triangles {
		soup = append(soup, [3]r3.Vec{src.Vertices[tri[0]], src.Vertices[tri[1]], src.Vertices[tri[2]]})
	}

	m := FromSoup(soup, 1e-9)
	assert.Len(t, m.Vertices, 8)
	assert.Len(t, m.Triangles, 12)

	faces, err := m.PlanarFaces()
	require.NoError(t, err)
	assert.Len(t, faces, 6)
}

func TestFromSoupDropsCollapsedTriangles(t *testing.T) {
	soup := [][3]r3.Vec{
		{{}, {X: 1e-12}, {Y: 1}},
	}
	m := FromSoup(soup, 1e-6)
	assert.Empty(t, m.Triangles)
}

func TestDegenerateQueries(t *testing.T) {
	empty := &Mesh{}

	_, err := empty.Bounds()
	assert.True(t, errors.Is(err, kernel.ErrDegenerate))

	_, err = empty.Centroid()
	assert.True(t, errors.Is(err, kernel.ErrDegenerate))

	flat := &Mesh{
		Vertices:  []r3.Vec{{}, {X: 1}, {Y: 1}},
		Triangles: [][3]int{{0, 1, 2}, {0, 2, 1}},
	}
	_, err = flat.MassProperties()
	assert.True(t, errors.Is(err, kernel.ErrDegenerate))
	_, err = flat.Centroid()
	assert.True(t, errors.Is(err, kernel.ErrDegenerate))
}

func TestFlatten(t *testing.T) {
	m := cuboid(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	flat := m.Flatten()
	assert.Equal(t, 12, flat.TriangleCount())
	assert.Equal(t, 36, flat.VertexCount())
	assert.Equal(t, len(flat.Vertices), len(flat.Normals))

	b, ok := flat.Bounds()
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, b.Max)
}
