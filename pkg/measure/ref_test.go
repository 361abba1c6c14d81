package measure

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/caliper/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		expr  string
		kind  RefKind
		faces []string
	}{
		{"", RefCenter, nil},
		{"center", RefCenter, nil},
		{"face_top", RefFace, []string{"top"}},
		{"face_front.center", RefFace, []string{"front"}},
		{"vertex_top_left_front", RefVertex, []string{"top", "left", "front"}},
		{"vertex_back_right_bottom", RefVertex, []string{"back", "right", "bottom"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ref, err := ParseRef(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, ref.Kind)
			assert.Equal(t, tt.faces, ref.Faces)
		})
	}
}

func TestParseRefRejects(t *testing.T) {
	for _, expr := range []string{
		"centre",
		"center.center",
		"face_up",
		"face_top.edge",
		"face_",
		"vertex_top_left",
		"vertex_top_bottom_left",
		"vertex_top_left_front_back",
		"vertex_top_left_up",
		"vertex_top_left_front.center",
		"edge_1",
		".center",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseRef(expr)
			assert.ErrorIs(t, err, ErrUnknownSelector)
		})
	}
}

func TestFaceDirectionTable(t *testing.T) {
	want := map[string]r3.Vec{
		"top":    {Z: 1},
		"bottom": {Z: -1},
		"right":  {X: 1},
		"left":   {X: -1},
		"front":  {Y: -1},
		"back":   {Y: 1},
	}
	for name, dir := range want {
		got, ok := FaceDirection(name)
		require.True(t, ok, name)
		assert.Equal(t, dir, got, name)
	}
	_, ok := FaceDirection("up")
	assert.False(t, ok)
	assert.Equal(t, []string{"back", "bottom", "front", "left", "right", "top"}, FaceNames())
}

func TestResolveBoxFaces(t *testing.T) {
	p := box(t, "board", r3.Vec{X: 10, Y: 20, Z: 30}, r3.Vec{X: 1, Y: 2, Z: 3})

	tests := []struct {
		ref    string
		point  r3.Vec
		normal r3.Vec
	}{
		{"face_top", r3.Vec{X: 1, Y: 2, Z: 18}, r3.Vec{Z: 1}},
		{"face_bottom.center", r3.Vec{X: 1, Y: 2, Z: -12}, r3.Vec{Z: -1}},
		{"face_right", r3.Vec{X: 6, Y: 2, Z: 3}, r3.Vec{X: 1}},
		{"face_left", r3.Vec{X: -4, Y: 2, Z: 3}, r3.Vec{X: -1}},
		{"face_front", r3.Vec{X: 1, Y: -8, Z: 3}, r3.Vec{Y: -1}},
		{"face_back", r3.Vec{X: 1, Y: 12, Z: 3}, r3.Vec{Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			r, err := Resolve(p, tt.ref)
			require.NoError(t, err)
			require.True(t, r.HasNormal())
			assert.InDelta(t, 0, r3.Norm(r3.Sub(r.Point, tt.point)), 1e-9)
			assert.InDelta(t, 0, r3.Norm(r3.Sub(*r.Normal, tt.normal)), 1e-9)
		})
	}
}

func TestResolveCenter(t *testing.T) {
	p := box(t, "board", r3.Vec{X: 2, Y: 2, Z: 2}, r3.Vec{X: 7, Y: -3, Z: 1})
	for _, ref := range []string{"", "center"} {
		r, err := Resolve(p, ref)
		require.NoError(t, err)
		assert.False(t, r.HasNormal())
		assert.InDelta(t, 0, r3.Norm(r3.Sub(r.Point, r3.Vec{X: 7, Y: -3, Z: 1})), 1e-9)
	}
}

func TestResolveVertex(t *testing.T) {
	p := box(t, "board", r3.Vec{X: 10, Y: 20, Z: 30}, r3.Vec{X: 1, Y: 2, Z: 3})

	r, err := Resolve(p, "vertex_top_right_back")
	require.NoError(t, err)
	assert.False(t, r.HasNormal())
	assert.InDelta(t, 0, r3.Norm(r3.Sub(r.Point, r3.Vec{X: 6, Y: 12, Z: 18})), 1e-9)

	r, err = Resolve(p, "vertex_left_front_bottom")
	require.NoError(t, err)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(r.Point, r3.Vec{X: -4, Y: -8, Z: -12})), 1e-9)
}

func TestResolveVertexFollowsRotation(t *testing.T) {
	p := rotated(t, "board", k.Box(10, 10, 10), 0, 0, 30)

	// Under a 30 degree yaw the top plane is unchanged, so the corner
	// still lies on z = 5.
	r, err := Resolve(p, "vertex_top_right_back")
	require.NoError(t, err)
	assert.InDelta(t, 5, r.Point.Z, 1e-9)
}

func TestResolveVertexDegenerate(t *testing.T) {
	// The only face facing -Y is almost parallel to the left face.
	sliver := r3.Unit(r3.Vec{X: -1, Y: -1e-11})
	s := &fakeSolid{faces: []kernel.Face{
		{Centroid: r3.Vec{Z: 1}, Normal: r3.Vec{Z: 1}, Area: 1},
		{Centroid: r3.Vec{X: -5}, Normal: r3.Vec{X: -1}, Area: 1},
		{Centroid: r3.Vec{Y: -1}, Normal: sliver, Area: 1},
	}}
	p := MustPart("sliver", s)

	_, err := Resolve(p, "vertex_top_left_front")
	var dge *DegenerateGeometryError
	require.ErrorAs(t, err, &dge)
	assert.Equal(t, "sliver", dge.Part)
	assert.Equal(t, "vertex", dge.Op)
}

func TestResolveUnknownSelector(t *testing.T) {
	p := cube(t, "cube", 1)
	_, err := Resolve(p, "face_upward")

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "cube", re.Part)
	assert.Equal(t, "face_upward", re.Expr)
	assert.ErrorIs(t, err, ErrUnknownSelector)
	assert.Contains(t, err.Error(), `"face_upward"`)
	assert.Contains(t, err.Error(), `"cube"`)
}

func TestResolveFaceNotFound(t *testing.T) {
	s := &fakeSolid{faces: []kernel.Face{
		{Centroid: r3.Vec{Z: 1}, Normal: r3.Vec{Z: 1}, Area: 1},
		{Centroid: r3.Vec{X: 1}, Normal: r3.Vec{X: 1}, Area: 1},
	}}
	_, err := Resolve(MustPart("lid", s), "face_bottom")
	assert.ErrorIs(t, err, ErrFaceNotFound)

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "face_bottom", re.Expr)
}

func TestResolveSkipsFacesWithoutNormal(t *testing.T) {
	s := &fakeSolid{faces: []kernel.Face{
		{Centroid: r3.Vec{Z: 50}, Area: 1},
		{Centroid: r3.Vec{X: 1, Z: 9}, Normal: r3.Vec{X: math.NaN()}, Area: 1},
		{Centroid: r3.Vec{Z: 5}, Normal: r3.Vec{Z: 2}, Area: 1},
	}}
	p := MustPart("lid", s)

	r, err := Resolve(p, "face_top")
	require.NoError(t, err)
	assert.InDelta(t, 5, r.Point.Z, 1e-12)
	require.True(t, r.HasNormal())
	assert.InDelta(t, 1, r.Normal.Z, 1e-12)

	_, err = Resolve(p, "face_bottom")
	assert.ErrorIs(t, err, ErrFaceNotFound)
}

func TestResolveAllNormalsDegenerate(t *testing.T) {
	s := &fakeSolid{faces: []kernel.Face{
		{Centroid: r3.Vec{Z: 5}, Area: 1},
		{Centroid: r3.Vec{Z: -5}, Normal: r3.Vec{Z: math.NaN()}, Area: 1},
	}}

	_, err := Resolve(MustPart("flat", s), "face_top")
	var dge *DegenerateGeometryError
	require.ErrorAs(t, err, &dge)
	assert.Equal(t, "flat", dge.Part)
	assert.Equal(t, "normal", dge.Op)
}

func TestResolveTieBrokenByExtremalCentroid(t *testing.T) {
	short := k.Box(1, 1, 1)
	tall := k.Translate(k.Box(1, 1, 3), 3, 0, 0)
	p := MustPart("pair", k.Compound(short, tall))

	r, err := Resolve(p, "face_top")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, r.Point.Z, 1e-9)
	assert.InDelta(t, 3, r.Point.X, 1e-9)
}

func TestResolveAmbiguousFace(t *testing.T) {
	a := k.Box(1, 1, 1)
	b := k.Translate(k.Box(1, 1, 1), 3, 0, 0)
	p := MustPart("twins", k.Compound(a, b))

	_, err := Resolve(p, "face_top")
	assert.ErrorIs(t, err, ErrAmbiguousFace)

	// The side faces are not tied: right picks the far box.
	r, err := Resolve(p, "face_right")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, r.Point.X, 1e-9)
}

func TestResolveSphereTopIsAmbiguous(t *testing.T) {
	p := MustPart("ball", k.Sphere(5, 16))
	_, err := Resolve(p, "face_top")
	assert.ErrorIs(t, err, ErrAmbiguousFace)
}

func TestResolveBackendErrors(t *testing.T) {
	boom := errors.New("boom")
	p := MustPart("broken", &fakeSolid{facesErr: boom, centroidErr: kernel.ErrDegenerate})

	_, err := Resolve(p, "face_top")
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "broken", be.Part)
	assert.ErrorIs(t, err, boom)

	_, err = Resolve(p, "center")
	var dge *DegenerateGeometryError
	require.ErrorAs(t, err, &dge)
	assert.Equal(t, "centroid", dge.Op)
	assert.ErrorIs(t, err, kernel.ErrDegenerate)
}

func TestResolveZeroPart(t *testing.T) {
	_, err := Resolve(Part{}, "center")
	var be *BackendError
	assert.ErrorAs(t, err, &be)
}
