package engine

import (
	"fmt"
	"math"

	"github.com/chazu/caliper/pkg/kernel"
	"github.com/chazu/caliper/pkg/measure"
	"github.com/chazu/caliper/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// builtins holds the state one evaluation's DSL functions share.
type builtins struct {
	kernel   kernel.Kernel
	service  *measure.Service
	scene    *scene.Scene
	segments int
	alignTol float64

	// checks counts expect_near and expect calls that passed.
	checks int
}

type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// register installs all caliper DSL builtins into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func (b *builtins) register(env *zygo.Zlisp) {
	for name, fn := range map[string]builtinFunc{
		// shapes
		"box":          b.box,
		"cylinder":     b.cylinder,
		"sphere":       b.sphere,
		"vec3":         b.vec3,
		"place":        b.place,
		"union":        b.boolean,
		"difference":   b.boolean,
		"intersection": b.boolean,
		"compound":     b.compound,

		// parts
		"defpart": b.defpart,
		"part":    b.part,

		// measurements
		"point":        b.point,
		"distance":     b.distance,
		"aligned":      b.aligned,
		"normal":       b.normal,
		"orientation":  b.orientation,
		"bounding_box": b.boundingBox,
		"centroid":     b.centroid,
		"volume":       b.massProperty,
		"surface_area": b.massProperty,
		"triangles":    b.triangles,

		// vectors
		"vx":  b.component,
		"vy":  b.component,
		"vz":  b.component,
		"dot": b.dot,

		// checks
		"expect_near": b.expectNear,
		"expect":      b.expect,
	} {
		env.AddFunction(name, fn)
	}
}

// ---------------------------------------------------------------------------
// Shapes
// ---------------------------------------------------------------------------

// (box 10 20 30)
func (b *builtins) box(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	dims, err := floats(name, args, 3)
	if err != nil {
		return zygo.SexpNull, err
	}
	for _, d := range dims {
		if d <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: dimensions must be positive, got %v", dims)
		}
	}
	return &sexpSolid{
		solid: b.kernel.Box(dims[0], dims[1], dims[2]),
		desc:  fmt.Sprintf("box %gx%gx%g", dims[0], dims[1], dims[2]),
	}, nil
}

// (cylinder 20 5 :segments 32)
func (b *builtins) cylinder(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	dims, err := floats(name, pa.positional, 2)
	if err != nil {
		return zygo.SexpNull, err
	}
	if dims[0] <= 0 || dims[1] <= 0 {
		return zygo.SexpNull, fmt.Errorf("cylinder: height and radius must be positive")
	}
	n, err := b.segmentsArg(name, pa)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpSolid{
		solid: b.kernel.Cylinder(dims[0], dims[1], n),
		desc:  fmt.Sprintf("cylinder h=%g r=%g", dims[0], dims[1]),
	}, nil
}

// (sphere 5 :segments 32)
func (b *builtins) sphere(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	dims, err := floats(name, pa.positional, 1)
	if err != nil {
		return zygo.SexpNull, err
	}
	if dims[0] <= 0 {
		return zygo.SexpNull, fmt.Errorf("sphere: radius must be positive")
	}
	n, err := b.segmentsArg(name, pa)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpSolid{
		solid: b.kernel.Sphere(dims[0], n),
		desc:  fmt.Sprintf("sphere r=%g", dims[0]),
	}, nil
}

func (b *builtins) segmentsArg(name string, pa kwArgs) (int, error) {
	v, ok := pa.kw["segments"]
	if !ok {
		return b.segments, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: segments: %w", name, err)
	}
	if f < 3 || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s: segments must be a whole number >= 3, got %g", name, f)
	}
	return int(f), nil
}

// (vec3 1 2 3)
func (b *builtins) vec3(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	xyz, err := floats(name, args, 3)
	if err != nil {
		return zygo.SexpNull, err
	}
	return &sexpVec3{vec: r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
}

// (place solid :rotate (vec3 0 0 90) :at (vec3 10 0 0))
//
// Rotation is applied before translation regardless of argument order.
func (b *builtins) place(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 1 {
		return zygo.SexpNull, fmt.Errorf("place requires exactly one solid")
	}
	s, err := toSolid(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("place: %w", err)
	}
	desc := "placed " + s.ID()

	if v, ok := pa.kw["rotate"]; ok {
		r, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
		}
		s = b.kernel.Rotate(s, r.X, r.Y, r.Z)
	}
	if v, ok := pa.kw["at"]; ok {
		at, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
		}
		s = b.kernel.Translate(s, at.X, at.Y, at.Z)
	}
	return &sexpSolid{solid: s, desc: desc}, nil
}

// (union a b), (difference a b), (intersection a b)
func (b *builtins) boolean(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	ops, ok := b.kernel.(kernel.Booleans)
	if !ok {
		return zygo.SexpNull, fmt.Errorf("%s: kernel does not support boolean operations", name)
	}
	x, y, err := solidPair(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	var s kernel.Solid
	switch name {
	case "union":
		s = ops.Union(x, y)
	case "difference":
		s = ops.Difference(x, y)
	default:
		s = ops.Intersection(x, y)
	}
	return &sexpSolid{solid: s, desc: name}, nil
}

// (compound a b) merges solids that do not overlap. Kernels without a
// dedicated compound fall back to union.
func (b *builtins) compound(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	x, y, err := solidPair(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	switch k := b.kernel.(type) {
	case kernel.Compounder:
		return &sexpSolid{solid: k.Compound(x, y), desc: name}, nil
	case kernel.Booleans:
		return &sexpSolid{solid: k.Union(x, y), desc: name}, nil
	}
	return zygo.SexpNull, fmt.Errorf("compound: kernel cannot merge solids")
}

// ---------------------------------------------------------------------------
// Parts
// ---------------------------------------------------------------------------

// (defpart "name" solid)
func (b *builtins) defpart(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("defpart requires a name and a solid")
	}
	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
	}
	s, err := toSolid(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart %q: %w", partName, err)
	}
	p, err := measure.NewPart(partName, s)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
	}
	if err := b.scene.Add(p); err != nil {
		return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
	}
	return &sexpPart{part: p}, nil
}

// (part "name")
func (b *builtins) part(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("part requires a name argument")
	}
	partName, err := toString(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
	}
	p, ok := b.scene.Lookup(partName)
	if !ok {
		return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
	}
	return &sexpPart{part: p}, nil
}

// ---------------------------------------------------------------------------
// Measurements
// ---------------------------------------------------------------------------

// (point p "vertex_top_left_front")
func (b *builtins) point(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	p, ref, err := partAndRef(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	r, err := b.service.Resolve(p, ref)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("point: %w", err)
	}
	return &sexpVec3{vec: r.Point}, nil
}

// (distance a b) or (distance a b "face_top" "face_bottom")
func (b *builtins) distance(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 && len(args) != 4 {
		return zygo.SexpNull, fmt.Errorf("distance requires two parts and optionally two references")
	}
	pa, pb, err := partPair(name, args[:2])
	if err != nil {
		return zygo.SexpNull, err
	}
	ref1, ref2 := "center", "center"
	if len(args) == 4 {
		if ref1, err = toRef(args[2]); err != nil {
			return zygo.SexpNull, fmt.Errorf("distance: ref1: %w", err)
		}
		if ref2, err = toRef(args[3]); err != nil {
			return zygo.SexpNull, fmt.Errorf("distance: ref2: %w", err)
		}
	}
	d, err := b.service.Distance(pa, pb, ref1, ref2)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("distance: %w", err)
	}
	return floatSexp(d), nil
}

// (aligned a b :axis :z :tol 0.01 :from "face_top" :to "face_top")
func (b *builtins) aligned(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	pa := parseArgs(args)
	if len(pa.positional) != 2 {
		return zygo.SexpNull, fmt.Errorf("aligned requires two parts")
	}
	x, y, err := partPair(name, pa.positional)
	if err != nil {
		return zygo.SexpNull, err
	}

	v, ok := pa.kw["axis"]
	if !ok {
		return zygo.SexpNull, fmt.Errorf("aligned: :axis is required")
	}
	axis, err := toAxis(v)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("aligned: %w", err)
	}

	tol := b.alignTol
	if v, ok := pa.kw["tol"]; ok {
		if tol, err = toFloat64(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("aligned: tol: %w", err)
		}
	}

	var opts []measure.AlignOption
	from, to := "center", "center"
	_, hasFrom := pa.kw["from"]
	_, hasTo := pa.kw["to"]
	if hasFrom || hasTo {
		if v, ok := pa.kw["from"]; ok {
			if from, err = toRef(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("aligned: from: %w", err)
			}
		}
		if v, ok := pa.kw["to"]; ok {
			if to, err = toRef(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("aligned: to: %w", err)
			}
		}
		opts = append(opts, measure.WithRefs(from, to))
	}

	ok, err = b.service.Aligned(x, y, axis, tol, opts...)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("aligned: %w", err)
	}
	return boolSexp(ok), nil
}

// (normal p "face_top")
func (b *builtins) normal(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	p, ref, err := partAndRef(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	n, err := b.service.Normal(p, ref)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("normal: %w", err)
	}
	return &sexpVec3{vec: n}, nil
}

// (orientation p) returns (vec3 roll pitch yaw) in degrees.
func (b *builtins) orientation(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	p, err := onePart(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	a, err := b.service.Orientation(p)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("orientation: %w", err)
	}
	return &sexpVec3{vec: r3.Vec{X: a.Roll, Y: a.Pitch, Z: a.Yaw}}, nil
}

// (bounding_box p) returns (vec3 width height depth).
func (b *builtins) boundingBox(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	p, err := onePart(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	bb, err := b.service.BoundingBox(p)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("bounding-box: %w", err)
	}
	return &sexpVec3{vec: r3.Vec{X: bb.Width, Y: bb.Height, Z: bb.Depth}}, nil
}

func (b *builtins) centroid(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	p, err := onePart(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	c, err := b.service.Centroid(p)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("centroid: %w", err)
	}
	return &sexpVec3{vec: c}, nil
}

// (volume p), (surface_area p)
func (b *builtins) massProperty(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	p, err := onePart(name, args)
	if err != nil {
		return zygo.SexpNull, err
	}
	var v float64
	if name == "volume" {
		v, err = b.service.Volume(p)
	} else {
		v, err = b.service.SurfaceArea(p)
	}
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
	}
	return floatSexp(v), nil
}

// (triangles p) tessellates the part and returns its triangle count.
func (b *builtins) triangles(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("triangles requires one solid or part")
	}
	s, err := toSolid(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("triangles: %w", err)
	}
	m, err := b.kernel.ToMesh(s)
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("triangles: %w", err)
	}
	return &zygo.SexpInt{Val: int64(m.TriangleCount())}, nil
}

// ---------------------------------------------------------------------------
// Vectors
// ---------------------------------------------------------------------------

// (vx v), (vy v), (vz v)
func (b *builtins) component(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 1 {
		return zygo.SexpNull, fmt.Errorf("%s requires one vec3", name)
	}
	v, err := toVec3(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
	}
	switch name {
	case "vx":
		return floatSexp(v.X), nil
	case "vy":
		return floatSexp(v.Y), nil
	}
	return floatSexp(v.Z), nil
}

func (b *builtins) dot(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) != 2 {
		return zygo.SexpNull, fmt.Errorf("dot requires two vec3 arguments")
	}
	u, err := toVec3(args[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("dot: %w", err)
	}
	v, err := toVec3(args[1])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("dot: %w", err)
	}
	return floatSexp(r3.Dot(u, v)), nil
}

// ---------------------------------------------------------------------------
// Checks
// ---------------------------------------------------------------------------

// (expect_near actual expected tol)
func (b *builtins) expectNear(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	v, err := floats(name, args, 3)
	if err != nil {
		return zygo.SexpNull, err
	}
	actual, expected, tol := v[0], v[1], v[2]
	if tol < 0 {
		return zygo.SexpNull, fmt.Errorf("expect-near: tolerance must be non-negative, got %g", tol)
	}
	if !scalar.EqualWithinAbs(actual, expected, tol) {
		return zygo.SexpNull, fmt.Errorf("expect-near: got %g, want %g within %g", actual, expected, tol)
	}
	b.checks++
	return boolSexp(true), nil
}

// (expect cond "message")
func (b *builtins) expect(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
	if len(args) < 1 || len(args) > 2 {
		return zygo.SexpNull, fmt.Errorf("expect requires a condition and an optional message")
	}
	cond, ok := args[0].(*zygo.SexpBool)
	if !ok {
		return zygo.SexpNull, fmt.Errorf("expect: expected bool, got %s", describe(args[0]))
	}
	if !cond.Val {
		msg := "condition is false"
		if len(args) == 2 {
			if s, err := toString(args[1]); err == nil {
				msg = s
			}
		}
		return zygo.SexpNull, fmt.Errorf("expect: %s", msg)
	}
	b.checks++
	return boolSexp(true), nil
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func floats(name string, args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s requires exactly %d numeric arguments, got %d", name, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

func solidPair(name string, args []zygo.Sexp) (kernel.Solid, kernel.Solid, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s requires exactly two solids", name)
	}
	x, err := toSolid(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	y, err := toSolid(args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return x, y, nil
}

func partPair(name string, args []zygo.Sexp) (measure.Part, measure.Part, error) {
	a, err := toPart(args[0])
	if err != nil {
		return measure.Part{}, measure.Part{}, fmt.Errorf("%s: %w", name, err)
	}
	b, err := toPart(args[1])
	if err != nil {
		return measure.Part{}, measure.Part{}, fmt.Errorf("%s: %w", name, err)
	}
	return a, b, nil
}

func onePart(name string, args []zygo.Sexp) (measure.Part, error) {
	if len(args) != 1 {
		return measure.Part{}, fmt.Errorf("%s requires one part", name)
	}
	p, err := toPart(args[0])
	if err != nil {
		return measure.Part{}, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

func partAndRef(name string, args []zygo.Sexp) (measure.Part, string, error) {
	if len(args) != 2 {
		return measure.Part{}, "", fmt.Errorf("%s requires a part and a reference", name)
	}
	p, err := toPart(args[0])
	if err != nil {
		return measure.Part{}, "", fmt.Errorf("%s: %w", name, err)
	}
	ref, err := toRef(args[1])
	if err != nil {
		return measure.Part{}, "", fmt.Errorf("%s: ref: %w", name, err)
	}
	return p, ref, nil
}
