package measure

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Normal returns the outward unit normal of the face named by faceRef.
// References that do not denote a face fail with ErrNoNormal.
func (s *Service) Normal(p Part, faceRef string) (r3.Vec, error) {
	r, err := s.Resolve(p, faceRef)
	if err != nil {
		return r3.Vec{}, err
	}
	if !r.HasNormal() {
		return r3.Vec{}, unresolved(p, faceRef, ErrNoNormal)
	}
	return *r.Normal, nil
}

// Angles are rotations in degrees about the world axes: Roll about X,
// Pitch about Y and Yaw about Z. The rotation they describe is
// Rz(Yaw) * Ry(Pitch) * Rx(Roll), the order the kernels apply Euler
// angles in.
type Angles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// gimbalCos is the |cos(pitch)| below which roll and yaw share an axis.
const gimbalCos = 1e-6

// minSingular is the smallest singular value a rotation may have.
const minSingular = 1e-12

// Orientation returns the Euler angles of p's accumulated transform.
// Pitch is in [-90, 90]. At gimbal lock roll is reported as 0 and the
// whole rotation about the shared axis is reported as yaw.
func (s *Service) Orientation(p Part) (Angles, error) {
	if err := check(p, "orientation"); err != nil {
		return Angles{}, err
	}
	rot, err := nearestRotation(p.solid.Rotation())
	if err != nil {
		return Angles{}, degenerate(p, "orientation", "%v", err)
	}

	pitch := math.Asin(-clamp(rot.At(2, 0)))
	var roll, yaw float64
	if math.Hypot(rot.At(0, 0), rot.At(1, 0)) < gimbalCos {
		pitch = math.Copysign(math.Pi/2, -rot.At(2, 0))
		yaw = math.Atan2(-rot.At(0, 1), rot.At(1, 1))
	} else {
		roll = math.Atan2(rot.At(2, 1), rot.At(2, 2))
		yaw = math.Atan2(rot.At(1, 0), rot.At(0, 0))
	}
	return Angles{Roll: degrees(roll), Pitch: degrees(pitch), Yaw: degrees(yaw)}, nil
}

// nearestRotation returns the proper rotation closest to m, R = U*Vt from
// the singular value decomposition m = U*S*Vt.
func nearestRotation(m [3][3]float64) (*mat.Dense, error) {
	a := mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, fmt.Errorf("transform could not be factorized")
	}
	if vals := svd.Values(nil); vals[len(vals)-1] < minSingular {
		return nil, fmt.Errorf("transform is singular (singular values %v)", vals)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&u, v.T())
	if mat.Det(&r) < 0 {
		return nil, fmt.Errorf("transform contains a reflection")
	}
	return &r, nil
}

func clamp(x float64) float64 { return math.Max(-1, math.Min(1, x)) }

func degrees(rad float64) float64 {
	d := rad * 180 / math.Pi
	if d == 0 {
		return 0 // drop negative zero
	}
	return d
}

// ---------------------------------------------------------------------------
// Alignment
// ---------------------------------------------------------------------------

// Axis is a world axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis parses "x", "y" or "z" in either case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("measure: unknown axis %q", s)
}

// perpendicular returns the two coordinates of v across axis a.
func (a Axis) perpendicular(v r3.Vec) (float64, float64) {
	switch a {
	case AxisX:
		return v.Y, v.Z
	case AxisY:
		return v.X, v.Z
	default:
		return v.X, v.Y
	}
}

type alignConfig struct {
	refA, refB string
}

// AlignOption adjusts an Aligned check.
type AlignOption func(*alignConfig)

// WithRefs compares refA on the first part with refB on the second
// instead of the two centroids.
func WithRefs(refA, refB string) AlignOption {
	return func(c *alignConfig) { c.refA, c.refB = refA, refB }
}

// Aligned reports whether a and b are offset only along axis: both
// coordinates perpendicular to axis must differ by at most tol.
func (s *Service) Aligned(a, b Part, axis Axis, tol float64, opts ...AlignOption) (bool, error) {
	if tol < 0 || math.IsNaN(tol) {
		return false, fmt.Errorf("%w: got %g", ErrInvalidTolerance, tol)
	}
	if axis < AxisX || axis > AxisZ {
		return false, fmt.Errorf("measure: invalid axis %v", axis)
	}
	var cfg alignConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	ra, err := s.Resolve(a, cfg.refA)
	if err != nil {
		return false, err
	}
	rb, err := s.Resolve(b, cfg.refB)
	if err != nil {
		return false, err
	}
	a1, a2 := axis.perpendicular(ra.Point)
	b1, b2 := axis.perpendicular(rb.Point)
	return math.Abs(a1-b1) <= tol && math.Abs(a2-b2) <= tol, nil
}
