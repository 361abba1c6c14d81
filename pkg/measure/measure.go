// Package measure resolves named features of parts and computes
// quantities from them: distances, world-frame bounding boxes, face
// normals, orientation angles, alignment, volume and surface area.
//
// Every operation is a read-only query against immutable parts, so a
// Service may be shared by any number of goroutines.
//
// Reference expressions have the form <selector>[.<subselector>]:
//
//	center                 volumetric centroid
//	face_top               face most aligned with +Z (bottom -Z, right +X,
//	face_top.center        left -X, front -Y, back +Y), at its centroid
//	vertex_top_left_front  intersection of the three named face planes
//
// The empty expression is the same as "center".
package measure

import (
	"errors"
	"sync/atomic"

	"github.com/chazu/caliper/pkg/kernel"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Defaults used when no option overrides them.
const (
	DefaultAngularEpsilon = 1e-6 // radians
	DefaultTieDistance    = 1e-6
	DefaultWorkers        = 4
)

var pkgLogger atomic.Pointer[zap.Logger]

func init() {
	pkgLogger.Store(zap.NewNop())
}

// SetLogger replaces the logger used by services created without
// WithLogger. A nil logger restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	pkgLogger.Store(l)
}

// Service answers measurement queries. The zero value is not usable; use
// New.
type Service struct {
	angularEpsilon float64
	tieDistance    float64
	workers        int
	logger         *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAngularEpsilon sets the angle, in radians, within which two faces
// count as equally aligned with a direction.
func WithAngularEpsilon(rad float64) Option {
	return func(s *Service) { s.angularEpsilon = rad }
}

// WithTieDistance sets how close two tied faces' extremal coordinates
// must be for resolution to fail as ambiguous.
func WithTieDistance(d float64) Option {
	return func(s *Service) { s.tieDistance = d }
}

// WithWorkers bounds the number of parts Survey measures at once.
func WithWorkers(n int) Option {
	return func(s *Service) { s.workers = n }
}

// WithLogger sets the service's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a Service. Non-positive settings fall back to the defaults.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if !(s.angularEpsilon > 0) {
		s.angularEpsilon = DefaultAngularEpsilon
	}
	if !(s.tieDistance > 0) {
		s.tieDistance = DefaultTieDistance
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	return s
}

func (s *Service) log() *zap.Logger {
	if s.logger != nil {
		return s.logger
	}
	return pkgLogger.Load()
}

var errNoSolid = errors.New("part has no solid")

// check rejects the zero Part.
func check(p Part, op string) error {
	if p.solid == nil {
		return &BackendError{Part: p.name, Op: op, Err: errNoSolid}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Package-level API backed by a default Service
// ---------------------------------------------------------------------------

var std = New()

// Resolve resolves ref against p with the default Service.
func Resolve(p Part, ref string) (Resolved, error) { return std.Resolve(p, ref) }

// Distance returns the distance between ref1 on a and ref2 on b.
func Distance(a, b Part, ref1, ref2 string) (float64, error) {
	return std.Distance(a, b, ref1, ref2)
}

// BoundingBox returns p's world-frame bounding box dimensions.
func BoundingBox(p Part) (BoxDims, error) { return std.BoundingBox(p) }

// Normal returns the outward unit normal of the face named by faceRef.
func Normal(p Part, faceRef string) (r3.Vec, error) { return std.Normal(p, faceRef) }

// Orientation returns p's roll, pitch and yaw in degrees.
func Orientation(p Part) (Angles, error) { return std.Orientation(p) }

// Aligned reports whether a and b are offset only along axis.
func Aligned(a, b Part, axis Axis, tol float64, opts ...AlignOption) (bool, error) {
	return std.Aligned(a, b, axis, tol, opts...)
}

// Dimensions returns a summary of p's size and mass properties.
func Dimensions(p Part) (Dims, error) { return std.Dimensions(p) }

// Volume returns p's volume.
func Volume(p Part) (float64, error) { return std.Volume(p) }

// SurfaceArea returns p's surface area.
func SurfaceArea(p Part) (float64, error) { return std.SurfaceArea(p) }

// Centroid returns p's volumetric center.
func Centroid(p Part) (r3.Vec, error) { return std.Centroid(p) }

// faces fetches planar faces, classifying kernel errors.
func faces(p Part) ([]kernel.Face, error) {
	fs, err := p.solid.PlanarFaces()
	if err != nil {
		return nil, backendErr(p, "planar faces", err)
	}
	return fs, nil
}
