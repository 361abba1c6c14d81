package measure

import (
	"errors"
	"fmt"

	"github.com/chazu/caliper/pkg/kernel"
)

// Reasons carried by a ResolutionError. Match them with errors.Is.
var (
	ErrUnknownSelector = errors.New("unknown selector")
	ErrFaceNotFound    = errors.New("no face points in that direction")
	ErrAmbiguousFace   = errors.New("several faces tie for that direction")
	ErrNoNormal        = errors.New("reference does not denote a face")
)

// ErrInvalidTolerance is returned by Aligned for a negative or NaN
// tolerance.
var ErrInvalidTolerance = errors.New("measure: tolerance must be a non-negative number")

// ResolutionError reports a reference expression that cannot be matched
// to a feature of a part.
type ResolutionError struct {
	Part   string
	Expr   string
	Reason error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("measure: cannot resolve %q on part %q: %v", e.Expr, e.Part, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Reason }

// DegenerateGeometryError reports a query with no defined answer for the
// part's solid, such as a zero-volume centroid or a singular vertex.
type DegenerateGeometryError struct {
	Part string
	Op   string
	Err  error
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("measure: %s on part %q: degenerate geometry: %v", e.Op, e.Part, e.Err)
}

func (e *DegenerateGeometryError) Unwrap() error { return e.Err }

// BackendError tags a kernel query failure with the part and operation
// that triggered it. The kernel's error is kept unchanged.
type BackendError struct {
	Part string
	Op   string
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("measure: %s on part %q: %v", e.Op, e.Part, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// backendErr classifies a kernel error for part p.
func backendErr(p Part, op string, err error) error {
	if errors.Is(err, kernel.ErrDegenerate) {
		return &DegenerateGeometryError{Part: p.name, Op: op, Err: err}
	}
	return &BackendError{Part: p.name, Op: op, Err: err}
}

func degenerate(p Part, op, format string, args ...any) error {
	return &DegenerateGeometryError{Part: p.name, Op: op, Err: fmt.Errorf(format, args...)}
}

func unresolved(p Part, expr string, reason error) error {
	return &ResolutionError{Part: p.name, Expr: expr, Reason: reason}
}
