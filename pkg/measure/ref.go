package measure

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chazu/caliper/pkg/kernel"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// faceDirections maps face names to the world direction they select.
var faceDirections = map[string]r3.Vec{
	"top":    {Z: 1},
	"bottom": {Z: -1},
	"right":  {X: 1},
	"left":   {X: -1},
	"front":  {Y: -1},
	"back":   {Y: 1},
}

// vertexGroups lists the face names a vertex selector draws one word from.
var vertexGroups = [3][2]string{
	{"top", "bottom"},
	{"left", "right"},
	{"front", "back"},
}

// FaceDirection returns the world direction selected by a face name such
// as "top", and whether the name is known.
func FaceDirection(name string) (r3.Vec, bool) {
	d, ok := faceDirections[name]
	return d, ok
}

// FaceNames returns the known face names in sorted order.
func FaceNames() []string {
	names := make([]string, 0, len(faceDirections))
	for n := range faceDirections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RefKind says what kind of feature a reference denotes.
type RefKind int

const (
	RefCenter RefKind = iota
	RefFace
	RefVertex
)

func (k RefKind) String() string {
	switch k {
	case RefCenter:
		return "center"
	case RefFace:
		return "face"
	case RefVertex:
		return "vertex"
	default:
		return fmt.Sprintf("RefKind(%d)", int(k))
	}
}

// Ref is a parsed reference expression.
type Ref struct {
	Kind RefKind
	// Faces holds one face name for a face reference and three for a
	// vertex reference.
	Faces []string
}

// ParseRef parses a reference expression. Errors wrap ErrUnknownSelector.
func ParseRef(expr string) (Ref, error) {
	if expr == "" {
		return Ref{Kind: RefCenter}, nil
	}
	selector, sub, hasSub := strings.Cut(expr, ".")

	switch {
	case selector == "center":
		if hasSub {
			return Ref{}, fmt.Errorf("%w: center takes no subselector", ErrUnknownSelector)
		}
		return Ref{Kind: RefCenter}, nil

	case strings.HasPrefix(selector, "face_"):
		name := strings.TrimPrefix(selector, "face_")
		if _, ok := faceDirections[name]; !ok {
			return Ref{}, fmt.Errorf("%w: no face named %q", ErrUnknownSelector, name)
		}
		if hasSub && sub != "center" {
			return Ref{}, fmt.Errorf("%w: faces support only the center subselector, got %q", ErrUnknownSelector, sub)
		}
		return Ref{Kind: RefFace, Faces: []string{name}}, nil

	case strings.HasPrefix(selector, "vertex_"):
		if hasSub {
			return Ref{}, fmt.Errorf("%w: vertex takes no subselector", ErrUnknownSelector)
		}
		words := strings.Split(strings.TrimPrefix(selector, "vertex_"), "_")
		if err := checkVertexWords(words); err != nil {
			return Ref{}, err
		}
		return Ref{Kind: RefVertex, Faces: words}, nil
	}
	return Ref{}, fmt.Errorf("%w: %q", ErrUnknownSelector, selector)
}

// checkVertexWords requires exactly one word from each vertex group.
func checkVertexWords(words []string) error {
	if len(words) != 3 {
		return fmt.Errorf("%w: a vertex needs three face names, got %d", ErrUnknownSelector, len(words))
	}
	var used [3]bool
	for _, w := range words {
		found := false
		for g, group := range vertexGroups {
			if w != group[0] && w != group[1] {
				continue
			}
			if used[g] {
				return fmt.Errorf("%w: vertex names both sides of %s/%s", ErrUnknownSelector, group[0], group[1])
			}
			used[g], found = true, true
		}
		if !found {
			return fmt.Errorf("%w: %q is not a face name", ErrUnknownSelector, w)
		}
	}
	return nil
}

// Resolved is a point on a part, with the outward unit normal when the
// reference denotes a face.
type Resolved struct {
	Point  r3.Vec
	Normal *r3.Vec
}

// HasNormal reports whether r carries a normal.
func (r Resolved) HasNormal() bool { return r.Normal != nil }

// Resolve resolves ref against p. The empty reference is the centroid.
func (s *Service) Resolve(p Part, ref string) (Resolved, error) {
	if err := check(p, "resolve"); err != nil {
		return Resolved{}, err
	}
	parsed, err := ParseRef(ref)
	if err != nil {
		return Resolved{}, unresolved(p, ref, err)
	}

	switch parsed.Kind {
	case RefFace:
		f, err := s.resolveFace(p, ref, parsed.Faces[0])
		if err != nil {
			return Resolved{}, err
		}
		n := f.normal
		return Resolved{Point: f.centroid, Normal: &n}, nil

	case RefVertex:
		pt, err := s.resolveVertex(p, ref, parsed.Faces)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Point: pt}, nil
	}

	c, err := s.Centroid(p)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Point: c}, nil
}

type selectedFace struct {
	centroid r3.Vec
	normal   r3.Vec
}

// resolveFace picks the face whose normal is closest to the named
// direction. Faces within the angular epsilon of the best are tied and
// the one whose centroid lies furthest along the direction wins.
func (s *Service) resolveFace(p Part, expr, name string) (selectedFace, error) {
	dir := faceDirections[name]
	fs, err := faces(p)
	if err != nil {
		return selectedFace{}, err
	}

	// Faces without a usable normal never take part in the search.
	usable := make([]kernel.Face, 0, len(fs))
	for _, f := range fs {
		if n := r3.Norm(f.Normal); n > 0 && !math.IsNaN(n) && !math.IsInf(n, 0) {
			usable = append(usable, kernel.Face{Centroid: f.Centroid, Normal: r3.Scale(1/n, f.Normal), Area: f.Area})
		}
	}
	if len(fs) == 0 {
		return selectedFace{}, unresolved(p, expr, ErrFaceNotFound)
	}
	if len(usable) == 0 {
		return selectedFace{}, degenerate(p, "normal", "no face of %s has a normal", p.name)
	}
	fs = usable

	angles := make([]float64, len(fs))
	best := math.Inf(1)
	for i, f := range fs {
		// atan2 stays accurate for nearly parallel vectors where acos does not.
		angles[i] = math.Atan2(r3.Norm(r3.Cross(f.Normal, dir)), r3.Dot(f.Normal, dir))
		if angles[i] < best {
			best = angles[i]
		}
	}
	if best >= math.Pi/2 {
		return selectedFace{}, unresolved(p, expr, ErrFaceNotFound)
	}

	var tied []int
	for i, a := range angles {
		if a <= best+s.angularEpsilon {
			tied = append(tied, i)
		}
	}

	winner := tied[0]
	reach := r3.Dot(fs[winner].Centroid, dir)
	for _, i := range tied[1:] {
		if d := r3.Dot(fs[i].Centroid, dir); d > reach {
			winner, reach = i, d
		}
	}
	if len(tied) > 1 {
		for _, i := range tied {
			if i != winner && reach-r3.Dot(fs[i].Centroid, dir) <= s.tieDistance {
				return selectedFace{}, unresolved(p, expr,
					fmt.Errorf("%w: %d faces at %g", ErrAmbiguousFace, len(tied), reach))
			}
		}
		s.log().Debug("face tie broken by extremal centroid",
			zap.String("part", p.name),
			zap.String("face", name),
			zap.Int("tied", len(tied)),
		)
	}

	f := fs[winner]
	s.log().Debug("resolved face",
		zap.String("part", p.name),
		zap.String("face", name),
		zap.Float64("angle", angles[winner]),
	)
	return selectedFace{centroid: f.Centroid, normal: f.Normal}, nil
}

// singularDet is the smallest |det| of three unit plane normals treated
// as a proper corner.
const singularDet = 1e-9

// resolveVertex intersects the planes of three resolved faces.
func (s *Service) resolveVertex(p Part, expr string, names []string) (r3.Vec, error) {
	a := mat.NewDense(3, 3, nil)
	b := mat.NewVecDense(3, nil)
	for i, name := range names {
		f, err := s.resolveFace(p, expr, name)
		if err != nil {
			return r3.Vec{}, err
		}
		a.SetRow(i, []float64{f.normal.X, f.normal.Y, f.normal.Z})
		b.SetVec(i, r3.Dot(f.normal, f.centroid))
	}
	if math.Abs(mat.Det(a)) < singularDet {
		return r3.Vec{}, degenerate(p, "vertex", "planes of %s do not meet in a point", strings.Join(names, ", "))
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return r3.Vec{}, degenerate(p, "vertex", "solving %s: %v", strings.Join(names, ", "), err)
	}
	return r3.Vec{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}, nil
}
