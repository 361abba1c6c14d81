package measure

import "gonum.org/v1/gonum/spatial/r3"

// Distance resolves ref1 on a and ref2 on b and returns the Euclidean
// distance between the two points. Empty references mean the centroid.
func (s *Service) Distance(a, b Part, ref1, ref2 string) (float64, error) {
	ra, err := s.Resolve(a, ref1)
	if err != nil {
		return 0, err
	}
	rb, err := s.Resolve(b, ref2)
	if err != nil {
		return 0, err
	}
	return r3.Norm(r3.Sub(ra.Point, rb.Point)), nil
}
