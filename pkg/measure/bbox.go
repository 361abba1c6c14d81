package measure

import "gonum.org/v1/gonum/spatial/r3"

// BoxDims describes a world-frame axis-aligned bounding box. Width,
// Height and Depth are the extents along X, Y and Z. Center is the
// midpoint of the box, which is not the centroid of an asymmetric solid.
type BoxDims struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Center r3.Vec  `json:"center"`
	Min    r3.Vec  `json:"min"`
	Max    r3.Vec  `json:"max"`
}

// BoundingBox returns the axis-aligned bounding box of p's solid with
// every transform applied. Rotating a part therefore changes its extents.
func (s *Service) BoundingBox(p Part) (BoxDims, error) {
	if err := check(p, "bounding box"); err != nil {
		return BoxDims{}, err
	}
	b, err := p.solid.BoundingBox()
	if err != nil {
		return BoxDims{}, backendErr(p, "bounding box", err)
	}
	if !b.Valid() {
		return BoxDims{}, degenerate(p, "bounding box", "box %v..%v is not finite", b.Min, b.Max)
	}
	size := b.Size()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return BoxDims{}, degenerate(p, "bounding box", "zero extent %v", size)
	}
	return BoxDims{
		Width:  size.X,
		Height: size.Y,
		Depth:  size.Z,
		Center: b.Center(),
		Min:    b.Min,
		Max:    b.Max,
	}, nil
}
