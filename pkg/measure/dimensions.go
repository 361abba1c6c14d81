package measure

import (
	"math"

	"github.com/chazu/caliper/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Dims summarizes a part's size and mass properties.
type Dims struct {
	BoxDims
	Volume      float64 `json:"volume"`
	SurfaceArea float64 `json:"surfaceArea"`
	Centroid    r3.Vec  `json:"centroid"`
}

// Dimensions combines BoundingBox, the mass properties and Centroid.
func (s *Service) Dimensions(p Part) (Dims, error) {
	box, err := s.BoundingBox(p)
	if err != nil {
		return Dims{}, err
	}
	mp, err := massProperties(p)
	if err != nil {
		return Dims{}, err
	}
	c, err := s.Centroid(p)
	if err != nil {
		return Dims{}, err
	}
	return Dims{BoxDims: box, Volume: mp.Volume, SurfaceArea: mp.SurfaceArea, Centroid: c}, nil
}

// Volume returns the volume of p's solid.
func (s *Service) Volume(p Part) (float64, error) {
	mp, err := massProperties(p)
	return mp.Volume, err
}

// SurfaceArea returns the surface area of p's solid.
func (s *Service) SurfaceArea(p Part) (float64, error) {
	mp, err := massProperties(p)
	return mp.SurfaceArea, err
}

// Centroid returns the volumetric center of p's solid.
func (s *Service) Centroid(p Part) (r3.Vec, error) {
	if err := check(p, "centroid"); err != nil {
		return r3.Vec{}, err
	}
	c, err := p.solid.Centroid()
	if err != nil {
		return r3.Vec{}, backendErr(p, "centroid", err)
	}
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z) {
		return r3.Vec{}, degenerate(p, "centroid", "centroid is not a number")
	}
	return c, nil
}

func massProperties(p Part) (kernel.MassProperties, error) {
	if err := check(p, "mass properties"); err != nil {
		return kernel.MassProperties{}, err
	}
	mp, err := p.solid.MassProperties()
	if err != nil {
		return kernel.MassProperties{}, backendErr(p, "mass properties", err)
	}
	if !(mp.Volume > 0) || !(mp.SurfaceArea > 0) {
		return kernel.MassProperties{}, degenerate(p, "mass properties",
			"volume %g, surface area %g", mp.Volume, mp.SurfaceArea)
	}
	return mp, nil
}
