package morph

import (
	"fmt"
	"math"
)

// Soma is the cell body. It is not a regular section.
type Soma struct {
	PointLevel
	Type SomaType
}

// Center returns the centroid of the soma points
func (s *Soma) Center() Point {
	return Centroid(s.Points)
}

// MaxDistance returns the largest distance from the center to a soma point
func (s *Soma) MaxDistance() float64 {
	c := s.Center()
	var max float64
	for _, p := range s.Points {
		if d := c.Distance(p); d > max {
			max = d
		}
	}
	return max
}

// Surface returns the soma surface area. Contours use the shoelace area of
// their XY projection.
func (s *Soma) Surface() (float64, error) {
	switch s.Type {
	case SomaSinglePoint, SomaThreePointCylinders:
		if len(s.Diameters) == 0 {
			return 0, fmt.Errorf("%w: soma has no diameter", ErrDataShape)
		}
		r := s.Diameters[0] / 2
		return 4 * math.Pi * r * r, nil
	case SomaSimpleContour:
		n := len(s.Points)
		var area float64
		for i := 0; i < n; i++ {
			p, q := s.Points[i], s.Points[(i+1)%n]
			area += 0.5 * (p[0]*q[1] - q[0]*p[1])
		}
		return math.Abs(area), nil
	case SomaCylinders:
		var area float64
		for i := 1; i < len(s.Points); i++ {
			r0, r1 := s.Diameters[i-1]/2, s.Diameters[i]/2
			h := s.Points[i-1].Distance(s.Points[i])
			area += math.Pi * (r0 + r1) * math.Sqrt((r0-r1)*(r0-r1)+h*h)
		}
		return area, nil
	default:
		return 0, fmt.Errorf("%w: surface of %s soma", ErrUnsupported, s.Type)
	}
}
