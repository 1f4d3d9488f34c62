package morph

import (
	"fmt"
	"math"
)

// Point is a 3D position
type Point [3]float64

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{p[0] - q[0], p[1] - q[1], p[2] - q[2]}
}

// Distance returns the euclidean distance between p and q
func (p Point) Distance(q Point) float64 {
	d := p.Sub(q)
	return math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
}

// Centroid returns the mean of points, or the origin for an empty slice
func Centroid(points []Point) Point {
	var c Point
	if len(points) == 0 {
		return c
	}
	for _, p := range points {
		c[0] += p[0]
		c[1] += p[1]
		c[2] += p[2]
	}
	n := float64(len(points))
	return Point{c[0] / n, c[1] / n, c[2] / n}
}

// PointLevel holds the parallel per-point arrays of one section.
// Perimeters is either empty or as long as Points.
type PointLevel struct {
	Points     []Point
	Diameters  []float64
	Perimeters []float64
}

// NewPointLevel validates the array lengths and returns the point level
func NewPointLevel(points []Point, diameters, perimeters []float64) (PointLevel, error) {
	pl := PointLevel{Points: points, Diameters: diameters, Perimeters: perimeters}
	if err := pl.Validate(); err != nil {
		return PointLevel{}, err
	}
	return pl, nil
}

// Validate checks the parallel-array invariant
func (pl PointLevel) Validate() error {
	if len(pl.Points) != len(pl.Diameters) {
		return fmt.Errorf("%w: %d points but %d diameters", ErrDataShape, len(pl.Points), len(pl.Diameters))
	}
	if len(pl.Perimeters) > 0 && len(pl.Perimeters) != len(pl.Points) {
		return fmt.Errorf("%w: %d points but %d perimeters", ErrDataShape, len(pl.Points), len(pl.Perimeters))
	}
	return nil
}

// Len returns the number of points
func (pl PointLevel) Len() int { return len(pl.Points) }

// Empty reports whether there are no points
func (pl PointLevel) Empty() bool { return len(pl.Points) == 0 }

// Clone deep-copies the arrays
func (pl PointLevel) Clone() PointLevel {
	out := PointLevel{
		Points:    append([]Point(nil), pl.Points...),
		Diameters: append([]float64(nil), pl.Diameters...),
	}
	if len(pl.Perimeters) > 0 {
		out.Perimeters = append([]float64(nil), pl.Perimeters...)
	}
	return out
}

// Slice returns the half-open window [start, end) sharing the backing arrays
func (pl PointLevel) Slice(start, end int) PointLevel {
	out := PointLevel{
		Points:    pl.Points[start:end:end],
		Diameters: pl.Diameters[start:end:end],
	}
	if len(pl.Perimeters) > 0 {
		out.Perimeters = pl.Perimeters[start:end:end]
	}
	return out
}

// Append adds other's entries after pl's, skipping the first skip entries of other
func (pl *PointLevel) Append(other PointLevel, skip int) {
	if skip > other.Len() {
		skip = other.Len()
	}
	pl.Points = append(pl.Points, other.Points[skip:]...)
	pl.Diameters = append(pl.Diameters, other.Diameters[skip:]...)
	if len(other.Perimeters) > 0 {
		pl.Perimeters = append(pl.Perimeters, other.Perimeters[skip:]...)
	}
}

// Equal compares the arrays element-wise
func (pl PointLevel) Equal(other PointLevel) bool {
	if len(pl.Points) != len(other.Points) ||
		len(pl.Diameters) != len(other.Diameters) ||
		len(pl.Perimeters) != len(other.Perimeters) {
		return false
	}
	for i := range pl.Points {
		if pl.Points[i] != other.Points[i] {
			return false
		}
	}
	for i := range pl.Diameters {
		if pl.Diameters[i] != other.Diameters[i] {
			return false
		}
	}
	for i := range pl.Perimeters {
		if pl.Perimeters[i] != other.Perimeters[i] {
			return false
		}
	}
	return true
}

// keepEnds keeps only the first and last entry of each array
func (pl *PointLevel) keepEnds() {
	n := pl.Len()
	if n < 2 {
		return
	}
	pl.Points = []Point{pl.Points[0], pl.Points[n-1]}
	pl.Diameters = []float64{pl.Diameters[0], pl.Diameters[n-1]}
	if len(pl.Perimeters) > 0 {
		pl.Perimeters = []float64{pl.Perimeters[0], pl.Perimeters[n-1]}
	}
}

// dropFirst removes the first entry of each array
func (pl *PointLevel) dropFirst() {
	if pl.Len() == 0 {
		return
	}
	pl.Points = pl.Points[1:]
	pl.Diameters = pl.Diameters[1:]
	if len(pl.Perimeters) > 0 {
		pl.Perimeters = pl.Perimeters[1:]
	}
}
