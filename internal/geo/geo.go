// Package geo wraps the planar geometry used to reason about ball flight
// across the pitch: segment distances for thick paths and arc trajectories
// handed to the presentation layer.
package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrDegenerateSegment is returned when both segment endpoints coincide.
var ErrDegenerateSegment = errors.New("segment endpoints coincide")

// Point builds a 2D point.
func Point(x, y float64) geom.Point {
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Type: geom.DimXY,
		},
	)
}

// Segment is a straight line between two pitch positions.
type Segment struct {
	line geom.Geometry
}

// NewSegment builds the segment from a to b.
func NewSegment(a, b geom.XY) (Segment, error) {
	if a == b {
		return Segment{}, ErrDegenerateSegment
	}
	seq := geom.NewSequence([]float64{a.X, a.Y, b.X, b.Y}, geom.DimXY)
	return Segment{line: geom.NewLineString(seq).AsGeometry()}, nil
}

// DistanceTo returns the distance from p to the closest point of the
// segment. Projections falling outside the segment clamp to the nearest
// endpoint.
func (s Segment) DistanceTo(p geom.XY) float64 {
	d, ok := geom.Distance(Point(p.X, p.Y).AsGeometry(), s.line)
	if !ok {
		return math.Inf(1)
	}
	return d
}

// SegmentDistance is a one-shot NewSegment(a, b).DistanceTo(p).
func SegmentDistance(a, b, p geom.XY) (float64, error) {
	s, err := NewSegment(a, b)
	if err != nil {
		return 0, err
	}
	return s.DistanceTo(p), nil
}
