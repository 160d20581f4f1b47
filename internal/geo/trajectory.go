package geo

import (
	"encoding/json"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Trajectory samples a parabolic ball flight from a to b. The Z ordinate
// carries the height above the pitch, peaking at arc halfway along the
// flight. Ground balls use arc 0.
func Trajectory(a, b geom.XY, arc float64, samples int) geom.LineString {
	if samples < 2 {
		samples = 2
	}
	flat := make([]float64, 0, samples*3)
	for i := 0; i < samples; i++ {
		t := float64(i) / float64(samples-1)
		x := a.X + (b.X-a.X)*t
		y := a.Y + (b.Y-a.Y)*t
		z := 4 * arc * t * (1 - t)
		flat = append(flat, x, y, z)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
}

// TrajectoryJSON renders a trajectory as "[[x,y,z],...]" for clients that
// interpolate the flight themselves.
func TrajectoryJSON(ls geom.LineString) (string, error) {
	seq := ls.Coordinates()
	coords := make([][3]float64, seq.Length())
	for i := 0; i < seq.Length(); i++ {
		c := seq.Get(i)
		coords[i] = [3]float64{c.X, c.Y, c.Z}
	}
	b, err := json.Marshal(coords)
	if err != nil {
		return "", fmt.Errorf("failed to encode trajectory: %w", err)
	}
	return string(b), nil
}

// ParseTrajectory parses "[[x,y],...]" or "[[x,y,z],...]" back into a line string.
func ParseTrajectory(input string) (geom.LineString, error) {
	var coords [][]float64
	if err := json.Unmarshal([]byte(input), &coords); err != nil {
		return geom.LineString{}, fmt.Errorf("failed to parse trajectory JSON: %w", err)
	}
	if len(coords) < 2 {
		return geom.LineString{}, fmt.Errorf("trajectory must have at least 2 points, got %d", len(coords))
	}

	flat := make([]float64, 0, len(coords)*3)
	for i, c := range coords {
		switch len(c) {
		case 2:
			flat = append(flat, c[0], c[1], 0)
		case 3:
			flat = append(flat, c[0], c[1], c[2])
		default:
			return geom.LineString{}, fmt.Errorf("coordinate %d has %d values", i, len(c))
		}
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ)), nil
}
