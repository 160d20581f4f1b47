package geo

import (
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.XY
		p    geom.XY
		want float64
	}{
		{"on segment", geom.XY{X: 0, Y: 0}, geom.XY{X: 4, Y: 0}, geom.XY{X: 2, Y: 0}, 0},
		{"perpendicular", geom.XY{X: 0, Y: 0}, geom.XY{X: 4, Y: 0}, geom.XY{X: 2, Y: 1.5}, 1.5},
		{"clamped to start", geom.XY{X: 0, Y: 0}, geom.XY{X: 4, Y: 0}, geom.XY{X: -3, Y: 4}, 5},
		{"clamped to end", geom.XY{X: 0, Y: 0}, geom.XY{X: 4, Y: 0}, geom.XY{X: 7, Y: 0}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := SegmentDistance(tt.a, tt.b, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, d, 1e-9)
		})
	}
}

func TestSegmentDistance_Degenerate(t *testing.T) {
	_, err := SegmentDistance(geom.XY{X: 1, Y: 1}, geom.XY{X: 1, Y: 1}, geom.XY{})
	assert.ErrorIs(t, err, ErrDegenerateSegment)
}

func TestTrajectory_PeaksHalfway(t *testing.T) {
	ls := Trajectory(geom.XY{X: 0, Y: 0}, geom.XY{X: 10, Y: 0}, 3, 5)
	seq := ls.Coordinates()
	require.Equal(t, 5, seq.Length())

	assert.InDelta(t, 0, seq.Get(0).Z, 1e-9)
	assert.InDelta(t, 3, seq.Get(2).Z, 1e-9)
	assert.InDelta(t, 0, seq.Get(4).Z, 1e-9)
	assert.InDelta(t, 10, seq.Get(4).X, 1e-9)
}

func TestTrajectoryJSON_RoundTrip(t *testing.T) {
	ls := Trajectory(geom.XY{X: 0, Y: 0}, geom.XY{X: 2, Y: 2}, 0, 3)
	s, err := TrajectoryJSON(ls)
	require.NoError(t, err)
	assert.Equal(t, "[[0,0,0],[1,1,0],[2,2,0]]", s)

	parsed, err := ParseTrajectory(s)
	require.NoError(t, err)
	assert.Equal(t, 3, parsed.Coordinates().Length())
}

func TestParseTrajectory_Errors(t *testing.T) {
	for _, in := range []string{"not json", "[[1,2]]", "[[1,2],[3]]"} {
		_, err := ParseTrajectory(in)
		assert.Error(t, err, in)
	}
}

func TestPoint(t *testing.T) {
	c, ok := Point(1.5, -2).Coordinates()
	require.True(t, ok)
	assert.Equal(t, 1.5, c.X)
	assert.False(t, math.IsNaN(c.Y))
	assert.Equal(t, -2.0, c.Y)
}
