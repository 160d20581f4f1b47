// Package hexboard models the pitch as a flat-top hex grid: coordinates,
// adjacency, distances, path queries and the static zone tags each cell
// carries.
package hexboard

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Coord addresses a cell in odd-q offset coordinates. X runs from goal to
// goal, Z from touchline to touchline with north towards +Z.
type Coord struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Cube is the cube-coordinate form of a cell, Q+R+S == 0.
type Cube struct {
	Q, R, S int
}

// ToCube converts offset coordinates into cube coordinates.
func (c Coord) ToCube() Cube {
	q := c.X
	r := -c.Z - (c.X-(c.X&1))/2
	return Cube{Q: q, R: r, S: -q - r}
}

// ToCoord converts cube coordinates back into offset coordinates.
func (h Cube) ToCoord() Coord {
	row := h.R + (h.Q-(h.Q&1))/2
	return Coord{X: h.Q, Z: -row}
}

func (h Cube) add(o Cube) Cube {
	return Cube{Q: h.Q + o.Q, R: h.R + o.R, S: h.S + o.S}
}

func (h Cube) scale(n int) Cube {
	return Cube{Q: h.Q * n, R: h.R * n, S: h.S * n}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Distance returns the number of steps between two cells.
func Distance(a, b Coord) int {
	ca, cb := a.ToCube(), b.ToCube()
	return (abs(ca.Q-cb.Q) + abs(ca.R-cb.R) + abs(ca.S-cb.S)) / 2
}

// Direction is one of the six hex compass points, numbered the way a
// direction die reads them (die value minus one).
type Direction int

const (
	South Direction = iota
	SouthWest
	NorthWest
	North
	NorthEast
	SouthEast
)

var directionNames = map[Direction]string{
	South:     "south",
	SouthWest: "south-west",
	NorthWest: "north-west",
	North:     "north",
	NorthEast: "north-east",
	SouthEast: "south-east",
}

func (d Direction) String() string {
	if n, ok := directionNames[d]; ok {
		return n
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

var cubeDirections = [6]Cube{
	South:     {Q: 0, R: 1, S: -1},
	SouthWest: {Q: -1, R: 1, S: 0},
	NorthWest: {Q: -1, R: 0, S: 1},
	North:     {Q: 0, R: -1, S: 1},
	NorthEast: {Q: 1, R: -1, S: 0},
	SouthEast: {Q: 1, R: 0, S: -1},
}

// DirectionFromRoll maps a 1-6 die value onto a compass direction.
func DirectionFromRoll(value int) (Direction, error) {
	if value < 1 || value > 6 {
		return 0, fmt.Errorf("direction roll out of range: %d", value)
	}
	return Direction(value - 1), nil
}

// Step moves n cells from c in direction d. The result may lie off the board.
func Step(c Coord, d Direction, n int) Coord {
	return c.ToCube().add(cubeDirections[d].scale(n)).ToCoord()
}

// DirectionBetween returns the direction leading from a to an adjacent cell b.
func DirectionBetween(a, b Coord) (Direction, bool) {
	for d := South; d <= SouthEast; d++ {
		if Step(a, d, 1) == b {
			return d, true
		}
	}
	return 0, false
}

// Adjacent reports whether a and b are neighbours.
func Adjacent(a, b Coord) bool {
	return Distance(a, b) == 1
}

// centre returns the cell centre scaled so that X is a multiple of sqrt(3)
// and Y an integer. Neighbouring centres sit 2 units apart.
func centre(c Coord) (q, y int) {
	h := c.ToCube()
	return h.Q, 2*h.R + h.Q
}

// Centre returns the cell centre with neighbouring centres one unit apart.
func Centre(c Coord) geom.XY {
	q, y := centre(c)
	return geom.XY{X: float64(q) * math.Sqrt(3) / 2, Y: float64(y) / 2}
}
