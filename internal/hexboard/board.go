package hexboard

import (
	"errors"
	"fmt"
	"sort"
)

// ErrBoardTooSmall is returned when the configured pitch cannot hold both
// penalty boxes and final thirds.
var ErrBoardTooSmall = errors.New("board dimensions too small")

// Config sizes the playing surface. The surface spans X in
// [-HalfWidth, HalfWidth] and Z in [-HalfHeight, HalfHeight]; one extra ring
// of out-of-bounds cells surrounds it.
type Config struct {
	HalfWidth  int `json:"halfWidth" mapstructure:"halfWidth"`
	HalfHeight int `json:"halfHeight" mapstructure:"halfHeight"`
}

// DefaultConfig is the standard 37x25 pitch.
func DefaultConfig() Config {
	return Config{HalfWidth: 18, HalfHeight: 12}
}

// Cell is a single hex. Zone tags are fixed at construction; occupancy
// flags are maintained by whoever places tokens.
type Cell struct {
	Coord Coord

	FinalThird   int
	PenaltyBox   int
	OutOfBounds  bool
	CanShootFrom bool
	CanSaveFrom  bool
	// Goal is the end (+1/-1) when the cell is a goal mouth, 0 otherwise.
	Goal int

	AttackOccupied  bool
	DefenseOccupied bool

	neighbors []Coord
}

// Occupied reports whether any token stands on the cell.
func (c *Cell) Occupied() bool {
	return c.AttackOccupied || c.DefenseOccupied
}

// Neighbors returns the coordinates of the cell's existing neighbours.
func (c *Cell) Neighbors() []Coord {
	return c.neighbors
}

// Board owns every cell of the pitch.
type Board struct {
	cfg   Config
	cells map[Coord]*Cell
	order []Coord
	lanes map[Coord]map[Coord][]Coord
}

// NewBoard builds the cells, their zone tags and the shooting-lane table.
func NewBoard(cfg Config) (*Board, error) {
	if cfg.HalfWidth < 8 || cfg.HalfHeight < 4 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBoardTooSmall, cfg.HalfWidth, cfg.HalfHeight)
	}

	b := &Board{
		cfg:   cfg,
		cells: make(map[Coord]*Cell),
		lanes: make(map[Coord]map[Coord][]Coord),
	}

	for x := -cfg.HalfWidth - 1; x <= cfg.HalfWidth+1; x++ {
		for z := -cfg.HalfHeight - 1; z <= cfg.HalfHeight+1; z++ {
			c := Coord{X: x, Z: z}
			b.cells[c] = &Cell{Coord: c}
			b.order = append(b.order, c)
		}
	}

	for _, c := range b.order {
		cell := b.cells[c]
		for d := South; d <= SouthEast; d++ {
			n := Step(c, d, 1)
			if _, ok := b.cells[n]; ok {
				cell.neighbors = append(cell.neighbors, n)
			}
		}
		b.classify(cell)
	}

	b.buildLanes()
	return b, nil
}

// Config returns the board dimensions.
func (b *Board) Config() Config {
	return b.cfg
}

// Cell returns the cell at c, or nil when c is not on the board.
func (b *Board) Cell(c Coord) *Cell {
	return b.cells[c]
}

// Cells returns every cell in a stable order.
func (b *Board) Cells() []*Cell {
	out := make([]*Cell, 0, len(b.order))
	for _, c := range b.order {
		out = append(out, b.cells[c])
	}
	return out
}

// InBounds reports whether c is on the playing surface.
func (b *Board) InBounds(c Coord) bool {
	return abs(c.X) <= b.cfg.HalfWidth && abs(c.Z) <= b.cfg.HalfHeight
}

// Neighbors returns up to six adjacent cells.
func (b *Board) Neighbors(c Coord) []*Cell {
	cell := b.cells[c]
	if cell == nil {
		return nil
	}
	out := make([]*Cell, 0, len(cell.neighbors))
	for _, n := range cell.neighbors {
		out = append(out, b.cells[n])
	}
	return out
}

// Within returns every existing cell at distance 1..radius from c, nearest first.
func (b *Board) Within(c Coord, radius int) []Coord {
	var out []Coord
	for dx := -radius - 1; dx <= radius+1; dx++ {
		for dz := -radius - 1; dz <= radius+1; dz++ {
			n := Coord{X: c.X + dx, Z: c.Z + dz}
			if n == c || b.cells[n] == nil {
				continue
			}
			if Distance(c, n) <= radius {
				out = append(out, n)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Distance(c, out[i]) < Distance(c, out[j])
	})
	return out
}

// Boundary describes where a coordinate leaves the playing surface.
type Boundary int

const (
	Inside Boundary = iota
	Touchline
	GoalLine
)

func (bd Boundary) String() string {
	switch bd {
	case Touchline:
		return "touchline"
	case GoalLine:
		return "goal line"
	default:
		return "inside"
	}
}

// Exit classifies c against the playing surface. For GoalLine the end
// (+1/-1) is returned as well. Coordinates beyond the out-of-bounds ring
// are classified the same way.
func (b *Board) Exit(c Coord) (Boundary, int) {
	switch {
	case c.X > b.cfg.HalfWidth:
		return GoalLine, 1
	case c.X < -b.cfg.HalfWidth:
		return GoalLine, -1
	case abs(c.Z) > b.cfg.HalfHeight:
		return Touchline, 0
	}
	return Inside, 0
}

// Clamp returns the in-bounds cell closest to c along each axis.
func (b *Board) Clamp(c Coord) Coord {
	clamp := func(v, lim int) int {
		if v > lim {
			return lim
		}
		if v < -lim {
			return -lim
		}
		return v
	}
	return Coord{X: clamp(c.X, b.cfg.HalfWidth), Z: clamp(c.Z, b.cfg.HalfHeight)}
}

// Centre returns the kick-off spot.
func (b *Board) Centre() Coord {
	return Coord{}
}
