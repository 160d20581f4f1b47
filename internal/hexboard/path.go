package hexboard

import (
	"math"
	"sort"

	"github.com/hexfoot/engine/internal/geo"
)

const thickPathEpsilon = 1e-9

// Reach describes how a reachable cell was reached.
type Reach struct {
	Distance int
	// EnteredZOI is set when the cell lies in an opposing zone of influence,
	// which ends the move there.
	EnteredZOI bool
}

// MoveRules parameterise reachability and path queries.
type MoveRules struct {
	// Passable reports whether a token may stand on c.
	Passable func(c Coord) bool
	// Halts reports whether a move must end on c, e.g. an opposing ZOI.
	Halts func(c Coord) bool
	// Through reports whether a move may continue through c. Cells that
	// fail it may still end a move. Used for the ball cell.
	Through func(c Coord) bool
}

func (r MoveRules) passable(c Coord) bool {
	return r.Passable == nil || r.Passable(c)
}

func (r MoveRules) halts(c Coord) bool {
	return r.Halts != nil && r.Halts(c)
}

func (r MoveRules) through(c Coord) bool {
	return r.Through == nil || r.Through(c)
}

// Reachable runs a breadth-first search from origin limited to maxSteps.
// Only in-bounds cells are considered. The origin is not part of the result.
func (b *Board) Reachable(origin Coord, maxSteps int, rules MoveRules) map[Coord]Reach {
	out, _ := b.search(origin, maxSteps, rules)
	return out
}

// FindPath returns the shortest path from a to dest (a excluded, dest
// included) under rules, or nil when dest cannot be reached within maxSteps.
func (b *Board) FindPath(a, dest Coord, maxSteps int, rules MoveRules) []Coord {
	reach, parent := b.search(a, maxSteps, rules)
	if _, ok := reach[dest]; !ok {
		return nil
	}
	var path []Coord
	for c := dest; c != a; c = parent[c] {
		path = append(path, c)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (b *Board) search(origin Coord, maxSteps int, rules MoveRules) (map[Coord]Reach, map[Coord]Coord) {
	reach := make(map[Coord]Reach)
	parent := make(map[Coord]Coord)
	if b.cells[origin] == nil {
		return reach, parent
	}

	visited := map[Coord]bool{origin: true}
	frontier := []Coord{origin}
	for step := 1; step <= maxSteps && len(frontier) > 0; step++ {
		var next []Coord
		for _, c := range frontier {
			for _, n := range b.cells[c].neighbors {
				if visited[n] || !b.InBounds(n) || !rules.passable(n) {
					continue
				}
				visited[n] = true
				parent[n] = c
				zoi := rules.halts(n)
				reach[n] = Reach{Distance: step, EnteredZOI: zoi}
				if !zoi && rules.through(n) {
					next = append(next, n)
				}
			}
		}
		frontier = next
	}
	return reach, parent
}

// ThickPath returns the cells whose centre lies within radius of the
// straight segment between the centres of a and b, ordered from a towards
// b. The origin is excluded. Radius is measured in cell spacings.
func (b *Board) ThickPath(a, dest Coord, radius float64) []Coord {
	if a == dest {
		return nil
	}
	seg, err := geo.NewSegment(Centre(a), Centre(dest))
	if err != nil {
		return nil
	}

	pad := 1 + int(math.Ceil(radius))
	minX, maxX := min(a.X, dest.X)-pad, max(a.X, dest.X)+pad
	minZ, maxZ := min(a.Z, dest.Z)-pad, max(a.Z, dest.Z)+pad

	aq, ay := centre(a)
	bq, by := centre(dest)
	dq, dy := bq-aq, by-ay

	type entry struct {
		c     Coord
		along int
		side  int
	}
	var entries []entry
	for x := minX; x <= maxX; x++ {
		for z := minZ; z <= maxZ; z++ {
			c := Coord{X: x, Z: z}
			if c == a || b.cells[c] == nil {
				continue
			}
			if seg.DistanceTo(Centre(c)) > radius+thickPathEpsilon {
				continue
			}
			cq, cy := centre(c)
			pq, py := cq-aq, cy-ay
			entries = append(entries, entry{
				c:     c,
				along: 3*pq*dq + py*dy,
				side:  dq*py - dy*pq,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].along != entries[j].along {
			return entries[i].along < entries[j].along
		}
		return entries[i].side < entries[j].side
	})

	out := make([]Coord, len(entries))
	for i, e := range entries {
		out[i] = e.c
	}
	return out
}
