package hexboard

const (
	penaltyBoxDepth = 6
	penaltyBoxWidth = 6
	goalHalfWidth   = 1
	shootingRange   = 12
	laneRadius      = 0.5
)

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// finalThirdStart is the first column (by absolute X) of each final third.
func (b *Board) finalThirdStart() int {
	third := (2*b.cfg.HalfWidth + 1) / 3
	return b.cfg.HalfWidth - third + 1
}

func (b *Board) classify(cell *Cell) {
	c := cell.Coord
	if !b.InBounds(c) {
		cell.OutOfBounds = true
		if abs(c.X) == b.cfg.HalfWidth+1 && abs(c.Z) <= goalHalfWidth {
			cell.Goal = sign(c.X)
		}
		return
	}

	if abs(c.X) >= b.finalThirdStart() {
		cell.FinalThird = sign(c.X)
	}
	if abs(c.X) > b.cfg.HalfWidth-penaltyBoxDepth && abs(c.Z) <= penaltyBoxWidth {
		cell.PenaltyBox = sign(c.X)
		cell.CanSaveFrom = true
	}
	if cell.FinalThird != 0 && Distance(c, b.GoalCentre(cell.FinalThird)) <= shootingRange {
		cell.CanShootFrom = true
	}
}

// GoalCentre returns the middle goal-mouth cell at the given end.
func (b *Board) GoalCentre(end int) Coord {
	return Coord{X: end * (b.cfg.HalfWidth + 1), Z: 0}
}

// GoalCells returns the goal-mouth cells at the given end, south to north.
func (b *Board) GoalCells(end int) []Coord {
	out := make([]Coord, 0, 2*goalHalfWidth+1)
	for z := -goalHalfWidth; z <= goalHalfWidth; z++ {
		out = append(out, Coord{X: end * (b.cfg.HalfWidth + 1), Z: z})
	}
	return out
}

// GoalKickSpot is where the defending goalkeeper restarts play at the given end.
func (b *Board) GoalKickSpot(end int) Coord {
	return Coord{X: end * (b.cfg.HalfWidth - 1), Z: 0}
}

// CornerSpot returns the in-bounds corner cell at the given end nearest to z.
func (b *Board) CornerSpot(end, z int) Coord {
	side := sign(z)
	if side == 0 {
		side = 1
	}
	return Coord{X: end * b.cfg.HalfWidth, Z: side * b.cfg.HalfHeight}
}

func (b *Board) buildLanes() {
	for _, c := range b.order {
		cell := b.cells[c]
		if !cell.CanShootFrom {
			continue
		}
		targets := make(map[Coord][]Coord)
		for _, g := range b.GoalCells(cell.FinalThird) {
			targets[g] = b.ThickPath(c, g, laneRadius)
		}
		b.lanes[c] = targets
	}
}

// ShootingLane returns the precomputed path from a shooting cell to one of
// the goal-mouth cells it can aim at.
func (b *Board) ShootingLane(from, goal Coord) ([]Coord, bool) {
	targets, ok := b.lanes[from]
	if !ok {
		return nil, false
	}
	lane, ok := targets[goal]
	return lane, ok
}

// ShootingTargets lists the goal cells reachable from a shooting cell.
func (b *Board) ShootingTargets(from Coord) []Coord {
	cell := b.cells[from]
	if cell == nil || !cell.CanShootFrom {
		return nil
	}
	return b.GoalCells(cell.FinalThird)
}
