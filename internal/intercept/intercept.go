// Package intercept finds the defenders that can cut out a ball travelling
// between two cells and resolves their attempts one roll at a time.
package intercept

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

var (
	// ErrPathBlocked is returned when a defender stands directly on the path.
	ErrPathBlocked = errors.New("path blocked by defender")
	// ErrNoCandidates is returned when a roll arrives with nobody left to roll for.
	ErrNoCandidates = errors.New("no interceptor pending")
)

// Ball radii in cell spacings.
const (
	GroundRadius = 0.5
	ShotRadius   = 0.5
	RollRadius   = 0.0
)

// Candidate is a defender entitled to one interception roll.
type Candidate struct {
	Token *pitch.Token
	// CausesInvalidity marks a defender standing on the path itself.
	CausesInvalidity bool
	// PositionalPenalty only applies to goalkeepers, see HasPenalty.
	PositionalPenalty int
	HasPenalty        bool

	Distance  int
	pathIndex int
}

// Options tune enumeration for the individual actions.
type Options struct {
	// SkipDirectBlock ignores defenders standing on the path when
	// validating. Quick throw-ins use it.
	SkipDirectBlock bool
	// ExcludeGoalkeeper leaves the defending goalkeeper out, for shots where
	// the keeper is handled separately.
	ExcludeGoalkeeper bool
}

// Path computes the thick path for a ball of the given radius.
func Path(p *pitch.Pitch, from, to hexboard.Coord, radius float64) []hexboard.Coord {
	return p.Board.ThickPath(from, to, radius)
}

// Validate rejects a path with a defender standing directly on it.
func Validate(p *pitch.Pitch, path []hexboard.Coord, opts Options) error {
	if opts.SkipDirectBlock {
		return nil
	}
	for _, c := range path {
		cell := p.Board.Cell(c)
		if cell != nil && cell.DefenseOccupied {
			return fmt.Errorf("%w at %v", ErrPathBlocked, c)
		}
	}
	return nil
}

// Enumerate lists the defenders that may intercept along path, nearest to
// origin first. Path cells held by an attacker shield their surroundings.
func Enumerate(p *pitch.Pitch, origin hexboard.Coord, path []hexboard.Coord, opts Options) []Candidate {
	defending := p.TeamInAttack.Opponent()
	seen := make(map[int]int)
	var out []Candidate

	add := func(t *pitch.Token, direct bool, idx int) {
		if opts.ExcludeGoalkeeper && t.Goalkeeper {
			return
		}
		if i, ok := seen[t.ID]; ok {
			out[i].CausesInvalidity = out[i].CausesInvalidity || direct
			return
		}
		seen[t.ID] = len(out)
		out = append(out, Candidate{
			Token:            t,
			CausesInvalidity: direct,
			Distance:         hexboard.Distance(origin, t.Cell),
			pathIndex:        idx,
		})
	}

	for i, c := range path {
		cell := p.Board.Cell(c)
		if cell == nil || cell.AttackOccupied {
			continue
		}
		if cell.DefenseOccupied {
			add(p.TokenAt(c), true, i)
		}
		for _, t := range p.Adjacent(c, defending) {
			add(t, false, i)
		}
	}

	sortCandidates(out)
	return out
}

// AroundLanding lists the defenders whose zone of influence covers a
// landing cell, nearest to origin first.
func AroundLanding(p *pitch.Pitch, origin, landing hexboard.Coord) []Candidate {
	var out []Candidate
	for _, t := range p.Adjacent(landing, p.TeamInAttack.Opponent()) {
		out = append(out, Candidate{Token: t, Distance: hexboard.Distance(origin, t.Cell)})
	}
	sortCandidates(out)
	return out
}

func sortCandidates(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Distance != c[j].Distance {
			return c[i].Distance < c[j].Distance
		}
		if c[i].pathIndex != c[j].pathIndex {
			return c[i].pathIndex < c[j].pathIndex
		}
		return c[i].Token.ID < c[j].Token.ID
	})
}
