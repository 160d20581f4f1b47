package action

import (
	"sort"

	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

// mover runs the select-then-click repositioning used inside passes and
// set pieces.
type mover struct {
	eligible func(*pitch.Token) bool
	// steps caps the move length; 0 means the token's pace.
	steps int
	// forbid rejects destinations, e.g. the ring around a restart spot.
	forbid func(hexboard.Coord) bool
	// ignoreZOI lets moves run through opposing zones of influence.
	ignoreZOI bool

	selected *pitch.Token
}

func (m *mover) rules(p *pitch.Pitch, t *pitch.Token) hexboard.MoveRules {
	r := p.MoveRules(t)
	if m.ignoreZOI {
		r.Halts = nil
	}
	return r
}

func (m *mover) reach(t *pitch.Token) int {
	if m.steps > 0 {
		return m.steps
	}
	return t.Pace
}

func (m *mover) destinations(p *pitch.Pitch, t *pitch.Token) []hexboard.Coord {
	var out []hexboard.Coord
	for c := range p.Board.Reachable(t.Cell, m.reach(t), m.rules(p, t)) {
		if m.forbid != nil && m.forbid(c) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// click selects a token or moves the selected one. It returns the token
// that moved, or nil when the click only selected.
func (m *mover) click(e *effects, p *pitch.Pitch, c hexboard.Coord) (*pitch.Token, error) {
	if t := p.TokenAt(c); t != nil {
		if m.eligible == nil || !m.eligible(t) {
			return nil, invalid("%s cannot move now", t)
		}
		m.selected = t
		e.highlight(ReasonReach, m.destinations(p, t))
		return nil, nil
	}
	t := m.selected
	if t == nil {
		return nil, invalid("no token selected")
	}
	if m.forbid != nil && m.forbid(c) {
		return nil, invalid("%v is off limits", c)
	}
	path := p.Board.FindPath(t.Cell, c, m.reach(t), m.rules(p, t))
	if path == nil {
		return nil, invalid("%s cannot reach %v", t, c)
	}
	if err := p.Place(t, c); err != nil {
		return nil, broken("placing %s: %v", t, err)
	}
	t.Moved = true
	e.moveToken(t, path...)
	m.selected = nil
	return t, nil
}

func (m *mover) clear() {
	m.selected = nil
}
