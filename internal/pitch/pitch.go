// Package pitch holds the mutable match state the rules operate on: tokens,
// the ball, occupancy and possession.
package pitch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hexfoot/engine/internal/hexboard"
)

var (
	ErrNoCell        = errors.New("no such cell")
	ErrOccupied      = errors.New("cell occupied")
	ErrUnknownToken  = errors.New("unknown token")
	ErrPartition     = errors.New("occupancy partition broken")
	ErrDuplicateCell = errors.New("two tokens on one cell")
)

// Pitch is the board plus everything standing on it.
type Pitch struct {
	Board *hexboard.Board

	tokens []*Token
	byID   map[int]*Token
	at     map[hexboard.Coord]*Token

	Ball         Ball
	TeamInAttack Side
	// AttackDirection is the end (+1/-1) each side attacks.
	AttackDirection [2]int

	LastTouch     *Token
	PreviousTouch *Token
	HangingPass   PassType

	// MovementPhase counts movement phases played, starting at 1.
	MovementPhase int
	Score         [2]int
}

// New places tokens on board. homeEnd is the end Home attacks; kicking is
// the side in possession at kick-off.
func New(board *hexboard.Board, tokens []*Token, kicking Side, homeEnd int) (*Pitch, error) {
	p := &Pitch{
		Board:        board,
		byID:         make(map[int]*Token, len(tokens)),
		at:           make(map[hexboard.Coord]*Token, len(tokens)),
		TeamInAttack: kicking,
	}
	p.AttackDirection[Home] = homeEnd
	p.AttackDirection[Away] = -homeEnd

	for _, t := range tokens {
		if _, dup := p.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate token id %d", t.ID)
		}
		cell := board.Cell(t.Cell)
		if cell == nil || !board.InBounds(t.Cell) {
			return nil, fmt.Errorf("%w: %s at %v", ErrNoCell, t, t.Cell)
		}
		if other := p.at[t.Cell]; other != nil {
			return nil, fmt.Errorf("%w: %s and %s at %v", ErrDuplicateCell, other, t, t.Cell)
		}
		t.IsAttacker = t.Side == kicking
		p.tokens = append(p.tokens, t)
		p.byID[t.ID] = t
		p.at[t.Cell] = t
		p.mark(cell, t)
	}
	return p, nil
}

func (p *Pitch) mark(cell *hexboard.Cell, t *Token) {
	cell.AttackOccupied = t.IsAttacker
	cell.DefenseOccupied = !t.IsAttacker
}

func unmark(cell *hexboard.Cell) {
	cell.AttackOccupied = false
	cell.DefenseOccupied = false
}

// Tokens returns every token in creation order.
func (p *Pitch) Tokens() []*Token {
	return p.tokens
}

// Token looks a token up by id.
func (p *Pitch) Token(id int) *Token {
	return p.byID[id]
}

// TokenAt returns the token standing on c, if any.
func (p *Pitch) TokenAt(c hexboard.Coord) *Token {
	return p.at[c]
}

// Attackers returns the tokens of the side in possession.
func (p *Pitch) Attackers() []*Token {
	return p.side(true)
}

// Defenders returns the tokens of the side out of possession.
func (p *Pitch) Defenders() []*Token {
	return p.side(false)
}

func (p *Pitch) side(attacking bool) []*Token {
	var out []*Token
	for _, t := range p.tokens {
		if t.IsAttacker == attacking {
			out = append(out, t)
		}
	}
	return out
}

// Goalkeeper returns the side's goalkeeper, or nil.
func (p *Pitch) Goalkeeper(s Side) *Token {
	for _, t := range p.tokens {
		if t.Side == s && t.Goalkeeper {
			return t
		}
	}
	return nil
}

// AttackingEnd is the end the side in possession is attacking.
func (p *Pitch) AttackingEnd() int {
	return p.AttackDirection[p.TeamInAttack]
}

// OwnEnd is the end the given side defends.
func (p *Pitch) OwnEnd(s Side) int {
	return -p.AttackDirection[s]
}

// Place moves t onto c. The destination must be an empty in-bounds cell.
func (p *Pitch) Place(t *Token, c hexboard.Coord) error {
	if p.byID[t.ID] != t {
		return fmt.Errorf("%w: %d", ErrUnknownToken, t.ID)
	}
	if t.Cell == c {
		return nil
	}
	dest := p.Board.Cell(c)
	if dest == nil || !p.Board.InBounds(c) {
		return fmt.Errorf("%w: %v", ErrNoCell, c)
	}
	if other := p.at[c]; other != nil {
		return fmt.Errorf("%w: %v by %s", ErrOccupied, c, other)
	}

	unmark(p.Board.Cell(t.Cell))
	delete(p.at, t.Cell)
	t.Cell = c
	p.at[c] = t
	p.mark(dest, t)
	return nil
}

// Swap exchanges the cells of two tokens.
func (p *Pitch) Swap(a, b *Token) {
	if a == b {
		return
	}
	a.Cell, b.Cell = b.Cell, a.Cell
	p.at[a.Cell] = a
	p.at[b.Cell] = b
	p.mark(p.Board.Cell(a.Cell), a)
	p.mark(p.Board.Cell(b.Cell), b)
}

// PlaceBall puts the ball on c and clears any flight.
func (p *Pitch) PlaceBall(c hexboard.Coord) {
	p.Ball.Cell = c
	p.Ball.InFlight = nil
}

// Launch records a flight towards c. The ball cell is updated at once; the
// flight is kept for presentation only.
func (p *Pitch) Launch(to hexboard.Coord, arc float64) Flight {
	f := Flight{From: p.Ball.Cell, To: to, Arc: arc}
	p.Ball.Cell = to
	p.Ball.InFlight = &f
	return f
}

// Holder returns the token standing on the ball, if any.
func (p *Pitch) Holder() *Token {
	return p.at[p.Ball.Cell]
}

// Touch records t as the last token to play the ball on purpose.
func (p *Pitch) Touch(t *Token) {
	if t == nil || p.LastTouch == t {
		return
	}
	p.PreviousTouch = p.LastTouch
	p.LastTouch = t
}

// ChangePossession flips the team in attack, swaps every cell's occupancy
// flags and recomputes every token's role.
func (p *Pitch) ChangePossession() {
	p.TeamInAttack = p.TeamInAttack.Opponent()
	for _, cell := range p.Board.Cells() {
		cell.AttackOccupied, cell.DefenseOccupied = cell.DefenseOccupied, cell.AttackOccupied
	}
	for _, t := range p.tokens {
		t.IsAttacker = t.Side == p.TeamInAttack
	}
}

// GiveBallTo hands possession to the side of t, flipping if needed.
// It reports whether possession changed.
func (p *Pitch) GiveBallTo(s Side) bool {
	if p.TeamInAttack == s {
		return false
	}
	p.ChangePossession()
	return true
}

// InZOI reports whether c is adjacent to a token of side s.
func (p *Pitch) InZOI(c hexboard.Coord, s Side) bool {
	for _, n := range p.Board.Neighbors(c) {
		if t := p.at[n.Coord]; t != nil && t.Side == s {
			return true
		}
	}
	return false
}

// InDefenderZOI reports whether c is adjacent to a defender.
func (p *Pitch) InDefenderZOI(c hexboard.Coord) bool {
	return p.InZOI(c, p.TeamInAttack.Opponent())
}

// Adjacent returns the tokens of side s adjacent to c, ordered by id.
func (p *Pitch) Adjacent(c hexboard.Coord, s Side) []*Token {
	var out []*Token
	for _, n := range p.Board.Neighbors(c) {
		if t := p.at[n.Coord]; t != nil && t.Side == s {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Near returns the tokens within radius of c (c included), nearest first,
// ties by id.
func (p *Pitch) Near(c hexboard.Coord, radius int) []*Token {
	var out []*Token
	for _, t := range p.tokens {
		if hexboard.Distance(t.Cell, c) <= radius {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := hexboard.Distance(out[i].Cell, c), hexboard.Distance(out[j].Cell, c)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// MoveRules returns the movement rules for t: occupied cells are walls, an
// opposing zone of influence ends the move, and the ball cell may end a
// move but never be crossed.
func (p *Pitch) MoveRules(t *Token) hexboard.MoveRules {
	return hexboard.MoveRules{
		Passable: func(c hexboard.Coord) bool { return p.at[c] == nil },
		Halts:    func(c hexboard.Coord) bool { return p.InZOI(c, t.Side.Opponent()) },
		Through:  func(c hexboard.Coord) bool { return c != p.Ball.Cell },
	}
}

// ResetPhaseFlags clears per-phase markers on every token.
func (p *Pitch) ResetPhaseFlags() {
	for _, t := range p.tokens {
		t.Moved = false
		t.Jumped = false
	}
}

// CheckPartition verifies occupancy flags against token positions and roles.
func (p *Pitch) CheckPartition() error {
	for _, cell := range p.Board.Cells() {
		if cell.AttackOccupied && cell.DefenseOccupied {
			return fmt.Errorf("%w: both flags at %v", ErrPartition, cell.Coord)
		}
		t := p.at[cell.Coord]
		switch {
		case t == nil && cell.Occupied():
			return fmt.Errorf("%w: stale flag at %v", ErrPartition, cell.Coord)
		case t != nil && (cell.AttackOccupied != t.IsAttacker || cell.DefenseOccupied == t.IsAttacker):
			return fmt.Errorf("%w: %s flagged wrong at %v", ErrPartition, t, cell.Coord)
		}
	}
	for _, t := range p.tokens {
		if t.IsAttacker != (t.Side == p.TeamInAttack) {
			return fmt.Errorf("%w: %s role out of date", ErrPartition, t)
		}
	}
	return nil
}
