package match

import (
	"github.com/google/uuid"

	"github.com/hexfoot/engine/internal/action"
	"github.com/hexfoot/engine/internal/pitch"
)

// TokenState is a read-only copy of a token.
type TokenState struct {
	pitch.Token
	Stunned bool `json:"stunned,omitempty"`
}

// State is a point-in-time copy of the match for clients.
type State struct {
	MatchID       uuid.UUID    `json:"matchId"`
	Turn          int          `json:"turn"`
	Phase         string       `json:"phase"`
	Active        string       `json:"active,omitempty"`
	Awaiting      string       `json:"awaiting,omitempty"`
	Stage         string       `json:"stage,omitempty"`
	Available     []string     `json:"available"`
	TeamInAttack  string       `json:"teamInAttack"`
	MovementPhase int          `json:"movementPhase"`
	Score         [2]int       `json:"score"`
	Ball          pitch.Ball   `json:"ball"`
	LastTouch     int          `json:"lastTouch,omitempty"`
	Tokens        []TokenState `json:"tokens"`
}

// Snapshot copies the current match state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.env.Pitch
	s := State{
		MatchID:       e.id,
		Turn:          e.turn,
		Phase:         e.phase.String(),
		TeamInAttack:  p.TeamInAttack.String(),
		MovementPhase: p.MovementPhase,
		Score:         p.Score,
		Ball:          p.Ball,
	}
	if e.active != nil {
		s.Active = e.active.Kind().String()
		s.Awaiting = e.active.Awaiting().String()
		if sp, ok := e.active.(*action.SetPiece); ok {
			s.Stage = sp.Stage()
		}
	}
	for _, k := range e.available() {
		s.Available = append(s.Available, k.String())
	}
	if p.LastTouch != nil {
		s.LastTouch = p.LastTouch.ID
	}
	for _, t := range p.Tokens() {
		s.Tokens = append(s.Tokens, TokenState{Token: *t, Stunned: t.Stunned(p.MovementPhase)})
	}
	return s
}
