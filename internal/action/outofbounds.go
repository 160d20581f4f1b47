package action

import (
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

// OutOfBounds decides the restart for a ball that left the surface. It
// resolves on activation and hands off to the matching set piece.
type OutOfBounds struct {
	base
}

// NewOutOfBounds returns an idle out-of-bounds resolver.
func NewOutOfBounds() *OutOfBounds {
	return &OutOfBounds{}
}

func (o *OutOfBounds) Kind() Kind { return KindOutOfBounds }

// Restart picks the set piece for a ball that left the surface at exit,
// last played by side last.
func Restart(p *pitch.Pitch, exit hexboard.Coord, last pitch.Side) (Kind, Setup, error) {
	bd, end := p.Board.Exit(exit)
	switch bd {
	case hexboard.Touchline:
		return KindThrowIn, Setup{Team: last.Opponent(), Origin: p.Board.Clamp(exit)}, nil
	case hexboard.GoalLine:
		if p.OwnEnd(last) == end {
			return KindCorner, Setup{Team: last.Opponent(), Origin: p.Board.CornerSpot(end, exit.Z)}, nil
		}
		return KindGoalKick, Setup{Team: last.Opponent(), Origin: p.Board.GoalKickSpot(end)}, nil
	}
	return KindNone, Setup{}, broken("%v is inside the pitch", exit)
}

func (o *OutOfBounds) Activate(env *Env, setup Setup) (Step, error) {
	p := env.Pitch
	o.Cleanup()

	last := p.TeamInAttack
	if p.LastTouch != nil {
		last = p.LastTouch.Side
	}
	next, restart, err := Restart(p, setup.Origin, last)
	if err != nil {
		return Step{}, err
	}
	o.activated = true
	o.committed = true
	o.logEvent(p.LastTouch, EventOutOfBounds, 0, nil, next.String())
	env.log().Debug("ball out of play", "exit", setup.Origin, "restart", next, "team", restart.Team)
	return o.finish(Outcome{Result: ResultHandoff, Next: next, Setup: restart}), nil
}

func (o *OutOfBounds) Handle(_ *Env, in Input) (Step, error) {
	return Step{}, o.expect(in)
}

func (o *OutOfBounds) Cleanup() {
	o.reset()
}
