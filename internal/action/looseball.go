package action

import (
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/intercept"
	"github.com/hexfoot/engine/internal/pitch"
)

type looseState int

const (
	looseDirection looseState = iota
	looseDistance
	looseRolls
)

// LooseBall scatters an unclaimed ball: a direction roll, a distance roll
// of half the die rounded up, then flat interception rolls around the cell
// where it settles.
type LooseBall struct {
	base
	state     looseState
	setup     Setup
	origin    hexboard.Coord
	direction hexboard.Direction
	pipeline  *intercept.Pipeline
}

// NewLooseBall returns an idle loose ball resolver.
func NewLooseBall() *LooseBall {
	return &LooseBall{}
}

func (l *LooseBall) Kind() Kind { return KindLooseBall }

// ScatterDistance converts a distance roll into cells travelled.
func ScatterDistance(v int) int {
	return (v + 1) / 2
}

func (l *LooseBall) Activate(env *Env, setup Setup) (Step, error) {
	p := env.Pitch
	if p.Board.Cell(setup.Origin) == nil {
		return Step{}, broken("loose ball from %v", setup.Origin)
	}
	l.Cleanup()
	l.activated = true
	l.committed = true
	l.setup = setup
	l.origin = setup.Origin
	p.PlaceBall(l.origin)
	if setup.Hanging != pitch.PassNone {
		p.HangingPass = setup.Hanging
	}
	l.logEvent(p.LastTouch, EventLooseBall, 0, nil, string(p.HangingPass))
	return l.wait(AwaitRoll, "loose ball: roll for direction"), nil
}

func (l *LooseBall) Handle(env *Env, in Input) (Step, error) {
	if err := l.expect(in, InputRoll); err != nil {
		return Step{}, err
	}
	p := env.Pitch
	switch l.state {
	case looseDirection:
		d, err := hexboard.DirectionFromRoll(in.Roll.Value)
		if err != nil {
			return Step{}, invalid("%v", err)
		}
		l.direction = d
		l.rolled("direction", nil, in.Roll, in.Roll.Value, 0)
		l.state = looseDistance
		return l.wait(AwaitRoll, "loose ball: roll for distance"), nil

	case looseDistance:
		l.rolled("distance", nil, in.Roll, ScatterDistance(in.Roll.Value), 0)
		return l.scatter(p, ScatterDistance(in.Roll.Value)), nil

	case looseRolls:
		attempt, err := l.pipeline.Resolve(in.Roll)
		if err != nil {
			return Step{}, broken("%v", err)
		}
		d := attempt.Candidate.Token
		l.rolled("interception", d, in.Roll, in.Roll.Value+d.Tackling, attempt.Required)
		if attempt.Success {
			intercept.Award(p, attempt.Candidate)
			l.logEvent(d, EventInterception, in.Roll.Value, p.PreviousTouch, string(p.HangingPass))
			return l.finish(Outcome{Result: ResultPossessionWon}), nil
		}
		if next, ok := l.pipeline.Next(); ok {
			return l.wait(AwaitRoll, rollPrompt(next)), nil
		}
		return l.finish(Outcome{Result: ResultCompleted}), nil
	}
	return Step{}, broken("loose ball in unknown state %d", l.state)
}

// scatter walks the ball cell by cell. A token in the way stops it; the
// edge of the surface hands it to the out-of-bounds resolver.
func (l *LooseBall) scatter(p *pitch.Pitch, n int) Step {
	at := l.origin
	for i := 0; i < n; i++ {
		next := hexboard.Step(at, l.direction, 1)
		if out, ok := leftThePitch(p, next); ok {
			l.cmds = append(l.cmds, MoveBall{From: l.origin, To: next})
			return l.finish(out)
		}
		at = next
		if p.TokenAt(at) != nil {
			break
		}
	}
	l.cmds = append(l.cmds, MoveBall{From: l.origin, To: at})
	p.PlaceBall(at)

	if t := p.TokenAt(at); t != nil {
		if t.IsAttacker {
			p.Touch(t)
			l.logEvent(t, EventPickup, 0, nil, string(p.HangingPass))
			return l.finish(Outcome{Result: ResultCompleted})
		}
		p.GiveBallTo(t.Side)
		p.Touch(t)
		l.logEvent(t, EventInterception, 0, nil, string(p.HangingPass))
		return l.finish(Outcome{Result: ResultPossessionWon})
	}

	candidates := intercept.AroundLanding(p, l.origin, at)
	if len(candidates) == 0 {
		return l.finish(Outcome{Result: ResultCompleted})
	}
	l.state = looseRolls
	l.pipeline = intercept.New(intercept.FlatRule, candidates)
	l.highlight(ReasonCandidates, candidateCells(candidates))
	return l.wait(AwaitRoll, rollPrompt(candidates[0]))
}

func (l *LooseBall) Cleanup() {
	l.reset()
	l.state = looseDirection
	l.setup = Setup{}
	if l.pipeline != nil {
		l.pipeline.Clear()
	}
	l.pipeline = nil
}
