package action

import (
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/intercept"
	"github.com/hexfoot/engine/internal/pitch"
)

const (
	LongBallAccuracy          = 9
	LongBallDangerousAccuracy = 10
	// LongBallClearance is the minimum distance between the target and any attacker.
	LongBallClearance = 6
)

// LongBall resolves a long punt into space. Defenders around the landing
// cell get one flat interception roll each.
type LongBall struct {
	base
	state aerialState
	setup Setup

	passer    *pitch.Token
	origin    hexboard.Coord
	pending   *hexboard.Coord
	target    hexboard.Coord
	landing   hexboard.Coord
	direction hexboard.Direction
	pipeline  *intercept.Pipeline
}

// NewLongBall returns an idle long ball resolver.
func NewLongBall() *LongBall {
	return &LongBall{}
}

func (l *LongBall) Kind() Kind { return KindLongBall }

func (l *LongBall) Activate(env *Env, setup Setup) (Step, error) {
	p := env.Pitch
	holder := p.Holder()
	if holder == nil || !holder.IsAttacker {
		return Step{}, broken("long ball without an attacker on the ball")
	}
	l.Cleanup()
	l.activated = true
	l.setup = setup
	l.passer = holder
	l.origin = holder.Cell

	var targets []hexboard.Coord
	for _, c := range p.Board.Within(l.origin, AerialPassRange) {
		if l.validate(p, c) == nil {
			targets = append(targets, c)
		}
	}
	l.highlight(ReasonTargets, targets)
	return l.wait(AwaitTarget, "choose a long ball target"), nil
}

func (l *LongBall) validate(p *pitch.Pitch, c hexboard.Coord) error {
	cell := p.Board.Cell(c)
	switch {
	case cell == nil || cell.OutOfBounds:
		return invalid("%v is off the pitch", c)
	case hexboard.Distance(l.origin, c) > AerialPassRange:
		return invalid("%v is beyond %d cells", c, AerialPassRange)
	case cell.Occupied():
		return invalid("%v is occupied", c)
	case p.InDefenderZOI(c):
		return invalid("%v is covered by a defender", c)
	}
	for _, t := range p.Attackers() {
		if hexboard.Distance(t.Cell, c) < LongBallClearance {
			return invalid("%v is within %d of %s", c, LongBallClearance-1, t)
		}
	}
	return nil
}

// Dangerous reports whether a long ball from a to b crosses a final-third line.
func Dangerous(p *pitch.Pitch, a, b hexboard.Coord) bool {
	return p.Board.Cell(a).FinalThird != p.Board.Cell(b).FinalThird
}

func (l *LongBall) threshold(p *pitch.Pitch) int {
	if Dangerous(p, l.origin, l.target) {
		return LongBallDangerousAccuracy
	}
	return LongBallAccuracy
}

func (l *LongBall) Handle(env *Env, in Input) (Step, error) {
	p := env.Pitch
	switch l.state {
	case aerialTarget:
		if err := l.expect(in, InputClick, InputForfeit); err != nil {
			return Step{}, err
		}
		if in.Kind == InputForfeit {
			return l.finish(Outcome{Result: ResultCancelled}), nil
		}
		if err := l.validate(p, in.Cell); err != nil {
			return Step{}, err
		}
		if env.needsConfirmation() && (l.pending == nil || *l.pending != in.Cell) {
			c := in.Cell
			l.pending = &c
			l.highlight(ReasonPath, []hexboard.Coord{c})
			return l.wait(AwaitTarget, "click the target again to confirm"), nil
		}
		l.committed = true
		l.target = in.Cell
		p.Touch(l.passer)
		p.HangingPass = pitch.PassLong
		l.state = aerialAccuracy
		return l.wait(AwaitRoll, "accuracy roll"), nil

	case aerialAccuracy:
		if err := l.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		total := in.Roll.Value + l.passer.HighPass
		need := l.threshold(p)
		l.rolled("longBallAccuracy", l.passer, in.Roll, total, need)
		if total >= need {
			return l.land(env, l.target)
		}
		l.state = aerialDirection
		return l.wait(AwaitRoll, "inaccurate: roll for direction"), nil

	case aerialDirection:
		if err := l.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		d, err := hexboard.DirectionFromRoll(in.Roll.Value)
		if err != nil {
			return Step{}, invalid("%v", err)
		}
		l.direction = d
		l.rolled("direction", l.passer, in.Roll, in.Roll.Value, 0)
		l.state = aerialDistance
		return l.wait(AwaitRoll, "roll for distance"), nil

	case aerialDistance:
		if err := l.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		l.rolled("distance", l.passer, in.Roll, in.Roll.Value, 0)
		return l.land(env, hexboard.Step(l.target, l.direction, in.Roll.Value))

	case aerialLandingRolls:
		if err := l.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		attempt, err := l.pipeline.Resolve(in.Roll)
		if err != nil {
			return Step{}, broken("%v", err)
		}
		d := attempt.Candidate.Token
		l.rolled("interception", d, in.Roll, in.Roll.Value+d.Tackling, attempt.Required)
		if attempt.Success {
			intercept.Award(p, attempt.Candidate)
			l.logEvent(d, EventInterception, in.Roll.Value, l.passer, string(pitch.PassLong))
			return l.finish(Outcome{Result: ResultPossessionWon}), nil
		}
		if next, ok := l.pipeline.Next(); ok {
			return l.wait(AwaitRoll, rollPrompt(next)), nil
		}
		return l.finish(Outcome{Result: ResultCompleted}), nil
	}
	return Step{}, broken("long ball in unknown state %d", l.state)
}

func (l *LongBall) land(env *Env, landing hexboard.Coord) (Step, error) {
	p := env.Pitch
	l.landing = landing
	flight := p.Launch(landing, longBallArc)
	l.moveBall(flight)
	l.logEvent(l.passer, EventLongBall, hexboard.Distance(l.origin, landing), nil, "")

	if out, ok := leftThePitch(p, landing); ok {
		return l.finish(out), nil
	}
	p.PlaceBall(landing)

	if t := p.TokenAt(landing); t != nil {
		if t.IsAttacker {
			p.Touch(t)
			return l.finish(Outcome{Result: ResultCompleted}), nil
		}
		p.GiveBallTo(t.Side)
		p.Touch(t)
		l.logEvent(t, EventInterception, 0, l.passer, string(pitch.PassLong))
		return l.finish(Outcome{Result: ResultPossessionWon}), nil
	}

	candidates := intercept.AroundLanding(p, l.origin, landing)
	if len(candidates) == 0 {
		return l.finish(Outcome{Result: ResultCompleted}), nil
	}
	l.state = aerialLandingRolls
	l.pipeline = intercept.New(intercept.FlatRule, candidates)
	l.highlight(ReasonCandidates, candidateCells(candidates))
	return l.wait(AwaitRoll, rollPrompt(candidates[0])), nil
}

func (l *LongBall) Cleanup() {
	l.reset()
	l.state = aerialTarget
	l.setup = Setup{}
	l.passer = nil
	l.pending = nil
	l.landing = hexboard.Coord{}
	if l.pipeline != nil {
		l.pipeline.Clear()
	}
	l.pipeline = nil
}
