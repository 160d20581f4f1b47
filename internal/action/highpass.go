package action

import (
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

const (
	AerialPassRange  = 15
	HighPassAccuracy = 8
	repositionRadius = 2
	headerRadius     = 2
	highPassArc      = 3.0
	longBallArc      = 4.0
)

type aerialState int

const (
	aerialTarget aerialState = iota
	aerialAttackerMove
	aerialDefenderMove
	aerialAccuracy
	aerialDirection
	aerialDistance
	aerialLandingRolls
)

// HighPass resolves a lofted pass that ends in a header contest or comes to rest.
type HighPass struct {
	base
	state aerialState
	setup Setup

	passer    *pitch.Token
	origin    hexboard.Coord
	pending   *hexboard.Coord
	target    hexboard.Coord
	direction hexboard.Direction
	mover     mover
}

// NewHighPass returns an idle high pass resolver.
func NewHighPass() *HighPass {
	return &HighPass{}
}

func (h *HighPass) Kind() Kind { return KindHighPass }

func (h *HighPass) Activate(env *Env, setup Setup) (Step, error) {
	p := env.Pitch
	holder := p.Holder()
	if holder == nil || !holder.IsAttacker {
		return Step{}, broken("high pass without an attacker on the ball")
	}
	h.Cleanup()
	h.activated = true
	h.setup = setup
	h.passer = holder
	h.origin = holder.Cell

	var targets []hexboard.Coord
	for _, c := range p.Board.Within(h.origin, h.maxDistance()) {
		if h.validate(p, c) == nil {
			targets = append(targets, c)
		}
	}
	h.highlight(ReasonTargets, targets)
	return h.wait(AwaitTarget, "choose a high pass target"), nil
}

func (h *HighPass) maxDistance() int {
	if h.setup.MaxDistance > 0 {
		return h.setup.MaxDistance
	}
	return AerialPassRange
}

func (h *HighPass) validate(p *pitch.Pitch, c hexboard.Coord) error {
	cell := p.Board.Cell(c)
	switch {
	case cell == nil || cell.OutOfBounds:
		return invalid("%v is off the pitch", c)
	case c == h.origin:
		return invalid("cannot pass to yourself")
	case hexboard.Distance(h.origin, c) > h.maxDistance():
		return invalid("%v is beyond %d cells", c, h.maxDistance())
	case cell.DefenseOccupied:
		return invalid("%v is held by a defender", c)
	}
	return nil
}

func (h *HighPass) Handle(env *Env, in Input) (Step, error) {
	p := env.Pitch
	switch h.state {
	case aerialTarget:
		if err := h.expect(in, InputClick, InputForfeit); err != nil {
			return Step{}, err
		}
		if in.Kind == InputForfeit {
			return h.finish(Outcome{Result: ResultCancelled}), nil
		}
		if err := h.validate(p, in.Cell); err != nil {
			return Step{}, err
		}
		if env.needsConfirmation() && (h.pending == nil || *h.pending != in.Cell) {
			c := in.Cell
			h.pending = &c
			h.highlight(ReasonPath, []hexboard.Coord{c})
			return h.wait(AwaitTarget, "click the target again to confirm"), nil
		}
		h.committed = true
		h.target = in.Cell
		p.Touch(h.passer)
		p.HangingPass = pitch.PassHigh
		return h.offerAttackerMove(env), nil

	case aerialAttackerMove, aerialDefenderMove:
		if err := h.expect(in, InputClick, InputForfeit); err != nil {
			return Step{}, err
		}
		if in.Kind == InputClick {
			moved, err := h.mover.click(&h.effects, p, in.Cell)
			if err != nil {
				return Step{}, err
			}
			if moved == nil {
				return h.wait(AwaitTarget, "move one cell"), nil
			}
		}
		h.mover.clear()
		if h.state == aerialAttackerMove {
			return h.offerDefenderMove(env), nil
		}
		h.state = aerialAccuracy
		return h.wait(AwaitRoll, "accuracy roll"), nil

	case aerialAccuracy:
		if err := h.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		total := in.Roll.Value + h.passer.HighPass
		h.rolled("highPassAccuracy", h.passer, in.Roll, total, HighPassAccuracy)
		if total >= HighPassAccuracy {
			return h.land(env, h.target)
		}
		h.state = aerialDirection
		return h.wait(AwaitRoll, "inaccurate: roll for direction"), nil

	case aerialDirection:
		if err := h.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		d, err := hexboard.DirectionFromRoll(in.Roll.Value)
		if err != nil {
			return Step{}, invalid("%v", err)
		}
		h.direction = d
		h.rolled("direction", h.passer, in.Roll, in.Roll.Value, 0)
		h.state = aerialDistance
		return h.wait(AwaitRoll, "roll for distance"), nil

	case aerialDistance:
		if err := h.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		h.rolled("distance", h.passer, in.Roll, in.Roll.Value, 0)
		return h.land(env, hexboard.Step(h.target, h.direction, in.Roll.Value))
	}
	return Step{}, broken("high pass in unknown state %d", h.state)
}

func (h *HighPass) offerAttackerMove(env *Env) Step {
	p := env.Pitch
	eligible := func(t *pitch.Token) bool {
		return t.IsAttacker && t != h.passer && !t.Stunned(p.MovementPhase) &&
			hexboard.Distance(t.Cell, h.target) <= repositionRadius
	}
	if p.TokenAt(h.target) == nil && anyToken(p, eligible) {
		h.state = aerialAttackerMove
		h.mover = mover{steps: 1, eligible: eligible}
		h.highlight(ReasonMovable, cellsOf(filterTokens(p, eligible)))
		return h.wait(AwaitTarget, "attack may move one token one cell, or forfeit")
	}
	return h.offerDefenderMove(env)
}

func (h *HighPass) offerDefenderMove(env *Env) Step {
	p := env.Pitch
	eligible := func(t *pitch.Token) bool {
		return !t.IsAttacker && !t.Stunned(p.MovementPhase) &&
			hexboard.Distance(t.Cell, h.target) <= repositionRadius
	}
	if anyToken(p, eligible) {
		h.state = aerialDefenderMove
		h.mover = mover{steps: 1, eligible: eligible}
		h.highlight(ReasonMovable, cellsOf(filterTokens(p, eligible)))
		return h.wait(AwaitTarget, "defence may move one token one cell, or forfeit")
	}
	h.state = aerialAccuracy
	return h.wait(AwaitRoll, "accuracy roll")
}

func (h *HighPass) land(env *Env, landing hexboard.Coord) (Step, error) {
	p := env.Pitch
	flight := p.Launch(landing, highPassArc)
	h.moveBall(flight)
	h.logEvent(h.passer, EventHighPass, hexboard.Distance(h.origin, landing), nil, "")

	if out, ok := leftThePitch(p, landing); ok {
		return h.finish(out), nil
	}
	p.PlaceBall(landing)
	if len(headerPool(p, landing)) > 0 {
		return h.finish(Outcome{Result: ResultHandoff, Next: KindHeader, Setup: Setup{Origin: landing}}), nil
	}
	return h.finish(Outcome{Result: ResultCompleted}), nil
}

func (h *HighPass) Cleanup() {
	h.reset()
	h.state = aerialTarget
	h.setup = Setup{}
	h.passer = nil
	h.pending = nil
	h.mover = mover{}
}

// leftThePitch routes a ball that landed outside the playing surface to the
// out-of-bounds resolver.
func leftThePitch(p *pitch.Pitch, landing hexboard.Coord) (Outcome, bool) {
	if bd, _ := p.Board.Exit(landing); bd == hexboard.Inside {
		return Outcome{}, false
	}
	p.PlaceBall(p.Board.Clamp(landing))
	return Outcome{Result: ResultHandoff, Next: KindOutOfBounds, Setup: Setup{Origin: landing}}, true
}

// headerPool lists the tokens able to contest a ball dropping on landing.
func headerPool(p *pitch.Pitch, landing hexboard.Coord) []*pitch.Token {
	var out []*pitch.Token
	for _, t := range p.Near(landing, headerRadius) {
		if !t.Jumped {
			out = append(out, t)
		}
	}
	return out
}

func anyToken(p *pitch.Pitch, pred func(*pitch.Token) bool) bool {
	return len(filterTokens(p, pred)) > 0
}

func filterTokens(p *pitch.Pitch, pred func(*pitch.Token) bool) []*pitch.Token {
	var out []*pitch.Token
	for _, t := range p.Tokens() {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}
