package action

import (
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/intercept"
	"github.com/hexfoot/engine/internal/pitch"
)

const (
	DefaultGroundPassRange    = 11
	DefaultFirstTimePassRange = 6
	ShortPassRange            = 6
)

type groundState int

const (
	groundTarget groundState = iota
	groundDefenderMove
	groundRolls
)

// GroundPass resolves a pass along the ground. The first-time variant adds
// a single one-cell defender step between commit and the interception rolls.
type GroundPass struct {
	base
	kind  Kind
	state groundState
	setup Setup

	passer   *pitch.Token
	origin   hexboard.Coord
	pending  *hexboard.Coord
	target   hexboard.Coord
	path     []hexboard.Coord
	pipeline *intercept.Pipeline
	mover    mover
}

// NewGroundPass returns an idle ground pass resolver.
func NewGroundPass() *GroundPass {
	return &GroundPass{kind: KindGroundPass}
}

// NewFirstTimePass returns an idle first-time pass resolver.
func NewFirstTimePass() *GroundPass {
	return &GroundPass{kind: KindFirstTimePass}
}

func (g *GroundPass) Kind() Kind { return g.kind }

func (g *GroundPass) maxDistance() int {
	if g.setup.MaxDistance > 0 {
		return g.setup.MaxDistance
	}
	if g.kind == KindFirstTimePass {
		return DefaultFirstTimePassRange
	}
	return DefaultGroundPassRange
}

func (g *GroundPass) passType() pitch.PassType {
	switch {
	case g.kind == KindFirstTimePass:
		return pitch.PassFirst
	case g.setup.SkipDirectBlock:
		return pitch.PassThrowIn
	}
	return pitch.PassGround
}

func (g *GroundPass) Activate(env *Env, setup Setup) (Step, error) {
	p := env.Pitch
	holder := p.Holder()
	if holder == nil || !holder.IsAttacker {
		return Step{}, broken("%s without an attacker on the ball", g.kind)
	}
	g.Cleanup()
	g.activated = true
	g.setup = setup
	g.passer = holder
	g.origin = holder.Cell

	g.highlight(ReasonTargets, g.targets(p))
	return g.wait(AwaitTarget, "choose a pass target"), nil
}

func (g *GroundPass) targets(p *pitch.Pitch) []hexboard.Coord {
	var out []hexboard.Coord
	for _, c := range p.Board.Within(g.origin, g.maxDistance()) {
		if g.validate(p, c) == nil {
			out = append(out, c)
		}
	}
	return out
}

func (g *GroundPass) validate(p *pitch.Pitch, c hexboard.Coord) error {
	cell := p.Board.Cell(c)
	switch {
	case cell == nil || cell.OutOfBounds:
		return invalid("%v is off the pitch", c)
	case c == g.origin:
		return invalid("cannot pass to yourself")
	case hexboard.Distance(g.origin, c) > g.maxDistance():
		return invalid("%v is beyond %d cells", c, g.maxDistance())
	case cell.DefenseOccupied:
		return invalid("%v is held by a defender", c)
	}
	path := intercept.Path(p, g.origin, c, intercept.GroundRadius)
	if err := intercept.Validate(p, path, intercept.Options{SkipDirectBlock: g.setup.SkipDirectBlock}); err != nil {
		return invalid("%v", err)
	}
	return nil
}

func (g *GroundPass) Handle(env *Env, in Input) (Step, error) {
	switch g.state {
	case groundTarget:
		if err := g.expect(in, InputClick, InputForfeit); err != nil {
			return Step{}, err
		}
		if in.Kind == InputForfeit {
			return g.finish(Outcome{Result: ResultCancelled}), nil
		}
		return g.chooseTarget(env, in.Cell)

	case groundDefenderMove:
		if err := g.expect(in, InputClick, InputForfeit); err != nil {
			return Step{}, err
		}
		if in.Kind == InputClick {
			moved, err := g.mover.click(&g.effects, env.Pitch, in.Cell)
			if err != nil {
				return Step{}, err
			}
			if moved == nil {
				return g.wait(AwaitTarget, "move the defender one cell"), nil
			}
		}
		g.mover.clear()
		return g.startRolls(env)

	case groundRolls:
		if err := g.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		return g.roll(env, in)
	}
	return Step{}, broken("ground pass in unknown state %d", g.state)
}

func (g *GroundPass) chooseTarget(env *Env, c hexboard.Coord) (Step, error) {
	p := env.Pitch
	if err := g.validate(p, c); err != nil {
		return Step{}, err
	}
	if env.needsConfirmation() && (g.pending == nil || *g.pending != c) {
		g.pending = &c
		g.highlight(ReasonPath, intercept.Path(p, g.origin, c, intercept.GroundRadius))
		return g.wait(AwaitTarget, "click the target again to confirm"), nil
	}

	g.committed = true
	g.target = c
	g.path = intercept.Path(p, g.origin, c, intercept.GroundRadius)
	p.Touch(g.passer)
	p.HangingPass = g.passType()

	if g.kind == KindFirstTimePass {
		g.state = groundDefenderMove
		g.mover = mover{
			steps:  1,
			forbid: func(c hexboard.Coord) bool { return c == g.target },
			eligible: func(t *pitch.Token) bool {
				return !t.IsAttacker && !t.Stunned(p.MovementPhase)
			},
		}
		g.highlight(ReasonMovable, cellsOf(p.Defenders()))
		return g.wait(AwaitTarget, "defence may move one token one cell, or forfeit"), nil
	}
	return g.startRolls(env)
}

func (g *GroundPass) startRolls(env *Env) (Step, error) {
	p := env.Pitch
	opts := intercept.Options{SkipDirectBlock: g.setup.SkipDirectBlock}
	candidates := intercept.Enumerate(p, g.origin, g.path, opts)
	if len(candidates) == 0 {
		return g.complete(env), nil
	}
	g.state = groundRolls
	g.pipeline = intercept.New(intercept.PassRule, candidates)
	g.highlight(ReasonCandidates, candidateCells(candidates))
	return g.wait(AwaitRoll, rollPrompt(candidates[0])), nil
}

func (g *GroundPass) roll(env *Env, in Input) (Step, error) {
	p := env.Pitch
	attempt, err := g.pipeline.Resolve(in.Roll)
	if err != nil {
		return Step{}, broken("%v", err)
	}
	d := attempt.Candidate.Token
	g.rolled("interception", d, in.Roll, in.Roll.Value+d.Tackling, attempt.Required)

	if attempt.Success {
		flight := p.Launch(d.Cell, 0)
		g.moveBall(flight)
		intercept.Award(p, attempt.Candidate)
		g.logEvent(d, EventInterception, in.Roll.Value, g.passer, string(g.passType()))
		env.log().Debug("pass intercepted", "by", d.String(), "roll", in.Roll.Value)
		return g.finish(Outcome{Result: ResultPossessionWon}), nil
	}
	if next, ok := g.pipeline.Next(); ok {
		return g.wait(AwaitRoll, rollPrompt(next)), nil
	}
	return g.complete(env), nil
}

func (g *GroundPass) complete(env *Env) Step {
	p := env.Pitch
	flight := p.Launch(g.target, 0)
	g.moveBall(flight)
	p.PlaceBall(g.target)

	receiver := p.TokenAt(g.target)
	if receiver != nil && receiver.IsAttacker {
		p.Touch(receiver)
	}
	g.logEvent(g.passer, EventPass, hexboard.Distance(g.origin, g.target), receiver, string(g.passType()))
	return g.finish(Outcome{Result: ResultCompleted})
}

func (g *GroundPass) Cleanup() {
	g.reset()
	g.state = groundTarget
	g.setup = Setup{}
	g.passer = nil
	g.pending = nil
	g.path = nil
	if g.pipeline != nil {
		g.pipeline.Clear()
	}
	g.pipeline = nil
	g.mover = mover{}
}

func candidateCells(c []intercept.Candidate) []hexboard.Coord {
	out := make([]hexboard.Coord, len(c))
	for i, cand := range c {
		out[i] = cand.Token.Cell
	}
	return out
}

func rollPrompt(c intercept.Candidate) string {
	return "interception roll for " + c.Token.String()
}
