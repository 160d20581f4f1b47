package action

import (
	"sort"

	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

type jump struct {
	token *pitch.Token
	roll  int
	total int
}

// Header resolves a contest for a ball dropping onto a cell. Every token
// within two cells jumps once; the highest roll plus heading wins.
type Header struct {
	base
	landing hexboard.Coord
	queue   []*pitch.Token
	jumps   []jump
}

// NewHeader returns an idle header resolver.
func NewHeader() *Header {
	return &Header{}
}

func (h *Header) Kind() Kind { return KindHeader }

func (h *Header) rating(p *pitch.Pitch, t *pitch.Token) int {
	cell := p.Board.Cell(t.Cell)
	inOwnBox := cell != nil && cell.PenaltyBox != 0 && cell.PenaltyBox == p.OwnEnd(t.Side)
	return t.AerialRating(inOwnBox)
}

func (h *Header) Activate(env *Env, setup Setup) (Step, error) {
	p := env.Pitch
	if p.Board.Cell(setup.Origin) == nil {
		return Step{}, broken("header on missing cell %v", setup.Origin)
	}
	h.Cleanup()
	h.activated = true
	h.committed = true
	h.landing = setup.Origin
	p.PlaceBall(h.landing)

	var attackers, defenders []*pitch.Token
	for _, t := range headerPool(p, h.landing) {
		if t.IsAttacker {
			attackers = append(attackers, t)
		} else {
			defenders = append(defenders, t)
		}
	}

	switch {
	case len(attackers) == 0 && len(defenders) == 0:
		return h.finish(Outcome{Result: ResultCompleted}), nil
	case len(defenders) == 0:
		return h.win(p, h.best(p, attackers)), nil
	case len(attackers) == 0:
		return h.win(p, h.best(p, defenders)), nil
	}

	h.queue = append(attackers, defenders...)
	h.highlight(ReasonCandidates, cellsOf(h.queue))
	return h.wait(AwaitRoll, "header roll for "+h.queue[0].String()), nil
}

// best picks the strongest header among one side, nearest on ties.
func (h *Header) best(p *pitch.Pitch, pool []*pitch.Token) *pitch.Token {
	best := pool[0]
	for _, t := range pool[1:] {
		if h.rating(p, t) > h.rating(p, best) {
			best = t
		}
	}
	return best
}

func (h *Header) Handle(env *Env, in Input) (Step, error) {
	if err := h.expect(in, InputRoll); err != nil {
		return Step{}, err
	}
	if len(h.queue) == 0 {
		return Step{}, broken("header roll with nobody jumping")
	}
	p := env.Pitch
	t := h.queue[0]
	h.queue = h.queue[1:]
	t.Jumped = true

	total := in.Roll.Value + h.rating(p, t)
	h.jumps = append(h.jumps, jump{token: t, roll: in.Roll.Value, total: total})
	h.rolled("header", t, in.Roll, total, 0)

	if len(h.queue) > 0 {
		return h.wait(AwaitRoll, "header roll for "+h.queue[0].String()), nil
	}
	return h.settle(p), nil
}

func (h *Header) settle(p *pitch.Pitch) Step {
	sort.SliceStable(h.jumps, func(i, j int) bool {
		if h.jumps[i].total != h.jumps[j].total {
			return h.jumps[i].total > h.jumps[j].total
		}
		return h.jumps[i].roll > h.jumps[j].roll
	})
	top := h.jumps[0]
	for _, j := range h.jumps[1:] {
		if j.total != top.total || j.roll != top.roll {
			break
		}
		if j.token.Side != top.token.Side {
			h.logEvent(top.token, EventHeader, top.total, j.token, "tie")
			return h.finish(Outcome{
				Result: ResultHandoff,
				Next:   KindLooseBall,
				Setup:  Setup{Origin: h.landing, Hanging: pitch.PassHeader},
			})
		}
	}
	return h.win(p, top.token)
}

func (h *Header) win(p *pitch.Pitch, t *pitch.Token) Step {
	t.Jumped = true
	h.moveBall(p.Launch(t.Cell, 0))
	p.PlaceBall(t.Cell)
	p.Touch(t)
	h.logEvent(t, EventHeader, 0, nil, "won")
	if p.GiveBallTo(t.Side) {
		return h.finish(Outcome{Result: ResultPossessionWon})
	}
	return h.finish(Outcome{Result: ResultCompleted})
}

func (h *Header) Cleanup() {
	h.reset()
	h.landing = hexboard.Coord{}
	h.queue = nil
	h.jumps = nil
}
