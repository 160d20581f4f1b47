package intercept

import (
	"github.com/hexfoot/engine/internal/dice"
	"github.com/hexfoot/engine/internal/pitch"
	"github.com/hexfoot/engine/internal/queue"
)

// tacklingTarget is the roll+tackling total that always intercepts.
const tacklingTarget = 10

// Rule decides the roll a candidate needs.
type Rule struct {
	Name      string
	Threshold func(Candidate) int
}

// PassRule applies to ground passes, first-time passes, shots and throw-ins:
// 5 for a defender standing on the path, 6 otherwise.
var PassRule = Rule{
	Name: "pass",
	Threshold: func(c Candidate) int {
		if c.CausesInvalidity {
			return 5
		}
		return 6
	},
}

// FlatRule applies to long-ball landings and loose balls: always 6.
var FlatRule = Rule{
	Name:      "flat",
	Threshold: func(Candidate) int { return 6 },
}

// Succeeds reports whether roll intercepts for c.
func (r Rule) Succeeds(c Candidate, roll dice.Roll) bool {
	return roll.Value >= r.Threshold(c) || roll.Value+c.Token.Tackling >= tacklingTarget
}

// Attempt records one resolved interception roll.
type Attempt struct {
	Candidate Candidate
	Roll      dice.Roll
	Required  int
	Success   bool
}

// Pipeline resolves candidates in order, one roll per call, stopping at the
// first success.
type Pipeline struct {
	rule     Rule
	pending  *queue.Queue[Candidate]
	attempts []Attempt
	winner   *Candidate
}

// New queues candidates under rule.
func New(rule Rule, candidates []Candidate) *Pipeline {
	q := queue.New[Candidate]()
	q.Push(candidates...)
	return &Pipeline{rule: rule, pending: q}
}

// Pending reports whether another roll is expected.
func (pl *Pipeline) Pending() bool {
	return pl.winner == nil && !pl.pending.Empty()
}

// Next returns the candidate the next roll is for.
func (pl *Pipeline) Next() (Candidate, bool) {
	if pl.winner != nil {
		return Candidate{}, false
	}
	return pl.pending.Peek()
}

// Remaining lists the candidates still to roll.
func (pl *Pipeline) Remaining() []Candidate {
	if pl.winner != nil {
		return nil
	}
	return pl.pending.Items()
}

// Resolve consumes one roll for the nearest pending candidate.
func (pl *Pipeline) Resolve(roll dice.Roll) (Attempt, error) {
	if !pl.Pending() {
		return Attempt{}, ErrNoCandidates
	}
	c := pl.pending.Pop()
	a := Attempt{
		Candidate: c,
		Roll:      roll,
		Required:  pl.rule.Threshold(c),
		Success:   pl.rule.Succeeds(c, roll),
	}
	pl.attempts = append(pl.attempts, a)
	if a.Success {
		pl.winner = &c
		pl.pending.Clear()
	}
	return a, nil
}

// Winner returns the defender who intercepted, if any.
func (pl *Pipeline) Winner() (Candidate, bool) {
	if pl.winner == nil {
		return Candidate{}, false
	}
	return *pl.winner, true
}

// Attempts returns every roll resolved so far.
func (pl *Pipeline) Attempts() []Attempt {
	return pl.attempts
}

// Clear drops all pending candidates and history.
func (pl *Pipeline) Clear() {
	pl.pending.Clear()
	pl.attempts = nil
	pl.winner = nil
}

// Award hands the ball to an intercepting defender: the ball moves to its
// cell and possession flips.
func Award(p *pitch.Pitch, c Candidate) {
	p.PlaceBall(c.Token.Cell)
	p.GiveBallTo(c.Token.Side)
	p.Touch(c.Token)
}
