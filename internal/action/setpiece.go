package action

import (
	"fmt"

	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

// RestartRing is how close defenders may stand to a restart spot, exclusive.
const RestartRing = 2

// Set-piece stage names.
const (
	StageKickerSelection     = "kickerSelection"
	StageAttackingGoalkeeper = "attackingGoalkeeper"
	StageDefendingGoalkeeper = "defendingGoalkeeper"
	StageBlock1              = "block1"
	StageBlock2              = "block2"
	StageBlock3              = "block3"
	StageFinalRepositioning  = "finalRepositioning"
	StageKickerConfirmation  = "kickerConfirmation"
	StageExecutionMenu       = "executionMenu"
	StageRepositioning       = "repositioning"
)

type stageKind int

const (
	stageKicker stageKind = iota
	stageMoves
	stageConfirm
	stageMenu
)

// turn is one side's bounded batch of repositioning moves.
type turn struct {
	attacking  bool
	quota      int
	keeperOnly bool
}

type stage struct {
	name  string
	kind  stageKind
	turns []turn
}

func moves(name string, turns ...turn) stage {
	return stage{name: name, kind: stageMoves, turns: turns}
}

var (
	kickerStage  = stage{name: StageKickerSelection, kind: stageKicker}
	confirmStage = stage{name: StageKickerConfirmation, kind: stageConfirm}
	menuStage    = stage{name: StageExecutionMenu, kind: stageMenu}
)

func script(kind Kind) []stage {
	switch kind {
	case KindFreeKick:
		return []stage{
			kickerStage,
			moves(StageAttackingGoalkeeper, turn{attacking: true, quota: 1, keeperOnly: true}),
			moves(StageDefendingGoalkeeper, turn{quota: 1, keeperOnly: true}),
			moves(StageBlock1, turn{attacking: true, quota: 2}, turn{quota: 2}),
			moves(StageBlock2, turn{attacking: true, quota: 2}, turn{quota: 2}),
			moves(StageBlock3, turn{attacking: true, quota: 2}, turn{quota: 2}),
			moves(StageFinalRepositioning, turn{attacking: true, quota: 2}, turn{quota: 2}),
			confirmStage,
			menuStage,
		}
	case KindCorner:
		return []stage{
			kickerStage,
			moves(StageRepositioning, turn{attacking: true, quota: 3}, turn{quota: 3}),
			menuStage,
		}
	case KindThrowIn:
		return []stage{kickerStage}
	case KindGoalKick:
		return []stage{menuStage}
	}
	return nil
}

// SetPiece stages a restart: kicker selection, bounded repositioning turns
// for both sides, then a menu of deliveries that hands off to the matching
// pass or shot resolver.
type SetPiece struct {
	base
	kind   Kind
	stages []stage
	setup  Setup

	spot   hexboard.Coord
	stage  int
	turn   int
	left   int
	kicker *pitch.Token
	mover  mover
}

// NewSetPiece returns an idle resolver for one of the restart kinds.
func NewSetPiece(kind Kind) (*SetPiece, error) {
	stages := script(kind)
	if stages == nil {
		return nil, fmt.Errorf("%s is not a set piece", kind)
	}
	return &SetPiece{kind: kind, stages: stages}, nil
}

func (s *SetPiece) Kind() Kind { return s.kind }

// Stage names the current sub-phase.
func (s *SetPiece) Stage() string {
	if !s.activated || s.stage >= len(s.stages) {
		return ""
	}
	return s.stages[s.stage].name
}

func (s *SetPiece) Activate(env *Env, setup Setup) (Step, error) {
	p := env.Pitch
	if c := p.Board.Cell(setup.Origin); c == nil || c.OutOfBounds {
		return Step{}, broken("%s spot %v is off the pitch", s.kind, setup.Origin)
	}
	s.Cleanup()
	s.activated = true
	s.committed = true
	s.setup = setup
	s.spot = setup.Origin

	p.GiveBallTo(setup.Team)
	p.ResetPhaseFlags()
	if t := p.TokenAt(s.spot); t != nil && t.Side != setup.Team {
		if err := s.clearSpot(p, t); err != nil {
			return Step{}, err
		}
	}
	p.PlaceBall(s.spot)
	if s.kind == KindFreeKick {
		p.HangingPass = pitch.PassFreeKick
	}
	s.logEvent(p.TokenAt(s.spot), EventSetPiece, 0, nil, s.kind.String())

	if s.kind == KindGoalKick {
		gk := p.Goalkeeper(setup.Team)
		if gk == nil {
			return Step{}, broken("goal kick without a %s goalkeeper", setup.Team)
		}
		if err := s.takeSpot(p, gk); err != nil {
			return Step{}, err
		}
	}
	return s.enter(env), nil
}

// clearSpot moves t to the nearest free cell outside the restart ring.
func (s *SetPiece) clearSpot(p *pitch.Pitch, t *pitch.Token) error {
	for _, c := range p.Board.Within(s.spot, RestartRing+2) {
		if hexboard.Distance(c, s.spot) <= RestartRing || !p.Board.InBounds(c) || p.TokenAt(c) != nil {
			continue
		}
		if err := p.Place(t, c); err != nil {
			return broken("clearing %v: %v", s.spot, err)
		}
		s.moveToken(t, c)
		return nil
	}
	return broken("no room to clear %s off %v", t, s.spot)
}

// takeSpot puts t on the spot, swapping with a team mate already there.
func (s *SetPiece) takeSpot(p *pitch.Pitch, t *pitch.Token) error {
	if other := p.TokenAt(s.spot); other != nil && other != t {
		from := t.Cell
		p.Swap(t, other)
		s.moveToken(other, from)
	} else if err := p.Place(t, s.spot); err != nil {
		return broken("placing kicker: %v", err)
	}
	s.moveToken(t, s.spot)
	s.kicker = t
	p.Touch(t)
	return nil
}

func (s *SetPiece) current() stage {
	return s.stages[s.stage]
}

// enter parks the resolver at the current stage, skipping move turns no
// token can use.
func (s *SetPiece) enter(env *Env) Step {
	p := env.Pitch
	for s.stage < len(s.stages) {
		st := s.current()
		switch st.kind {
		case stageKicker:
			s.highlight(ReasonMovable, cellsOf(filterTokens(p, s.kickerEligible)))
			return s.wait(AwaitTarget, "choose the taker")
		case stageConfirm:
			s.highlight(ReasonTargets, []hexboard.Coord{s.spot})
			return s.wait(AwaitTarget, "click the taker to confirm")
		case stageMenu:
			return s.choose("choose the delivery", s.menu(p))
		}

		for s.turn < len(st.turns) {
			t := st.turns[s.turn]
			eligible := s.moverEligible(t)
			if anyToken(p, eligible) {
				s.left = t.quota
				s.mover = mover{eligible: eligible, forbid: s.forbid(t), ignoreZOI: true}
				s.cmds = append(s.cmds, ClearHighlights{}, Highlight{Cells: cellsOf(filterTokens(p, eligible)), Reason: ReasonMovable})
				if !t.attacking {
					s.cmds = append(s.cmds, Highlight{Cells: s.ring(p), Reason: ReasonRestartRing})
				}
				return s.wait(AwaitTarget, s.turnPrompt(t))
			}
			s.turn++
		}
		s.stage++
		s.turn = 0
	}
	return s.finish(Outcome{Result: ResultCompleted})
}

func (s *SetPiece) turnPrompt(t turn) string {
	side := "defence"
	if t.attacking {
		side = "attack"
	}
	return fmt.Sprintf("%s: %d move(s) left, or forfeit", side, s.left)
}

func (s *SetPiece) kickerEligible(t *pitch.Token) bool {
	return t.Side == s.setup.Team && (!t.Goalkeeper || s.kind != KindThrowIn)
}

func (s *SetPiece) moverEligible(tr turn) func(*pitch.Token) bool {
	return func(t *pitch.Token) bool {
		if t == s.kicker || t.IsAttacker != tr.attacking {
			return false
		}
		return !tr.keeperOnly || t.Goalkeeper
	}
}

func (s *SetPiece) forbid(tr turn) func(hexboard.Coord) bool {
	if tr.attacking {
		return func(c hexboard.Coord) bool { return c == s.spot }
	}
	return func(c hexboard.Coord) bool { return hexboard.Distance(c, s.spot) <= RestartRing }
}

// ring lists the defenders standing inside the restart ring.
func (s *SetPiece) ring(p *pitch.Pitch) []hexboard.Coord {
	var out []hexboard.Coord
	for _, t := range p.Defenders() {
		if hexboard.Distance(t.Cell, s.spot) <= RestartRing {
			out = append(out, t.Cell)
		}
	}
	return out
}

// defenceMovesLeft counts the defending moves still available after the
// current turn's remaining quota.
func (s *SetPiece) defenceMovesLeft() int {
	n := 0
	for i := s.stage; i < len(s.stages); i++ {
		for j, t := range s.stages[i].turns {
			if t.attacking || (i == s.stage && j <= s.turn) {
				continue
			}
			n += t.quota
		}
	}
	return n
}

// MandatoryRetreats is the number of defenders that still have to leave the
// restart ring.
func (s *SetPiece) MandatoryRetreats(p *pitch.Pitch) int {
	return len(s.ring(p))
}

func (s *SetPiece) menu(p *pitch.Pitch) []string {
	switch s.kind {
	case KindFreeKick:
		out := []string{KindGroundPass.String(), KindHighPass.String(), KindLongBall.String()}
		if CanShoot(p) {
			out = append(out, KindShot.String())
		}
		return out
	case KindCorner:
		return []string{KindHighPass.String(), KindGroundPass.String()}
	case KindGoalKick:
		return []string{KindGroundPass.String(), KindHighPass.String(), KindLongBall.String()}
	}
	return nil
}

func (s *SetPiece) Handle(env *Env, in Input) (Step, error) {
	p := env.Pitch
	if err := s.expect(in, InputClick, InputForfeit, InputChoice); err != nil {
		return Step{}, err
	}
	switch st := s.current(); st.kind {
	case stageKicker:
		if in.Kind != InputClick {
			return Step{}, invalid("choose the taker first")
		}
		t := p.TokenAt(in.Cell)
		if t == nil || !s.kickerEligible(t) {
			return Step{}, invalid("%v holds no eligible taker", in.Cell)
		}
		if err := s.takeSpot(p, t); err != nil {
			return Step{}, err
		}
		if s.kind == KindThrowIn {
			return s.finish(Outcome{
				Result: ResultHandoff,
				Next:   KindGroundPass,
				Setup:  Setup{MaxDistance: ShortPassRange, SkipDirectBlock: true},
			}), nil
		}
		return s.advance(env), nil

	case stageConfirm:
		if in.Kind == InputForfeit || (in.Kind == InputClick && in.Cell != s.spot) {
			return Step{}, invalid("confirm the taker on %v", s.spot)
		}
		return s.advance(env), nil

	case stageMenu:
		if in.Kind != InputChoice {
			return Step{}, invalid("choose a delivery")
		}
		return s.deliver(p, in.Choice)
	}
	return s.move(env, in)
}

func (s *SetPiece) move(env *Env, in Input) (Step, error) {
	p := env.Pitch
	tr := s.current().turns[s.turn]
	retreats := s.MandatoryRetreats(p)

	if in.Kind == InputForfeit {
		if !tr.attacking && s.defenceMovesLeft() < retreats {
			return Step{}, invalid("%d defender(s) still inside the ring", retreats)
		}
		return s.nextTurn(env), nil
	}
	if in.Kind != InputClick {
		return Step{}, invalid("move a token or forfeit")
	}

	if sel := s.mover.selected; !tr.attacking && sel != nil && p.TokenAt(in.Cell) == nil {
		inRing := hexboard.Distance(sel.Cell, s.spot) <= RestartRing
		if !inRing && s.left-1+s.defenceMovesLeft() < retreats {
			return Step{}, invalid("move a defender out of the ring first")
		}
	}
	moved, err := s.mover.click(&s.effects, p, in.Cell)
	if err != nil {
		return Step{}, err
	}
	if moved == nil {
		return s.wait(AwaitTarget, "choose a destination"), nil
	}
	s.left--
	if s.left == 0 {
		return s.nextTurn(env), nil
	}
	s.highlight(ReasonMovable, cellsOf(filterTokens(p, s.mover.eligible)))
	return s.wait(AwaitTarget, s.turnPrompt(tr)), nil
}

func (s *SetPiece) nextTurn(env *Env) Step {
	s.mover.clear()
	s.turn++
	if s.turn >= len(s.current().turns) {
		s.stage++
		s.turn = 0
	}
	return s.enter(env)
}

func (s *SetPiece) advance(env *Env) Step {
	s.stage++
	s.turn = 0
	return s.enter(env)
}

func (s *SetPiece) deliver(p *pitch.Pitch, choice string) (Step, error) {
	var offered bool
	for _, o := range s.menu(p) {
		offered = offered || o == choice
	}
	if !offered {
		return Step{}, invalid("%q is not on the menu", choice)
	}
	next, err := ParseKind(choice)
	if err != nil {
		return Step{}, invalid("%v", err)
	}
	setup := Setup{}
	if next == KindGroundPass && s.kind != KindGoalKick {
		setup.MaxDistance = ShortPassRange
	}
	return s.finish(Outcome{Result: ResultHandoff, Next: next, Setup: setup}), nil
}

func (s *SetPiece) Cleanup() {
	s.reset()
	s.setup = Setup{}
	s.stage = 0
	s.turn = 0
	s.left = 0
	s.kicker = nil
	s.mover = mover{}
}
