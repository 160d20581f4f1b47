package action

import (
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/intercept"
	"github.com/hexfoot/engine/internal/pitch"
)

const (
	// JackpotShotPower beats any save.
	JackpotShotPower = 50
	// keeperReach is the furthest a goalkeeper can be from the lane and still save.
	keeperReach = 3
)

// Miss profiles for off-target shots, keyed by the 1-6 miss roll.
const (
	MissOverTheBar = "overTheBar"
	MissWide       = "wide"
	MissWild       = "wild"
)

// MissProfile maps a miss roll onto how the shot went astray.
func MissProfile(value int) string {
	switch {
	case value <= 2:
		return MissOverTheBar
	case value <= 4:
		return MissWide
	}
	return MissWild
}

// KeeperPenalty is the save modifier for a goalkeeper d cells from the
// lane. ok is false when the keeper is out of reach.
func KeeperPenalty(d int, moved bool) (penalty int, ok bool) {
	switch {
	case d <= 1:
		return 0, true
	case d == 2:
		if moved {
			return -1, true
		}
		return 0, true
	case d == keeperReach:
		if moved {
			return -2, true
		}
		return -1, true
	}
	return 0, false
}

// ShotPower is the strength of a shot. Jackpots override the attribute sum.
func ShotPower(rollValue int, jackpot bool, shooting int, snapshot, outsideBox bool) int {
	if jackpot {
		return JackpotShotPower
	}
	power := rollValue + shooting
	if snapshot {
		power--
	}
	if outsideBox {
		power--
	}
	return power
}

type shotState int

const (
	shotTarget shotState = iota
	shotBlockers
	shotStrike
	shotKeeper
	shotHandling
	shotMiss
)

// Shot resolves an attempt on goal: lane blockers first, then the shooter,
// then the goalkeeper.
type Shot struct {
	base
	state shotState
	setup Setup

	shooter  *pitch.Token
	keeper   *pitch.Token
	origin   hexboard.Coord
	pending  *hexboard.Coord
	goal     hexboard.Coord
	lane     []hexboard.Coord
	pipeline *intercept.Pipeline
	power    int
	penalty  int
}

// NewShot returns an idle shot resolver.
func NewShot() *Shot {
	return &Shot{}
}

func (s *Shot) Kind() Kind { return KindShot }

// CanShoot reports whether the ball holder stands somewhere a shot may be
// taken from.
func CanShoot(p *pitch.Pitch) bool {
	h := p.Holder()
	if h == nil || !h.IsAttacker {
		return false
	}
	cell := p.Board.Cell(h.Cell)
	return cell != nil && cell.CanShootFrom && cell.FinalThird == p.AttackingEnd()
}

func (s *Shot) Activate(env *Env, setup Setup) (Step, error) {
	p := env.Pitch
	if !CanShoot(p) {
		return Step{}, invalid("no shot from here")
	}
	s.Cleanup()
	s.activated = true
	s.setup = setup
	s.shooter = p.Holder()
	s.origin = s.shooter.Cell
	s.highlight(ReasonTargets, p.Board.ShootingTargets(s.origin))
	return s.wait(AwaitTarget, "aim at the goal"), nil
}

func (s *Shot) Handle(env *Env, in Input) (Step, error) {
	p := env.Pitch
	switch s.state {
	case shotTarget:
		if err := s.expect(in, InputClick, InputForfeit); err != nil {
			return Step{}, err
		}
		if in.Kind == InputForfeit {
			return s.finish(Outcome{Result: ResultCancelled}), nil
		}
		lane, ok := p.Board.ShootingLane(s.origin, in.Cell)
		if !ok {
			return Step{}, invalid("%v is not a goal target", in.Cell)
		}
		if env.needsConfirmation() && (s.pending == nil || *s.pending != in.Cell) {
			c := in.Cell
			s.pending = &c
			s.highlight(ReasonPath, lane)
			return s.wait(AwaitTarget, "click the target again to confirm"), nil
		}
		return s.commit(env, in.Cell, lane), nil

	case shotBlockers:
		if err := s.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		attempt, err := s.pipeline.Resolve(in.Roll)
		if err != nil {
			return Step{}, broken("%v", err)
		}
		d := attempt.Candidate.Token
		s.rolled("block", d, in.Roll, in.Roll.Value+d.Tackling, attempt.Required)
		if attempt.Success {
			s.moveBall(p.Launch(d.Cell, 0))
			intercept.Award(p, attempt.Candidate)
			s.logEvent(d, EventBlock, in.Roll.Value, s.shooter, "")
			return s.finish(Outcome{Result: ResultPossessionWon}), nil
		}
		if next, ok := s.pipeline.Next(); ok {
			return s.wait(AwaitRoll, rollPrompt(next)), nil
		}
		s.state = shotStrike
		return s.wait(AwaitRoll, "shot roll"), nil

	case shotStrike:
		if err := s.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		return s.strike(env, in)

	case shotKeeper:
		if err := s.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		save := in.Roll.Value + s.keeper.Saving + s.penalty
		s.rolled("save", s.keeper, in.Roll, save, s.power)
		switch {
		case save > s.power:
			s.state = shotHandling
			return s.wait(AwaitRoll, "handling roll"), nil
		case save == s.power:
			s.logEvent(s.keeper, EventSave, save, s.shooter, "parried")
			return s.loose(p), nil
		}
		return s.scored(p), nil

	case shotHandling:
		if err := s.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		s.rolled("handling", s.keeper, in.Roll, in.Roll.Value, s.keeper.Handling)
		if in.Roll.Value < s.keeper.Handling {
			s.moveBall(p.Launch(s.keeper.Cell, 0))
			p.PlaceBall(s.keeper.Cell)
			p.GiveBallTo(s.keeper.Side)
			p.Touch(s.keeper)
			s.logEvent(s.keeper, EventSave, s.power, s.shooter, "held")
			return s.finish(Outcome{Result: ResultPossessionWon}), nil
		}
		s.logEvent(s.keeper, EventSave, s.power, s.shooter, "spilled")
		return s.loose(p), nil

	case shotMiss:
		if err := s.expect(in, InputRoll); err != nil {
			return Step{}, err
		}
		profile := MissProfile(in.Roll.Value)
		s.rolled("miss", s.shooter, in.Roll, in.Roll.Value, 0)
		s.logEvent(s.shooter, EventShot, 0, nil, profile)
		defending := s.shooter.Side.Opponent()
		return s.finish(Outcome{
			Result: ResultHandoff,
			Next:   KindGoalKick,
			Setup:  Setup{Team: defending, Origin: p.Board.GoalKickSpot(p.OwnEnd(defending))},
		}), nil
	}
	return Step{}, broken("shot in unknown state %d", s.state)
}

func (s *Shot) commit(env *Env, goal hexboard.Coord, lane []hexboard.Coord) Step {
	p := env.Pitch
	s.committed = true
	s.goal = goal
	s.lane = lane
	p.Touch(s.shooter)
	p.HangingPass = pitch.PassShot

	blockers := intercept.Enumerate(p, s.origin, lane, intercept.Options{ExcludeGoalkeeper: true})
	if len(blockers) == 0 {
		s.state = shotStrike
		return s.wait(AwaitRoll, "shot roll")
	}
	s.state = shotBlockers
	s.pipeline = intercept.New(intercept.PassRule, blockers)
	s.highlight(ReasonCandidates, candidateCells(blockers))
	return s.wait(AwaitRoll, rollPrompt(blockers[0]))
}

func (s *Shot) strike(env *Env, in Input) (Step, error) {
	p := env.Pitch
	if in.Roll.Value == 1 {
		s.rolled("shot", s.shooter, in.Roll, 1, 0)
		s.moveBall(p.Launch(s.goal, 1))
		p.PlaceBall(p.Board.Clamp(s.goal))
		s.state = shotMiss
		return s.wait(AwaitRoll, "off target: miss roll"), nil
	}

	outside := p.Board.Cell(s.origin).PenaltyBox != p.AttackingEnd()
	s.power = ShotPower(in.Roll.Value, in.Roll.Jackpot, s.shooter.Shooting, s.setup.Snapshot, outside)
	s.rolled("shot", s.shooter, in.Roll, s.power, 0)

	keeper := p.Goalkeeper(s.shooter.Side.Opponent())
	if keeper == nil {
		return s.scored(p), nil
	}
	penalty, ok := KeeperPenalty(s.keeperDistance(p, keeper), keeper.Moved)
	if !ok {
		return s.scored(p), nil
	}
	s.keeper = keeper
	s.penalty = penalty
	s.state = shotKeeper
	s.highlight(ReasonCandidates, []hexboard.Coord{keeper.Cell})
	return s.wait(AwaitRoll, "save roll for "+keeper.String()), nil
}

// keeperDistance measures how far the keeper has to travel to reach the
// part of the lane inside the box.
func (s *Shot) keeperDistance(p *pitch.Pitch, keeper *pitch.Token) int {
	best := -1
	consider := func(saveOnly bool) {
		for _, c := range s.lane {
			cell := p.Board.Cell(c)
			if cell == nil || cell.Goal != 0 || (saveOnly && !cell.CanSaveFrom) {
				continue
			}
			if d := hexboard.Distance(keeper.Cell, c); best < 0 || d < best {
				best = d
			}
		}
	}
	consider(true)
	if best < 0 {
		consider(false)
	}
	if best < 0 {
		return hexboard.Distance(keeper.Cell, s.goal)
	}
	return best
}

func (s *Shot) scored(p *pitch.Pitch) Step {
	s.moveBall(p.Launch(s.goal, 1))
	p.PlaceBall(s.goal)
	p.Score[s.shooter.Side]++
	s.logEvent(s.shooter, EventGoal, s.power, p.PreviousTouch, "")
	return s.finish(Outcome{Result: ResultGoal, Setup: Setup{Team: s.shooter.Side.Opponent()}})
}

func (s *Shot) loose(p *pitch.Pitch) Step {
	p.PlaceBall(s.keeper.Cell)
	p.Touch(s.keeper)
	return s.finish(Outcome{
		Result: ResultHandoff,
		Next:   KindLooseBall,
		Setup:  Setup{Origin: s.keeper.Cell, Hanging: pitch.PassShot},
	})
}

func (s *Shot) Cleanup() {
	s.reset()
	s.state = shotTarget
	s.setup = Setup{}
	s.shooter = nil
	s.keeper = nil
	s.pending = nil
	s.lane = nil
	if s.pipeline != nil {
		s.pipeline.Clear()
	}
	s.pipeline = nil
	s.power = 0
	s.penalty = 0
}
