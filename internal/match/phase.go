package match

import (
	"fmt"

	"github.com/hexfoot/engine/internal/action"
	"github.com/hexfoot/engine/internal/pitch"
)

// Phase is the single match-level state variable.
type Phase int

const (
	KickOff Phase = iota
	Movement
	EndOfMovement
	StandardPass
	EndOfStandardPass
	FirstTimePass
	EndOfFirstTimePass
	HighPass
	EndOfHighPass
	LongBall
	EndOfLongBall
	Header
	EndOfHeader
	Shot
	LooseBall
	EndOfLooseBall
	PossessionWon
	FreeKick
	Corner
	ThrowIn
	GoalKick
	Goal
	FullTime
)

var phaseNames = map[Phase]string{
	KickOff:            "kickOff",
	Movement:           "movement",
	EndOfMovement:      "endOfMovement",
	StandardPass:       "standardPass",
	EndOfStandardPass:  "endOfStandardPass",
	FirstTimePass:      "firstTimePass",
	EndOfFirstTimePass: "endOfFirstTimePass",
	HighPass:           "highPass",
	EndOfHighPass:      "endOfHighPass",
	LongBall:           "longBall",
	EndOfLongBall:      "endOfLongBall",
	Header:             "header",
	EndOfHeader:        "endOfHeader",
	Shot:               "shot",
	LooseBall:          "looseBall",
	EndOfLooseBall:     "endOfLooseBall",
	PossessionWon:      "possessionWon",
	FreeKick:           "freeKick",
	Corner:             "corner",
	ThrowIn:            "throwIn",
	GoalKick:           "goalKick",
	Goal:               "goal",
	FullTime:           "fullTime",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, error) {
	for p, n := range phaseNames {
		if n == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// activePhase is the phase shown while a resolver of kind runs.
var activePhase = map[action.Kind]Phase{
	action.KindMovement:      Movement,
	action.KindGroundPass:    StandardPass,
	action.KindFirstTimePass: FirstTimePass,
	action.KindHighPass:      HighPass,
	action.KindLongBall:      LongBall,
	action.KindShot:          Shot,
	action.KindHeader:        Header,
	action.KindLooseBall:     LooseBall,
	action.KindOutOfBounds:   LooseBall,
	action.KindFreeKick:      FreeKick,
	action.KindCorner:        Corner,
	action.KindThrowIn:       ThrowIn,
	action.KindGoalKick:      GoalKick,
}

// restPhase is where play settles after a resolver of kind completes with
// the attack keeping the ball.
var restPhase = map[action.Kind]Phase{
	action.KindMovement:      EndOfMovement,
	action.KindGroundPass:    EndOfStandardPass,
	action.KindFirstTimePass: EndOfFirstTimePass,
	action.KindHighPass:      EndOfHighPass,
	action.KindLongBall:      EndOfLongBall,
	action.KindHeader:        EndOfHeader,
	action.KindLooseBall:     EndOfLooseBall,
}

func settle(kind action.Kind, r action.Result) Phase {
	switch r {
	case action.ResultPossessionWon:
		return PossessionWon
	case action.ResultGoal:
		return Goal
	}
	if p, ok := restPhase[kind]; ok {
		return p
	}
	return EndOfMovement
}

// available lists the actions a human may trigger from a resting phase.
func available(phase Phase, p *pitch.Pitch) []action.Kind {
	holder := p.Holder()
	onBall := holder != nil && holder.IsAttacker
	shot := func(out []action.Kind) []action.Kind {
		if action.CanShoot(p) {
			out = append(out, action.KindShot)
		}
		return out
	}

	switch phase {
	case KickOff:
		return []action.Kind{action.KindGroundPass}
	case FullTime, Goal:
		return nil
	case EndOfMovement:
		if !onBall {
			return []action.Kind{action.KindMovement}
		}
		return shot([]action.Kind{action.KindGroundPass, action.KindHighPass, action.KindLongBall})
	case EndOfStandardPass, EndOfHeader:
		if !onBall {
			return []action.Kind{action.KindMovement}
		}
		return shot([]action.Kind{action.KindMovement, action.KindFirstTimePass})
	case EndOfFirstTimePass:
		if !onBall {
			return []action.Kind{action.KindMovement}
		}
		return shot([]action.Kind{action.KindMovement})
	}
	return []action.Kind{action.KindMovement}
}

// snapshotPhases are the resting phases where a shot is struck first time.
var snapshotPhases = map[Phase]bool{
	EndOfStandardPass:  true,
	EndOfFirstTimePass: true,
	EndOfHeader:        true,
}
