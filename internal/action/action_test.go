package action

import (
	"testing"

	"github.com/hexfoot/engine/internal/dice"
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(x, z int) hexboard.Coord { return hexboard.Coord{X: x, Z: z} }

func home(id int, at hexboard.Coord, a pitch.Attributes) *pitch.Token {
	return &pitch.Token{ID: id, Jersey: id, Side: pitch.Home, Cell: at, Attributes: a}
}

func away(id int, at hexboard.Coord, a pitch.Attributes) *pitch.Token {
	return &pitch.Token{ID: id, Jersey: id, Side: pitch.Away, Cell: at, Attributes: a}
}

// newEnv builds a default board with Home attacking +X and in possession.
func newEnv(t *testing.T, tokens ...*pitch.Token) *Env {
	t.Helper()
	b, err := hexboard.NewBoard(hexboard.DefaultConfig())
	require.NoError(t, err)
	p, err := pitch.New(b, tokens, pitch.Home, 1)
	require.NoError(t, err)
	return &Env{Pitch: p, Difficulty: 3}
}

func click(x, z int) Input  { return Input{Kind: InputClick, Cell: c(x, z)} }
func roll(v int) Input      { return Input{Kind: InputRoll, Roll: dice.Roll{Value: v}} }
func choice(s string) Input { return Input{Kind: InputChoice, Choice: s} }
func forfeit() Input        { return Input{Kind: InputForfeit} }
func jackpot() Input        { return Input{Kind: InputRoll, Roll: dice.Roll{Value: 6, Jackpot: true}} }

// drive feeds inputs in order and returns the last step.
func drive(t *testing.T, r Resolver, env *Env, inputs ...Input) Step {
	t.Helper()
	var step Step
	for i, in := range inputs {
		var err error
		step, err = r.Handle(env, in)
		require.NoError(t, err, "input %d (%s)", i, in.Kind)
	}
	return step
}

func events(cmds []Command) []LogEvent {
	var out []LogEvent
	for _, cmd := range cmds {
		if ev, ok := cmd.(LogEvent); ok {
			out = append(out, ev)
		}
	}
	return out
}

func TestGroundPass_NoDefendersCompletesWithoutRolls(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{})
	receiver := home(2, c(0, 4), pitch.Attributes{})
	env := newEnv(t, passer, receiver)
	env.Pitch.PlaceBall(passer.Cell)

	gp := NewGroundPass()
	step, err := gp.Activate(env, Setup{})
	require.NoError(t, err)
	assert.Equal(t, AwaitTarget, step.Await)
	assert.False(t, gp.Committed())

	step = drive(t, gp, env, click(0, 4))
	require.True(t, step.Done())
	assert.Equal(t, ResultCompleted, step.Outcome.Result)
	assert.Equal(t, c(0, 4), env.Pitch.Ball.Cell)
	assert.Equal(t, receiver, env.Pitch.LastTouch)
	assert.Equal(t, passer, env.Pitch.PreviousTouch)
	assert.Equal(t, pitch.PassGround, env.Pitch.HangingPass)
	assert.False(t, gp.Activated())

	evs := events(step.Commands)
	require.Len(t, evs, 1)
	assert.Equal(t, EventPass, evs[0].Kind)
	assert.Equal(t, 4, evs[0].Value)
	assert.Equal(t, receiver.ID, evs[0].Connected)
	for _, cmd := range step.Commands {
		_, isRoll := cmd.(RollMade)
		assert.False(t, isRoll, "no interception rolls without defenders")
	}
}

func TestGroundPass_ConfirmationOnMediumDifficulty(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{})
	env := newEnv(t, passer, home(2, c(0, 4), pitch.Attributes{}))
	env.Pitch.PlaceBall(passer.Cell)
	env.Difficulty = 2

	gp := NewGroundPass()
	_, err := gp.Activate(env, Setup{})
	require.NoError(t, err)

	step := drive(t, gp, env, click(0, 4))
	assert.False(t, step.Done())
	assert.False(t, gp.Committed())
	assert.Equal(t, c(0, 0), env.Pitch.Ball.Cell)

	step = drive(t, gp, env, click(0, 3))
	assert.False(t, step.Done(), "a different cell restarts confirmation")

	step = drive(t, gp, env, click(0, 3))
	require.True(t, step.Done())
	assert.Equal(t, c(0, 3), env.Pitch.Ball.Cell)
}

func TestGroundPass_InvalidTargetLeavesStateUntouched(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{})
	env := newEnv(t, passer)
	env.Pitch.PlaceBall(passer.Cell)

	gp := NewGroundPass()
	_, err := gp.Activate(env, Setup{MaxDistance: ShortPassRange})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   Input
	}{
		{"beyond range", click(0, 7)},
		{"own cell", click(0, 0)},
		{"off the pitch", click(0, 13)},
		{"roll while aiming", roll(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gp.Handle(env, tt.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, AwaitTarget, gp.Awaiting())
			assert.Equal(t, c(0, 0), env.Pitch.Ball.Cell)
			assert.Nil(t, env.Pitch.LastTouch)
		})
	}
}

func TestGroundPass_InterceptedOnSix(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{})
	d := away(10, c(1, 3), pitch.Attributes{Tackling: 2})
	env := newEnv(t, passer, home(2, c(0, 8), pitch.Attributes{}), d)
	env.Pitch.PlaceBall(passer.Cell)

	gp := NewGroundPass()
	_, err := gp.Activate(env, Setup{})
	require.NoError(t, err)

	step := drive(t, gp, env, click(0, 8))
	assert.Equal(t, AwaitRoll, step.Await)

	step = drive(t, gp, env, roll(6))
	require.True(t, step.Done())
	assert.Equal(t, ResultPossessionWon, step.Outcome.Result)
	assert.Equal(t, d.Cell, env.Pitch.Ball.Cell)
	assert.Equal(t, pitch.Away, env.Pitch.TeamInAttack)
	assert.True(t, d.IsAttacker)
}

func TestGroundPass_ForfeitCancels(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{})
	env := newEnv(t, passer)
	env.Pitch.PlaceBall(passer.Cell)

	gp := NewGroundPass()
	_, err := gp.Activate(env, Setup{})
	require.NoError(t, err)
	step := drive(t, gp, env, forfeit())
	require.True(t, step.Done())
	assert.Equal(t, ResultCancelled, step.Outcome.Result)
}

func TestFirstTimePass_DefenderMayNotStepOntoTarget(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{})
	d := away(10, c(2, 4), pitch.Attributes{Pace: 3})
	env := newEnv(t, passer, home(2, c(0, 5), pitch.Attributes{}), d)
	env.Pitch.PlaceBall(passer.Cell)

	ftp := NewFirstTimePass()
	_, err := ftp.Activate(env, Setup{})
	require.NoError(t, err)

	_, err = ftp.Handle(env, click(0, 7))
	require.ErrorIs(t, err, ErrInvalidInput, "first-time passes reach six cells")

	step := drive(t, ftp, env, click(0, 5))
	assert.Equal(t, AwaitTarget, step.Await)
	assert.True(t, ftp.Committed())

	step = drive(t, ftp, env, forfeit())
	require.True(t, step.Done())
	assert.Equal(t, ResultCompleted, step.Outcome.Result)
	assert.Equal(t, pitch.PassFirst, env.Pitch.HangingPass)
}

func TestLongBall_InaccurateScatter(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{HighPass: 5})
	env := newEnv(t, passer)
	env.Pitch.PlaceBall(passer.Cell)

	lb := NewLongBall()
	_, err := lb.Activate(env, Setup{})
	require.NoError(t, err)

	_, err = lb.Handle(env, click(0, 4))
	require.ErrorIs(t, err, ErrInvalidInput, "too close to an attacker")

	step := drive(t, lb, env, click(0, 10), roll(3))
	assert.Equal(t, AwaitRoll, step.Await, "3+5 misses the accuracy target of 9")

	step = drive(t, lb, env, roll(1), roll(2))
	require.True(t, step.Done())
	assert.Equal(t, ResultCompleted, step.Outcome.Result)
	assert.Equal(t, c(0, 8), env.Pitch.Ball.Cell, "two cells south of the target")
}

func TestLongBall_AccurateAndDangerous(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{HighPass: 5})
	env := newEnv(t, passer)
	env.Pitch.PlaceBall(passer.Cell)
	assert.False(t, Dangerous(env.Pitch, c(0, 0), c(0, 10)))
	assert.True(t, Dangerous(env.Pitch, c(0, 0), c(10, 0)))

	lb := NewLongBall()
	_, err := lb.Activate(env, Setup{})
	require.NoError(t, err)
	step := drive(t, lb, env, click(0, 10), roll(4))
	require.True(t, step.Done())
	assert.Equal(t, c(0, 10), env.Pitch.Ball.Cell)
}

func TestLongBall_LandingInterceptedByZOIDefender(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{HighPass: 5})
	d := away(10, c(0, 7), pitch.Attributes{Tackling: 1})
	env := newEnv(t, passer, d)
	env.Pitch.PlaceBall(passer.Cell)

	lb := NewLongBall()
	_, err := lb.Activate(env, Setup{})
	require.NoError(t, err)

	// Aim clear of the defender, then scatter two cells south into its zone.
	step := drive(t, lb, env, click(0, 10), roll(1), roll(1), roll(2))
	assert.Equal(t, AwaitRoll, step.Await)
	assert.Equal(t, c(0, 8), env.Pitch.Ball.Cell)

	step = drive(t, lb, env, roll(6))
	require.True(t, step.Done())
	assert.Equal(t, ResultPossessionWon, step.Outcome.Result)
	assert.Equal(t, d.Cell, env.Pitch.Ball.Cell)
}

func TestHighPass_LandsIntoHeader(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{HighPass: 4})
	striker := home(2, c(0, 10), pitch.Attributes{Heading: 3})
	d := away(10, c(1, 11), pitch.Attributes{Heading: 2})
	env := newEnv(t, passer, striker, d)
	env.Pitch.PlaceBall(passer.Cell)

	hp := NewHighPass()
	_, err := hp.Activate(env, Setup{})
	require.NoError(t, err)

	// Target occupied by the striker: the attack gets no move, the defence may.
	step := drive(t, hp, env, click(0, 10))
	assert.Equal(t, AwaitTarget, step.Await)
	step = drive(t, hp, env, forfeit())
	assert.Equal(t, AwaitRoll, step.Await)

	step = drive(t, hp, env, roll(4))
	require.True(t, step.Done())
	assert.Equal(t, ResultHandoff, step.Outcome.Result)
	assert.Equal(t, KindHeader, step.Outcome.Next)
	assert.Equal(t, c(0, 10), step.Outcome.Setup.Origin)
}

func TestHighPass_OffThePitch(t *testing.T) {
	passer := home(1, c(0, 5), pitch.Attributes{HighPass: 1})
	env := newEnv(t, passer)
	env.Pitch.PlaceBall(passer.Cell)

	hp := NewHighPass()
	_, err := hp.Activate(env, Setup{})
	require.NoError(t, err)

	step := drive(t, hp, env, click(0, 10), roll(2), roll(4), roll(5))
	require.True(t, step.Done())
	assert.Equal(t, KindOutOfBounds, step.Outcome.Next)
	assert.Equal(t, c(0, 15), step.Outcome.Setup.Origin)
	assert.Equal(t, c(0, 12), env.Pitch.Ball.Cell)
}

func TestNew_EveryKind(t *testing.T) {
	for k := KindMovement; k <= KindGoalKick; k++ {
		r, err := New(k)
		require.NoError(t, err, k.String())
		assert.Equal(t, k, r.Kind())
		assert.False(t, r.Activated())
	}
	_, err := New(KindNone)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("longBall")
	require.NoError(t, err)
	assert.Equal(t, KindLongBall, k)
	_, err = ParseKind("bicycleKick")
	assert.Error(t, err)
}

func TestCleanup_ReturnsResolverToIdle(t *testing.T) {
	passer := home(1, c(0, 0), pitch.Attributes{})
	env := newEnv(t, passer, home(2, c(0, 4), pitch.Attributes{}))
	env.Pitch.PlaceBall(passer.Cell)
	env.Difficulty = 1

	gp := NewGroundPass()
	_, err := gp.Activate(env, Setup{})
	require.NoError(t, err)
	drive(t, gp, env, click(0, 4))

	gp.Cleanup()
	assert.False(t, gp.Activated())
	assert.False(t, gp.Committed())
	assert.Equal(t, AwaitNone, gp.Awaiting())

	_, err = gp.Handle(env, click(0, 4))
	assert.ErrorIs(t, err, ErrNotActivated)

	// A fresh activation must ask for confirmation again.
	_, err = gp.Activate(env, Setup{})
	require.NoError(t, err)
	step := drive(t, gp, env, click(0, 4))
	assert.False(t, step.Done())
}
