package action

import (
	"testing"

	"github.com/hexfoot/engine/internal/pitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dribbleScene(t *testing.T) (*Env, *pitch.Token, *pitch.Token) {
	t.Helper()
	carrier := home(1, c(0, 0), pitch.Attributes{Pace: 4, Dribbling: 4})
	d := away(10, c(0, 1), pitch.Attributes{Pace: 3, Tackling: 3})
	env := newEnv(t, carrier, d)
	env.Pitch.PlaceBall(carrier.Cell)
	return env, carrier, d
}

func startMovement(t *testing.T, env *Env) *Movement {
	t.Helper()
	m := NewMovement()
	step, err := m.Activate(env, Setup{})
	require.NoError(t, err)
	assert.Equal(t, AwaitTarget, step.Await)
	return m
}

func TestMovement_NutmegAttackerWins(t *testing.T) {
	env, carrier, d := dribbleScene(t)
	m := startMovement(t, env)
	assert.Equal(t, 1, env.Pitch.MovementPhase)

	step := drive(t, m, env, click(0, 0), click(0, 1))
	assert.Equal(t, AwaitRoll, step.Await)

	// Defender 2+3+1 = 6 against attacker 5+4 = 9.
	step = drive(t, m, env, roll(2), roll(5))
	require.False(t, step.Done())
	assert.Equal(t, AwaitTarget, step.Await)
	assert.Equal(t, c(0, 2), carrier.Cell)
	assert.Equal(t, c(0, 2), env.Pitch.Ball.Cell)
	assert.Zero(t, d.StunnedUntil, "a nutmegged defender is not stunned")
	assert.Zero(t, carrier.StunnedUntil)
	assert.Equal(t, pitch.Home, env.Pitch.TeamInAttack)
	assert.Equal(t, 2, m.paceLeft)
}

func TestMovement_NutmegDefenderWins(t *testing.T) {
	env, carrier, d := dribbleScene(t)
	m := startMovement(t, env)

	step := drive(t, m, env, click(0, 0), click(0, 1), roll(6), roll(1))
	require.True(t, step.Done())
	assert.Equal(t, ResultPossessionWon, step.Outcome.Result)
	assert.Equal(t, 2, carrier.StunnedUntil)
	assert.Equal(t, d.Cell, env.Pitch.Ball.Cell)
	assert.Equal(t, pitch.Away, env.Pitch.TeamInAttack)
}

func TestMovement_NutmegTieLeavesLooseBall(t *testing.T) {
	env, _, _ := dribbleScene(t)
	m := startMovement(t, env)

	// 2+3+1 = 6 against 2+4 = 6.
	step := drive(t, m, env, click(0, 0), click(0, 1), roll(2), roll(2))
	require.True(t, step.Done())
	assert.Equal(t, ResultHandoff, step.Outcome.Result)
	assert.Equal(t, KindLooseBall, step.Outcome.Next)
	assert.Equal(t, c(0, 0), step.Outcome.Setup.Origin)
	assert.Equal(t, pitch.PassNutmeg, step.Outcome.Setup.Hanging)
}

func TestMovement_NutmegNeedsPace(t *testing.T) {
	env, carrier, _ := dribbleScene(t)
	carrier.Pace = 1
	m := startMovement(t, env)

	drive(t, m, env, click(0, 0))
	_, err := m.Handle(env, click(0, 1))
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, AwaitTarget, m.Awaiting())
}

func TestMovement_BeatenDefenderCannotTackleTheDribbler(t *testing.T) {
	env, _, _ := dribbleScene(t)
	m := startMovement(t, env)

	drive(t, m, env, click(0, 0), click(0, 1), roll(2), roll(5))
	// End the dribble, then hand over to the defence.
	drive(t, m, env, forfeit(), forfeit())
	drive(t, m, env, click(0, 1))

	_, err := m.Handle(env, click(0, 2))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMovement_Tackle(t *testing.T) {
	tests := []struct {
		name       string
		rolls      []Input
		result     Result
		next       Kind
		carrierOut int
		defOut     int
	}{
		{name: "foul", rolls: []Input{roll(1)}, result: ResultHandoff, next: KindFreeKick},
		{name: "defender wins", rolls: []Input{roll(5), roll(2)}, result: ResultPossessionWon, carrierOut: 2},
		{name: "tie", rolls: []Input{roll(4), roll(3)}, result: ResultHandoff, next: KindLooseBall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, carrier, d := dribbleScene(t)
			m := startMovement(t, env)

			step := drive(t, m, env, forfeit(), click(0, 1), click(0, 0))
			assert.Equal(t, AwaitRoll, step.Await)

			step = drive(t, m, env, tt.rolls...)
			require.True(t, step.Done())
			assert.Equal(t, tt.result, step.Outcome.Result)
			assert.Equal(t, tt.next, step.Outcome.Next)
			assert.Equal(t, tt.carrierOut, carrier.StunnedUntil)
			assert.Equal(t, tt.defOut, d.StunnedUntil)
			if tt.next == KindFreeKick {
				assert.Equal(t, pitch.Home, step.Outcome.Setup.Team)
				assert.Equal(t, c(0, 0), step.Outcome.Setup.Origin)
			}
		})
	}
}

func TestMovement_LostTackleStunsDefender(t *testing.T) {
	env, carrier, d := dribbleScene(t)
	m := startMovement(t, env)

	// 2+3 = 5 against 3+4 = 7.
	step := drive(t, m, env, forfeit(), click(0, 1), click(0, 0), roll(2), roll(3))
	require.False(t, step.Done())
	assert.Equal(t, 2, d.StunnedUntil)
	assert.Zero(t, carrier.StunnedUntil)
	assert.Equal(t, c(0, 0), env.Pitch.Ball.Cell)

	_, err := m.Handle(env, click(0, 1))
	require.ErrorIs(t, err, ErrInvalidInput, "stunned defenders cannot act")

	step = drive(t, m, env, forfeit())
	require.True(t, step.Done())
	assert.Equal(t, ResultCompleted, step.Outcome.Result)
}

func TestMovement_DefenderPicksUpFreeBall(t *testing.T) {
	a := home(1, c(-5, 0), pitch.Attributes{Pace: 3})
	d := away(10, c(6, 0), pitch.Attributes{Pace: 4})
	env := newEnv(t, a, d)
	env.Pitch.PlaceBall(c(3, 0))
	m := startMovement(t, env)

	_, err := m.Handle(env, click(6, 0))
	require.ErrorIs(t, err, ErrInvalidInput, "the defence waits for the attack")

	step := drive(t, m, env, forfeit(), click(6, 0), click(3, 0))
	require.True(t, step.Done())
	assert.Equal(t, ResultPossessionWon, step.Outcome.Result)
	assert.Equal(t, pitch.Away, env.Pitch.TeamInAttack)
	assert.Equal(t, d, env.Pitch.LastTouch)
}

func TestMovement_AttackerPicksUpFreeBallAndMovesOnce(t *testing.T) {
	a := home(1, c(0, 0), pitch.Attributes{Pace: 4})
	env := newEnv(t, a, away(10, c(-10, 0), pitch.Attributes{}))
	env.Pitch.PlaceBall(c(3, 0))
	m := startMovement(t, env)

	step := drive(t, m, env, click(0, 0), click(3, 0))
	require.False(t, step.Done())
	assert.Equal(t, a, env.Pitch.LastTouch)
	assert.True(t, a.Moved)
	assert.True(t, m.Committed())

	_, err := m.Handle(env, click(3, 0))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMovement_StunnedTokenSitsOut(t *testing.T) {
	env, carrier, _ := dribbleScene(t)
	carrier.StunnedUntil = 1
	m := startMovement(t, env)

	_, err := m.Handle(env, click(0, 0))
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.False(t, m.Committed())
}

func TestMovement_DribbleOneCellAtATime(t *testing.T) {
	env, carrier, _ := dribbleScene(t)
	m := startMovement(t, env)

	drive(t, m, env, click(0, 0))
	_, err := m.Handle(env, click(0, -2))
	require.ErrorIs(t, err, ErrInvalidInput)

	drive(t, m, env, click(0, -1), click(0, -2))
	assert.Equal(t, c(0, -2), carrier.Cell)
	assert.Equal(t, c(0, -2), env.Pitch.Ball.Cell)
	assert.Equal(t, 2, m.paceLeft)

	drive(t, m, env, click(0, -3), click(0, -4))
	assert.True(t, carrier.Moved)
	assert.Nil(t, m.selected)
}
