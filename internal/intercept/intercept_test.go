package intercept

import (
	"testing"

	"github.com/hexfoot/engine/internal/dice"
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func c(x, z int) hexboard.Coord { return hexboard.Coord{X: x, Z: z} }

func newPitch(t *testing.T, tokens ...*pitch.Token) *pitch.Pitch {
	t.Helper()
	b, err := hexboard.NewBoard(hexboard.DefaultConfig())
	require.NoError(t, err)
	p, err := pitch.New(b, tokens, pitch.Home, 1)
	require.NoError(t, err)
	return p
}

func attacker(id int, at hexboard.Coord) *pitch.Token {
	return &pitch.Token{ID: id, Side: pitch.Home, Cell: at}
}

func defender(id int, at hexboard.Coord, tackling int) *pitch.Token {
	return &pitch.Token{ID: id, Side: pitch.Away, Cell: at, Attributes: pitch.Attributes{Tackling: tackling}}
}

func TestEnumerate_OrdersByDistanceFromOrigin(t *testing.T) {
	passer := attacker(1, c(0, 0))
	receiver := attacker(2, c(0, 8))
	d2 := defender(10, c(1, 2), 2)
	d5 := defender(11, c(1, 5), 2)
	d3 := defender(12, c(1, 3), 2)
	p := newPitch(t, passer, receiver, d2, d5, d3)

	path := Path(p, passer.Cell, receiver.Cell, GroundRadius)
	require.NoError(t, Validate(p, path, Options{}))

	cands := Enumerate(p, passer.Cell, path, Options{})
	require.Len(t, cands, 3)
	assert.Equal(t, []int{2, 3, 5}, []int{cands[0].Distance, cands[1].Distance, cands[2].Distance})
	for _, cand := range cands {
		assert.False(t, cand.CausesInvalidity)
	}
}

func TestPipeline_FailFailSucceed(t *testing.T) {
	passer := attacker(1, c(0, 0))
	receiver := attacker(2, c(0, 8))
	d2 := defender(10, c(1, 2), 2)
	d5 := defender(11, c(1, 5), 2)
	d3 := defender(12, c(1, 3), 2)
	p := newPitch(t, passer, receiver, d2, d5, d3)
	p.PlaceBall(passer.Cell)

	path := Path(p, passer.Cell, receiver.Cell, GroundRadius)
	pl := New(PassRule, Enumerate(p, passer.Cell, path, Options{}))

	var order []int
	for _, v := range []int{3, 4, 6} {
		next, ok := pl.Next()
		require.True(t, ok)
		order = append(order, next.Token.ID)
		_, err := pl.Resolve(dice.Roll{Value: v})
		require.NoError(t, err)
	}
	assert.Equal(t, []int{10, 12, 11}, order)
	assert.False(t, pl.Pending())

	winner, ok := pl.Winner()
	require.True(t, ok)
	Award(p, winner)

	assert.Equal(t, d5.Cell, p.Ball.Cell)
	assert.Equal(t, pitch.Away, p.TeamInAttack)
	assert.True(t, d5.IsAttacker)
	require.NoError(t, p.CheckPartition())

	_, err := pl.Resolve(dice.Roll{Value: 6})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestValidate_DirectBlock(t *testing.T) {
	passer := attacker(1, c(0, 0))
	blocker := defender(10, c(0, 3), 1)
	p := newPitch(t, passer, blocker)

	path := Path(p, passer.Cell, c(0, 6), GroundRadius)
	assert.ErrorIs(t, Validate(p, path, Options{}), ErrPathBlocked)
	assert.NoError(t, Validate(p, path, Options{SkipDirectBlock: true}))

	cands := Enumerate(p, passer.Cell, path, Options{SkipDirectBlock: true})
	require.Len(t, cands, 1)
	assert.True(t, cands[0].CausesInvalidity)
}

func TestEnumerate_AttackerShieldsCell(t *testing.T) {
	passer := attacker(1, c(0, 0))
	shield := attacker(2, c(0, 2))
	// (-1, 2) only touches (0,1) and (0,2) on the path; (0,1) is still open
	lurker := defender(10, c(-1, 2), 1)
	p := newPitch(t, passer, shield, lurker)

	path := Path(p, passer.Cell, c(0, 2), GroundRadius)
	cands := Enumerate(p, passer.Cell, path, Options{})
	require.Len(t, cands, 1, "reachable through the open cell")

	require.NoError(t, p.Place(lurker, c(-1, 3)))
	cands = Enumerate(p, passer.Cell, path, Options{})
	assert.Empty(t, cands, "only touches the shielded cell")
}

func TestEnumerate_ExcludeGoalkeeper(t *testing.T) {
	shooter := attacker(1, c(12, 0))
	keeper := &pitch.Token{ID: 10, Side: pitch.Away, Goalkeeper: true, Cell: c(17, 1)}
	p := newPitch(t, shooter, keeper)

	lane, ok := p.Board.ShootingLane(shooter.Cell, c(19, 0))
	require.True(t, ok)

	assert.NotEmpty(t, Enumerate(p, shooter.Cell, lane, Options{}))
	assert.Empty(t, Enumerate(p, shooter.Cell, lane, Options{ExcludeGoalkeeper: true}))
}

func TestRules(t *testing.T) {
	weak := Candidate{Token: &pitch.Token{}}
	onPath := Candidate{Token: &pitch.Token{}, CausesInvalidity: true}
	strong := Candidate{Token: &pitch.Token{Attributes: pitch.Attributes{Tackling: 5}}}

	tests := []struct {
		name string
		rule Rule
		cand Candidate
		roll int
		want bool
	}{
		{"pass 5 misses", PassRule, weak, 5, false},
		{"pass 6 hits", PassRule, weak, 6, true},
		{"invalidity 5 hits", PassRule, onPath, 5, true},
		{"invalidity 4 misses", PassRule, onPath, 4, false},
		{"tackling reaches ten", PassRule, strong, 5, true},
		{"flat ignores invalidity", FlatRule, onPath, 5, false},
		{"flat tackling", FlatRule, strong, 5, true},
		{"flat 4 misses", FlatRule, strong, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Succeeds(tt.cand, dice.Roll{Value: tt.roll}))
		})
	}
}

func TestAroundLanding(t *testing.T) {
	kicker := attacker(1, c(-6, 0))
	far := defender(10, c(1, 1), 1)
	near := defender(11, c(-1, 1), 1)
	p := newPitch(t, kicker, far, near)

	cands := AroundLanding(p, kicker.Cell, c(0, 0))
	require.Len(t, cands, 2)
	assert.Equal(t, 11, cands[0].Token.ID)
	assert.Equal(t, 10, cands[1].Token.ID)
}

func TestPipeline_ExhaustedWithoutWinner(t *testing.T) {
	d := defender(10, c(1, 1), 1)
	pl := New(FlatRule, []Candidate{{Token: d}})

	a, err := pl.Resolve(dice.Roll{Value: 2})
	require.NoError(t, err)
	assert.False(t, a.Success)
	assert.Equal(t, 6, a.Required)
	assert.False(t, pl.Pending())
	_, ok := pl.Winner()
	assert.False(t, ok)
	assert.Len(t, pl.Attempts(), 1)

	pl.Clear()
	assert.Empty(t, pl.Attempts())
}
