package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Deterministic(t *testing.T) {
	a, err := NewEngine(42)
	require.NoError(t, err)
	b, err := NewEngine(42)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Roll(), b.Roll())
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestEngine_RollsAreValid(t *testing.T) {
	e, err := NewEngine(7)
	require.NoError(t, err)

	seen := make(map[int]bool)
	jackpots := 0
	for i := 0; i < 2000; i++ {
		r := e.Roll()
		require.NoError(t, r.Validate())
		seen[r.Value] = true
		if r.Jackpot {
			jackpots++
		}
	}
	assert.Len(t, seen, 6)
	assert.Greater(t, jackpots, 0)
}

func TestRoll_Validate(t *testing.T) {
	tests := []struct {
		name    string
		roll    Roll
		wantErr bool
	}{
		{"one", Roll{Value: 1}, false},
		{"six jackpot", Roll{Value: 6, Jackpot: true}, false},
		{"zero", Roll{Value: 0}, true},
		{"seven", Roll{Value: 7}, true},
		{"jackpot on five", Roll{Value: 5, Jackpot: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.roll.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRoll)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScripted(t *testing.T) {
	s := Values(3, 5)
	s.Push(Roll{Value: 6, Jackpot: true})
	assert.Equal(t, 3, s.Remaining())

	assert.Equal(t, Roll{Value: 3}, s.Roll())
	assert.Equal(t, Roll{Value: 5}, s.Roll())
	assert.Equal(t, Roll{Value: 6, Jackpot: true}, s.Roll())
	assert.Equal(t, Roll{Value: 1}, s.Roll(), "exhausted script")

	s.Fallback = Values(4)
	assert.Equal(t, Roll{Value: 4}, s.Roll())
}

func TestRoll_String(t *testing.T) {
	assert.Equal(t, "4", Roll{Value: 4}.String())
	assert.Equal(t, "6*", Roll{Value: 6, Jackpot: true}.String())
}

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	require.NoError(t, err)
	b, err := NewSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
