// Package dice is the single source of randomness for match resolution.
//
// Every die used by the rules is a six-sided die. A roll of 6 additionally
// earns a jackpot when a follow-up coin flip comes up heads.
package dice

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	Sides = 6

	instrumentationName = "github.com/hexfoot/engine/internal/dice"
)

// ErrInvalidRoll is returned when a forced value is outside 1..6.
var ErrInvalidRoll = errors.New("roll value out of range")

// Roll is the outcome of one die.
type Roll struct {
	Value   int  `json:"value"`
	Jackpot bool `json:"jackpot,omitempty"`
}

// Validate checks that the value could have come off a die.
func (r Roll) Validate() error {
	if r.Value < 1 || r.Value > Sides {
		return fmt.Errorf("%w: %d", ErrInvalidRoll, r.Value)
	}
	if r.Jackpot && r.Value != Sides {
		return fmt.Errorf("%w: jackpot on %d", ErrInvalidRoll, r.Value)
	}
	return nil
}

func (r Roll) String() string {
	if r.Jackpot {
		return fmt.Sprintf("%d*", r.Value)
	}
	return fmt.Sprintf("%d", r.Value)
}

// Roller produces rolls.
type Roller interface {
	Roll() Roll
}

// Engine rolls from a seeded pseudo-random source, so a match can be
// replayed from its seed.
type Engine struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed int64

	rolls metric.Int64Counter
}

// NewEngine creates an engine seeded with seed.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewEngine(seed int64) (*Engine, error) {
	m := otel.Meter(instrumentationName)
	rolls, err := m.Int64Counter(
		"dice.rolls",
		metric.WithDescription("Total dice rolled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rolls counter: %w", err)
	}

	return &Engine{
		rng:   rand.New(rand.NewSource(seed)),
		seed:  seed,
		rolls: rolls,
	}, nil
}

// Seed returns the seed the engine was created with.
func (e *Engine) Seed() int64 {
	return e.seed
}

// Roll rolls one die and, on a 6, the jackpot sub-roll.
func (e *Engine) Roll() Roll {
	e.mu.Lock()
	r := Roll{Value: rollDie(e.rng, Sides)}
	if r.Value == Sides {
		r.Jackpot = rollDie(e.rng, 2) == 1
	}
	e.mu.Unlock()

	e.rolls.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Int("value", r.Value), attribute.Bool("jackpot", r.Jackpot)))
	return r
}

// rollDie rolls a single die with the provided number of sides.
func rollDie(rng *rand.Rand, sides int) int {
	return rng.Intn(sides) + 1
}
