// internal/storage/memory/memory.go
package memory

import (
	"sync"

	"github.com/hexfoot/engine/internal/config"
	"github.com/hexfoot/engine/pkg/core"
)

// TokenRecord groups a token with every path it walked
type TokenRecord struct {
	Token core.Token
	Moves []core.TokenMove
	Rolls []core.Roll
}

// Backend stores match data in memory and exports to JSON
type Backend struct {
	cfg    config.MemoryConfig
	match  *core.Match
	result *core.MatchResult

	tokens map[int]*TokenRecord // keyed by token ID

	events    []core.Event
	phases    []core.PhaseChange
	rolls     []core.Roll
	ballMoves []core.BallMove

	lastExportPath string
	idCounter      uint
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:    cfg,
		tokens: make(map[int]*TokenRecord),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartMatch begins recording a new match
func (b *Backend) StartMatch(m *core.Match) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.match = m
	b.result = nil

	// Reset all collections
	b.tokens = make(map[int]*TokenRecord)
	b.events = nil
	b.phases = nil
	b.rolls = nil
	b.ballMoves = nil
	b.idCounter = 0
	b.lastExportPath = ""

	return nil
}

// EndMatch finalizes and exports the match data
func (b *Backend) EndMatch(r *core.MatchResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.match == nil {
		return nil
	}
	b.result = r
	return b.exportJSON()
}

// AddToken registers a token
func (b *Backend) AddToken(t *core.Token) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens[t.ID] = &TokenRecord{Token: *t}
	return nil
}

// GetToken looks up a registered token
func (b *Backend) GetToken(id int) (*core.Token, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if record, ok := b.tokens[id]; ok {
		return &record.Token, true
	}
	return nil, false
}

// RecordEvent records a play-by-play event and assigns its ID
func (b *Backend) RecordEvent(e *core.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	e.ID = b.idCounter
	b.events = append(b.events, *e)
	return nil
}

// RecordPhase records a phase change
func (b *Backend) RecordPhase(p *core.PhaseChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.phases = append(b.phases, *p)
	return nil
}

// RecordRoll records a roll, also filing it under the rolling token
func (b *Backend) RecordRoll(r *core.Roll) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rolls = append(b.rolls, *r)
	if record, ok := b.tokens[r.TokenID]; ok {
		record.Rolls = append(record.Rolls, *r)
	}
	return nil
}

// RecordBallMove records a ball movement
func (b *Backend) RecordBallMove(m *core.BallMove) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ballMoves = append(b.ballMoves, *m)
	return nil
}

// RecordTokenMove records a token move; moves of unknown tokens are ignored
func (b *Backend) RecordTokenMove(m *core.TokenMove) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if record, ok := b.tokens[m.TokenID]; ok {
		record.Moves = append(record.Moves, *m)
	}
	return nil
}

// Events returns a copy of the recorded events
func (b *Backend) Events() []core.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.Event(nil), b.events...)
}
