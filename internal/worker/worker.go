package worker

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hexfoot/engine/internal/cache"
	"github.com/hexfoot/engine/internal/dispatcher"
	"github.com/hexfoot/engine/internal/logging"
	"github.com/hexfoot/engine/internal/match"
	"github.com/hexfoot/engine/internal/parser"
	"github.com/hexfoot/engine/internal/pitch"
	"github.com/hexfoot/engine/internal/session"
	"github.com/hexfoot/engine/internal/storage"
	"github.com/hexfoot/engine/pkg/core"
)

var (
	// ErrTooEarlyForTokenAssociation is returned when a record names a token
	// that was never registered for the match.
	ErrTooEarlyForTokenAssociation = errors.New("too early for token association")
	// ErrNoMatch is returned for input before StartMatch.
	ErrNoMatch = errors.New("no match in progress")
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	TokenCache    *cache.TokenCache
	LogManager    *logging.SlogManager
	ParserService parser.Service
	Session       *session.Context
}

// Manager connects client commands to the match engine and engine updates
// to the storage backend.
type Manager struct {
	deps    Dependencies
	backend storage.Backend
	out     *dispatcher.Dispatcher

	engine   atomic.Pointer[match.Engine]
	rejected cache.SafeCounter

	done     chan struct{}
	doneOnce sync.Once
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend) *Manager {
	return &Manager{
		deps:    deps,
		backend: backend,
		done:    make(chan struct{}),
	}
}

// Engine returns the engine of the running match, nil before StartMatch.
func (m *Manager) Engine() *match.Engine {
	return m.engine.Load()
}

// Rejected counts inputs refused as invalid since the match started.
func (m *Manager) Rejected() int {
	return m.rejected.Value()
}

// Done is closed when the match reaches full time.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// StartMatch registers the match and its tokens with the backend and starts
// recording engine updates. info.ID is overwritten with the engine's id.
func (m *Manager) StartMatch(e *match.Engine, info *core.Match) error {
	info.ID = e.ID()
	if err := m.backend.StartMatch(info); err != nil {
		return fmt.Errorf("failed to start match: %w", err)
	}
	m.deps.Session.SetMatch(info)
	m.deps.TokenCache.Reset()

	for _, t := range e.Pitch().Tokens() {
		ct := TokenToCore(t)
		m.deps.TokenCache.Add(ct)
		if err := m.backend.AddToken(&ct); err != nil {
			return fmt.Errorf("failed to add token %d: %w", t.ID, err)
		}
	}

	m.rejected.Set(0)
	p := e.Pitch()
	e.Subscribe(func(u match.Update) { m.record(p, u) })
	m.engine.Store(e)

	m.deps.LogManager.Logger().Info("Match started",
		"matchId", info.ID,
		"home", info.HomeName,
		"away", info.AwayName,
		"tokens", m.deps.TokenCache.Len())
	return nil
}

// EndMatch hands the final result to the backend. Recorder queues must be
// drained first (see dispatcher.Close).
func (m *Manager) EndMatch() (*core.MatchResult, error) {
	turn, _, score := m.deps.Session.Status()
	r := &core.MatchResult{
		EndTime:   time.Now(),
		Turns:     turn,
		HomeScore: score[pitch.Home],
		AwayScore: score[pitch.Away],
	}
	if err := m.backend.EndMatch(r); err != nil {
		return r, fmt.Errorf("failed to end match: %w", err)
	}
	m.deps.LogManager.Logger().Info("Match ended",
		"turns", r.Turns,
		"score", fmt.Sprintf("%d-%d", r.HomeScore, r.AwayScore),
		"rejectedInputs", m.Rejected())
	return r, nil
}

// TokenToCore copies the persistent part of a token.
func TokenToCore(t *pitch.Token) core.Token {
	return core.Token{
		ID:         t.ID,
		Name:       t.Name,
		Jersey:     t.Jersey,
		Side:       t.Side.String(),
		Goalkeeper: t.Goalkeeper,
		Pace:       t.Pace,
		Dribbling:  t.Dribbling,
		Heading:    t.Heading,
		HighPass:   t.HighPass,
		Resilience: t.Resilience,
		Shooting:   t.Shooting,
		Tackling:   t.Tackling,
		Aerial:     t.Aerial,
		Saving:     t.Saving,
		Handling:   t.Handling,
		StartCell:  core.Cell{X: t.Cell.X, Z: t.Cell.Z},
	}
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}
