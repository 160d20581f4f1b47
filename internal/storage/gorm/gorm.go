// Package gormstorage implements storage.Backend on GORM with internal
// queues and a background DB writer goroutine. The postgres and sqlite
// backends wrap it.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hexfoot/engine/internal/database"
	"github.com/hexfoot/engine/internal/logging"
	"github.com/hexfoot/engine/internal/model"
	"github.com/hexfoot/engine/internal/model/convert"
	"github.com/hexfoot/engine/internal/queue"
	"github.com/hexfoot/engine/internal/session"
	"github.com/hexfoot/engine/pkg/core"

	"gorm.io/gorm"
)

// DefaultWriteInterval is the pause between writer cycles.
const DefaultWriteInterval = 2 * time.Second

// ErrNoMatch is returned when a match row is needed before StartMatch.
var ErrNoMatch = errors.New("no match started")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
	Session    *session.Context
	// Spatial stores ball flights as PostGIS line strings as well.
	Spatial bool
	// Version is written to engine_info on first migration.
	Version       string
	WriteInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Tokens     *queue.Queue[model.Token]
	Events     *queue.Queue[model.Event]
	Phases     *queue.Queue[model.PhaseChange]
	Rolls      *queue.Queue[model.Roll]
	BallMoves  *queue.Queue[model.BallMove]
	BallPaths  *queue.Queue[model.BallPath]
	TokenMoves *queue.Queue[model.TokenMove]
}

func newQueues() *queues {
	return &queues{
		Tokens:     queue.New[model.Token](),
		Events:     queue.New[model.Event](),
		Phases:     queue.New[model.PhaseChange](),
		Rolls:      queue.New[model.Roll](),
		BallMoves:  queue.New[model.BallMove](),
		BallPaths:  queue.New[model.BallPath](),
		TokenMoves: queue.New[model.TokenMove](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps     Dependencies
	queues   *queues
	matchID  atomic.Uint64
	stopChan chan struct{}
	stopped  chan struct{}

	// serialises writer cycles with the final flush in EndMatch
	flushMu       sync.Mutex
	lastWriteNano atomic.Int64
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.WriteInterval <= 0 {
		deps.WriteInterval = DefaultWriteInterval
	}
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{
		deps: deps,
	}
}

// DB returns the underlying connection, nil in queue-only mode.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init creates internal queues, runs schema migration, and starts the DB
// writer goroutine. Without a DB the backend only queues.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})
	b.stopped = make(chan struct{})

	if b.deps.DB == nil {
		close(b.stopped)
		return nil
	}

	b.deps.LogManager.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := database.Migrate(b.deps.DB, b.deps.Version); err != nil {
		b.deps.LogManager.WriteLog("setupDB", fmt.Sprintf("Failed to migrate: %s", err), "ERROR")
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.deps.LogManager.WriteLog("setupDB", "Database setup complete", "INFO")

	if b.deps.Spatial && b.deps.DB.Dialector.Name() != "postgres" {
		b.deps.LogManager.WriteLog("setupDB", "Ball paths need PostGIS, disabling", "WARN")
		b.deps.Spatial = false
	}

	go b.writerLoop()
	return nil
}

// Close stops the DB writer goroutine.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	select {
	case <-b.stopChan:
	default:
		close(b.stopChan)
	}
	<-b.stopped
	return nil
}

// StartMatch inserts the match row so queued records can reference it.
func (b *Backend) StartMatch(m *core.Match) error {
	if b.deps.Session != nil {
		b.deps.Session.SetMatch(m)
	}
	if b.deps.DB == nil {
		return nil
	}

	gormMatch := convert.CoreToMatch(*m)
	if err := b.deps.DB.Create(&gormMatch).Error; err != nil {
		return fmt.Errorf("failed to insert new match: %w", err)
	}
	b.matchID.Store(uint64(gormMatch.ID))
	return nil
}

// SetMatchID sets the current match row id for the DB writer (used by CLI tools).
func (b *Backend) SetMatchID(id uint) {
	b.matchID.Store(uint64(id))
}

// MatchID returns the row id of the current match, 0 before StartMatch.
func (b *Backend) MatchID() uint {
	return uint(b.matchID.Load())
}

// EndMatch writes everything still queued and stores the final result on
// the match row.
func (b *Backend) EndMatch(r *core.MatchResult) error {
	if b.deps.DB == nil {
		return nil
	}
	id := b.MatchID()
	if id == 0 {
		return ErrNoMatch
	}

	b.flush()

	end := r.EndTime
	err := b.deps.DB.Model(&model.Match{}).Where("id = ?", id).Updates(map[string]any{
		"end_time":   &end,
		"turns":      r.Turns,
		"home_score": r.HomeScore,
		"away_score": r.AwayScore,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to store match result: %w", err)
	}
	return nil
}

// AddToken converts a core token to GORM and pushes to the write queue.
func (b *Backend) AddToken(t *core.Token) error {
	b.queues.Tokens.Push(convert.CoreToToken(*t))
	return nil
}

// RecordEvent converts and queues a play-by-play event.
func (b *Backend) RecordEvent(e *core.Event) error {
	b.queues.Events.Push(convert.CoreToEvent(*e))
	return nil
}

// RecordPhase converts and queues a phase change.
func (b *Backend) RecordPhase(p *core.PhaseChange) error {
	b.queues.Phases.Push(convert.CoreToPhaseChange(*p))
	return nil
}

// RecordRoll converts and queues a roll.
func (b *Backend) RecordRoll(r *core.Roll) error {
	b.queues.Rolls.Push(convert.CoreToRoll(*r))
	return nil
}

// RecordBallMove converts and queues a ball move, plus its geometry when
// the backend is spatial.
func (b *Backend) RecordBallMove(m *core.BallMove) error {
	b.queues.BallMoves.Push(convert.CoreToBallMove(*m))
	if b.deps.Spatial {
		if path, ok := convert.CoreToBallPath(*m); ok {
			b.queues.BallPaths.Push(path)
		}
	}
	return nil
}

// RecordTokenMove converts and queues a token move.
func (b *Backend) RecordTokenMove(m *core.TokenMove) error {
	b.queues.TokenMoves.Push(convert.CoreToTokenMove(*m))
	return nil
}

// QueueSizes reports pending rows per table for the status monitor.
func (b *Backend) QueueSizes() map[string]int {
	if b.queues == nil {
		return nil
	}
	return map[string]int{
		"tokens":     b.queues.Tokens.Len(),
		"events":     b.queues.Events.Len(),
		"phases":     b.queues.Phases.Len(),
		"rolls":      b.queues.Rolls.Len(),
		"ballMoves":  b.queues.BallMoves.Len(),
		"ballPaths":  b.queues.BallPaths.Len(),
		"tokenMoves": b.queues.TokenMoves.Len(),
	}
}

// GetLastDBWriteDuration returns how long the last writer cycle took.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	return time.Duration(b.lastWriteNano.Load())
}

// writeQueue writes all items from a queue to the database in a transaction.
// Failed batches are pushed back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log func(string, string, string), prepare func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
		tx.Rollback()
		q.Push(items...)
		return
	}

	tx.Commit()
}

// stamp returns a prepare func that sets the match id on every row.
func stamp[T any](matchID uint, set func(*T, uint)) func([]T) {
	return func(items []T) {
		for i := range items {
			set(&items[i], matchID)
		}
	}
}

// flush drains every queue into the database once.
func (b *Backend) flush() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	matchID := b.MatchID()
	if matchID == 0 {
		return
	}
	start := time.Now()
	db := b.deps.DB
	log := b.deps.LogManager.WriteLog

	// tokens first, the other tables reference them by id
	writeQueue(db, b.queues.Tokens, "tokens", log, stamp(matchID, func(t *model.Token, id uint) { t.MatchID = id }))
	writeQueue(db, b.queues.Phases, "phase changes", log, stamp(matchID, func(p *model.PhaseChange, id uint) { p.MatchID = id }))
	writeQueue(db, b.queues.Events, "events", log, stamp(matchID, func(e *model.Event, id uint) { e.MatchID = id }))
	writeQueue(db, b.queues.Rolls, "rolls", log, stamp(matchID, func(r *model.Roll, id uint) { r.MatchID = id }))
	writeQueue(db, b.queues.BallMoves, "ball moves", log, stamp(matchID, func(m *model.BallMove, id uint) { m.MatchID = id }))
	writeQueue(db, b.queues.BallPaths, "ball paths", log, stamp(matchID, func(p *model.BallPath, id uint) { p.MatchID = id }))
	writeQueue(db, b.queues.TokenMoves, "token moves", log, stamp(matchID, func(m *model.TokenMove, id uint) { m.MatchID = id }))

	b.lastWriteNano.Store(int64(time.Since(start)))
}

// writerLoop periodically drains queues into the DB until Close.
func (b *Backend) writerLoop() {
	defer close(b.stopped)
	ticker := time.NewTicker(b.deps.WriteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			b.flush()
			return
		case <-ticker.C:
			b.flush()
		}
	}
}
