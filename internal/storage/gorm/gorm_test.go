package gormstorage

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/hexfoot/engine/internal/database"
	"github.com/hexfoot/engine/internal/logging"
	"github.com/hexfoot/engine/internal/model"
	"github.com/hexfoot/engine/internal/queue"
	"github.com/hexfoot/engine/internal/session"
	"github.com/hexfoot/engine/internal/storage"
	"github.com/hexfoot/engine/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestBackend creates a Backend with no DB (queue-only mode for unit testing).
func newTestBackend() *Backend {
	return New(Dependencies{
		DB:         nil,
		LogManager: logging.NewSlogManager(),
		Session:    session.NewContext(),
	})
}

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestNew(t *testing.T) {
	b := newTestBackend()
	require.NotNil(t, b)
	assert.Equal(t, DefaultWriteInterval, b.deps.WriteInterval)
}

func TestInitClose(t *testing.T) {
	b := newTestBackend()

	err := b.Init()
	require.NoError(t, err)
	require.NotNil(t, b.queues)
	require.NotNil(t, b.stopChan)

	require.NoError(t, b.Close())
	// second close is a no-op
	require.NoError(t, b.Close())
}

func TestStartMatch_NoDB_SetsSession(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Init())
	defer b.Close()

	m := &core.Match{ID: uuid.New(), HomeName: "Rovers"}
	require.NoError(t, b.StartMatch(m))
	assert.Equal(t, m, b.deps.Session.GetMatch())
	assert.Equal(t, uint(0), b.MatchID())
}

func TestRecord_QueuesToInternalQueues(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.AddToken(&core.Token{ID: 1, Name: "Okafor", Jersey: 10, Side: "home"}))
	require.NoError(t, b.RecordEvent(&core.Event{Turn: 1, Kind: "groundPass"}))
	require.NoError(t, b.RecordPhase(&core.PhaseChange{Turn: 1, From: "kickOff", To: "standardPass"}))
	require.NoError(t, b.RecordRoll(&core.Roll{Turn: 1, Value: 5}))
	require.NoError(t, b.RecordTokenMove(&core.TokenMove{Turn: 1, TokenID: 1}))

	sizes := b.QueueSizes()
	assert.Equal(t, 1, sizes["tokens"])
	assert.Equal(t, 1, sizes["events"])
	assert.Equal(t, 1, sizes["phases"])
	assert.Equal(t, 1, sizes["rolls"])
	assert.Equal(t, 1, sizes["tokenMoves"])
	assert.Equal(t, 0, sizes["ballMoves"])
}

func TestRecordBallMove_PathOnlyWhenSpatial(t *testing.T) {
	move := &core.BallMove{
		Turn:       2,
		From:       core.Cell{X: 0, Z: 0},
		To:         core.Cell{X: 0, Z: 4},
		Trajectory: `[[0,0,0],[0,2,1.5],[0,4,0]]`,
	}

	b := newTestBackend()
	require.NoError(t, b.Init())
	require.NoError(t, b.RecordBallMove(move))
	assert.Equal(t, 1, b.queues.BallMoves.Len())
	assert.Equal(t, 0, b.queues.BallPaths.Len())
	require.NoError(t, b.Close())

	spatial := New(Dependencies{LogManager: logging.NewSlogManager(), Spatial: true})
	require.NoError(t, spatial.Init())
	defer spatial.Close()
	require.NoError(t, spatial.RecordBallMove(move))
	assert.Equal(t, 1, spatial.queues.BallMoves.Len())
	assert.Equal(t, 1, spatial.queues.BallPaths.Len())
}

func TestEndMatch_NoDB_NoError(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Init())
	defer b.Close()

	assert.NoError(t, b.EndMatch(&core.MatchResult{Turns: 3}))
}

func TestGetLastDBWriteDuration(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Init())
	defer b.Close()

	assert.Equal(t, time.Duration(0), b.GetLastDBWriteDuration())

	b.lastWriteNano.Store(int64(100 * time.Millisecond))
	assert.Equal(t, 100*time.Millisecond, b.GetLastDBWriteDuration())
}

func TestSQLite_FlushAndEndMatch(t *testing.T) {
	db, err := database.GetSqliteDBStandalone(filepath.Join(t.TempDir(), "match.db"))
	require.NoError(t, err)

	b := New(Dependencies{
		DB:            db,
		LogManager:    logging.NewSlogManager(),
		Version:       "test",
		WriteInterval: time.Hour,
	})
	require.NoError(t, b.Init())
	defer b.Close()

	id := uuid.New()
	require.NoError(t, b.StartMatch(&core.Match{
		ID:              id,
		StartTime:       time.Now().UTC(),
		HomeName:        "Rovers",
		AwayName:        "United",
		HomeEnd:         1,
		BoardHalfWidth:  18,
		BoardHalfHeight: 12,
	}))
	require.NotZero(t, b.MatchID())

	require.NoError(t, b.AddToken(&core.Token{ID: 1, Name: "Okafor", Jersey: 10, Side: "home"}))
	require.NoError(t, b.RecordEvent(&core.Event{Turn: 1, Kind: "groundPass", Actor: 1}))
	require.NoError(t, b.RecordPhase(&core.PhaseChange{Turn: 1, From: "kickOff", To: "standardPass"}))
	require.NoError(t, b.RecordRoll(&core.Roll{Turn: 1, Value: 4}))

	end := time.Now().UTC()
	require.NoError(t, b.EndMatch(&core.MatchResult{EndTime: end, Turns: 1, HomeScore: 1}))

	assert.Equal(t, 0, b.queues.Events.Len())

	var stored model.Match
	require.NoError(t, db.First(&stored, b.MatchID()).Error)
	assert.Equal(t, id.String(), stored.MatchUUID)
	assert.Equal(t, 1, stored.Turns)
	assert.Equal(t, 1, stored.HomeScore)
	require.NotNil(t, stored.EndTime)

	var events []model.Event
	require.NoError(t, db.Where("match_id = ?", b.MatchID()).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "groundPass", events[0].Kind)
	assert.Equal(t, 1, events[0].ActorID)

	var tokens int64
	require.NoError(t, db.Model(&model.Token{}).Where("match_id = ?", b.MatchID()).Count(&tokens).Error)
	assert.Equal(t, int64(1), tokens)
}

func TestEndMatch_BeforeStart(t *testing.T) {
	db, err := database.GetSqliteDBStandalone(filepath.Join(t.TempDir(), "match.db"))
	require.NoError(t, err)

	b := New(Dependencies{DB: db, LogManager: logging.NewSlogManager(), WriteInterval: time.Hour})
	require.NoError(t, b.Init())
	defer b.Close()

	assert.ErrorIs(t, b.EndMatch(&core.MatchResult{}), ErrNoMatch)
}

// newTestDB creates an in-memory SQLite DB with auto-migrated tables.
// MaxOpenConns=1 keeps every statement on the one connection that owns
// the in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.DatabaseModelsSQLite...))
	return db
}

func noopLog(_, _, _ string) {}

func TestWriteQueue_Success(t *testing.T) {
	db := newTestDB(t)
	q := queue.New[model.Event]()

	now := time.Now()
	q.Push(model.Event{MatchID: 1, Turn: 1, Kind: "groundPass", Time: now})
	q.Push(model.Event{MatchID: 1, Turn: 2, Kind: "shot", Time: now})

	writeQueue(db, q, "events", noopLog, nil)

	assert.True(t, q.Empty(), "queue should be drained after successful write")

	var count int64
	db.Model(&model.Event{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestWriteQueue_EmptyQueue(t *testing.T) {
	db := newTestDB(t)
	q := queue.New[model.Event]()

	writeQueue(db, q, "events", noopLog, nil)

	var count int64
	db.Model(&model.Event{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestWriteQueue_StampsMatchID(t *testing.T) {
	db := newTestDB(t)
	q := queue.New[model.Roll]()
	q.Push(model.Roll{Turn: 1, Value: 6, Time: time.Now()})

	writeQueue(db, q, "rolls", noopLog, stamp(99, func(r *model.Roll, id uint) { r.MatchID = id }))

	var roll model.Roll
	require.NoError(t, db.First(&roll).Error)
	assert.Equal(t, uint(99), roll.MatchID)
}

func TestWriteQueue_FailureRequeues(t *testing.T) {
	db := newTestDB(t)
	// Drop the table so the insert fails
	require.NoError(t, db.Migrator().DropTable(&model.Event{}))

	q := queue.New[model.Event]()
	q.Push(model.Event{MatchID: 1, Turn: 1, Time: time.Now()})

	var logged atomic.Bool
	logFn := func(_, _, _ string) { logged.Store(true) }

	writeQueue(db, q, "events", logFn, nil)

	assert.True(t, logged.Load(), "error should be logged")
	assert.Equal(t, 1, q.Len(), "failed items should be re-queued")
}
