// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; ball flight geometry stays in the ball_moves
// JSON column because SQLite has no PostGIS.
package sqlitestorage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hexfoot/engine/internal/database"
	"github.com/hexfoot/engine/internal/logging"
	"github.com/hexfoot/engine/internal/model"
	"github.com/hexfoot/engine/internal/session"
	gormstorage "github.com/hexfoot/engine/internal/storage/gorm"
	"github.com/hexfoot/engine/pkg/core"

	"gorm.io/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      Config
	log      *logging.SlogManager
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new SQLite storage backend.
func New(cfg Config, logManager *logging.SlogManager, sess *session.Context, version string) (*Backend, error) {
	db, err := database.GetSqliteDBStandalone("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         db,
		LogManager: logManager,
		Session:    sess,
		Version:    version,
	})

	return &Backend{
		Backend:  gormBackend,
		db:       db,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" {
		if err := os.MkdirAll(filepath.Dir(b.cfg.DumpPath), 0755); err != nil {
			return fmt.Errorf("failed to create dump directory: %w", err)
		}
	}

	b.done = make(chan struct{})
	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		go b.dumpLoop()
	} else {
		close(b.done)
	}

	return nil
}

// EndMatch flushes and writes the final result, then dumps the database
// so the file on disk holds the complete match.
func (b *Backend) EndMatch(r *core.MatchResult) error {
	if err := b.Backend.EndMatch(r); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" {
		return nil
	}
	return b.Dump()
}

// Dump writes a point-in-time copy of the database to DumpPath.
func (b *Backend) Dump() error {
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.log.WriteLog("sqlite:dump", fmt.Sprintf("Dumped to disk in %s", time.Since(start)), "DEBUG")
	return nil
}

// Close stops the dump goroutine and closes the embedded GORM backend.
func (b *Backend) Close() error {
	select {
	case <-b.stopChan:
	default:
		close(b.stopChan)
	}
	if b.done != nil {
		<-b.done
	}
	return b.Backend.Close()
}

// GetExportedFilePath returns the dump file for upload.
func (b *Backend) GetExportedFilePath() string {
	return b.cfg.DumpPath
}

// GetExportMetadata describes the dump for the replay server, read back
// from the match row.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	var meta core.UploadMetadata
	id := b.MatchID()
	if id == 0 {
		return meta
	}
	var m model.Match
	if err := b.db.First(&m, id).Error; err != nil {
		return meta
	}
	meta.MatchID = m.MatchUUID
	meta.HomeName = m.HomeName
	meta.AwayName = m.AwayName
	meta.HomeScore = m.HomeScore
	meta.AwayScore = m.AwayScore
	meta.Turns = m.Turns
	meta.Tag = m.Tag
	return meta
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer close(b.done)
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Dump(); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			}
		}
	}
}
