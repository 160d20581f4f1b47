// Package database opens the gorm connections used by the SQL recorders and
// reads recorded matches back for replay.
package database

import (
	"errors"
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/hexfoot/engine/internal/model"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrMatchNotFound is returned when no match has the requested ID.
var ErrMatchNotFound = errors.New("match not found")

// Manager handles database connections and operations.
type Manager struct {
	DB *gorm.DB
	// Local is set when the manager fell back to SQLite.
	Local  bool
	Logger zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect opens Postgres, falling back to the SQLite file at sqlitePath
// when Postgres is unreachable.
func (m *Manager) Connect(sqlitePath string) error {
	db, err := GetPostgresDBStandalone()
	if err == nil {
		var sqlDB interface{ Ping() error }
		sqlDB, err = db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
	}
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		db, err = GetSqliteDBStandalone(sqlitePath)
		if err != nil {
			return fmt.Errorf("failed to get local SQLite DB: %w", err)
		}
		m.Local = true
		m.Logger.Info().Str("path", sqlitePath).Msg("Using local SQLite DB")
	} else {
		m.Logger.Info().Msg("Connected to database")
	}
	m.DB = db
	return nil
}

// Setup migrates tables and creates the engine info row if missing.
func (m *Manager) Setup(version string) error {
	if err := Migrate(m.DB, version); err != nil {
		return err
	}
	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// Migrate creates the schema on db. Postgres gets PostGIS and the
// geometry tables; SQLite gets the portable subset.
func Migrate(db *gorm.DB, version string) error {
	if !db.Migrator().HasTable(&model.EngineInfo{}) {
		if err := db.AutoMigrate(&model.EngineInfo{}); err != nil {
			return fmt.Errorf("failed to create engine_info table: %w", err)
		}
		if err := db.Create(&model.EngineInfo{
			Name:        "hexfoot",
			Description: "hexfoot match recorder",
			Version:     version,
		}).Error; err != nil {
			return fmt.Errorf("failed to create engine_info entry: %w", err)
		}
	}

	models := model.DatabaseModelsSQLite
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE Extension IF NOT EXISTS postgis;`).Error; err != nil {
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
		models = model.DatabaseModels
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// PostgresDSN builds the connection string from the db.* config keys.
func PostgresDSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)
}

// GetPostgresDBStandalone returns a connection to the Postgres database using viper config.
func GetPostgresDBStandalone() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetSqliteDBStandalone returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func GetSqliteDBStandalone(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// DumpMemoryDBToDisk vacuums the in-memory database to a disk file.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	// remove existing file if it exists
	if _, err := os.Stat(sqliteFilePath); err == nil {
		if err := os.Remove(sqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	if err := db.Exec("VACUUM INTO 'file:" + sqliteFilePath + "';").Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}

// Recording is a match with everything recorded against it, in turn order.
type Recording struct {
	Match        model.Match
	Tokens       []model.Token
	Events       []model.Event
	PhaseChanges []model.PhaseChange
	Rolls        []model.Roll
	BallMoves    []model.BallMove
}

// LoadRecording reads a match by its UUID.
func LoadRecording(db *gorm.DB, matchUUID string) (*Recording, error) {
	var rec Recording
	err := db.Where("match_uuid = ?", matchUUID).First(&rec.Match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchUUID)
	}
	if err != nil {
		return nil, err
	}

	id := rec.Match.ID
	if err := db.Where("match_id = ?", id).Order("token_id").Find(&rec.Tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}
	if err := db.Where("match_id = ?", id).Order("turn, id").Find(&rec.Events).Error; err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	if err := db.Where("match_id = ?", id).Order("turn, id").Find(&rec.PhaseChanges).Error; err != nil {
		return nil, fmt.Errorf("failed to load phase changes: %w", err)
	}
	if err := db.Where("match_id = ?", id).Order("turn, id").Find(&rec.Rolls).Error; err != nil {
		return nil, fmt.Errorf("failed to load rolls: %w", err)
	}
	if err := db.Where("match_id = ?", id).Order("turn, id").Find(&rec.BallMoves).Error; err != nil {
		return nil, fmt.Errorf("failed to load ball moves: %w", err)
	}
	return &rec, nil
}

// ListMatches returns the most recent matches first.
func ListMatches(db *gorm.DB, limit int) ([]model.Match, error) {
	var out []model.Match
	err := db.Order("start_time DESC").Limit(limit).Find(&out).Error
	return out, err
}
