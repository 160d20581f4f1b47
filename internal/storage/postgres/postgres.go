// Package postgres implements the storage.Backend interface on PostgreSQL
// with PostGIS. It wraps the GORM backend and adds ball flight geometry.
package postgres

import (
	"fmt"

	"github.com/hexfoot/engine/internal/database"
	"github.com/hexfoot/engine/internal/logging"
	"github.com/hexfoot/engine/internal/session"
	gormstorage "github.com/hexfoot/engine/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend wraps the GORM backend for PostgreSQL.
type Backend struct {
	*gormstorage.Backend
}

// Dependencies holds everything the backend needs besides the connection.
type Dependencies struct {
	LogManager *logging.SlogManager
	Session    *session.Context
	Version    string
}

// Connect opens the database configured under db.* and wraps it.
func Connect(deps Dependencies) (*Backend, error) {
	db, err := database.GetPostgresDBStandalone()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return New(db, deps), nil
}

// New wraps an existing connection.
func New(db *gorm.DB, deps Dependencies) *Backend {
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:         db,
			LogManager: deps.LogManager,
			Session:    deps.Session,
			Spatial:    true,
			Version:    deps.Version,
		}),
	}
}
