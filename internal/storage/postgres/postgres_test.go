package postgres

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/hexfoot/engine/internal/logging"
	"github.com/hexfoot/engine/internal/model"
	"github.com/hexfoot/engine/internal/session"
	"github.com/hexfoot/engine/internal/storage"
	"github.com/hexfoot/engine/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func testDeps() Dependencies {
	return Dependencies{
		LogManager: logging.NewSlogManager(),
		Session:    session.NewContext(),
		Version:    "test",
	}
}

func TestNew_QueuesBallPaths(t *testing.T) {
	b := New(nil, testDeps())
	require.NoError(t, b.Init())
	defer func() { require.NoError(t, b.Close()) }()

	err := b.RecordBallMove(&core.BallMove{
		Turn:       1,
		To:         core.Cell{X: 0, Z: 4},
		Trajectory: "[[0,0,0],[0,3,2],[0,6,0]]",
	})
	require.NoError(t, err)

	sizes := b.QueueSizes()
	assert.Equal(t, 1, sizes["ballMoves"])
	assert.Equal(t, 1, sizes["ballPaths"])
}

func TestInit_WithoutPostGIS_DropsBallPaths(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	b := New(db, testDeps())
	require.NoError(t, b.Init())
	defer func() { require.NoError(t, b.Close()) }()

	var info model.EngineInfo
	require.NoError(t, db.First(&info).Error)
	assert.Equal(t, "hexfoot", info.Name)
	assert.Equal(t, "test", info.Version)
	assert.True(t, db.Migrator().HasTable(&model.Match{}))

	require.NoError(t, b.RecordBallMove(&core.BallMove{Trajectory: "[[0,0],[0,6]]"}))
	assert.Equal(t, 0, b.QueueSizes()["ballPaths"])
}
