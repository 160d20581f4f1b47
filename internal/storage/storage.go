// internal/storage/storage.go
package storage

import "github.com/hexfoot/engine/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Match management
	StartMatch(m *core.Match) error
	EndMatch(r *core.MatchResult) error

	// Token registration
	AddToken(t *core.Token) error

	// Play-by-play recording
	RecordEvent(e *core.Event) error
	RecordPhase(p *core.PhaseChange) error
	RecordRoll(r *core.Roll) error
	RecordBallMove(m *core.BallMove) error
	RecordTokenMove(m *core.TokenMove) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to a replay server.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
