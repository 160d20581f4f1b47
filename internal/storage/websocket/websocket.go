// Package websocket streams a match to a replay server as it is played.
package websocket

import (
	"log/slog"

	"github.com/hexfoot/engine/pkg/core"
	"github.com/hexfoot/engine/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams match records over WebSocket to the replay server.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("backend", "websocket")),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartMatch sends the match header and waits for server ack.
func (b *Backend) StartMatch(m *core.Match) error {
	data, err := streaming.Marshal(streaming.TypeStartMatch, streaming.StartMatchPayload{Match: m})
	if err != nil {
		return err
	}
	b.conn.resetReplay(data)
	return b.conn.sendAndWait(data, streaming.TypeStartMatch, ackTimeout)
}

// EndMatch sends the final result and waits for server ack.
func (b *Backend) EndMatch(r *core.MatchResult) error {
	data, err := streaming.Marshal(streaming.TypeEndMatch, r)
	if err != nil {
		return err
	}
	err = b.conn.sendAndWait(data, streaming.TypeEndMatch, ackTimeout)

	// Clear cached state regardless of error.
	b.conn.resetReplay(nil)
	return err
}

// AddToken sends a roster entry. Tokens are replayed after a reconnect
// together with the match header.
func (b *Backend) AddToken(t *core.Token) error {
	data, err := streaming.Marshal(streaming.TypeAddToken, t)
	if err != nil {
		return err
	}
	b.conn.appendReplay(data)
	b.conn.send(data)
	return nil
}

func (b *Backend) RecordEvent(e *core.Event) error {
	return b.sendEnvelope(streaming.TypeEvent, e)
}

func (b *Backend) RecordPhase(p *core.PhaseChange) error {
	return b.sendEnvelope(streaming.TypePhase, p)
}

func (b *Backend) RecordRoll(r *core.Roll) error {
	return b.sendEnvelope(streaming.TypeRoll, r)
}

func (b *Backend) RecordBallMove(m *core.BallMove) error {
	return b.sendEnvelope(streaming.TypeBallMove, m)
}

func (b *Backend) RecordTokenMove(m *core.TokenMove) error {
	return b.sendEnvelope(streaming.TypeTokenMove, m)
}
