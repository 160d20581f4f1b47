package influx

import (
	"context"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/hexfoot/engine/pkg/core"
)

// Backend mirrors match records into the match_data bucket as points so
// they can be charted next to engine performance. It implements
// storage.Backend and is meant to sit in a fanout behind the primary store.
type Backend struct {
	m *Manager

	mu    sync.RWMutex
	match string
	home  string
	away  string
}

// NewBackend wraps a connected manager.
func NewBackend(m *Manager) *Backend {
	return &Backend{m: m}
}

// Init is a no-op; the manager connects on its own.
func (b *Backend) Init() error { return nil }

// Close flushes the manager.
func (b *Backend) Close() error { return b.m.Close() }

// point starts a measurement tagged with the current match.
// Zero timestamps are left for the server to fill in.
func (b *Backend) point(measurement string, ts time.Time) *influxdb2_write.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p := influxdb2_write.NewPointWithMeasurement(measurement)
	tag(p, "match", b.match)
	tag(p, "home", b.home)
	tag(p, "away", b.away)
	if !ts.IsZero() {
		p.SetTime(ts)
	}
	return p
}

// tag skips empty values, which line protocol cannot carry.
func tag(p *influxdb2_write.Point, key, value string) {
	if value != "" {
		p.AddTag(key, value)
	}
}

func (b *Backend) write(p *influxdb2_write.Point) error {
	return b.m.WritePoint(context.Background(), BucketMatch, p)
}

func (b *Backend) StartMatch(m *core.Match) error {
	b.mu.Lock()
	b.match = m.ID.String()
	b.home = m.HomeName
	b.away = m.AwayName
	b.mu.Unlock()

	p := b.point("match_start", m.StartTime).
		AddField("difficulty", m.Difficulty).
		AddField("seed", m.Seed)
	tag(p, "tag", m.Tag)
	return b.write(p)
}

func (b *Backend) EndMatch(r *core.MatchResult) error {
	p := b.point("match_result", r.EndTime).
		AddField("turns", r.Turns).
		AddField("home_score", r.HomeScore).
		AddField("away_score", r.AwayScore)
	return b.write(p)
}

// AddToken is not mirrored; rosters are not time series.
func (b *Backend) AddToken(*core.Token) error { return nil }

func (b *Backend) RecordEvent(e *core.Event) error {
	p := b.point("event", e.Time).
		AddField("turn", e.Turn).
		AddField("actor", e.Actor).
		AddField("connected", e.Connected).
		AddField("value", e.Value)
	tag(p, "kind", e.Kind)
	tag(p, "phase", e.Phase)
	tag(p, "sub_type", e.SubType)
	return b.write(p)
}

func (b *Backend) RecordPhase(pc *core.PhaseChange) error {
	p := b.point("phase_change", pc.Time).
		AddField("turn", pc.Turn).
		AddField("home_score", pc.HomeScore).
		AddField("away_score", pc.AwayScore)
	tag(p, "from", pc.From)
	tag(p, "to", pc.To)
	tag(p, "action", pc.Action)
	tag(p, "result", pc.Result)
	tag(p, "team_in_attack", pc.TeamInAttack)
	return b.write(p)
}

func (b *Backend) RecordRoll(r *core.Roll) error {
	p := b.point("roll", r.Time).
		AddField("turn", r.Turn).
		AddField("token", r.TokenID).
		AddField("value", r.Value).
		AddField("jackpot", r.Jackpot).
		AddField("total", r.Total).
		AddField("target", r.Target)
	tag(p, "purpose", r.Purpose)
	tag(p, "phase", r.Phase)
	return b.write(p)
}

func (b *Backend) RecordBallMove(m *core.BallMove) error {
	p := b.point("ball_move", m.Time).
		AddField("turn", m.Turn).
		AddField("from_x", m.From.X).
		AddField("from_z", m.From.Z).
		AddField("to_x", m.To.X).
		AddField("to_z", m.To.Z).
		AddField("arc", m.Arc)
	return b.write(p)
}

func (b *Backend) RecordTokenMove(m *core.TokenMove) error {
	p := b.point("token_move", m.Time).
		AddField("turn", m.Turn).
		AddField("token", m.TokenID).
		AddField("steps", len(m.Path))
	return b.write(p)
}
