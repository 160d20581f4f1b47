// internal/storage/fanout.go
package storage

import (
	"errors"
	"log/slog"

	"github.com/hexfoot/engine/pkg/core"
)

// Fanout writes to a primary backend and mirrors every call to secondary
// sinks. Only the primary's errors are returned; mirror failures are logged.
type Fanout struct {
	primary Backend
	mirrors []Backend
	Logger  *slog.Logger
}

// NewFanout creates a fanout over primary and mirrors.
func NewFanout(primary Backend, mirrors ...Backend) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors}
}

// Uploadable returns the primary backend's export, if it has one.
func (f *Fanout) Uploadable() (Uploadable, bool) {
	u, ok := f.primary.(Uploadable)
	return u, ok
}

func (f *Fanout) each(op string, fn func(Backend) error) error {
	err := fn(f.primary)
	for _, m := range f.mirrors {
		if merr := fn(m); merr != nil {
			f.log().Warn("mirror write failed", "op", op, "error", merr)
		}
	}
	return err
}

func (f *Fanout) log() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

func (f *Fanout) Init() error {
	return f.each("init", Backend.Init)
}

// Close closes every sink and joins their errors.
func (f *Fanout) Close() error {
	errs := []error{f.primary.Close()}
	for _, m := range f.mirrors {
		errs = append(errs, m.Close())
	}
	return errors.Join(errs...)
}

func (f *Fanout) StartMatch(m *core.Match) error {
	return f.each("startMatch", func(b Backend) error { return b.StartMatch(m) })
}

func (f *Fanout) EndMatch(r *core.MatchResult) error {
	return f.each("endMatch", func(b Backend) error { return b.EndMatch(r) })
}

func (f *Fanout) AddToken(t *core.Token) error {
	return f.each("addToken", func(b Backend) error { return b.AddToken(t) })
}

func (f *Fanout) RecordEvent(e *core.Event) error {
	return f.each("recordEvent", func(b Backend) error { return b.RecordEvent(e) })
}

func (f *Fanout) RecordPhase(p *core.PhaseChange) error {
	return f.each("recordPhase", func(b Backend) error { return b.RecordPhase(p) })
}

func (f *Fanout) RecordRoll(r *core.Roll) error {
	return f.each("recordRoll", func(b Backend) error { return b.RecordRoll(r) })
}

func (f *Fanout) RecordBallMove(m *core.BallMove) error {
	return f.each("recordBallMove", func(b Backend) error { return b.RecordBallMove(m) })
}

func (f *Fanout) RecordTokenMove(m *core.TokenMove) error {
	return f.each("recordTokenMove", func(b Backend) error { return b.RecordTokenMove(m) })
}
