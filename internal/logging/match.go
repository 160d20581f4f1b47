package logging

import (
	"context"
	"log/slog"
)

// MatchKey is the group holding the live match attributes on each record.
const MatchKey = "match"

// MatchProvider returns the live match attributes (phase, turn, active
// action), or nil between matches.
type MatchProvider func() []slog.Attr

// matchHandler nests the provider's attributes under MatchKey. A record
// that already carries a match attribute keeps its own, so a worker can log
// the match it is closing after the engine is gone.
type matchHandler struct {
	inner    slog.Handler
	provider MatchProvider
}

func newMatchHandler(inner slog.Handler, provider MatchProvider) *matchHandler {
	return &matchHandler{inner: inner, provider: provider}
}

func (h *matchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *matchHandler) Handle(ctx context.Context, r slog.Record) error {
	if carriesMatch(r) {
		return h.inner.Handle(ctx, r)
	}
	if attrs := h.provider(); len(attrs) > 0 {
		r.AddAttrs(slog.Attr{Key: MatchKey, Value: slog.GroupValue(attrs...)})
	}
	return h.inner.Handle(ctx, r)
}

func (h *matchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newMatchHandler(h.inner.WithAttrs(attrs), h.provider)
}

// WithGroup nests later match attributes inside name as well.
func (h *matchHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return newMatchHandler(h.inner.WithGroup(name), h.provider)
}

func carriesMatch(r slog.Record) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		found = a.Key == MatchKey
		return !found
	})
	return found
}
