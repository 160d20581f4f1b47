package worker

import (
	"errors"
	"fmt"

	"github.com/hexfoot/engine/internal/action"
	"github.com/hexfoot/engine/internal/dispatcher"
	"github.com/hexfoot/engine/pkg/core"
)

// Recorder commands. They are dispatched in process from engine updates.
const (
	CmdLogEvent = ":LOG:EVENT:"
	CmdLogPhase = ":LOG:PHASE:"
	CmdLogRoll  = ":LOG:ROLL:"
	CmdLogBall  = ":LOG:BALL:"
	CmdLogMove  = ":LOG:MOVE:"
)

// RegisterHandlers registers all event handlers with the dispatcher.
// Engine updates recorded after this call are queued on d.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	m.out = d

	// Player input - sync, the caller waits for the resulting step
	d.Register(":TRIGGER:", m.handleTrigger, dispatcher.Logged())
	d.Register(":CLICK:", m.handleClick, dispatcher.Logged())
	d.Register(":ROLL:", m.handleRoll, dispatcher.Logged())
	d.Register(":CHOICE:", m.handleChoice, dispatcher.Logged())
	d.Register(":FORFEIT:", m.handleForfeit, dispatcher.Logged())
	d.Register(":KEY:", func(e dispatcher.Event) (any, error) {
		return m.handleKey(d, e)
	}, dispatcher.Logged())

	// Queries - sync
	d.Register(":STATE:", m.handleState)

	// Recorder - buffered. Events and phases must not be lost.
	d.Register(CmdLogEvent, m.handleLogEvent, dispatcher.Buffered(1000), dispatcher.Blocking())
	d.Register(CmdLogPhase, m.handleLogPhase, dispatcher.Buffered(500), dispatcher.Blocking())
	d.Register(CmdLogRoll, m.handleLogRoll, dispatcher.Buffered(1000), dispatcher.Blocking())
	d.Register(CmdLogBall, m.handleLogBall, dispatcher.Buffered(1000))
	d.Register(CmdLogMove, m.handleLogMove, dispatcher.Buffered(2000))
}

// input routes one parsed input to the engine, counting rejections.
func (m *Manager) input(in action.Input, err error) (any, error) {
	if err != nil {
		m.rejected.Inc()
		return nil, err
	}
	e := m.engine.Load()
	if e == nil {
		return nil, ErrNoMatch
	}
	step, err := e.Handle(in)
	if errors.Is(err, action.ErrInvalidInput) {
		m.rejected.Inc()
	}
	if err != nil {
		return nil, err
	}
	return step, nil
}

func (m *Manager) handleTrigger(ev dispatcher.Event) (any, error) {
	kind, err := m.deps.ParserService.ParseTrigger(ev.Args)
	if err != nil {
		m.rejected.Inc()
		return nil, fmt.Errorf("failed to parse trigger: %w", err)
	}
	e := m.engine.Load()
	if e == nil {
		return nil, ErrNoMatch
	}
	step, err := e.Trigger(kind)
	if err != nil {
		if errors.Is(err, action.ErrInvalidInput) {
			m.rejected.Inc()
		}
		return nil, err
	}
	return step, nil
}

func (m *Manager) handleClick(ev dispatcher.Event) (any, error) {
	return m.input(m.deps.ParserService.ParseClick(ev.Args))
}

func (m *Manager) handleRoll(ev dispatcher.Event) (any, error) {
	return m.input(m.deps.ParserService.ParseRoll(ev.Args))
}

func (m *Manager) handleChoice(ev dispatcher.Event) (any, error) {
	return m.input(m.deps.ParserService.ParseChoice(ev.Args))
}

func (m *Manager) handleForfeit(dispatcher.Event) (any, error) {
	return m.input(action.Input{Kind: action.InputForfeit}, nil)
}

func (m *Manager) handleKey(d *dispatcher.Dispatcher, ev dispatcher.Event) (any, error) {
	bound, err := m.deps.ParserService.ParseKey(ev.Args)
	if err != nil {
		return nil, err
	}
	if bound.Command == ":KEY:" {
		return nil, fmt.Errorf("key %v is bound to another key", ev.Args)
	}
	return d.Dispatch(bound)
}

func (m *Manager) handleState(dispatcher.Event) (any, error) {
	e := m.engine.Load()
	if e == nil {
		return nil, ErrNoMatch
	}
	return e.Snapshot(), nil
}

func (m *Manager) knownToken(id int) error {
	if id == 0 {
		return nil
	}
	if _, ok := m.deps.TokenCache.Get(id); !ok {
		return fmt.Errorf("%w: token %d", ErrTooEarlyForTokenAssociation, id)
	}
	return nil
}

func payload[T any](ev dispatcher.Event) (*T, error) {
	p, ok := ev.Payload.(*T)
	if !ok || p == nil {
		return nil, fmt.Errorf("%s: unexpected payload %T", ev.Command, ev.Payload)
	}
	return p, nil
}

func (m *Manager) handleLogEvent(ev dispatcher.Event) (any, error) {
	obj, err := payload[core.Event](ev)
	if err != nil {
		return nil, err
	}
	if err := m.knownToken(obj.Actor); err != nil {
		return nil, err
	}
	if err := m.knownToken(obj.Connected); err != nil {
		return nil, err
	}
	if err := m.backend.RecordEvent(obj); err != nil {
		return nil, fmt.Errorf("failed to log event: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleLogPhase(ev dispatcher.Event) (any, error) {
	obj, err := payload[core.PhaseChange](ev)
	if err != nil {
		return nil, err
	}
	if err := m.backend.RecordPhase(obj); err != nil {
		return nil, fmt.Errorf("failed to log phase change: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleLogRoll(ev dispatcher.Event) (any, error) {
	obj, err := payload[core.Roll](ev)
	if err != nil {
		return nil, err
	}
	if err := m.knownToken(obj.TokenID); err != nil {
		return nil, err
	}
	if err := m.backend.RecordRoll(obj); err != nil {
		return nil, fmt.Errorf("failed to log roll: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleLogBall(ev dispatcher.Event) (any, error) {
	obj, err := payload[core.BallMove](ev)
	if err != nil {
		return nil, err
	}
	if err := m.backend.RecordBallMove(obj); err != nil {
		return nil, fmt.Errorf("failed to log ball move: %w", err)
	}
	return nil, nil
}

func (m *Manager) handleLogMove(ev dispatcher.Event) (any, error) {
	obj, err := payload[core.TokenMove](ev)
	if err != nil {
		return nil, err
	}
	if err := m.knownToken(obj.TokenID); err != nil {
		return nil, err
	}
	if err := m.backend.RecordTokenMove(obj); err != nil {
		return nil, fmt.Errorf("failed to log token move: %w", err)
	}
	return nil, nil
}
