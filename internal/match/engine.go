// Package match orchestrates a single match: it owns the phase variable,
// decides which actions may be triggered, keeps exactly one resolver
// active and chains hand-offs between resolvers.
package match

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hexfoot/engine/internal/action"
	"github.com/hexfoot/engine/internal/dice"
	"github.com/hexfoot/engine/internal/pitch"
)

// DefaultMaxTurns ends the match after this many resolved actions.
const DefaultMaxTurns = 120

var (
	ErrNotAvailable   = errors.New("action not available")
	ErrBusy           = errors.New("engine busy")
	ErrNoActiveAction = errors.New("no active action")
)

// Update is published after every trigger or input that changed something.
type Update struct {
	MatchID  uuid.UUID
	Turn     int
	Phase    Phase
	Previous Phase
	Active   action.Kind
	// Resolved is the action whose chain ended with this update, if any.
	Resolved action.Kind
	Step     action.Step
	Time     time.Time
}

// Listener receives updates. It runs under the engine lock and must not
// call back into the engine.
type Listener func(Update)

// Config holds engine options. Zero values mean defaults.
type Config struct {
	Difficulty int
	MaxTurns   int
	Roller     dice.Roller
	Logger     *slog.Logger
}

// Engine is the match state machine.
type Engine struct {
	mu sync.Mutex

	id        uuid.UUID
	env       action.Env
	roller    dice.Roller
	resolvers map[action.Kind]action.Resolver
	active    action.Resolver
	// setup the active resolver was activated with
	setup action.Setup

	phase    Phase
	anchor   Phase
	turn     int
	maxTurns int

	listeners []Listener
	log       *slog.Logger
}

// New builds an engine for a pitch already set up for kick-off.
func New(p *pitch.Pitch, cfg Config) (*Engine, error) {
	if p == nil {
		return nil, errors.New("nil pitch")
	}
	if cfg.Difficulty == 0 {
		cfg.Difficulty = 2
	}
	if cfg.Difficulty < 1 || cfg.Difficulty > 3 {
		return nil, fmt.Errorf("difficulty %d out of range 1-3", cfg.Difficulty)
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Roller == nil {
		seed, err := dice.NewSeed()
		if err != nil {
			return nil, err
		}
		eng, err := dice.NewEngine(seed)
		if err != nil {
			return nil, err
		}
		cfg.Roller = eng
	}

	e := &Engine{
		id:        uuid.New(),
		env:       action.Env{Pitch: p, Difficulty: cfg.Difficulty, Logger: cfg.Logger},
		roller:    cfg.Roller,
		resolvers: make(map[action.Kind]action.Resolver),
		phase:     KickOff,
		anchor:    KickOff,
		maxTurns:  cfg.MaxTurns,
		log:       cfg.Logger,
	}
	for k := action.KindMovement; k <= action.KindGoalKick; k++ {
		r, err := action.New(k)
		if err != nil {
			return nil, err
		}
		e.resolvers[k] = r
	}
	return e, nil
}

// Subscribe adds a listener.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Engine) ID() uuid.UUID { return e.id }

// Pitch returns the live pitch. Callers must not mutate it.
func (e *Engine) Pitch() *pitch.Pitch { return e.env.Pitch }

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) Turn() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turn
}

// LogAttrs describes the match for log records.
func (e *Engine) LogAttrs() []slog.Attr {
	if !e.mu.TryLock() {
		return nil
	}
	defer e.mu.Unlock()
	return []slog.Attr{
		slog.String("phase", e.phase.String()),
		slog.Int("turn", e.turn),
		slog.String("teamInAttack", e.env.Pitch.TeamInAttack.String()),
		slog.String("activeAction", e.activeKind().String()),
	}
}

func (e *Engine) activeKind() action.Kind {
	if e.active == nil {
		return action.KindNone
	}
	return e.active.Kind()
}

// Available lists the actions that may be triggered now. It is empty while
// a committed action runs.
func (e *Engine) Available() []action.Kind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available()
}

func (e *Engine) available() []action.Kind {
	if e.active != nil && e.active.Committed() {
		return nil
	}
	return available(e.anchor, e.env.Pitch)
}

// Trigger activates the resolver for kind, swapping out an uncommitted one.
func (e *Engine) Trigger(kind action.Kind) (action.Step, error) {
	if !e.mu.TryLock() {
		return action.Step{}, ErrBusy
	}
	defer e.mu.Unlock()

	if e.phase == FullTime || !slices.Contains(e.available(), kind) {
		return action.Step{}, fmt.Errorf("%w: %s in %s", ErrNotAvailable, kind, e.phase)
	}
	setup := action.Setup{Snapshot: kind == action.KindShot && snapshotPhases[e.anchor]}

	prev, was, wasSetup := e.phase, e.active, e.setup
	e.cleanupAll()
	r := e.resolvers[kind]
	e.active, e.setup = r, setup
	e.phase = activePhase[kind]

	step, err := r.Activate(&e.env, setup)
	if err != nil {
		if was != nil && errors.Is(err, action.ErrInvalidInput) {
			return action.Step{}, e.reinstate(was, wasSetup, prev, err)
		}
		return step, e.fail(err, prev)
	}
	return e.advance(step, prev)
}

// reinstate gives the uncommitted action back its turn when the trigger
// that replaced it was refused.
func (e *Engine) reinstate(r action.Resolver, setup action.Setup, phase Phase, cause error) error {
	e.active.Cleanup()
	if _, err := r.Activate(&e.env, setup); err != nil {
		e.log.Error("action lost", "action", r.Kind().String(), "error", err)
		r.Cleanup()
		e.active = nil
		e.phase = e.anchor
		return cause
	}
	e.active, e.setup = r, setup
	e.phase = phase
	return cause
}

// Handle routes one human input to the active resolver. Roll inputs without
// a value are rolled by the engine's dice.
func (e *Engine) Handle(in action.Input) (action.Step, error) {
	if !e.mu.TryLock() {
		return action.Step{}, ErrBusy
	}
	defer e.mu.Unlock()

	if e.active == nil {
		return action.Step{}, ErrNoActiveAction
	}
	if in.Kind == action.InputRoll {
		if in.Roll.Value == 0 {
			in.Roll = e.roller.Roll()
		} else if err := in.Roll.Validate(); err != nil {
			return action.Step{}, fmt.Errorf("%w: %v", action.ErrInvalidInput, err)
		}
	}

	prev := e.phase
	step, err := e.active.Handle(&e.env, in)
	if err != nil {
		return step, e.fail(err, prev)
	}
	return e.advance(step, prev)
}

// fail applies the error taxonomy: invalid input changes nothing, an
// invariant breach aborts the action back to the last resting phase.
func (e *Engine) fail(err error, prev Phase) error {
	if errors.Is(err, action.ErrInvalidInput) {
		if e.active != nil && !e.active.Activated() {
			e.active = nil
			e.phase = prev
		}
		return err
	}
	e.log.Error("action aborted", "action", e.activeKind().String(), "error", err)
	if e.active != nil {
		e.active.Cleanup()
	}
	e.active = nil
	e.phase = e.anchor
	e.publish(action.Step{Commands: []action.Command{action.ClearHighlights{}}}, prev, action.KindNone)
	return err
}

// advance publishes step and, when it ends the action, settles the match
// or activates the next resolver in the chain.
func (e *Engine) advance(step action.Step, prev Phase) (action.Step, error) {
	var cmds []action.Command
	for step.Done() {
		cmds = append(cmds, step.Commands...)
		o := *step.Outcome
		kind := e.active.Kind()
		e.active.Cleanup()
		e.active = nil

		if o.Result != action.ResultHandoff {
			e.settle(kind, o)
			step.Commands = cmds
			e.publish(step, prev, kind)
			return step, nil
		}

		e.log.Debug("hand-off", "from", kind.String(), "to", o.Next.String())
		e.cleanupAll()
		next := e.resolvers[o.Next]
		if next == nil {
			return step, e.fail(fmt.Errorf("%w: no resolver for %s", action.ErrInvariant, o.Next), prev)
		}
		e.active, e.setup = next, o.Setup
		e.phase = activePhase[o.Next]
		s, err := next.Activate(&e.env, o.Setup)
		if err != nil {
			return s, e.fail(err, prev)
		}
		step = s
	}
	step.Commands = append(cmds, step.Commands...)
	e.publish(step, prev, action.KindNone)
	return step, nil
}

func (e *Engine) settle(kind action.Kind, o action.Outcome) {
	if o.Result == action.ResultCancelled {
		e.phase = e.anchor
		return
	}
	e.turn++
	e.phase = settle(kind, o.Result)
	if o.Result == action.ResultGoal {
		e.log.Info("goal", "score", fmt.Sprintf("%d-%d", e.env.Pitch.Score[pitch.Home], e.env.Pitch.Score[pitch.Away]))
		e.env.Pitch.ResetForKickOff(o.Setup.Team)
		e.phase = KickOff
	}
	e.anchor = e.phase
	if e.turn >= e.maxTurns {
		e.phase = FullTime
		e.anchor = FullTime
	}
}

func (e *Engine) cleanupAll() {
	for _, r := range e.resolvers {
		r.Cleanup()
	}
}

func (e *Engine) publish(step action.Step, prev Phase, resolved action.Kind) {
	u := Update{
		MatchID:  e.id,
		Turn:     e.turn,
		Phase:    e.phase,
		Previous: prev,
		Active:   e.activeKind(),
		Resolved: resolved,
		Step:     step,
		Time:     time.Now(),
	}
	for _, l := range e.listeners {
		l(u)
	}
}

// Stage reports the current set-piece sub-phase, if any.
func (e *Engine) Stage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sp, ok := e.active.(*action.SetPiece); ok {
		return sp.Stage()
	}
	return ""
}
