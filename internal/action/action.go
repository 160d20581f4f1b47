// Package action implements the per-action resolution state machines.
//
// A resolver is activated with a Setup, then fed Inputs one at a time.
// Every call returns a Step saying what the resolver waits for next and the
// side effects (token moves, ball flights, highlights, log lines) the caller
// should play out. A Step carrying an Outcome ends the action.
package action

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hexfoot/engine/internal/dice"
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

var (
	// ErrInvalidInput rejects an input without touching match state. The
	// resolver keeps waiting at the same point.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvariant aborts the action: the resolver cannot continue safely.
	ErrInvariant = errors.New("invariant violated")
	// ErrNotActivated is returned when input reaches an idle resolver.
	ErrNotActivated = errors.New("resolver not activated")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func broken(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// Kind names an action family.
type Kind int

const (
	KindNone Kind = iota
	KindMovement
	KindGroundPass
	KindFirstTimePass
	KindHighPass
	KindLongBall
	KindShot
	KindHeader
	KindLooseBall
	KindOutOfBounds
	KindFreeKick
	KindCorner
	KindThrowIn
	KindGoalKick
)

var kindNames = map[Kind]string{
	KindNone:          "none",
	KindMovement:      "movement",
	KindGroundPass:    "groundPass",
	KindFirstTimePass: "firstTimePass",
	KindHighPass:      "highPass",
	KindLongBall:      "longBall",
	KindShot:          "shot",
	KindHeader:        "header",
	KindLooseBall:     "looseBall",
	KindOutOfBounds:   "outOfBounds",
	KindFreeKick:      "freeKick",
	KindCorner:        "corner",
	KindThrowIn:       "throwIn",
	KindGoalKick:      "goalKick",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown action %q", s)
}

// Await is the suspension point a resolver is parked at.
type Await int

const (
	AwaitNone Await = iota
	AwaitTarget
	AwaitRoll
	AwaitChoice
)

func (a Await) String() string {
	switch a {
	case AwaitTarget:
		return "target"
	case AwaitRoll:
		return "roll"
	case AwaitChoice:
		return "choice"
	}
	return "none"
}

// InputKind distinguishes the human signals a resolver accepts.
type InputKind int

const (
	InputClick InputKind = iota
	InputRoll
	InputForfeit
	InputChoice
)

func (k InputKind) String() string {
	switch k {
	case InputClick:
		return "click"
	case InputRoll:
		return "roll"
	case InputForfeit:
		return "forfeit"
	case InputChoice:
		return "choice"
	}
	return fmt.Sprintf("InputKind(%d)", int(k))
}

// Input is one human signal. Roll is filled in by the caller before the
// input reaches a resolver waiting for a roll.
type Input struct {
	Kind   InputKind
	Cell   hexboard.Coord
	Choice string
	Roll   dice.Roll
}

// Result summarises how an action ended.
type Result int

const (
	// ResultCancelled: forfeited before commit, nothing changed.
	ResultCancelled Result = iota
	// ResultCompleted: the ball arrived or came to rest, possession kept.
	ResultCompleted
	// ResultPossessionWon: the defending side now has the ball.
	ResultPossessionWon
	// ResultGoal: the attacking side scored.
	ResultGoal
	// ResultHandoff: play continues in the resolver named by Outcome.Next.
	ResultHandoff
)

func (r Result) String() string {
	switch r {
	case ResultCancelled:
		return "cancelled"
	case ResultCompleted:
		return "completed"
	case ResultPossessionWon:
		return "possessionWon"
	case ResultGoal:
		return "goal"
	case ResultHandoff:
		return "handoff"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

// Outcome ends an action.
type Outcome struct {
	Result Result
	Next   Kind
	Setup  Setup
}

// Step is what a resolver returns after activation or an input.
type Step struct {
	Await    Await
	Prompt   string
	Options  []string
	Commands []Command
	Outcome  *Outcome
}

// Done reports whether the step ends the action.
func (s Step) Done() bool {
	return s.Outcome != nil
}

// Setup carries activation parameters. Zero values mean defaults.
type Setup struct {
	// MaxDistance overrides the default pass range.
	MaxDistance int
	// SkipDirectBlock lets the pass ignore defenders standing on its path.
	SkipDirectBlock bool
	// Snapshot marks a shot struck straight off a pass or header.
	Snapshot bool
	// Origin is the landing cell, loose-ball start, exit point or restart spot.
	Origin hexboard.Coord
	// Team is the side awarded a restart, or the side conceding a goal.
	Team pitch.Side
	// Hanging is the pass type that produced a loose ball.
	Hanging pitch.PassType
}

// Env is everything a resolver needs from the match.
type Env struct {
	Pitch *pitch.Pitch
	// Difficulty 1-3. Below 3 a target needs a confirming second click.
	Difficulty int
	Logger     *slog.Logger
}

func (e *Env) needsConfirmation() bool {
	return e.Difficulty < 3
}

func (e *Env) log() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Resolver is one action state machine.
type Resolver interface {
	Kind() Kind
	Activate(env *Env, setup Setup) (Step, error)
	Handle(env *Env, in Input) (Step, error)
	// Activated reports whether the resolver currently owns the match.
	Activated() bool
	// Committed reports whether the action can no longer be swapped out.
	Committed() bool
	// Awaiting returns the current suspension point.
	Awaiting() Await
	// Cleanup returns the resolver to idle. Safe to call at any time.
	Cleanup()
}

// base holds the bookkeeping every resolver shares.
type base struct {
	effects
	activated bool
	committed bool
	await     Await
}

func (b *base) Activated() bool { return b.activated }
func (b *base) Committed() bool { return b.committed }
func (b *base) Awaiting() Await { return b.await }

func (b *base) reset() {
	b.activated = false
	b.committed = false
	b.await = AwaitNone
	b.cmds = nil
}

func (b *base) wait(a Await, prompt string) Step {
	b.await = a
	return Step{Await: a, Prompt: prompt, Commands: b.flush()}
}

func (b *base) choose(prompt string, options []string) Step {
	b.await = AwaitChoice
	return Step{Await: AwaitChoice, Prompt: prompt, Options: options, Commands: b.flush()}
}

func (b *base) finish(o Outcome) Step {
	b.await = AwaitNone
	b.activated = false
	b.cmds = append(b.cmds, ClearHighlights{})
	return Step{Outcome: &o, Commands: b.flush()}
}

func (b *base) expect(in Input, kinds ...InputKind) error {
	if !b.activated {
		return ErrNotActivated
	}
	for _, k := range kinds {
		if in.Kind == k {
			return nil
		}
	}
	return invalid("%s input while waiting for %s", in.Kind, b.await)
}

// New returns a fresh resolver for kind.
func New(kind Kind) (Resolver, error) {
	switch kind {
	case KindMovement:
		return NewMovement(), nil
	case KindGroundPass:
		return NewGroundPass(), nil
	case KindFirstTimePass:
		return NewFirstTimePass(), nil
	case KindHighPass:
		return NewHighPass(), nil
	case KindLongBall:
		return NewLongBall(), nil
	case KindShot:
		return NewShot(), nil
	case KindHeader:
		return NewHeader(), nil
	case KindLooseBall:
		return NewLooseBall(), nil
	case KindOutOfBounds:
		return NewOutOfBounds(), nil
	case KindFreeKick, KindCorner, KindThrowIn, KindGoalKick:
		sp, err := NewSetPiece(kind)
		if err != nil {
			return nil, err
		}
		return sp, nil
	}
	return nil, fmt.Errorf("no resolver for %s", kind)
}
