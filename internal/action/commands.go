package action

import (
	"github.com/hexfoot/engine/internal/dice"
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

// Command is a side effect for the presentation layer or the recorder.
// Rules state has already been updated when a command is emitted.
type Command interface {
	command()
}

// MoveToken walks a token along path, one cell at a time.
type MoveToken struct {
	TokenID int
	Path    []hexboard.Coord
}

// MoveBall sends the ball from one cell to another. Arc 0 is along the ground.
type MoveBall struct {
	From hexboard.Coord
	To   hexboard.Coord
	Arc  float64
}

// Highlight marks cells for the human, tagged with why.
type Highlight struct {
	Cells  []hexboard.Coord
	Reason string
}

// ClearHighlights removes every highlight.
type ClearHighlights struct{}

// EventKind names a recorded match event.
type EventKind string

const (
	EventPass         EventKind = "pass"
	EventInterception EventKind = "interception"
	EventHighPass     EventKind = "highPass"
	EventLongBall     EventKind = "longBall"
	EventShot         EventKind = "shot"
	EventBlock        EventKind = "block"
	EventSave         EventKind = "save"
	EventGoal         EventKind = "goal"
	EventHeader       EventKind = "header"
	EventTackle       EventKind = "tackle"
	EventNutmeg       EventKind = "nutmeg"
	EventFoul         EventKind = "foul"
	EventLooseBall    EventKind = "looseBall"
	EventOutOfBounds  EventKind = "outOfBounds"
	EventPickup       EventKind = "pickup"
	EventSetPiece     EventKind = "setPiece"
)

// LogEvent is a play-by-play entry for the recorder.
type LogEvent struct {
	Actor     int
	Kind      EventKind
	Value     int
	Connected int
	SubType   string
}

// RollMade reports a die resolved on behalf of a token.
type RollMade struct {
	Purpose string
	TokenID int
	Roll    dice.Roll
	// Total is the roll plus modifiers, or the roll itself when none apply.
	Total int
	// Target is the total the roll had to reach, 0 when it is a contest.
	Target int
}

func (MoveToken) command()       {}
func (MoveBall) command()        {}
func (Highlight) command()       {}
func (ClearHighlights) command() {}
func (LogEvent) command()        {}
func (RollMade) command()        {}

// Highlight reasons.
const (
	ReasonTargets     = "targets"
	ReasonPath        = "path"
	ReasonCandidates  = "interceptors"
	ReasonMovable     = "movable"
	ReasonReach       = "reach"
	ReasonNutmeg      = "nutmeg"
	ReasonRestartRing = "restartRing"
)

// effects collects commands until the next Step is returned.
type effects struct {
	cmds []Command
}

func (e *effects) flush() []Command {
	out := e.cmds
	e.cmds = nil
	return out
}

func (e *effects) moveToken(t *pitch.Token, path ...hexboard.Coord) {
	e.cmds = append(e.cmds, MoveToken{TokenID: t.ID, Path: path})
}

func (e *effects) moveBall(f pitch.Flight) {
	e.cmds = append(e.cmds, MoveBall{From: f.From, To: f.To, Arc: f.Arc})
}

func (e *effects) highlight(reason string, cells []hexboard.Coord) {
	e.cmds = append(e.cmds, ClearHighlights{}, Highlight{Cells: cells, Reason: reason})
}

func (e *effects) logEvent(actor *pitch.Token, kind EventKind, value int, connected *pitch.Token, subType string) {
	ev := LogEvent{Kind: kind, Value: value, SubType: subType}
	if actor != nil {
		ev.Actor = actor.ID
	}
	if connected != nil {
		ev.Connected = connected.ID
	}
	e.cmds = append(e.cmds, ev)
}

func (e *effects) rolled(purpose string, t *pitch.Token, r dice.Roll, total, target int) {
	rm := RollMade{Purpose: purpose, Roll: r, Total: total, Target: target}
	if t != nil {
		rm.TokenID = t.ID
	}
	e.cmds = append(e.cmds, rm)
}

func cellsOf(tokens []*pitch.Token) []hexboard.Coord {
	out := make([]hexboard.Coord, len(tokens))
	for i, t := range tokens {
		out[i] = t.Cell
	}
	return out
}
