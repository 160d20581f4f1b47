// Package parser turns the textual command lines sent by player clients
// into dispatcher events and typed engine inputs.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/hexfoot/engine/internal/action"
	"github.com/hexfoot/engine/internal/cache"
	"github.com/hexfoot/engine/internal/dice"
	"github.com/hexfoot/engine/internal/dispatcher"
	"github.com/hexfoot/engine/internal/hexboard"
)

var (
	// ErrArgs reports a command with missing or malformed arguments.
	ErrArgs = errors.New("bad arguments")
	// ErrUnbound reports a key chord with no binding.
	ErrUnbound = errors.New("key not bound")
)

// DefaultKeyBindings are installed when no key map is supplied.
var DefaultKeyBindings = map[string]string{
	"m":      ":TRIGGER: movement",
	"p":      ":TRIGGER: groundPass",
	"f":      ":TRIGGER: firstTimePass",
	"h":      ":TRIGGER: highPass",
	"l":      ":TRIGGER: longBall",
	"s":      ":TRIGGER: shot",
	"r":      ":ROLL:",
	"space":  ":ROLL:",
	"escape": ":FORFEIT:",
}

// Service is the parsing surface the worker depends on.
type Service interface {
	ParseLine(line string) (dispatcher.Event, error)
	ParseTrigger(args []string) (action.Kind, error)
	ParseClick(args []string) (action.Input, error)
	ParseRoll(args []string) (action.Input, error)
	ParseChoice(args []string) (action.Input, error)
	ParseKey(args []string) (dispatcher.Event, error)
}

// parseIntFromFloat parses a string that may be an integer or float into int64.
// Browser clients serialise every number as a float.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// Parser provides pure []string -> input conversion.
type Parser struct {
	logger *slog.Logger
	keys   *cache.KeyMap
}

var _ Service = (*Parser)(nil)

// NewParser creates a parser. A nil key map means DefaultKeyBindings.
func NewParser(logger *slog.Logger, keys *cache.KeyMap) *Parser {
	if keys == nil {
		keys = cache.NewKeyMap(DefaultKeyBindings)
	}
	return &Parser{logger: logger, keys: keys}
}

// Keys exposes the live key map.
func (p *Parser) Keys() *cache.KeyMap {
	return p.keys
}

// ParseLine splits "click 3 -2" or ":CLICK: 3 -2" into an event for the
// ":CLICK:" command.
func (p *Parser) ParseLine(line string) (dispatcher.Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return dispatcher.Event{}, fmt.Errorf("%w: empty line", ErrArgs)
	}
	cmd := strings.ToUpper(strings.Trim(fields[0], ":"))
	if cmd == "" {
		return dispatcher.Event{}, fmt.Errorf("%w: empty command", ErrArgs)
	}
	return dispatcher.Event{
		Command:   ":" + cmd + ":",
		Args:      fields[1:],
		Timestamp: time.Now(),
	}, nil
}

// ParseTrigger reads an action name.
func (p *Parser) ParseTrigger(args []string) (action.Kind, error) {
	if len(args) != 1 {
		return action.KindNone, fmt.Errorf("%w: trigger takes one action name, got %d args", ErrArgs, len(args))
	}
	k, err := action.ParseKind(args[0])
	if err != nil {
		return action.KindNone, fmt.Errorf("%w: %v", ErrArgs, err)
	}
	return k, nil
}

// ParseClick reads a cell as "x z" or "x,z".
func (p *Parser) ParseClick(args []string) (action.Input, error) {
	if len(args) == 1 {
		args = strings.Split(args[0], ",")
	}
	if len(args) != 2 {
		return action.Input{}, fmt.Errorf("%w: click takes x and z, got %v", ErrArgs, args)
	}
	x, err := parseIntFromFloat(strings.TrimSpace(args[0]))
	if err != nil {
		return action.Input{}, fmt.Errorf("%w: x: %v", ErrArgs, err)
	}
	z, err := parseIntFromFloat(strings.TrimSpace(args[1]))
	if err != nil {
		return action.Input{}, fmt.Errorf("%w: z: %v", ErrArgs, err)
	}
	return action.Input{
		Kind: action.InputClick,
		Cell: hexboard.Coord{X: int(x), Z: int(z)},
	}, nil
}

// ParseRoll reads an optional forced die value and jackpot flag. With no
// args the engine rolls.
func (p *Parser) ParseRoll(args []string) (action.Input, error) {
	in := action.Input{Kind: action.InputRoll}
	if len(args) == 0 {
		return in, nil
	}
	if len(args) > 2 {
		return action.Input{}, fmt.Errorf("%w: roll takes at most value and jackpot", ErrArgs)
	}
	v, err := parseIntFromFloat(args[0])
	if err != nil {
		return action.Input{}, fmt.Errorf("%w: roll value: %v", ErrArgs, err)
	}
	in.Roll = dice.Roll{Value: int(v)}
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "1", "true", "jackpot":
			in.Roll.Jackpot = true
		case "0", "false":
		default:
			return action.Input{}, fmt.Errorf("%w: jackpot flag %q", ErrArgs, args[1])
		}
	}
	if err := in.Roll.Validate(); err != nil {
		return action.Input{}, fmt.Errorf("%w: %v", ErrArgs, err)
	}
	return in, nil
}

// ParseChoice reads the name of one of the offered options.
func (p *Parser) ParseChoice(args []string) (action.Input, error) {
	if len(args) != 1 || args[0] == "" {
		return action.Input{}, fmt.Errorf("%w: choice takes one option", ErrArgs)
	}
	return action.Input{Kind: action.InputChoice, Choice: args[0]}, nil
}

// ParseKey resolves a key and its modifiers to the bound command line.
func (p *Parser) ParseKey(args []string) (dispatcher.Event, error) {
	if len(args) == 0 {
		return dispatcher.Event{}, fmt.Errorf("%w: key missing", ErrArgs)
	}
	chord := cache.Chord(args[0], args[1:]...)
	line, ok := p.keys.Get(chord)
	if !ok {
		return dispatcher.Event{}, fmt.Errorf("%w: %s", ErrUnbound, chord)
	}
	p.logger.Debug("key bound", "chord", chord, "line", line)
	return p.ParseLine(line)
}
