// Package session tracks which match is being recorded and where it stands,
// for the recorders and the status monitor.
package session

import (
	"sync"

	"github.com/hexfoot/engine/pkg/core"
)

// Context holds the current match and its progress
type Context struct {
	mu    sync.RWMutex
	match *core.Match
	turn  int
	phase string
	score [2]int
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		match: &core.Match{HomeName: "No match loaded"},
		phase: "none",
	}
}

// GetMatch returns the current match
func (c *Context) GetMatch() *core.Match {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.match
}

// SetMatch sets the current match and resets progress
func (c *Context) SetMatch(m *core.Match) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.match = m
	c.turn = 0
	c.phase = "kickOff"
	c.score = [2]int{}
}

// Progress stores the latest turn, phase and score
func (c *Context) Progress(turn int, phase string, score [2]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turn = turn
	c.phase = phase
	c.score = score
}

// Status returns the latest turn, phase and score
func (c *Context) Status() (turn int, phase string, score [2]int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.turn, c.phase, c.score
}
