package cache

import (
	"sync"

	"github.com/hexfoot/engine/pkg/core"
)

// TokenCache holds the tokens registered for the current match so recorder
// handlers can validate ids without a storage round trip.
type TokenCache struct {
	m      sync.Mutex
	Tokens map[int]core.Token
}

func NewTokenCache() *TokenCache {
	return &TokenCache{
		Tokens: make(map[int]core.Token),
	}
}

func (c *TokenCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.Tokens = make(map[int]core.Token)
}

func (c *TokenCache) Get(id int) (core.Token, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	t, ok := c.Tokens[id]
	return t, ok
}

func (c *TokenCache) Add(t core.Token) {
	c.m.Lock()
	defer c.m.Unlock()
	c.Tokens[t.ID] = t
}

// ByJersey finds a token of side by shirt number.
func (c *TokenCache) ByJersey(side string, jersey int) (core.Token, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	for _, t := range c.Tokens {
		if t.Side == side && t.Jersey == jersey {
			return t, true
		}
	}
	return core.Token{}, false
}

func (c *TokenCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.Tokens)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
