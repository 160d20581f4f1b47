package cache

import (
	"sort"
	"strings"
	"sync"
)

// KeyMap maps key chords such as "shift+s" to the command line they stand
// for, e.g. ":TRIGGER: shot".
type KeyMap struct {
	mu   sync.RWMutex
	keys map[string]string
}

// NewKeyMap creates a KeyMap seeded with bindings.
func NewKeyMap(bindings map[string]string) *KeyMap {
	k := &KeyMap{keys: make(map[string]string, len(bindings))}
	for chord, line := range bindings {
		k.keys[Chord(chord)] = line
	}
	return k
}

// Chord normalises a key plus modifiers: lower case, modifiers sorted and
// joined with "+" before the key.
func Chord(key string, modifiers ...string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(key)), "+")
	for _, m := range modifiers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			parts = append([]string{m}, parts...)
		}
	}
	last := parts[len(parts)-1]
	mods := parts[:len(parts)-1]
	sort.Strings(mods)
	return strings.Join(append(mods, last), "+")
}

// Get looks up a chord.
func (k *KeyMap) Get(chord string) (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	line, ok := k.keys[Chord(chord)]
	return line, ok
}

// Set binds a chord, replacing any previous binding.
func (k *KeyMap) Set(chord, line string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[Chord(chord)] = line
}

// Delete removes a binding.
func (k *KeyMap) Delete(chord string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, Chord(chord))
}

// Bindings returns a copy of every binding.
func (k *KeyMap) Bindings() map[string]string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make(map[string]string, len(k.keys))
	for c, l := range k.keys {
		out[c] = l
	}
	return out
}
