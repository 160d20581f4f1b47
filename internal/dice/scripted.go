package dice

import "sync"

// Scripted replays a fixed list of rolls, then defers to Fallback. With no
// fallback, an exhausted script keeps returning 1.
type Scripted struct {
	mu       sync.Mutex
	rolls    []Roll
	Fallback Roller
}

// NewScripted returns a roller that yields rolls in order.
func NewScripted(rolls ...Roll) *Scripted {
	return &Scripted{rolls: rolls}
}

// Values is a shorthand for a script without jackpots.
func Values(values ...int) *Scripted {
	rolls := make([]Roll, len(values))
	for i, v := range values {
		rolls[i] = Roll{Value: v}
	}
	return NewScripted(rolls...)
}

// Push appends rolls to the end of the script.
func (s *Scripted) Push(rolls ...Roll) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rolls = append(s.rolls, rolls...)
}

// Remaining returns how many scripted rolls are left.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rolls)
}

func (s *Scripted) Roll() Roll {
	s.mu.Lock()
	if len(s.rolls) > 0 {
		r := s.rolls[0]
		s.rolls = s.rolls[1:]
		s.mu.Unlock()
		return r
	}
	s.mu.Unlock()

	if s.Fallback != nil {
		return s.Fallback.Roll()
	}
	return Roll{Value: 1}
}
