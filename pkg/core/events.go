// pkg/core/events.go
package core

import (
	"time"
)

// Event is a play-by-play entry: a pass, a tackle, a shot and so on.
// Actor and Connected are token IDs, 0 when not applicable.
type Event struct {
	ID        uint
	Time      time.Time
	Turn      int
	Phase     string
	Kind      string
	Actor     int
	Connected int
	Value     int
	SubType   string
}

// PhaseChange records the match moving from one phase to the next
type PhaseChange struct {
	Time         time.Time
	Turn         int
	From         string
	To           string
	Action       string
	Result       string
	TeamInAttack string
	HomeScore    int
	AwayScore    int
}

// Roll records a die resolved for a token
type Roll struct {
	Time    time.Time
	Turn    int
	Phase   string
	Purpose string
	TokenID int
	Value   int
	Jackpot bool
	Total   int
	Target  int
}

// BallMove records the ball travelling between two cells.
// Trajectory is a JSON array of [x,y,z] samples in pitch units.
type BallMove struct {
	Time       time.Time
	Turn       int
	From       Cell
	To         Cell
	Arc        float64
	Trajectory string
}

// TokenMove records a token walking a path
type TokenMove struct {
	Time    time.Time
	Turn    int
	TokenID int
	Path    []Cell
}
