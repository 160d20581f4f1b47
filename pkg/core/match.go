// pkg/core/match.go
package core

import (
	"time"

	"github.com/google/uuid"
)

// Match represents a recorded match
type Match struct {
	ID         uuid.UUID
	StartTime  time.Time
	Seed       int64
	Difficulty int
	HomeName   string
	AwayName   string
	// HomeEnd is the end (+1/-1) the home side attacks at kick-off.
	HomeEnd         int
	BoardHalfWidth  int
	BoardHalfHeight int
	EngineVersion   string
	Tag             string
}

// Token represents a player piece registered at kick-off
type Token struct {
	ID         int
	Name       string
	Jersey     int
	Side       string
	Goalkeeper bool
	Pace       int
	Dribbling  int
	Heading    int
	HighPass   int
	Resilience int
	Shooting   int
	Tackling   int
	Aerial     int
	Saving     int
	Handling   int
	StartCell  Cell
}

// Cell is an offset hex coordinate
type Cell struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// MatchResult is the final state written when a match ends
type MatchResult struct {
	EndTime   time.Time
	Turns     int
	HomeScore int
	AwayScore int
}

// UploadMetadata describes an exported replay file
type UploadMetadata struct {
	MatchID   string
	HomeName  string
	AwayName  string
	HomeScore int
	AwayScore int
	Turns     int
	Tag       string
}
