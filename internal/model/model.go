package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&EngineInfo{},
	&Match{},
	&Token{},
	&Event{},
	&PhaseChange{},
	&Roll{},
	&BallMove{},
	&BallPath{},
	&TokenMove{},
}

// DatabaseModelsSQLite omits BallPath, which needs a PostGIS geometry column.
var DatabaseModelsSQLite = []interface{}{
	&EngineInfo{},
	&Match{},
	&Token{},
	&Event{},
	&PhaseChange{},
	&Roll{},
	&BallMove{},
	&TokenMove{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// EngineInfo identifies the installation that wrote the database
type EngineInfo struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:127"`
	Description string `json:"description" gorm:"size:255"`
	Version     string `json:"version" gorm:"size:64"`
}

func (*EngineInfo) TableName() string {
	return "engine_infos"
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Match is the main model for a match
type Match struct {
	gorm.Model
	MatchUUID       string     `json:"matchId" gorm:"size:36;uniqueIndex:idx_match_uuid"`
	StartTime       time.Time  `json:"startTime" gorm:"type:timestamptz;index:idx_match_start"`
	EndTime         *time.Time `json:"endTime" gorm:"type:timestamptz"`
	Seed            int64      `json:"seed"`
	Difficulty      int        `json:"difficulty" gorm:"default:2"`
	HomeName        string     `json:"home" gorm:"size:127"`
	AwayName        string     `json:"away" gorm:"size:127"`
	HomeEnd         int        `json:"homeEnd"`
	BoardHalfWidth  int        `json:"boardHalfWidth" gorm:"default:18"`
	BoardHalfHeight int        `json:"boardHalfHeight" gorm:"default:12"`
	EngineVersion   string     `json:"engineVersion" gorm:"size:64"`
	Tag             string     `json:"tag" gorm:"size:127"`
	Turns           int        `json:"turns"`
	HomeScore       int        `json:"homeScore"`
	AwayScore       int        `json:"awayScore"`

	Tokens       []Token
	Events       []Event
	PhaseChanges []PhaseChange
	Rolls        []Roll
	BallMoves    []BallMove
}

func (*Match) TableName() string {
	return "matches"
}

// Token is a player piece
// Uses composite primary key (MatchID, TokenID) - TokenID is the roster ID
type Token struct {
	MatchID    uint           `json:"matchId" gorm:"primaryKey;autoIncrement:false"`
	TokenID    int            `json:"tokenId" gorm:"primaryKey;autoIncrement:false"`
	Match      Match          `gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name       string         `json:"name" gorm:"size:64"`
	Jersey     int            `json:"jersey"`
	Side       string         `json:"side" gorm:"size:8"`
	Goalkeeper bool           `json:"goalkeeper" gorm:"default:false"`
	Attributes datatypes.JSON `json:"attributes" gorm:"default:'{}'"`
	StartX     int            `json:"startX"`
	StartZ     int            `json:"startZ"`
}

func (*Token) TableName() string {
	return "tokens"
}

// Event is a play-by-play entry
type Event struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time        time.Time `json:"time" gorm:"type:timestamptz;"`
	MatchID     uint      `json:"matchId" gorm:"index:idx_event_match_id"`
	Match       Match     `gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Turn        int       `json:"turn" gorm:"index:idx_event_turn"`
	Phase       string    `json:"phase" gorm:"size:32"`
	Kind        string    `json:"kind" gorm:"size:32;index:idx_event_kind"`
	ActorID     int       `json:"actorId"`
	ConnectedID int       `json:"connectedId"`
	Value       int       `json:"value"`
	SubType     string    `json:"subType" gorm:"size:32"`
}

func (*Event) TableName() string {
	return "events"
}

// PhaseChange records a transition of the match phase
type PhaseChange struct {
	ID           uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time         time.Time `json:"time" gorm:"type:timestamptz;"`
	MatchID      uint      `json:"matchId" gorm:"index:idx_phasechange_match_id"`
	Match        Match     `gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Turn         int       `json:"turn"`
	FromPhase    string    `json:"from" gorm:"size:32"`
	ToPhase      string    `json:"to" gorm:"size:32"`
	Action       string    `json:"action" gorm:"size:32"`
	Result       string    `json:"result" gorm:"size:32"`
	TeamInAttack string    `json:"teamInAttack" gorm:"size:8"`
	HomeScore    int       `json:"homeScore"`
	AwayScore    int       `json:"awayScore"`
}

func (*PhaseChange) TableName() string {
	return "phase_changes"
}

// Roll is a die resolved for a token
type Roll struct {
	ID      uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	Time    time.Time `json:"time" gorm:"type:timestamptz;"`
	MatchID uint      `json:"matchId" gorm:"index:idx_roll_match_id"`
	Match   Match     `gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Turn    int       `json:"turn"`
	Phase   string    `json:"phase" gorm:"size:32"`
	Purpose string    `json:"purpose" gorm:"size:32"`
	TokenID int       `json:"tokenId"`
	Value   int       `json:"value"`
	Jackpot bool      `json:"jackpot" gorm:"default:false"`
	Total   int       `json:"total"`
	Target  int       `json:"target"`
}

func (*Roll) TableName() string {
	return "rolls"
}

// BallMove is the ball travelling between two cells.
// Trajectory holds [[x,y,z],...] samples in pitch units.
type BallMove struct {
	ID         uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time       time.Time      `json:"time" gorm:"type:timestamptz;"`
	MatchID    uint           `json:"matchId" gorm:"index:idx_ballmove_match_id"`
	Match      Match          `gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Turn       int            `json:"turn"`
	FromX      int            `json:"fromX"`
	FromZ      int            `json:"fromZ"`
	ToX        int            `json:"toX"`
	ToZ        int            `json:"toZ"`
	Arc        float64        `json:"arc"`
	Trajectory datatypes.JSON `json:"trajectory"`
}

func (*BallMove) TableName() string {
	return "ball_moves"
}

// BallPath is the PostGIS copy of a ball trajectory, for spatial queries
type BallPath struct {
	ID      uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	Time    time.Time       `json:"time" gorm:"type:timestamptz;"`
	MatchID uint            `json:"matchId" gorm:"index:idx_ballpath_match_id"`
	Match   Match           `gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Turn    int             `json:"turn"`
	Path    geom.LineString `json:"path" gorm:"type:geometry(LINESTRINGZ)"`
}

func (*BallPath) TableName() string {
	return "ball_paths"
}

// TokenMove is a token walking a path; Path holds [[x,z],...]
type TokenMove struct {
	ID      uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	Time    time.Time      `json:"time" gorm:"type:timestamptz;"`
	MatchID uint           `json:"matchId" gorm:"index:idx_tokenmove_match_id"`
	Match   Match          `gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Turn    int            `json:"turn"`
	TokenID int            `json:"tokenId"`
	Path    datatypes.JSON `json:"path"`
}

func (*TokenMove) TableName() string {
	return "token_moves"
}
