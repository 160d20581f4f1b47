package pitch

import (
	"fmt"

	"github.com/hexfoot/engine/internal/hexboard"
)

// Side identifies a team.
type Side int

const (
	Home Side = iota
	Away
)

func (s Side) String() string {
	if s == Home {
		return "home"
	}
	return "away"
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == Home {
		return Away
	}
	return Home
}

// ParseSide accepts "home" or "away".
func ParseSide(s string) (Side, error) {
	switch s {
	case "home":
		return Home, nil
	case "away":
		return Away, nil
	}
	return Home, fmt.Errorf("unknown side %q", s)
}

// Attributes are the rating values a token brings into contests. Aerial,
// Saving and Handling only matter for goalkeepers.
type Attributes struct {
	Pace       int `json:"pace" mapstructure:"pace"`
	Dribbling  int `json:"dribbling" mapstructure:"dribbling"`
	Heading    int `json:"heading" mapstructure:"heading"`
	HighPass   int `json:"highPass" mapstructure:"highPass"`
	Resilience int `json:"resilience" mapstructure:"resilience"`
	Shooting   int `json:"shooting" mapstructure:"shooting"`
	Tackling   int `json:"tackling" mapstructure:"tackling"`
	Aerial     int `json:"aerial,omitempty" mapstructure:"aerial"`
	Saving     int `json:"saving,omitempty" mapstructure:"saving"`
	Handling   int `json:"handling,omitempty" mapstructure:"handling"`
}

// Token is a player piece on the pitch.
type Token struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Jersey     int    `json:"jersey"`
	Side       Side   `json:"side"`
	Goalkeeper bool   `json:"goalkeeper"`
	Attributes

	Cell       hexboard.Coord `json:"cell"`
	IsAttacker bool           `json:"isAttacker"`

	// StunnedUntil is the last movement phase the token has to sit out.
	StunnedUntil int `json:"stunnedUntil,omitempty"`
	// Moved is set once the token has moved in the current phase.
	Moved bool `json:"moved,omitempty"`
	// Jumped is set once the token has contested a header in the current phase.
	Jumped bool `json:"jumped,omitempty"`
}

func (t *Token) String() string {
	return fmt.Sprintf("%s #%d %s", t.Side, t.Jersey, t.Name)
}

// Stunned reports whether the token is barred from acting in the given
// movement phase.
func (t *Token) Stunned(movementPhase int) bool {
	return t.StunnedUntil > 0 && movementPhase <= t.StunnedUntil
}

// AerialRating is the value a token adds to a header roll. Goalkeepers
// inside their own penalty box use their aerial rating instead of heading.
func (t *Token) AerialRating(inOwnBox bool) int {
	if t.Goalkeeper && inOwnBox {
		return t.Aerial
	}
	return t.Heading
}

// PassType tags the action that last sent the ball on its way, carried into
// a loose-ball resolution.
type PassType string

const (
	PassNone     PassType = ""
	PassGround   PassType = "ground"
	PassFirst    PassType = "firstTime"
	PassHigh     PassType = "high"
	PassLong     PassType = "long"
	PassShot     PassType = "shot"
	PassHeader   PassType = "header"
	PassTackle   PassType = "tackle"
	PassNutmeg   PassType = "nutmeg"
	PassThrowIn  PassType = "throwIn"
	PassFreeKick PassType = "freeKick"
)

// Flight describes a ball in the air between two cells. The rules never
// read it back; it exists for whoever animates the ball.
type Flight struct {
	From hexboard.Coord `json:"from"`
	To   hexboard.Coord `json:"to"`
	Arc  float64        `json:"arc"`
}

// Ball is the single ball on the pitch.
type Ball struct {
	Cell     hexboard.Coord `json:"cell"`
	InFlight *Flight        `json:"inFlight,omitempty"`
}
