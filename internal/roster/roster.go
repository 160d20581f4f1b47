// Package roster loads team sheets and lines them up for kick-off.
package roster

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

var (
	ErrTeamSize   = errors.New("wrong number of players")
	ErrGoalkeeper = errors.New("team needs exactly one goalkeeper")
	ErrJersey     = errors.New("duplicate jersey")
)

// Player is one line of a team sheet.
type Player struct {
	Name       string `mapstructure:"name"`
	Jersey     int    `mapstructure:"jersey"`
	Goalkeeper bool   `mapstructure:"goalkeeper"`

	pitch.Attributes `mapstructure:",squash"`
}

// Team is a named squad of exactly pitch.FormationSize players.
type Team struct {
	Name    string   `mapstructure:"name"`
	Players []Player `mapstructure:"players"`
}

// Roster is both team sheets.
type Roster struct {
	Home Team `mapstructure:"home"`
	Away Team `mapstructure:"away"`
}

// Load reads a JSON or YAML roster file; the extension picks the format.
func Load(path string) (*Roster, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", path, err)
	}
	var r Roster
	if err := v.Unmarshal(&r); err != nil {
		return nil, fmt.Errorf("failed to decode roster %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return &r, nil
}

// Validate checks squad sizes, goalkeepers and jersey numbers.
func (r *Roster) Validate() error {
	for _, t := range []Team{r.Home, r.Away} {
		if err := t.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t Team) validate() error {
	if len(t.Players) != pitch.FormationSize {
		return fmt.Errorf("%w: %s has %d, need %d", ErrTeamSize, t.Name, len(t.Players), pitch.FormationSize)
	}
	keepers := 0
	seen := make(map[int]bool, len(t.Players))
	for _, p := range t.Players {
		if p.Goalkeeper {
			keepers++
		}
		if seen[p.Jersey] {
			return fmt.Errorf("%w: %s #%d", ErrJersey, t.Name, p.Jersey)
		}
		seen[p.Jersey] = true
	}
	if keepers != 1 {
		return fmt.Errorf("%w: %s has %d", ErrGoalkeeper, t.Name, keepers)
	}
	return nil
}

// lineup orders a squad goalkeeper first, the rest in sheet order, to
// match the formation slots.
func (t Team) lineup() []Player {
	out := make([]Player, 0, len(t.Players))
	for _, p := range t.Players {
		if p.Goalkeeper {
			out = append(out, p)
		}
	}
	for _, p := range t.Players {
		if !p.Goalkeeper {
			out = append(out, p)
		}
	}
	return out
}

// Tokens builds the 22 tokens on their kick-off spots on board. Home takes
// ids 1-11 and Away 12-22, each in lineup order.
func (r *Roster) Tokens(board *hexboard.Board, homeEnd int, kicking pitch.Side) []*pitch.Token {
	tokens := make([]*pitch.Token, 0, 2*pitch.FormationSize)
	id := 1
	for _, side := range []pitch.Side{pitch.Home, pitch.Away} {
		team, end := r.Home, homeEnd
		if side == pitch.Away {
			team, end = r.Away, -homeEnd
		}
		spots := pitch.KickOffSpots(board, end, side == kicking)
		for i, p := range team.lineup() {
			tokens = append(tokens, &pitch.Token{
				ID:         id,
				Name:       p.Name,
				Jersey:     p.Jersey,
				Side:       side,
				Goalkeeper: p.Goalkeeper,
				Attributes: p.Attributes,
				Cell:       spots[i],
			})
			id++
		}
	}
	return tokens
}

// Pitch lines both teams up on board for kick-off.
func (r *Roster) Pitch(board *hexboard.Board, homeEnd int, kicking pitch.Side) (*pitch.Pitch, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return pitch.New(board, r.Tokens(board, homeEnd, kicking), kicking, homeEnd)
}

// Default returns two evenly matched squads for when no roster file is set.
func Default() *Roster {
	return &Roster{
		Home: defaultTeam("Home", []string{
			"Okafor", "Lindqvist", "Moreau", "Brennan", "Tanaka", "Duarte",
			"Kowalski", "Ferreira", "Haddad", "Novak", "Asante",
		}),
		Away: defaultTeam("Away", []string{
			"Ibarra", "Schreiber", "Mensah", "Castillo", "Halvorsen", "Quinn",
			"Rossi", "Adeyemi", "Varga", "Lemaire", "Sato",
		}),
	}
}

func defaultTeam(name string, names []string) Team {
	outfield := []pitch.Attributes{
		{Pace: 3, Dribbling: 2, Heading: 4, HighPass: 2, Resilience: 4, Shooting: 1, Tackling: 5},
		{Pace: 3, Dribbling: 2, Heading: 5, HighPass: 2, Resilience: 5, Shooting: 1, Tackling: 5},
		{Pace: 3, Dribbling: 2, Heading: 5, HighPass: 3, Resilience: 5, Shooting: 1, Tackling: 4},
		{Pace: 4, Dribbling: 3, Heading: 3, HighPass: 3, Resilience: 4, Shooting: 1, Tackling: 4},
		{Pace: 4, Dribbling: 4, Heading: 2, HighPass: 4, Resilience: 3, Shooting: 2, Tackling: 3},
		{Pace: 3, Dribbling: 3, Heading: 3, HighPass: 5, Resilience: 4, Shooting: 3, Tackling: 4},
		{Pace: 3, Dribbling: 4, Heading: 3, HighPass: 5, Resilience: 4, Shooting: 3, Tackling: 3},
		{Pace: 5, Dribbling: 5, Heading: 2, HighPass: 3, Resilience: 3, Shooting: 3, Tackling: 2},
		{Pace: 4, Dribbling: 4, Heading: 4, HighPass: 2, Resilience: 4, Shooting: 5, Tackling: 1},
		{Pace: 5, Dribbling: 5, Heading: 3, HighPass: 2, Resilience: 3, Shooting: 5, Tackling: 1},
	}
	t := Team{Name: name}
	t.Players = append(t.Players, Player{
		Name:       names[0],
		Jersey:     1,
		Goalkeeper: true,
		Attributes: pitch.Attributes{
			Pace: 2, Dribbling: 1, Heading: 2, HighPass: 3, Resilience: 4,
			Shooting: 1, Tackling: 2, Aerial: 4, Saving: 4, Handling: 4,
		},
	})
	for i, a := range outfield {
		t.Players = append(t.Players, Player{Name: names[i+1], Jersey: i + 2, Attributes: a})
	}
	return t
}
