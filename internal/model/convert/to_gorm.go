// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/hexfoot/engine/internal/geo"
	"github.com/hexfoot/engine/internal/model"
	"github.com/hexfoot/engine/pkg/core"
	"gorm.io/datatypes"
)

// cellsToJSON converts a path to [[x,z],...] for DB storage.
func cellsToJSON(path []core.Cell) datatypes.JSON {
	if len(path) == 0 {
		return datatypes.JSON("[]")
	}
	pairs := make([][2]int, len(path))
	for i, c := range path {
		pairs[i] = [2]int{c.X, c.Z}
	}
	data, _ := json.Marshal(pairs)
	return datatypes.JSON(data)
}

// CoreToMatch converts a core.Match to a GORM model.Match.
func CoreToMatch(m core.Match) model.Match {
	return model.Match{
		MatchUUID:       m.ID.String(),
		StartTime:       m.StartTime,
		Seed:            m.Seed,
		Difficulty:      m.Difficulty,
		HomeName:        m.HomeName,
		AwayName:        m.AwayName,
		HomeEnd:         m.HomeEnd,
		BoardHalfWidth:  m.BoardHalfWidth,
		BoardHalfHeight: m.BoardHalfHeight,
		EngineVersion:   m.EngineVersion,
		Tag:             m.Tag,
	}
}

// CoreToToken converts a core.Token to a GORM model.Token.
// Ratings are stored together as a JSON object.
func CoreToToken(t core.Token) model.Token {
	attrs, _ := json.Marshal(map[string]int{
		"pace":       t.Pace,
		"dribbling":  t.Dribbling,
		"heading":    t.Heading,
		"highPass":   t.HighPass,
		"resilience": t.Resilience,
		"shooting":   t.Shooting,
		"tackling":   t.Tackling,
		"aerial":     t.Aerial,
		"saving":     t.Saving,
		"handling":   t.Handling,
	})
	return model.Token{
		TokenID:    t.ID,
		Name:       t.Name,
		Jersey:     t.Jersey,
		Side:       t.Side,
		Goalkeeper: t.Goalkeeper,
		Attributes: datatypes.JSON(attrs),
		StartX:     t.StartCell.X,
		StartZ:     t.StartCell.Z,
	}
}

func CoreToEvent(e core.Event) model.Event {
	return model.Event{
		Time:        e.Time,
		Turn:        e.Turn,
		Phase:       e.Phase,
		Kind:        e.Kind,
		ActorID:     e.Actor,
		ConnectedID: e.Connected,
		Value:       e.Value,
		SubType:     e.SubType,
	}
}

func CoreToPhaseChange(p core.PhaseChange) model.PhaseChange {
	return model.PhaseChange{
		Time:         p.Time,
		Turn:         p.Turn,
		FromPhase:    p.From,
		ToPhase:      p.To,
		Action:       p.Action,
		Result:       p.Result,
		TeamInAttack: p.TeamInAttack,
		HomeScore:    p.HomeScore,
		AwayScore:    p.AwayScore,
	}
}

func CoreToRoll(r core.Roll) model.Roll {
	return model.Roll{
		Time:    r.Time,
		Turn:    r.Turn,
		Phase:   r.Phase,
		Purpose: r.Purpose,
		TokenID: r.TokenID,
		Value:   r.Value,
		Jackpot: r.Jackpot,
		Total:   r.Total,
		Target:  r.Target,
	}
}

// CoreToBallMove converts a core.BallMove to a GORM model.BallMove.
// An empty trajectory is stored as an empty JSON array.
func CoreToBallMove(m core.BallMove) model.BallMove {
	traj := datatypes.JSON("[]")
	if m.Trajectory != "" {
		traj = datatypes.JSON(m.Trajectory)
	}
	return model.BallMove{
		Time:       m.Time,
		Turn:       m.Turn,
		FromX:      m.From.X,
		FromZ:      m.From.Z,
		ToX:        m.To.X,
		ToZ:        m.To.Z,
		Arc:        m.Arc,
		Trajectory: traj,
	}
}

// CoreToBallPath parses the move's trajectory into a PostGIS line string.
// Moves without a trajectory report ok=false.
func CoreToBallPath(m core.BallMove) (model.BallPath, bool) {
	if m.Trajectory == "" {
		return model.BallPath{}, false
	}
	ls, err := geo.ParseTrajectory(m.Trajectory)
	if err != nil {
		return model.BallPath{}, false
	}
	return model.BallPath{
		Time: m.Time,
		Turn: m.Turn,
		Path: ls,
	}, true
}

func CoreToTokenMove(m core.TokenMove) model.TokenMove {
	return model.TokenMove{
		Time:    m.Time,
		Turn:    m.Turn,
		TokenID: m.TokenID,
		Path:    cellsToJSON(m.Path),
	}
}
