package convert

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hexfoot/engine/internal/model"
	"github.com/hexfoot/engine/pkg/core"
)

// jsonToCells converts a stored [[x,z],...] path back to cells.
func jsonToCells(data []byte) []core.Cell {
	var pairs [][2]int
	if len(data) == 0 || json.Unmarshal(data, &pairs) != nil {
		return nil
	}
	cells := make([]core.Cell, len(pairs))
	for i, p := range pairs {
		cells[i] = core.Cell{X: p[0], Z: p[1]}
	}
	return cells
}

// MatchToCore converts a GORM Match to a core.Match.
// A malformed stored UUID yields uuid.Nil.
func MatchToCore(m *model.Match) core.Match {
	id, _ := uuid.Parse(m.MatchUUID)
	return core.Match{
		ID:              id,
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

func TokenToCore(t model.Token) core.Token {
	var attrs map[string]int
	_ = json.Unmarshal(t.Attributes, &attrs)
	return core.Token{
		ID:         t.TokenID,
		Name:       t.Name,
		Jersey:     t.Jersey,
		Side:       t.Side,
		Goalkeeper: t.Goalkeeper,
		Pace:       attrs["pace"],
		Dribbling:  attrs["dribbling"],
		Heading:    attrs["heading"],
		HighPass:   attrs["highPass"],
		Resilience: attrs["resilience"],
		Shooting:   attrs["shooting"],
		Tackling:   attrs["tackling"],
		Aerial:     attrs["aerial"],
		Saving:     attrs["saving"],
		Handling:   attrs["handling"],
		StartCell:  core.Cell{X: t.StartX, Z: t.StartZ},
	}
}

func EventToCore(e model.Event) core.Event {
	return core.Event{
		ID:        e.ID,
		Time:      e.Time,
		Turn:      e.Turn,
		Phase:     e.Phase,
		Kind:      e.Kind,
		Actor:     e.ActorID,
		Connected: e.ConnectedID,
		Value:     e.Value,
		SubType:   e.SubType,
	}
}

func PhaseChangeToCore(p model.PhaseChange) core.PhaseChange {
	return core.PhaseChange{
		Time:         p.Time,
		Turn:         p.Turn,
		From:         p.FromPhase,
		To:           p.ToPhase,
		Action:       p.Action,
		Result:       p.Result,
		TeamInAttack: p.TeamInAttack,
		HomeScore:    p.HomeScore,
		AwayScore:    p.AwayScore,
	}
}

func RollToCore(r model.Roll) core.Roll {
	return core.Roll{
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

func BallMoveToCore(m model.BallMove) core.BallMove {
	traj := string(m.Trajectory)
	if traj == "[]" {
		traj = ""
	}
	return core.BallMove{
		Time:       m.Time,
		Turn:       m.Turn,
		From:       core.Cell{X: m.FromX, Z: m.FromZ},
		To:         core.Cell{X: m.ToX, Z: m.ToZ},
		Arc:        m.Arc,
		Trajectory: traj,
	}
}

func TokenMoveToCore(m model.TokenMove) core.TokenMove {
	return core.TokenMove{
		Time:    m.Time,
		Turn:    m.Turn,
		TokenID: m.TokenID,
		Path:    jsonToCells(m.Path),
	}
}
