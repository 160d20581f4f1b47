package worker

import (
	"errors"
	"time"

	"github.com/hexfoot/engine/internal/action"
	"github.com/hexfoot/engine/internal/dispatcher"
	"github.com/hexfoot/engine/internal/geo"
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/match"
	"github.com/hexfoot/engine/internal/pitch"
	"github.com/hexfoot/engine/pkg/core"
)

// trajectorySamples is the number of points stored per ball flight.
const trajectorySamples = 9

// record turns one engine update into recorder events. It runs under the
// engine lock, so it only reads the pitch and queues work.
func (m *Manager) record(p *pitch.Pitch, u match.Update) {
	phase := u.Phase.String()

	for _, c := range u.Step.Commands {
		switch c := c.(type) {
		case action.LogEvent:
			m.emit(CmdLogEvent, u.Time, &core.Event{
				Time:      u.Time,
				Turn:      u.Turn,
				Phase:     phase,
				Kind:      string(c.Kind),
				Actor:     c.Actor,
				Connected: c.Connected,
				Value:     c.Value,
				SubType:   c.SubType,
			})
		case action.RollMade:
			m.emit(CmdLogRoll, u.Time, &core.Roll{
				Time:    u.Time,
				Turn:    u.Turn,
				Phase:   phase,
				Purpose: c.Purpose,
				TokenID: c.TokenID,
				Value:   c.Roll.Value,
				Jackpot: c.Roll.Jackpot,
				Total:   c.Total,
				Target:  c.Target,
			})
		case action.MoveBall:
			m.emit(CmdLogBall, u.Time, ballMove(u, c))
		case action.MoveToken:
			path := make([]core.Cell, len(c.Path))
			for i, cell := range c.Path {
				path[i] = toCell(cell)
			}
			m.emit(CmdLogMove, u.Time, &core.TokenMove{
				Time:    u.Time,
				Turn:    u.Turn,
				TokenID: c.TokenID,
				Path:    path,
			})
		}
	}

	if u.Phase != u.Previous || u.Step.Done() {
		pc := &core.PhaseChange{
			Time:         u.Time,
			Turn:         u.Turn,
			From:         u.Previous.String(),
			To:           phase,
			TeamInAttack: p.TeamInAttack.String(),
			HomeScore:    p.Score[pitch.Home],
			AwayScore:    p.Score[pitch.Away],
		}
		if u.Resolved != action.KindNone {
			pc.Action = u.Resolved.String()
		} else if u.Active != action.KindNone {
			pc.Action = u.Active.String()
		}
		if u.Step.Outcome != nil {
			pc.Result = u.Step.Outcome.Result.String()
		}
		m.emit(CmdLogPhase, u.Time, pc)
	}

	m.deps.Session.Progress(u.Turn, phase, p.Score)

	if u.Phase == match.FullTime {
		m.doneOnce.Do(func() { close(m.done) })
	}
}

func (m *Manager) emit(cmd string, t time.Time, obj any) {
	if m.out == nil {
		return
	}
	_, err := m.out.Dispatch(dispatcher.Event{Command: cmd, Timestamp: t, Payload: obj})
	if err == nil {
		return
	}
	log := m.deps.LogManager.Logger()
	if errors.Is(err, dispatcher.ErrClosed) {
		log.Debug("recorder closed, dropping", "command", cmd)
		return
	}
	log.Warn("failed to queue record", "command", cmd, "error", err)
}

func toCell(c hexboard.Coord) core.Cell {
	return core.Cell{X: c.X, Z: c.Z}
}

func ballMove(u match.Update, c action.MoveBall) *core.BallMove {
	bm := &core.BallMove{
		Time: u.Time,
		Turn: u.Turn,
		From: toCell(c.From),
		To:   toCell(c.To),
		Arc:  c.Arc,
	}
	ls := geo.Trajectory(hexboard.Centre(c.From), hexboard.Centre(c.To), c.Arc, trajectorySamples)
	if js, err := geo.TrajectoryJSON(ls); err == nil {
		bm.Trajectory = js
	}
	return bm
}
