package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfoot/engine/internal/logging"
	"github.com/hexfoot/engine/internal/session"
	"github.com/hexfoot/engine/pkg/core"
)

type stubQueues map[string]int

func (q stubQueues) QueueSizes() map[string]int { return q }

type stubWorker struct {
	rejected int
	write    time.Duration
}

func (w stubWorker) Rejected() int                         { return w.rejected }
func (w stubWorker) GetLastDBWriteDuration() time.Duration { return w.write }

func newTestService(t *testing.T, statusFile string) (*Service, *session.Context) {
	t.Helper()
	sess := session.NewContext()
	return NewService(Dependencies{
		LogManager:  logging.NewSlogManager(),
		Session:     sess,
		Worker:      stubWorker{rejected: 2, write: 1500 * time.Microsecond},
		Dispatcher:  stubQueues{":LOG:EVENT:": 3, ":LOG:ROLL:": 0},
		WriteQueues: stubQueues{"events": 7},
		StatusFile:  statusFile,
		Interval:    10 * time.Millisecond,
	}), sess
}

func TestGetStatus(t *testing.T) {
	s, sess := newTestService(t, "")
	id := uuid.New()
	sess.SetMatch(&core.Match{ID: id})
	sess.Progress(14, "standardPass", [2]int{2, 1})

	st := s.GetStatus()
	assert.Equal(t, id.String(), st.MatchID)
	assert.Equal(t, 14, st.Turn)
	assert.Equal(t, "standardPass", st.Phase)
	assert.Equal(t, 2, st.HomeScore)
	assert.Equal(t, 1, st.AwayScore)
	assert.Equal(t, 2, st.Rejected)
	assert.InDelta(t, 1.5, st.LastWriteMs, 0.001)
	assert.Equal(t, 3, st.DispatcherQueues[":LOG:EVENT:"])
	assert.Equal(t, 7, st.WriteQueues["events"])
}

func TestLines(t *testing.T) {
	lines := Lines(Status{
		MatchID:          "m1",
		Turn:             3,
		Phase:            "shot",
		DispatcherQueues: map[string]int{":LOG:BALL:": 1},
	})
	require.Len(t, lines, 4)
	assert.Equal(t, "match m1 turn 3 phase shot score 0-0", lines[0])
	assert.Equal(t, "dispatcher queues:", lines[2])
	assert.Contains(t, lines[3], `":LOG:BALL:": 1`)
}

func TestPoints(t *testing.T) {
	points := Points(Status{
		MatchID:          "m1",
		Time:             time.Unix(10, 0),
		DispatcherQueues: map[string]int{"b": 1, "a": 2},
		WriteQueues:      map[string]int{"events": 3},
	})
	require.Len(t, points, 4)
	assert.Equal(t, "engine", points[0].Name())
	assert.Equal(t, "dispatcher_queue", points[1].Name())
	assert.Equal(t, "write_queue", points[3].Name())
}

func TestStartStop_WritesStatusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.txt")
	s, sess := newTestService(t, path)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	// nothing is written before a match starts
	time.Sleep(30 * time.Millisecond)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	sess.SetMatch(&core.Match{ID: uuid.New(), StartTime: time.Now()})
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), "phase kickOff")
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}
