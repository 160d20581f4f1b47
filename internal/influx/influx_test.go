package influx

import (
	"bufio"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfoot/engine/internal/storage"
	"github.com/hexfoot/engine/pkg/core"
)

var _ storage.Backend = (*Backend)(nil)

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

// backupManager connects to a port nothing listens on so writes go to the
// gzip backup file.
func backupManager(t *testing.T) (*Manager, string) {
	t.Helper()
	t.Cleanup(viper.Reset)
	viper.Set("influx.enabled", true)
	viper.Set("influx.protocol", "http")
	viper.Set("influx.host", "127.0.0.1")
	viper.Set("influx.port", "1")

	path := filepath.Join(t.TempDir(), "influx_backup.log.gz")
	m := NewManager(zerolog.Nop(), path)
	require.NoError(t, m.Connect())
	require.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)
	return m, path
}

func TestConnect_Disabled(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.enabled", false)

	m := NewManager(zerolog.Nop(), filepath.Join(t.TempDir(), "b.gz"))
	assert.ErrorIs(t, m.Connect(), ErrDisabled)
	assert.NoError(t, m.Close())
}

func TestWritePoint_Backup(t *testing.T) {
	m, path := backupManager(t)

	p := influxdb2_write.NewPointWithMeasurement("dispatcher").
		AddTag("command", ":LOG:EVENT:").
		AddField("queue", 3).
		SetTime(time.Unix(100, 0))
	require.NoError(t, m.WritePoint(context.Background(), BucketPerformance, p))
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "dispatcher,command=:LOG:EVENT: queue=3i")
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	err := m.WritePoint(context.Background(), BucketMatch, influxdb2_write.NewPointWithMeasurement("x"))
	assert.Error(t, err)
}

func TestBackend_MirrorsMatch(t *testing.T) {
	m, path := backupManager(t)
	b := NewBackend(m)
	require.NoError(t, b.Init())

	start := time.Unix(1000, 0).UTC()
	require.NoError(t, b.StartMatch(&core.Match{ID: uuid.New(), HomeName: "Rovers", AwayName: "United", StartTime: start}))
	require.NoError(t, b.AddToken(&core.Token{ID: 1}))
	require.NoError(t, b.RecordEvent(&core.Event{Time: start, Turn: 1, Kind: "shot", Actor: 1, Value: 5}))
	require.NoError(t, b.RecordPhase(&core.PhaseChange{Time: start, Turn: 1, From: "shot", To: "kickOff", HomeScore: 1}))
	require.NoError(t, b.RecordRoll(&core.Roll{Time: start, Turn: 1, Purpose: "shot", Value: 6, Jackpot: true}))
	require.NoError(t, b.RecordBallMove(&core.BallMove{Time: start, Turn: 1, To: core.Cell{X: 0, Z: 12}}))
	require.NoError(t, b.RecordTokenMove(&core.TokenMove{Time: start, Turn: 1, TokenID: 1, Path: []core.Cell{{X: 0, Z: 1}}}))
	require.NoError(t, b.EndMatch(&core.MatchResult{EndTime: start, Turns: 1, HomeScore: 1}))
	require.NoError(t, b.Close())

	lines := readBackup(t, path)
	// token is not mirrored
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "match_start,")
	assert.Contains(t, lines[0], "home=Rovers")
	assert.Contains(t, lines[1], "event,")
	assert.Contains(t, lines[1], "kind=shot")
	assert.Contains(t, lines[3], "jackpot=true")
	assert.Contains(t, lines[6], "match_result,")
	assert.Contains(t, lines[6], "home_score=1i")
}
