package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/hexfoot/engine/internal/dice"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("hexfoot"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSinks(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "hexfoot"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log writer or endpoint")
}

func TestNew_FileWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "hexfoot",
		BatchTimeout: time.Second,
		LogWriter:    &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	assert.True(t, p.Enabled())
	assert.NotNil(t, p.Meter("hexfoot"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_MetricWriterExportsDiceRolls(t *testing.T) {
	var logs, metrics bytes.Buffer
	p, err := New(Config{
		Enabled:        true,
		ServiceName:    "hexfoot",
		BatchTimeout:   time.Second,
		LogWriter:      &logs,
		MetricWriter:   &metrics,
		MetricInterval: time.Hour,
	})
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	assert.NotEqual(t, noop.Meter{}, p.Meter("hexfoot"))

	d, err := dice.NewEngine(7)
	require.NoError(t, err)
	d.Roll()
	d.Roll()

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, metrics.String(), "dice.rolls")
}
