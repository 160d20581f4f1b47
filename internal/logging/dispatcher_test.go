package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestNewDispatcherLogger(t *testing.T) {
	dl := NewDispatcherLogger(zerolog.New(&bytes.Buffer{}))
	if dl == nil {
		t.Fatal("expected non-nil DispatcherLogger")
	}
}

func TestDispatcherLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	dl.Debug("test message", "key1", "value1", "key2", 42)

	entry := decode(t, &buf)
	if entry["level"] != "debug" {
		t.Errorf("expected level 'debug', got %v", entry["level"])
	}
	if entry["message"] != "test message" {
		t.Errorf("expected message 'test message', got %v", entry["message"])
	}
	if entry["key1"] != "value1" {
		t.Errorf("expected key1='value1', got %v", entry["key1"])
	}
	if entry["key2"] != float64(42) {
		t.Errorf("expected key2=42, got %v", entry["key2"])
	}
}

func TestDispatcherLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Info("info message", "status", "ok")

	entry := decode(t, &buf)
	if entry["level"] != "info" {
		t.Errorf("expected level 'info', got %v", entry["level"])
	}
	if entry["status"] != "ok" {
		t.Errorf("expected status='ok', got %v", entry["status"])
	}
}

func TestDispatcherLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Error("error occurred", "code", 500, "reason", "internal")

	entry := decode(t, &buf)
	if entry["level"] != "error" {
		t.Errorf("expected level 'error', got %v", entry["level"])
	}
	if entry["code"] != float64(500) {
		t.Errorf("expected code=500, got %v", entry["code"])
	}
	if entry["reason"] != "internal" {
		t.Errorf("expected reason='internal', got %v", entry["reason"])
	}
}

func TestDispatcherLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Debug("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestDispatcherLogger_OddKeyValues(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Info("odd", "key", "value", "dangling", 7, "tail")

	entry := decode(t, &buf)
	if entry["key"] != "value" {
		t.Errorf("expected key='value', got %v", entry["key"])
	}
	if _, ok := entry["tail"]; ok {
		t.Error("dangling key should be dropped")
	}
}

func TestDispatcherLogger_ImplementsInterface(t *testing.T) {
	var _ interface {
		Debug(msg string, keysAndValues ...any)
		Info(msg string, keysAndValues ...any)
		Error(msg string, keysAndValues ...any)
	} = NewDispatcherLogger(zerolog.Nop())
}

func TestDispatcherLogger_CommandAndError(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))

	dl.Error("handler failed", "command", ":CLICK:", "error", errors.New("no action awaits input"))

	entry := decode(t, &buf)
	if entry["component"] != "dispatcher" {
		t.Errorf("expected component='dispatcher', got %v", entry["component"])
	}
	if entry["command"] != ":CLICK:" {
		t.Errorf("expected command=':CLICK:', got %v", entry["command"])
	}
	if entry["error"] != "no action awaits input" {
		t.Errorf("expected error message, got %v", entry["error"])
	}
}
