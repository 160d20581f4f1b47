package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/hexfoot/engine/internal/influx"
	"github.com/hexfoot/engine/internal/logging"
	"github.com/hexfoot/engine/internal/session"
)

// QueueReporter is implemented by the dispatcher and by queue-based backends.
type QueueReporter interface {
	QueueSizes() map[string]int
}

// WorkerStats is implemented by worker.Manager.
type WorkerStats interface {
	Rejected() int
	GetLastDBWriteDuration() time.Duration
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager  *logging.SlogManager
	Session     *session.Context
	Worker      WorkerStats
	Dispatcher  QueueReporter
	WriteQueues QueueReporter // optional
	Influx      *influx.Manager
	StatusFile  string
	Interval    time.Duration
}

// Status is one snapshot of the engine and its recorders.
type Status struct {
	Time             time.Time      `json:"time"`
	MatchID          string         `json:"matchId"`
	Turn             int            `json:"turn"`
	Phase            string         `json:"phase"`
	HomeScore        int            `json:"homeScore"`
	AwayScore        int            `json:"awayScore"`
	Rejected         int            `json:"rejectedInputs"`
	LastWriteMs      float64        `json:"lastWriteMs"`
	DispatcherQueues map[string]int `json:"dispatcherQueues"`
	WriteQueues      map[string]int `json:"writeQueues,omitempty"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus collects the current status.
func (s *Service) GetStatus() Status {
	turn, phase, score := s.deps.Session.Status()
	st := Status{
		Time:      time.Now(),
		MatchID:   s.deps.Session.GetMatch().ID.String(),
		Turn:      turn,
		Phase:     phase,
		HomeScore: score[0],
		AwayScore: score[1],
	}
	if s.deps.Worker != nil {
		st.Rejected = s.deps.Worker.Rejected()
		st.LastWriteMs = float64(s.deps.Worker.GetLastDBWriteDuration().Microseconds()) / 1000
	}
	if s.deps.Dispatcher != nil {
		st.DispatcherQueues = s.deps.Dispatcher.QueueSizes()
	}
	if s.deps.WriteQueues != nil {
		st.WriteQueues = s.deps.WriteQueues.QueueSizes()
	}
	return st
}

// Lines renders a status as the text written to the status file.
func Lines(st Status) []string {
	out := []string{
		fmt.Sprintf("match %s turn %d phase %s score %d-%d", st.MatchID, st.Turn, st.Phase, st.HomeScore, st.AwayScore),
		fmt.Sprintf("rejected inputs: %d, last write: %.1fms", st.Rejected, st.LastWriteMs),
	}
	for _, section := range []struct {
		name string
		m    map[string]int
	}{
		{"dispatcher queues", st.DispatcherQueues},
		{"write queues", st.WriteQueues},
	} {
		if len(section.m) == 0 {
			continue
		}
		raw, err := json.MarshalIndent(section.m, "", "  ")
		if err != nil {
			raw = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		out = append(out, section.name+":", string(raw))
	}
	return out
}

// Points renders a status as InfluxDB points for the performance bucket,
// one per queue plus one for the engine.
func Points(st Status) []*influxdb2_write.Point {
	engine := influxdb2_write.NewPointWithMeasurement("engine").
		AddTag("match", st.MatchID).
		AddField("turn", st.Turn).
		AddField("rejected", st.Rejected).
		AddField("last_write_ms", st.LastWriteMs).
		SetTime(st.Time)
	points := []*influxdb2_write.Point{engine}

	add := func(measurement string, m map[string]int) {
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			points = append(points, influxdb2_write.NewPointWithMeasurement(measurement).
				AddTag("match", st.MatchID).
				AddTag("queue", name).
				AddField("length", m[name]).
				SetTime(st.Time))
		}
	}
	add("dispatcher_queue", st.DispatcherQueues)
	add("write_queue", st.WriteQueues)
	return points
}

func (s *Service) writeStatusFile(lines []string) error {
	f, err := os.Create(s.deps.StatusFile)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Tick collects one status and publishes it to the status file and InfluxDB.
func (s *Service) Tick() Status {
	logger := s.deps.LogManager.Logger()
	st := s.GetStatus()

	if s.deps.StatusFile != "" {
		if err := s.writeStatusFile(Lines(st)); err != nil {
			logger.Error("Error writing status file", "error", err)
		}
	}
	if s.deps.Influx != nil {
		for _, p := range Points(st) {
			if err := s.deps.Influx.WritePoint(context.Background(), influx.BucketPerformance, p); err != nil {
				logger.Error("Error writing performance point", "error", err)
				break
			}
		}
	}
	return st
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if s.deps.Session.GetMatch().StartTime.IsZero() {
					continue
				}
				s.Tick()
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
