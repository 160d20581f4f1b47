// Package transport serves a match over HTTP and WebSocket. Every input,
// whatever route it arrives on, is funnelled through one goroutine so the
// engine sees them in arrival order.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hexfoot/engine/internal/action"
	"github.com/hexfoot/engine/internal/channel"
	"github.com/hexfoot/engine/internal/dispatcher"
	"github.com/hexfoot/engine/internal/match"
	"github.com/hexfoot/engine/internal/parser"
	"github.com/hexfoot/engine/internal/worker"
	"github.com/hexfoot/engine/pkg/streaming"
)

const (
	inputQueueSize  = 64
	shutdownTimeout = 5 * time.Second
	wsWriteWait     = 10 * time.Second
)

// ErrStopped is returned for inputs submitted after Stop.
var ErrStopped = errors.New("transport stopped")

// Dispatcher is implemented by *dispatcher.Dispatcher.
type Dispatcher interface {
	Dispatch(dispatcher.Event) (any, error)
}

// LineParser is implemented by parser.Service.
type LineParser interface {
	ParseLine(line string) (dispatcher.Event, error)
}

// playerCommands are the commands remote clients may send.
var playerCommands = map[string]bool{
	":TRIGGER:": true,
	":CLICK:":   true,
	":ROLL:":    true,
	":CHOICE:":  true,
	":FORFEIT:": true,
	":KEY:":     true,
	":STATE:":   true,
}

type request struct {
	ev    dispatcher.Event
	reply chan response
}

type response struct {
	value any
	err   error
}

// StepView is the client view of an action step.
type StepView struct {
	Awaiting string   `json:"awaiting,omitempty"`
	Prompt   string   `json:"prompt,omitempty"`
	Options  []string `json:"options,omitempty"`
	Done     bool     `json:"done"`
	Result   string   `json:"result,omitempty"`
	Next     string   `json:"next,omitempty"`
}

// ViewStep converts a step for clients.
func ViewStep(s action.Step) StepView {
	v := StepView{
		Prompt:  s.Prompt,
		Options: s.Options,
		Done:    s.Done(),
	}
	if s.Await != action.AwaitNone {
		v.Awaiting = s.Await.String()
	}
	if s.Outcome != nil {
		v.Result = s.Outcome.Result.String()
		if s.Outcome.Next != action.KindNone {
			v.Next = s.Outcome.Next.String()
		}
	}
	return v
}

// Server is the HTTP front of a match.
type Server struct {
	d        Dispatcher
	parser   LineParser
	logger   *slog.Logger
	inputs   channel.Channel[request]
	router   *mux.Router
	srv      *http.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	conns   map[*websocket.Conn]struct{}
	quit    chan struct{}
	done    chan struct{}
	started bool
}

// New builds a server listening on addr once Run is called.
func New(addr string, d Dispatcher, p LineParser, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		d:        d,
		parser:   p,
		logger:   logger.With("component", "transport"),
		inputs:   channel.New[request](inputQueueSize),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		conns:    make(map[*websocket.Conn]struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthcheck", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/input", s.handleInput).Methods(http.MethodPost)
	r.HandleFunc("/actions/{kind}", s.handleTrigger).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWS)
	s.router = r

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the input loop. Run calls it.
func (s *Server) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.loop()
}

// Stop ends the input loop and closes live WebSocket connections.
func (s *Server) Stop() {
	s.mu.Lock()
	select {
	case <-s.quit:
		s.mu.Unlock()
		return
	default:
	}
	close(s.quit)
	for c := range s.conns {
		_ = c.Close()
	}
	started := s.started
	s.mu.Unlock()

	if started {
		<-s.done
	}
}

// Run serves until ctx is done or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.Start()
	defer s.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("transport: %w", err)
	}
}

func (s *Server) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.inputs.Receive():
			v, err := s.d.Dispatch(req.ev)
			req.reply <- response{value: v, err: err}
		}
	}
}

// Submit queues one event for the input loop and waits for its result.
func (s *Server) Submit(ctx context.Context, ev dispatcher.Event) (any, error) {
	reply := make(chan response, 1)
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case <-s.quit:
		return nil, ErrStopped
	default:
	}
	if err := s.inputs.SendContext(ctx, request{ev: ev, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case r := <-reply:
		return r.value, r.err
	case <-s.quit:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// statusFor maps an input error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, parser.ErrArgs), errors.Is(err, parser.ErrUnbound), errors.Is(err, action.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, match.ErrNotAvailable), errors.Is(err, match.ErrNoActiveAction), errors.Is(err, worker.ErrNoMatch):
		return http.StatusConflict
	case errors.Is(err, ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// view converts dispatcher results into their client shape.
func view(v any) any {
	if step, ok := v.(action.Step); ok {
		return ViewStep(step)
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), streaming.ErrorPayload{Message: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v, err := s.Submit(r.Context(), dispatcher.Event{Command: ":STATE:"})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var in streaming.InputPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, fmt.Errorf("%w: %v", parser.ErrArgs, err))
		return
	}
	s.respond(w, r, in.Line)
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	v, err := s.Submit(r.Context(), dispatcher.Event{
		Command: ":TRIGGER:",
		Args:    []string{mux.Vars(r)["kind"]},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(v))
}

// parseInput parses a line and rejects anything but player commands.
func (s *Server) parseInput(line string) (dispatcher.Event, error) {
	ev, err := s.parser.ParseLine(line)
	if err != nil {
		return ev, err
	}
	if !playerCommands[ev.Command] {
		return ev, fmt.Errorf("%w: unknown command %s", parser.ErrArgs, ev.Command)
	}
	return ev, nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, line string) {
	ev, err := s.parseInput(line)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := s.Submit(r.Context(), ev)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view(v))
}

func (s *Server) track(c *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// handleWS reads input envelopes and answers each with a step or error
// envelope, in order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer c.Close()
	if !s.track(c) {
		return
	}
	defer s.untrack(c)

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("WebSocket closed", "error", err)
			}
			return
		}

		if err := s.answer(r.Context(), c, msg); err != nil {
			s.logger.Warn("WebSocket write failed", "error", err)
			return
		}
	}
}

func (s *Server) answer(ctx context.Context, c *websocket.Conn, msg []byte) error {
	var in streaming.InputPayload
	env, err := streaming.Unmarshal(msg, &in)

	var v any
	switch {
	case err != nil:
		err = fmt.Errorf("%w: %v", parser.ErrArgs, err)
	case env.Type == streaming.TypeState:
		v, err = s.Submit(ctx, dispatcher.Event{Command: ":STATE:"})
	case env.Type == streaming.TypeInput:
		var ev dispatcher.Event
		if ev, err = s.parseInput(in.Line); err == nil {
			v, err = s.Submit(ctx, ev)
		}
	default:
		err = fmt.Errorf("%w: unknown message type %q", parser.ErrArgs, env.Type)
	}

	var data []byte
	switch {
	case err != nil:
		data, err = streaming.Marshal(streaming.TypeError, streaming.ErrorPayload{Message: err.Error()})
	case env.Type == streaming.TypeState:
		data, err = streaming.Marshal(streaming.TypeState, v)
	default:
		data, err = streaming.Marshal(streaming.TypeStep, view(v))
	}
	if err != nil {
		return err
	}
	if err := c.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}
