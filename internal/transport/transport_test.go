package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexfoot/engine/internal/action"
	"github.com/hexfoot/engine/internal/dispatcher"
	"github.com/hexfoot/engine/internal/match"
	"github.com/hexfoot/engine/internal/parser"
	"github.com/hexfoot/engine/pkg/streaming"
)

// fakeDispatcher records events and answers from a table.
type fakeDispatcher struct {
	mu     sync.Mutex
	events []dispatcher.Event
	answer func(dispatcher.Event) (any, error)
}

func (f *fakeDispatcher) Dispatch(e dispatcher.Event) (any, error) {
	f.mu.Lock()
	f.events = append(f.events, e)
	f.mu.Unlock()
	return f.answer(e)
}

func (f *fakeDispatcher) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		out = append(out, e.Command)
	}
	return out
}

func newTestServer(t *testing.T) (*Server, *fakeDispatcher, *httptest.Server) {
	t.Helper()
	fd := &fakeDispatcher{answer: func(e dispatcher.Event) (any, error) {
		switch e.Command {
		case ":STATE:":
			return match.State{Turn: 3, Phase: "standardPass"}, nil
		case ":TRIGGER:":
			if e.Args[0] == "shot" {
				return nil, match.ErrNotAvailable
			}
			return action.Step{Await: action.AwaitTarget, Prompt: "pick a team-mate"}, nil
		case ":CLICK:":
			return action.Step{Outcome: &action.Outcome{Result: action.ResultCompleted}}, nil
		}
		return nil, action.ErrInvalidInput
	}}
	s := New("127.0.0.1:0", fd, parser.NewParser(nil, nil), nil)
	s.Start()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Stop()
	})
	return s, fd, srv
}

func postInput(t *testing.T, url, line string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(streaming.InputPayload{Line: line})
	resp, err := http.Post(url+"/input", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestHealthcheck(t *testing.T) {
	_, _, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthcheck")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestState(t *testing.T) {
	_, _, srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var st match.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 3, st.Turn)
	assert.Equal(t, "standardPass", st.Phase)
}

func TestTriggerRoute(t *testing.T) {
	_, fd, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/actions/groundPass", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var v StepView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "target", v.Awaiting)
	assert.Equal(t, "pick a team-mate", v.Prompt)
	assert.False(t, v.Done)

	resp2, err := http.Post(srv.URL+"/actions/shot", "application/json", nil)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)

	assert.Equal(t, []string{":TRIGGER:", ":TRIGGER:"}, fd.commands())
}

func TestInput(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		status int
	}{
		{"click", "click 0 4", http.StatusOK},
		{"invalid input", "roll 9", http.StatusBadRequest},
		{"empty", "", http.StatusBadRequest},
		{"internal command", ":LOG:EVENT:", http.StatusBadRequest},
	}
	_, _, srv := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postInput(t, srv.URL, tt.line)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestInput_BadJSON(t *testing.T) {
	_, _, srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/input", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocket(t *testing.T) {
	_, _, srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	send := func(msgType string, payload any) streaming.Envelope {
		data, err := streaming.Marshal(msgType, payload)
		require.NoError(t, err)
		require.NoError(t, c.WriteMessage(websocket.TextMessage, data))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		env, err := streaming.Unmarshal(msg, nil)
		require.NoError(t, err)
		return env
	}

	env := send(streaming.TypeInput, streaming.InputPayload{Line: "click 0 4"})
	assert.Equal(t, streaming.TypeStep, env.Type)
	var v StepView
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	assert.True(t, v.Done)
	assert.Equal(t, action.ResultCompleted.String(), v.Result)

	env = send(streaming.TypeInput, streaming.InputPayload{Line: "roll 9"})
	assert.Equal(t, streaming.TypeError, env.Type)

	env = send(streaming.TypeState, nil)
	assert.Equal(t, streaming.TypeState, env.Type)

	env = send("bogus", nil)
	assert.Equal(t, streaming.TypeError, env.Type)
}

func TestSubmit_AfterStop(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.Stop()
	_, err := s.Submit(context.Background(), dispatcher.Event{Command: ":STATE:"})
	assert.ErrorIs(t, err, ErrStopped)
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(err))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	fd := &fakeDispatcher{answer: func(dispatcher.Event) (any, error) { return nil, nil }}
	s := New("127.0.0.1:0", fd, parser.NewParser(nil, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestViewStep(t *testing.T) {
	v := ViewStep(action.Step{
		Await:   action.AwaitChoice,
		Options: []string{"pass", "dribble"},
	})
	assert.Equal(t, "choice", v.Awaiting)
	assert.Equal(t, []string{"pass", "dribble"}, v.Options)
	assert.Empty(t, v.Result)
}
