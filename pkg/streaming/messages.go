// Package streaming defines the JSON envelopes exchanged over WebSocket,
// both by the streaming storage backend and by the live input endpoint.
package streaming

import (
	"encoding/json"
	"fmt"

	"github.com/hexfoot/engine/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartMatch = "start_match"
	TypeEndMatch   = "end_match"
	TypeAddToken   = "add_token"
	TypeEvent      = "event"
	TypePhase      = "phase_change"
	TypeRoll       = "roll"
	TypeBallMove   = "ball_move"
	TypeTokenMove  = "token_move"

	// live play
	TypeInput = "input"
	TypeStep  = "step"
	TypeState = "state"
	TypeError = "error"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartMatchPayload carries the match header.
type StartMatchPayload struct {
	Match *core.Match `json:"match"`
}

// InputPayload is one line of player input, e.g. "click 3 -2".
type InputPayload struct {
	Line string `json:"line"`
}

// ErrorPayload reports a rejected input back to the client.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Marshal builds a JSON-encoded Envelope from a message type and payload.
func Marshal(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// Unmarshal decodes an Envelope and its payload into target.
// A nil target only decodes the envelope.
func Unmarshal(data []byte, target any) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if target == nil || len(env.Payload) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return env, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	return env, nil
}
