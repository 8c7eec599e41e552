package ws

import (
	"encoding/json"

	"word-memory-server/score"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// AuthMsg carries a Neon Auth JWT; the name claim becomes the default score name.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// StartMsg begins a new session. Seed replays an earlier layout; without it a fresh
// seed is drawn and reported back in game_state.
type StartMsg struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
	Seed       *int64 `json:"seed,omitempty"`
	Name       string `json:"name,omitempty"`
}

// FlipMsg turns one card face up, e.g. {"type":"flip","coord":"B3"}.
type FlipMsg struct {
	Type  string `json:"type"`
	Coord string `json:"coord"`
}

// resolve and quit carry no payload beyond their type.

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is rejected. Kind is one of the
// matcherrors Kind constants.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// AuthOKMsg confirms a valid token.
type AuthOKMsg struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// ResolvedMsg reports the outcome of comparing the two face-up cards.
type ResolvedMsg struct {
	Type    string `json:"type"`
	Matched bool   `json:"matched"`
	First   string `json:"first"`
	Second  string `json:"second"`
	Moves   int    `json:"moves"`
}

// GameOverMsg ends a session. Placement and Top are only set for finished games.
type GameOverMsg struct {
	Type       string         `json:"type"`
	GameID     string         `json:"gameId"`
	Finished   bool           `json:"finished"`
	Difficulty string         `json:"difficulty"`
	Seed       int64          `json:"seed"`
	Moves      int            `json:"moves"`
	TimeSec    float64        `json:"timeSec"`
	UserName   string         `json:"userName"`
	Placement  int            `json:"placement,omitempty"`
	Top        []score.Record `json:"top,omitempty"`
	Saved      bool           `json:"saved"`
}
