package protocol

import "encoding/json"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	SessionID       string          `json:"session_id"`
	DefaultGameMode json.RawMessage `json:"default_game_mode"`
	Maps            MapManifest     `json:"maps"`
}

type MapManifest struct {
	TwoPlayer []string `json:"two_player"`
	Solitaire []string `json:"solitaire"`
}

// NEW_GAME (client -> server). A missing game_mode selects the server default.
type NewGameMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	GameMode        json.RawMessage `json:"game_mode,omitempty"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Action          json.RawMessage `json:"action"`
}

// STATE (server -> client). Seq counts state changes within the session.
type StateMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	SessionID       string          `json:"session_id"`
	Seq             uint64          `json:"seq"`
	State           json.RawMessage `json:"state"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: message}
}

// NextGameStateReq is the body of POST /v1/next_game_state.
type NextGameStateReq struct {
	State  json.RawMessage `json:"state"`
	Action json.RawMessage `json:"action"`
}
