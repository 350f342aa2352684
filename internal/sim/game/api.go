package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"polycube.ai/internal/sim/maps"
)

var (
	ErrBadGameMode = errors.New("game: invalid game mode")
	ErrBadState    = errors.New("game: invalid game state")
	ErrBadAction   = errors.New("game: invalid action")
)

// NewGame decodes a game mode and returns the encoded starting state.
func NewGame(modeJSON []byte) ([]byte, error) {
	var mode maps.GameMode
	if err := json.Unmarshal(modeJSON, &mode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadGameMode, err)
	}
	g, err := New(mode)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&g)
}

// NextGameState decodes a state and an action, applies the action and
// returns the encoded result.
func NextGameState(stateJSON, actionJSON []byte) ([]byte, error) {
	g, err := DecodeState(stateJSON)
	if err != nil {
		return nil, err
	}
	var a Action
	if err := json.Unmarshal(actionJSON, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadAction, err)
	}
	g.ApplyAction(a)
	return json.Marshal(&g)
}

// DecodeState parses and validates an encoded GameState.
func DecodeState(raw []byte) (GameState, error) {
	var g GameState
	if err := json.Unmarshal(raw, &g); err != nil {
		return GameState{}, fmt.Errorf("%w: %v", ErrBadState, err)
	}
	if err := g.Validate(); err != nil {
		return GameState{}, fmt.Errorf("%w: %v", ErrBadState, err)
	}
	return g, nil
}
