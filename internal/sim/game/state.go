package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"polycube.ai/internal/sim/board"
	"polycube.ai/internal/sim/geom"
	"polycube.ai/internal/sim/maps"
	"polycube.ai/internal/sim/player"
)

// GameState is everything needed to continue a game. It is a plain value
// owned by one caller at a time.
type GameState struct {
	PlayerState player.State  `json:"player_state"`
	BoardState  board.State   `json:"board_state"`
	GameMode    maps.GameMode `json:"game_mode"`
	Score       board.Score   `json:"score"`
	GameEnded   bool          `json:"game_ended"`
}

// New starts a game on the built-in map presets.
func New(mode maps.GameMode) (GameState, error) {
	return NewWithPresets(maps.Defaults(), mode)
}

func NewWithPresets(p maps.Presets, mode maps.GameMode) (GameState, error) {
	b, err := p.NewBoard(mode)
	if err != nil {
		return GameState{}, fmt.Errorf("new game: %w", err)
	}
	return GameState{
		PlayerState: player.NewState(mode.IsSolitaire()),
		BoardState:  board.NewState(b),
		GameMode:    mode,
		Score:       board.NewScore(),
	}, nil
}

// Clone deep-copies the state so the copy can be played forward freely.
func (g *GameState) Clone() GameState {
	return GameState{
		PlayerState: g.PlayerState.Clone(),
		BoardState:  g.BoardState.Clone(),
		GameMode:    g.GameMode,
		Score:       g.Score.Clone(),
		GameEnded:   g.GameEnded,
	}
}

// Validate checks a decoded state for internal consistency.
func (g *GameState) Validate() error {
	if err := g.GameMode.Validate(); err != nil {
		return err
	}
	if g.BoardState.Board.HeightLimits() == nil {
		return errors.New("game state: missing board")
	}
	if !g.PlayerState.Seated(player.P1) {
		return errors.New("game state: P1 has no hand")
	}
	if g.PlayerState.Seated(player.P2) == g.GameMode.IsSolitaire() {
		return fmt.Errorf("game state: seating does not match %s", g.GameMode)
	}
	current, pc, selected := g.PlayerState.SelectedPiece()
	if err := g.BoardState.CheckPreview(current, pc, selected); err != nil {
		return fmt.Errorf("game state: %w", err)
	}
	if g.Score == nil {
		g.Score = g.BoardState.CalculateScore()
	}
	for _, p := range player.All {
		if _, ok := g.Score[p]; !ok {
			g.Score[p] = 0
		}
	}
	return nil
}

// ApplyAction advances the game by one input. Inputs that cannot take effect,
// such as playing without a legal preview, leave the state unchanged.
func (g *GameState) ApplyAction(a Action) {
	switch a.Kind {
	case ActSelectPiece:
		g.PlayerState.SelectPiece(a.Piece)
		g.BoardState.ClearPreviewedPiece()
	case ActClearSelectedPiece:
		g.BoardState.ClearPreviewedPiece()
		g.PlayerState.ClearSelectedPiece()
	case ActSetSelectedPieceOrigin:
		g.PlayerState.SetSelectedPieceOrigin(a.Coord)
	case ActRotateSelectedPiece:
		if !a.Axis.PlayerAxis() {
			return
		}
		g.PlayerState.RotateSelectedPiece(a.Axis)
		g.BoardState.ClearPreviewedPiece()
	case ActPreviewPiece:
		g.previewPiece(a.Coord)
	case ActPlayPreviewedPiece:
		if err := g.playPreviewedPiece(); err == nil {
			g.autoReply()
		}
	case ActPassTurn:
		g.passTurn()
		g.autoReply()
	case ActReset:
		g.reset()
	case ActMakeGreedyAIMove:
		g.makeGreedyAIMove()
	}
}

func (g *GameState) previewPiece(at geom.Vec3) {
	current, pc, ok := g.PlayerState.SelectedPiece()
	if !ok {
		return
	}
	g.BoardState.PreviewPiece(current, pc, at)
}

func (g *GameState) playPreviewedPiece() error {
	if err := g.BoardState.PlaySelectedPiece(); err != nil {
		return err
	}
	g.PlayerState.PlaySelectedPiece()
	g.Score = g.BoardState.CalculateScore()
	return nil
}

func (g *GameState) passTurn() {
	g.BoardState.ClearPreviewedPiece()
	g.PlayerState.ToggleCurrentPlayer()
	g.determineGameEnded()
}

// autoReply lets the greedy search answer for P2 in VSGreedyAI games.
func (g *GameState) autoReply() {
	if !g.GameMode.AIPlaysSecond() || g.GameEnded {
		return
	}
	if g.PlayerState.CurrentPlayer() != player.P2 {
		return
	}
	g.makeGreedyAIMove()
}

// reset rebuilds an empty board of the same shape and fresh hands.
func (g *GameState) reset() {
	b, err := board.New(g.BoardState.Board.HeightLimits())
	if err != nil {
		return
	}
	g.BoardState = board.NewState(b)
	g.PlayerState = player.NewState(g.GameMode.IsSolitaire())
	g.Score = board.NewScore()
	g.GameEnded = false
}

func (g *GameState) determineGameEnded() {
	if !g.AvailableMoveExists(player.P1) && !g.AvailableMoveExists(player.P2) {
		g.GameEnded = true
	}
}

// Digest hashes the canonical JSON encoding of the state.
func (g *GameState) Digest() (string, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
