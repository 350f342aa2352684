package game

import (
	"github.com/rs/zerolog/log"

	"polycube.ai/internal/sim/board"
	"polycube.ai/internal/sim/player"
)

// MakeGreedyAIMove plays one greedy move for whoever is to move. It never
// triggers the VSGreedyAI auto reply.
func (g *GameState) MakeGreedyAIMove() { g.makeGreedyAIMove() }

// makeGreedyAIMove plays the current player's move that maximises their score
// lead after the move. Candidates are hand order x orientation x board
// position; among equal leads the last one enumerated wins. Without any legal
// candidate the turn is passed.
func (g *GameState) makeGreedyAIMove() {
	mover := g.PlayerState.CurrentPlayer()
	rotations := g.PlayerState.AvailablePieceRotations(mover)
	positions := g.BoardState.Board.AvailablePositions()

	var (
		best     *GameState
		bestDiff int
		legal    int
	)
	for _, np := range rotations {
		for _, at := range positions {
			if !board.Legal(g.BoardState.CheckPiecePlacement(mover, np.Piece, at)) {
				continue
			}
			next := g.Clone()
			next.PlayerState.SelectPiece(np.Name)
			next.BoardState.PreviewPiece(mover, np.Piece, at)
			if err := next.playPreviewedPiece(); err != nil {
				continue
			}
			legal++
			if d := next.Score.Diff(mover); best == nil || d >= bestDiff {
				best, bestDiff = &next, d
			}
		}
	}

	log.Debug().
		Str("module", "game").
		Stringer("player", mover).
		Int("candidates", len(rotations)*len(positions)).
		Int("legal", legal).
		Int("best_diff", bestDiff).
		Msg("greedy search")

	if best == nil {
		g.passTurn()
		return
	}
	*g = *best
}

// AvailableMoveExists reports whether p could legally place any piece left
// in their hand. Unseated players have no moves.
func (g *GameState) AvailableMoveExists(p player.Player) bool {
	if !g.PlayerState.Seated(p) {
		return false
	}
	positions := g.BoardState.Board.AvailablePositions()
	for _, np := range g.PlayerState.AvailablePieceRotations(p) {
		for _, at := range positions {
			if board.Legal(g.BoardState.CheckPiecePlacement(p, np.Piece, at)) {
				return true
			}
		}
	}
	return false
}
