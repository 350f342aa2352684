package player

import (
	"encoding/json"
	"fmt"

	"polycube.ai/internal/sim/geom"
	"polycube.ai/internal/sim/piece"
)

// State tracks whose turn it is and every seated player's hand. A solitaire
// table seats only P1.
type State struct {
	current Player
	hands   [2]*HandState
}

// NewState seats P1, and P2 unless solitaire is set.
func NewState(solitaire bool) State {
	s := State{current: P1}
	h1 := NewHandState()
	s.hands[P1] = &h1
	if !solitaire {
		h2 := NewHandState()
		s.hands[P2] = &h2
	}
	return s
}

func (s State) Clone() State {
	out := State{current: s.current}
	for i, h := range s.hands {
		if h == nil {
			continue
		}
		c := h.Clone()
		out.hands[i] = &c
	}
	return out
}

func (s State) CurrentPlayer() Player { return s.current }

// Seated reports whether p has a hand at this table.
func (s State) Seated(p Player) bool { return p.Valid() && s.hands[p] != nil }

// Hand returns p's hand, or nil if p is not seated.
func (s State) Hand(p Player) *HandState {
	if !p.Valid() {
		return nil
	}
	return s.hands[p]
}

func (s *State) currentHand() *HandState { return s.Hand(s.current) }

// ToggleCurrentPlayer clears the outgoing player's selection and hands the
// turn over. With a single seated player the turn stays put.
func (s *State) ToggleCurrentPlayer() {
	if h := s.currentHand(); h != nil {
		h.ClearSelectedPiece()
	}
	if s.Seated(s.current.Other()) {
		s.current = s.current.Other()
	}
}

func (s *State) SelectPiece(n piece.Name) {
	if h := s.currentHand(); h != nil {
		h.SetSelectedPiece(n)
	}
}

func (s *State) ClearSelectedPiece() {
	if h := s.currentHand(); h != nil {
		h.ClearSelectedPiece()
	}
}

func (s *State) RotateSelectedPiece(axis geom.Axis) {
	if h := s.currentHand(); h != nil {
		h.RotateSelectedPiece(axis)
	}
}

func (s *State) SetSelectedPieceOrigin(origin geom.Vec3) {
	if h := s.currentHand(); h != nil {
		h.SetSelectedPieceOrigin(origin)
	}
}

// PlaySelectedPiece removes the selected piece from the current hand and
// passes the turn.
func (s *State) PlaySelectedPiece() {
	if h := s.currentHand(); h != nil {
		h.PlaySelectedPiece()
	}
	s.ToggleCurrentPlayer()
}

// SelectedPiece returns the current player and a copy of their selected
// piece, if they hold one.
func (s State) SelectedPiece() (Player, piece.Piece, bool) {
	h := s.Hand(s.current)
	if h == nil {
		return s.current, piece.Piece{}, false
	}
	p, ok := h.SelectedPiece()
	return s.current, p, ok
}

// AvailablePieceRotations lists every orientation of p's unplayed pieces.
func (s State) AvailablePieceRotations(p Player) []NamedPiece {
	h := s.Hand(p)
	if h == nil {
		return nil
	}
	return h.AvailablePieceRotations()
}

type stateJSON struct {
	CurrentPlayer Player                `json:"current_player"`
	Players       map[Player]*HandState `json:"players"`
}

func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{CurrentPlayer: s.current, Players: map[Player]*HandState{}}
	for _, p := range All {
		if h := s.hands[p]; h != nil {
			out.Players[p] = h
		}
	}
	return json.Marshal(out)
}

func (s *State) UnmarshalJSON(b []byte) error {
	var in stateJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("player state: %w", err)
	}
	if in.Players[P1] == nil {
		return fmt.Errorf("player state: P1 must be seated")
	}
	next := State{current: in.CurrentPlayer}
	for p, h := range in.Players {
		if h == nil {
			continue
		}
		c := h.Clone()
		next.hands[p] = &c
	}
	if !next.Seated(next.current) {
		return fmt.Errorf("player state: current player %s is not seated", next.current)
	}
	*s = next
	return nil
}
