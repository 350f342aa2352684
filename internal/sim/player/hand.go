package player

import (
	"encoding/json"
	"fmt"

	"polycube.ai/internal/sim/geom"
	"polycube.ai/internal/sim/piece"
)

type slot struct {
	available bool
	piece     piece.Piece
}

// HandState is the set of pieces a player still holds and which one, if any,
// is selected. Played pieces stay in the hand as unavailable slots.
type HandState struct {
	selected    piece.Name
	hasSelected bool
	slots       [piece.NumNames]slot
}

// NamedPiece pairs a piece orientation with the hand slot it came from.
type NamedPiece struct {
	Name  piece.Name
	Piece piece.Piece
}

func NewHandState() HandState {
	var h HandState
	for _, n := range piece.Names() {
		p, _ := piece.Shape(n)
		h.slots[n] = slot{available: true, piece: p}
	}
	return h
}

func (h HandState) Clone() HandState {
	out := h
	for i := range out.slots {
		out.slots[i].piece = h.slots[i].piece.Clone()
	}
	return out
}

func (h *HandState) SetSelectedPiece(n piece.Name) {
	if !n.Valid() {
		return
	}
	h.selected = n
	h.hasSelected = true
}

func (h *HandState) ClearSelectedPiece() {
	h.hasSelected = false
	h.selected = 0
}

// SelectedName reports the selected slot, whether or not it is still
// available.
func (h HandState) SelectedName() (piece.Name, bool) {
	return h.selected, h.hasSelected
}

// SelectedPiece returns a copy of the selected piece if one is selected and
// not yet played.
func (h HandState) SelectedPiece() (piece.Piece, bool) {
	if !h.hasSelected {
		return piece.Piece{}, false
	}
	s := h.slots[h.selected]
	if !s.available {
		return piece.Piece{}, false
	}
	return s.piece.Clone(), true
}

func (h *HandState) selectedSlot() *slot {
	if !h.hasSelected || !h.slots[h.selected].available {
		return nil
	}
	return &h.slots[h.selected]
}

func (h *HandState) SetSelectedPieceOrigin(origin geom.Vec3) {
	if s := h.selectedSlot(); s != nil {
		s.piece.SetOrigin(origin)
	}
}

func (h *HandState) RotateSelectedPiece(axis geom.Axis) {
	if s := h.selectedSlot(); s != nil {
		s.piece.Rotate(axis)
	}
}

// PlaySelectedPiece marks the selected piece as used.
func (h *HandState) PlaySelectedPiece() {
	if !h.hasSelected {
		return
	}
	h.slots[h.selected].available = false
}

func (h HandState) Available(n piece.Name) bool {
	return n.Valid() && h.slots[n].available
}

func (h HandState) AvailableCount() int {
	c := 0
	for _, s := range h.slots {
		if s.available {
			c++
		}
	}
	return c
}

// AvailablePieceRotations lists every orientation of every unplayed piece, in
// hand order then rotation order.
func (h HandState) AvailablePieceRotations() []NamedPiece {
	out := make([]NamedPiece, 0, h.AvailableCount()*piece.RotationCount)
	for _, n := range piece.Names() {
		s := h.slots[n]
		if !s.available {
			continue
		}
		for _, r := range s.piece.Rotations() {
			out = append(out, NamedPiece{Name: n, Piece: r})
		}
	}
	return out
}

type handJSON struct {
	SelectedPiece *piece.Name                 `json:"selected_piece"`
	Pieces        map[piece.Name]*piece.Piece `json:"pieces"`
}

func (h HandState) MarshalJSON() ([]byte, error) {
	out := handJSON{Pieces: make(map[piece.Name]*piece.Piece, piece.NumNames)}
	if h.hasSelected {
		n := h.selected
		out.SelectedPiece = &n
	}
	for _, n := range piece.Names() {
		s := h.slots[n]
		if !s.available {
			out.Pieces[n] = nil
			continue
		}
		p := s.piece.Clone()
		out.Pieces[n] = &p
	}
	return json.Marshal(out)
}

func (h *HandState) UnmarshalJSON(b []byte) error {
	var in handJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("hand: %w", err)
	}
	var next HandState
	if in.SelectedPiece != nil {
		next.SetSelectedPiece(*in.SelectedPiece)
	}
	for n, p := range in.Pieces {
		if p == nil {
			continue
		}
		next.slots[n] = slot{available: true, piece: p.Clone()}
	}
	*h = next
	return nil
}
