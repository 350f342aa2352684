package board

import (
	"encoding/json"
	"errors"
	"fmt"

	"polycube.ai/internal/sim/geom"
	"polycube.ai/internal/sim/piece"
	"polycube.ai/internal/sim/player"
)

var (
	ErrNoPreview      = errors.New("board: no previewed piece")
	ErrInvalidPreview = errors.New("board: previewed piece is not a legal placement")
	ErrStalePreview   = errors.New("board: previewed piece does not match the selected piece")
)

// State is the board plus the placement currently being previewed, if any.
type State struct {
	Board      Board
	preview    []Cube
	hasPreview bool
}

func NewState(b Board) State { return State{Board: b} }

func (s State) Clone() State {
	return State{Board: s.Board.Clone(), preview: cloneCubes(s.preview), hasPreview: s.hasPreview}
}

// CheckPiecePlacement annotates every cube of pc moved to offset with the
// first rule it breaks. A contact failure marks every cube and stops there.
// Otherwise each cube gets its bounds/collision result, which an Unsupported
// verdict replaces. The board is not modified.
func (s *State) CheckPiecePlacement(p player.Player, pc piece.Piece, offset geom.Vec3) []Cube {
	moved := pc.MovedCopy(offset)
	cubes := make([]Cube, len(moved.Coords))
	for i, c := range moved.Coords {
		cubes[i] = Cube{Player: p, Position: c}
	}

	cubes, ok := s.Board.CheckTouchesPiece(cubes)
	if !ok {
		return cubes
	}

	out := make([]Cube, len(cubes))
	for i, c := range cubes {
		c.Error = s.Board.CheckInBoundsNoCollision(c.Position)
		if !s.Board.Supports(c.Position) && !moved.Supports(c.Position) {
			c.Error = errPtr(Unsupported)
		}
		out[i] = c
	}
	return out
}

// PreviewPiece replaces the stored preview with the checked placement.
func (s *State) PreviewPiece(p player.Player, pc piece.Piece, offset geom.Vec3) {
	s.preview = s.CheckPiecePlacement(p, pc, offset)
	s.hasPreview = true
}

// Preview returns a copy of the stored preview.
func (s State) Preview() ([]Cube, bool) {
	return cloneCubes(s.preview), s.hasPreview
}

// CheckPreview verifies that the stored preview is exactly what previewing
// p's selected piece pc would produce at some offset. A preview without a
// selected piece is stale.
func (s *State) CheckPreview(p player.Player, pc piece.Piece, selected bool) error {
	if !s.hasPreview {
		return nil
	}
	if !selected || pc.Len() == 0 || len(s.preview) != pc.Len() {
		return ErrStalePreview
	}
	offset := s.preview[0].Position.Sub(pc.Coords[0])
	want := s.CheckPiecePlacement(p, pc, offset)
	for i, c := range s.preview {
		w := want[i]
		if c.Player != w.Player || c.Position != w.Position || (c.Error == nil) != (w.Error == nil) {
			return ErrStalePreview
		}
		if c.Error != nil && *c.Error != *w.Error {
			return ErrStalePreview
		}
	}
	return nil
}

func (s *State) ClearPreviewedPiece() {
	s.preview = nil
	s.hasPreview = false
}

// PlaySelectedPiece commits the preview. The board is untouched unless the
// whole preview is legal.
func (s *State) PlaySelectedPiece() error {
	if !s.hasPreview {
		return ErrNoPreview
	}
	if !Legal(s.preview) {
		return ErrInvalidPreview
	}
	s.Board.AddCubes(s.preview)
	s.ClearPreviewedPiece()
	return nil
}

func (s *State) CalculateScore() Score { return s.Board.CalculateScore() }

type stateJSON struct {
	Board          Board   `json:"board"`
	PreviewedPiece *[]Cube `json:"previewed_piece"`
}

func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{Board: s.Board}
	if s.hasPreview {
		cubes := s.preview
		if cubes == nil {
			cubes = []Cube{}
		}
		out.PreviewedPiece = &cubes
	}
	return json.Marshal(out)
}

func (s *State) UnmarshalJSON(b []byte) error {
	var in stateJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("board state: %w", err)
	}
	if in.Board.heights == nil {
		return errors.New("board state: missing board")
	}
	next := State{Board: in.Board}
	if in.PreviewedPiece != nil {
		next.preview = *in.PreviewedPiece
		next.hasPreview = true
	}
	*s = next
	return nil
}
