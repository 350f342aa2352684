package player

import (
	"encoding/json"
	"testing"

	"polycube.ai/internal/sim/geom"
	"polycube.ai/internal/sim/piece"
)

func TestToggleCurrentPlayer_ClearsSelection(t *testing.T) {
	s := NewState(false)
	s.SelectPiece(piece.T)
	s.ToggleCurrentPlayer()
	if s.CurrentPlayer() != P2 {
		t.Fatalf("expected P2, got %s", s.CurrentPlayer())
	}
	if _, ok := s.Hand(P1).SelectedName(); ok {
		t.Fatalf("P1 selection should be cleared")
	}
}

func TestToggleCurrentPlayer_SolitaireStays(t *testing.T) {
	s := NewState(true)
	s.ToggleCurrentPlayer()
	if s.CurrentPlayer() != P1 {
		t.Fatalf("solitaire should keep P1, got %s", s.CurrentPlayer())
	}
	if s.Seated(P2) {
		t.Fatalf("P2 should not be seated")
	}
}

func TestPlaySelectedPiece_RemovesFromHand(t *testing.T) {
	s := NewState(false)
	s.SelectPiece(piece.L)
	s.PlaySelectedPiece()
	if s.Hand(P1).Available(piece.L) {
		t.Fatalf("L should be spent")
	}
	if s.Hand(P1).AvailableCount() != piece.NumNames-1 {
		t.Fatalf("unexpected count %d", s.Hand(P1).AvailableCount())
	}
	if !s.Hand(P2).Available(piece.L) {
		t.Fatalf("P2 hand should be untouched")
	}
	if s.CurrentPlayer() != P2 {
		t.Fatalf("turn should pass")
	}

	// Selecting a spent piece yields no piece.
	s.ToggleCurrentPlayer()
	s.SelectPiece(piece.L)
	if _, _, ok := s.SelectedPiece(); ok {
		t.Fatalf("spent piece must not be returned")
	}
}

func TestRotateSelectedPiece_AffectsHandCopyOnly(t *testing.T) {
	s := NewState(false)
	s.SelectPiece(piece.OneByTwo)
	_, before, _ := s.SelectedPiece()
	s.RotateSelectedPiece(geom.AxisY)
	_, after, ok := s.SelectedPiece()
	if !ok {
		t.Fatalf("expected selected piece")
	}
	if before.Coords[1] != geom.V(0, 0, 1) {
		t.Fatalf("earlier copy mutated: %v", before.Coords)
	}
	if after.Coords[1] != geom.V(1, 0, 0) {
		t.Fatalf("rotation not applied: %v", after.Coords)
	}
}

func TestAvailablePieceRotations(t *testing.T) {
	s := NewState(false)
	all := s.AvailablePieceRotations(P1)
	if len(all) != piece.NumNames*piece.RotationCount {
		t.Fatalf("got %d", len(all))
	}
	if all[0].Name != piece.OneByTwo || all[len(all)-1].Name != piece.Corner {
		t.Fatalf("unexpected order: first=%s last=%s", all[0].Name, all[len(all)-1].Name)
	}
	if NewState(true).AvailablePieceRotations(P2) != nil {
		t.Fatalf("unseated player should have no rotations")
	}
}

func TestStateJSON_RoundTrip(t *testing.T) {
	s := NewState(false)
	s.SelectPiece(piece.Z)
	s.RotateSelectedPiece(geom.AxisX)
	s.PlaySelectedPiece()
	s.SelectPiece(piece.Corner)

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got State
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b2, _ := json.Marshal(got)
	if string(b) != string(b2) {
		t.Fatalf("round trip mismatch:\n%s\n%s", b, b2)
	}
	if got.CurrentPlayer() != P2 || got.Hand(P1).Available(piece.Z) {
		t.Fatalf("decoded state lost information: %s", b2)
	}
}
