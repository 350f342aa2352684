package game

import (
	"encoding/json"
	"fmt"

	"polycube.ai/internal/sim/geom"
	"polycube.ai/internal/sim/piece"
)

type ActionKind int

const (
	ActSelectPiece ActionKind = iota
	ActClearSelectedPiece
	ActSetSelectedPieceOrigin
	ActRotateSelectedPiece
	ActPreviewPiece
	ActPlayPreviewedPiece
	ActPassTurn
	ActReset
	ActMakeGreedyAIMove
)

var actionNames = [...]string{
	ActSelectPiece:            "SelectPiece",
	ActClearSelectedPiece:     "ClearSelectedPiece",
	ActSetSelectedPieceOrigin: "SetSelectedPieceOrigin",
	ActRotateSelectedPiece:    "RotateSelectedPiece",
	ActPreviewPiece:           "PreviewPiece",
	ActPlayPreviewedPiece:     "PlayPreviewedPiece",
	ActPassTurn:               "PassTurn",
	ActReset:                  "Reset",
	ActMakeGreedyAIMove:       "MakeGreedyAIMove",
}

func (k ActionKind) Valid() bool { return k >= 0 && int(k) < len(actionNames) }

func (k ActionKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
	return actionNames[k]
}

func parseActionKind(s string) (ActionKind, error) {
	for i, n := range actionNames {
		if n == s {
			return ActionKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Action is one player input. Only the field matching Kind is meaningful.
type Action struct {
	Kind  ActionKind
	Piece piece.Name
	Coord geom.Vec3
	Axis  geom.Axis
}

func SelectPiece(n piece.Name) Action { return Action{Kind: ActSelectPiece, Piece: n} }
func ClearSelectedPiece() Action      { return Action{Kind: ActClearSelectedPiece} }
func SetSelectedPieceOrigin(c geom.Vec3) Action {
	return Action{Kind: ActSetSelectedPieceOrigin, Coord: c}
}
func RotateSelectedPiece(axis geom.Axis) Action {
	return Action{Kind: ActRotateSelectedPiece, Axis: axis}
}
func PreviewPiece(c geom.Vec3) Action { return Action{Kind: ActPreviewPiece, Coord: c} }
func PlayPreviewedPiece() Action      { return Action{Kind: ActPlayPreviewedPiece} }
func PassTurn() Action                { return Action{Kind: ActPassTurn} }
func Reset() Action                   { return Action{Kind: ActReset} }
func MakeGreedyAIMove() Action        { return Action{Kind: ActMakeGreedyAIMove} }

func (a Action) String() string {
	switch a.Kind {
	case ActSelectPiece:
		return fmt.Sprintf("SelectPiece(%s)", a.Piece)
	case ActSetSelectedPieceOrigin, ActPreviewPiece:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Coord)
	case ActRotateSelectedPiece:
		return fmt.Sprintf("RotateSelectedPiece(%s)", a.Axis)
	default:
		return a.Kind.String()
	}
}

type actionJSON struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	if !a.Kind.Valid() {
		return nil, fmt.Errorf("invalid action kind %d", int(a.Kind))
	}
	out := actionJSON{Type: a.Kind.String()}
	var data any
	switch a.Kind {
	case ActSelectPiece:
		data = a.Piece
	case ActSetSelectedPieceOrigin, ActPreviewPiece:
		data = a.Coord
	case ActRotateSelectedPiece:
		data = a.Axis
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", a.Kind, err)
		}
		out.Data = raw
	}
	return json.Marshal(out)
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var in actionJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	kind, err := parseActionKind(in.Type)
	if err != nil {
		return err
	}
	next := Action{Kind: kind}
	var target any
	switch kind {
	case ActSelectPiece:
		target = &next.Piece
	case ActSetSelectedPieceOrigin, ActPreviewPiece:
		target = &next.Coord
	case ActRotateSelectedPiece:
		target = &next.Axis
	}
	if target != nil {
		if len(in.Data) == 0 {
			return fmt.Errorf("action %s: missing data", kind)
		}
		if err := json.Unmarshal(in.Data, target); err != nil {
			return fmt.Errorf("action %s: %w", kind, err)
		}
	}
	*a = next
	return nil
}
