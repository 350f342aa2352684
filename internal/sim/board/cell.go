package board

import (
	"encoding/json"
	"fmt"

	"polycube.ai/internal/sim/geom"
	"polycube.ai/internal/sim/player"
)

type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellPlayer
	CellOutOfBounds
)

// Cell is one grid slot. The zero value is an empty cell.
type Cell struct {
	Kind  CellKind
	Owner player.Player // meaningful only when Kind == CellPlayer
}

var (
	Empty       = Cell{Kind: CellEmpty}
	OutOfBounds = Cell{Kind: CellOutOfBounds}
)

func Owned(p player.Player) Cell { return Cell{Kind: CellPlayer, Owner: p} }

func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

func (c Cell) String() string {
	switch c.Kind {
	case CellEmpty:
		return "Empty"
	case CellPlayer:
		return "Player(" + c.Owner.String() + ")"
	case CellOutOfBounds:
		return "OutOfBounds"
	default:
		return fmt.Sprintf("Cell(%d)", c.Kind)
	}
}

type cellJSON struct {
	Type string         `json:"type"`
	Data *player.Player `json:"data,omitempty"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellEmpty:
		return []byte(`{"type":"Empty"}`), nil
	case CellOutOfBounds:
		return []byte(`{"type":"OutOfBounds"}`), nil
	case CellPlayer:
		p := c.Owner
		return json.Marshal(cellJSON{Type: "Player", Data: &p})
	default:
		return nil, fmt.Errorf("invalid cell kind %d", c.Kind)
	}
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	var in cellJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("cell: %w", err)
	}
	switch in.Type {
	case "Empty":
		*c = Empty
	case "OutOfBounds":
		*c = OutOfBounds
	case "Player":
		if in.Data == nil {
			return fmt.Errorf("cell: Player without owner")
		}
		*c = Owned(*in.Data)
	default:
		return fmt.Errorf("cell: unknown type %q", in.Type)
	}
	return nil
}

// CubeError explains why one cube of a candidate placement is illegal.
type CubeError uint8

const (
	Collision CubeError = iota + 1
	OutOfBoundsError
	Unsupported
	NotTouchingPiece
)

var cubeErrorNames = map[CubeError]string{
	Collision:        "Collision",
	OutOfBoundsError: "OutOfBounds",
	Unsupported:      "Unsupported",
	NotTouchingPiece: "NotTouchingPiece",
}

func (e CubeError) String() string {
	if s, ok := cubeErrorNames[e]; ok {
		return s
	}
	return fmt.Sprintf("CubeError(%d)", uint8(e))
}

func (e CubeError) MarshalJSON() ([]byte, error) {
	s, ok := cubeErrorNames[e]
	if !ok {
		return nil, fmt.Errorf("invalid cube error %d", uint8(e))
	}
	return json.Marshal(s)
}

func (e *CubeError) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("cube error: %w", err)
	}
	for k, v := range cubeErrorNames {
		if v == s {
			*e = k
			return nil
		}
	}
	return fmt.Errorf("cube error: unknown %q", s)
}

func errPtr(e CubeError) *CubeError { return &e }

// Cube is one cell of a candidate placement, annotated with its problem if it
// has one.
type Cube struct {
	Player   player.Player `json:"player"`
	Position geom.Vec3     `json:"position"`
	Error    *CubeError    `json:"error"`
}

// Legal reports whether every cube is error free.
func Legal(cubes []Cube) bool {
	for _, c := range cubes {
		if c.Error != nil {
			return false
		}
	}
	return true
}

func cloneCubes(cubes []Cube) []Cube {
	if cubes == nil {
		return nil
	}
	out := make([]Cube, len(cubes))
	for i, c := range cubes {
		out[i] = c
		if c.Error != nil {
			out[i].Error = errPtr(*c.Error)
		}
	}
	return out
}

// Score counts, per player, the columns whose topmost occupied cell they own.
type Score map[player.Player]int

func NewScore() Score { return Score{player.P1: 0, player.P2: 0} }

// Diff is p's score minus the opponent's.
func (s Score) Diff(p player.Player) int { return s[p] - s[p.Other()] }

func (s Score) Clone() Score {
	out := make(Score, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
