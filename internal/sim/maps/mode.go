package maps

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TwoPlayerMap names a board preset for two seated players.
type TwoPlayerMap string

const (
	Tower   TwoPlayerMap = "Tower"
	Pyramid TwoPlayerMap = "Pyramid"
	Stairs  TwoPlayerMap = "Stairs"
	Wall    TwoPlayerMap = "Wall"
)

// TwoPlayerMaps lists every two-player preset in declaration order.
var TwoPlayerMaps = []TwoPlayerMap{Tower, Pyramid, Stairs, Wall}

func (m TwoPlayerMap) Valid() bool {
	for _, v := range TwoPlayerMaps {
		if v == m {
			return true
		}
	}
	return false
}

// SolitaireMap names a board preset for a single player.
type SolitaireMap string

const FourByFiveByTwo SolitaireMap = "FourByFiveByTwo"

var SolitaireMaps = []SolitaireMap{FourByFiveByTwo}

func (m SolitaireMap) Valid() bool {
	for _, v := range SolitaireMaps {
		if v == m {
			return true
		}
	}
	return false
}

type Kind int

const (
	KindSolitaire Kind = iota
	KindTwoPlayer
	KindVSGreedyAI
)

func (k Kind) String() string {
	switch k {
	case KindSolitaire:
		return "Solitaire"
	case KindTwoPlayer:
		return "TwoPlayer"
	case KindVSGreedyAI:
		return "VSGreedyAI"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "Solitaire":
		return KindSolitaire, nil
	case "TwoPlayer":
		return KindTwoPlayer, nil
	case "VSGreedyAI":
		return KindVSGreedyAI, nil
	default:
		return 0, fmt.Errorf("unknown game mode %q", s)
	}
}

// GameMode selects who plays and on which board. Build one with Solitaire,
// TwoPlayer or VSGreedyAI.
type GameMode struct {
	kind Kind
	name string
}

func Solitaire(m SolitaireMap) GameMode  { return GameMode{kind: KindSolitaire, name: string(m)} }
func TwoPlayer(m TwoPlayerMap) GameMode  { return GameMode{kind: KindTwoPlayer, name: string(m)} }
func VSGreedyAI(m TwoPlayerMap) GameMode { return GameMode{kind: KindVSGreedyAI, name: string(m)} }

// Default is a two-player game on Tower.
func Default() GameMode { return TwoPlayer(Tower) }

func (g GameMode) Kind() Kind { return g.kind }

// MapName is the preset name regardless of kind.
func (g GameMode) MapName() string { return g.name }

func (g GameMode) IsSolitaire() bool { return g.kind == KindSolitaire }

// AIPlaysSecond reports whether P2 is driven by the greedy search.
func (g GameMode) AIPlaysSecond() bool { return g.kind == KindVSGreedyAI }

func (g GameMode) Validate() error {
	switch g.kind {
	case KindSolitaire:
		if !SolitaireMap(g.name).Valid() {
			return fmt.Errorf("unknown solitaire map %q", g.name)
		}
	case KindTwoPlayer, KindVSGreedyAI:
		if !TwoPlayerMap(g.name).Valid() {
			return fmt.Errorf("unknown two-player map %q", g.name)
		}
	default:
		return fmt.Errorf("unknown game mode kind %d", int(g.kind))
	}
	return nil
}

// String renders the mode as "Kind:Map", the form ParseGameMode accepts.
func (g GameMode) String() string { return g.kind.String() + ":" + g.name }

// ParseGameMode reads "Kind:Map", e.g. "VSGreedyAI:Pyramid".
func ParseGameMode(s string) (GameMode, error) {
	k, name, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return GameMode{}, fmt.Errorf("game mode %q: want Kind:Map", s)
	}
	kind, err := parseKind(k)
	if err != nil {
		return GameMode{}, err
	}
	g := GameMode{kind: kind, name: name}
	if err := g.Validate(); err != nil {
		return GameMode{}, err
	}
	return g, nil
}

type modeJSON struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

func (g GameMode) MarshalJSON() ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(modeJSON{Type: g.kind.String(), Data: g.name})
}

func (g *GameMode) UnmarshalJSON(b []byte) error {
	var in modeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return fmt.Errorf("game mode: %w", err)
	}
	kind, err := parseKind(in.Type)
	if err != nil {
		return err
	}
	next := GameMode{kind: kind, name: in.Data}
	if err := next.Validate(); err != nil {
		return err
	}
	*g = next
	return nil
}
