package maps

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"polycube.ai/internal/sim/board"
)

//go:embed maps.yaml
var embeddedMaps []byte

// Presets holds the column height table of every known map.
type Presets struct {
	TwoPlayer map[TwoPlayerMap][][]int `yaml:"two_player"`
	Solitaire map[SolitaireMap][][]int `yaml:"solitaire"`
}

// Defaults returns the presets compiled into the binary.
func Defaults() Presets {
	p, err := parse(embeddedMaps)
	if err != nil {
		panic(fmt.Sprintf("maps: embedded maps.yaml: %v", err))
	}
	return p
}

// Load starts from the embedded presets and overlays path if it is set. Maps
// missing from the override keep their built-in shape.
func Load(path string) (Presets, error) {
	p := Defaults()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	var over Presets
	if err := yaml.Unmarshal(raw, &over); err != nil {
		return p, fmt.Errorf("maps.yaml: %w", err)
	}
	for k, v := range over.TwoPlayer {
		p.TwoPlayer[k] = v
	}
	for k, v := range over.Solitaire {
		p.Solitaire[k] = v
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("maps.yaml: %w", err)
	}
	return p, nil
}

func parse(raw []byte) (Presets, error) {
	var p Presets
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, err
	}
	if p.TwoPlayer == nil {
		p.TwoPlayer = map[TwoPlayerMap][][]int{}
	}
	if p.Solitaire == nil {
		p.Solitaire = map[SolitaireMap][][]int{}
	}
	return p, p.Validate()
}

// Validate checks that every known map has a usable table and that no
// unknown map names slipped in.
func (p Presets) Validate() error {
	for name, h := range p.TwoPlayer {
		if !name.Valid() {
			return fmt.Errorf("unknown two-player map %q", name)
		}
		if err := board.ValidateHeights(h); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for name, h := range p.Solitaire {
		if !name.Valid() {
			return fmt.Errorf("unknown solitaire map %q", name)
		}
		if err := board.ValidateHeights(h); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, name := range TwoPlayerMaps {
		if _, ok := p.TwoPlayer[name]; !ok {
			return fmt.Errorf("missing two-player map %q", name)
		}
	}
	for _, name := range SolitaireMaps {
		if _, ok := p.Solitaire[name]; !ok {
			return fmt.Errorf("missing solitaire map %q", name)
		}
	}
	return nil
}

// Heights returns a copy of the height table for mode.
func (p Presets) Heights(mode GameMode) ([][]int, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	var h [][]int
	var ok bool
	if mode.IsSolitaire() {
		h, ok = p.Solitaire[SolitaireMap(mode.MapName())]
	} else {
		h, ok = p.TwoPlayer[TwoPlayerMap(mode.MapName())]
	}
	if !ok {
		return nil, fmt.Errorf("no preset for %s", mode)
	}
	out := make([][]int, len(h))
	for i, row := range h {
		out[i] = append([]int(nil), row...)
	}
	return out, nil
}

// NewBoard builds an empty board for mode.
func (p Presets) NewBoard(mode GameMode) (board.Board, error) {
	h, err := p.Heights(mode)
	if err != nil {
		return board.Board{}, err
	}
	return board.New(h)
}
