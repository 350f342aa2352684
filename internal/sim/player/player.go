package player

import (
	"encoding/json"
	"fmt"
)

// Player identifies a seat at the table.
type Player int

const (
	P1 Player = iota
	P2
)

// All lists both seats in turn order.
var All = [2]Player{P1, P2}

func (p Player) Valid() bool { return p == P1 || p == P2 }

func (p Player) Other() Player {
	if p == P1 {
		return P2
	}
	return P1
}

func (p Player) String() string {
	switch p {
	case P1:
		return "P1"
	case P2:
		return "P2"
	default:
		return fmt.Sprintf("Player(%d)", int(p))
	}
}

func Parse(s string) (Player, error) {
	switch s {
	case "P1":
		return P1, nil
	case "P2":
		return P2, nil
	default:
		return 0, fmt.Errorf("unknown player %q", s)
	}
}

func (p Player) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid player %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Player) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Player) MarshalJSON() ([]byte, error) {
	b, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(b))
}

func (p *Player) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	return p.UnmarshalText([]byte(s))
}
