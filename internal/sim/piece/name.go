package piece

import (
	"encoding/json"
	"fmt"
)

// Name identifies one of the polycubes every player starts with.
type Name int

const (
	OneByTwo Name = iota
	OneByThree
	OneByFour
	TwoByTwo
	Z
	T
	L
	ShortL
	RightScrew
	LeftScrew
	Corner

	NumNames int = iota
)

var wireNames = [NumNames]string{
	OneByTwo:   "one_by_two",
	OneByThree: "one_by_three",
	OneByFour:  "one_by_four",
	TwoByTwo:   "two_by_two",
	Z:          "z",
	T:          "t",
	L:          "l",
	ShortL:     "short_l",
	RightScrew: "right_screw",
	LeftScrew:  "left_screw",
	Corner:     "corner",
}

var shapes = [NumNames][][3]int{
	OneByTwo:   {{0, 0, 0}, {0, 0, 1}},
	OneByThree: {{0, 0, 0}, {0, 0, 1}, {0, 0, 2}},
	OneByFour:  {{0, 0, 0}, {0, 0, 1}, {0, 0, 2}, {0, 0, 3}},
	TwoByTwo:   {{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1}},
	Z:          {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 2}},
	T:          {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 0, 2}},
	L:          {{0, 0, 0}, {0, 0, 1}, {0, 0, 2}, {0, 1, 2}},
	ShortL:     {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}},
	RightScrew: {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {1, 1, 1}},
	LeftScrew:  {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {-1, 1, 1}},
	Corner:     {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {1, 0, 1}},
}

// Names lists every piece in hand order.
func Names() []Name {
	out := make([]Name, NumNames)
	for i := range out {
		out[i] = Name(i)
	}
	return out
}

func (n Name) Valid() bool { return n >= 0 && int(n) < NumNames }

func (n Name) String() string {
	if !n.Valid() {
		return fmt.Sprintf("Name(%d)", int(n))
	}
	return wireNames[n]
}

// Shape returns a fresh copy of the canonical orientation of n.
func Shape(n Name) (Piece, bool) {
	if !n.Valid() {
		return Piece{}, false
	}
	return FromOffsets(shapes[n]...), true
}

func ParseName(s string) (Name, error) {
	for i, w := range wireNames {
		if w == s {
			return Name(i), nil
		}
	}
	return 0, fmt.Errorf("unknown piece name %q", s)
}

func (n Name) MarshalText() ([]byte, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("invalid piece name %d", int(n))
	}
	return []byte(wireNames[n]), nil
}

func (n *Name) UnmarshalText(b []byte) error {
	v, err := ParseName(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

func (n Name) MarshalJSON() ([]byte, error) {
	b, err := n.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(b))
}

func (n *Name) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("piece name: %w", err)
	}
	return n.UnmarshalText([]byte(s))
}
