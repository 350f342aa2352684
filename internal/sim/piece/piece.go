package piece

import (
	"encoding/json"
	"fmt"

	"polycube.ai/internal/sim/geom"
)

// Piece is a rigid polycube expressed as offsets from a local origin.
//
// Every operation builds a fresh coordinate slice, so a Piece handed out of a
// player's hand never aliases the hand's copy.
type Piece struct {
	Coords []geom.Vec3
}

func FromOffsets(offsets ...[3]int) Piece {
	coords := make([]geom.Vec3, 0, len(offsets))
	for _, o := range offsets {
		coords = append(coords, geom.V(o[0], o[1], o[2]))
	}
	return Piece{Coords: coords}
}

func (p Piece) Clone() Piece {
	return Piece{Coords: append([]geom.Vec3(nil), p.Coords...)}
}

func (p Piece) Len() int { return len(p.Coords) }

// MovedCopy translates every cube by offset.
func (p Piece) MovedCopy(offset geom.Vec3) Piece {
	out := make([]geom.Vec3, len(p.Coords))
	for i, c := range p.Coords {
		out[i] = c.Add(offset)
	}
	return Piece{Coords: out}
}

// SetOrigin re-expresses every cube relative to newOrigin. Picture lifting
// the polycube by the cube at newOrigin.
func (p *Piece) SetOrigin(newOrigin geom.Vec3) {
	out := make([]geom.Vec3, len(p.Coords))
	for i, c := range p.Coords {
		out[i] = c.Sub(newOrigin)
	}
	p.Coords = out
}

// Rotate turns the piece 90 degrees about axis.
func (p *Piece) Rotate(axis geom.Axis) {
	*p = p.applyRotation(geom.QuarterTurns(axis, 1))
}

func (p Piece) applyRotation(rot geom.Rotation) Piece {
	out := make([]geom.Vec3, len(p.Coords))
	for i, c := range p.Coords {
		out[i] = rot.Apply(c)
	}
	return Piece{Coords: out}
}

// Contains reports whether the piece has a cube at c.
func (p Piece) Contains(c geom.Vec3) bool {
	for _, pc := range p.Coords {
		if pc == c {
			return true
		}
	}
	return false
}

// Supports reports whether the piece itself has a cube directly beneath c.
// Cubes of one piece may hold each other up before any of them touches the
// board.
func (p Piece) Supports(c geom.Vec3) bool {
	return p.Contains(c.Below())
}

var (
	sideUp = []geom.Rotation{
		geom.QuarterTurns(geom.AxisX, 0),
		geom.QuarterTurns(geom.AxisX, 1),
		geom.QuarterTurns(geom.AxisX, 2),
		geom.QuarterTurns(geom.AxisX, 3),
		geom.QuarterTurns(geom.AxisZ, 1),
		geom.QuarterTurns(geom.AxisZ, 3),
	}
	aboutY = []geom.Rotation{
		geom.QuarterTurns(geom.AxisY, 0),
		geom.QuarterTurns(geom.AxisY, 1),
		geom.QuarterTurns(geom.AxisY, 2),
		geom.QuarterTurns(geom.AxisY, 3),
	}
)

// RotationCount is the order of the cube's rotation group.
const RotationCount = 24

// Rotations enumerates the 24 orientations of p: which local face points up
// (6) times a quarter-turn about the vertical axis (4). Symmetric pieces yield
// repeated shapes; they are kept.
func (p Piece) Rotations() []Piece {
	out := make([]Piece, 0, RotationCount)
	for _, up := range sideUp {
		turned := p.applyRotation(up)
		for _, y := range aboutY {
			out = append(out, turned.applyRotation(y))
		}
	}
	return out
}

func (p Piece) MarshalJSON() ([]byte, error) {
	coords := p.Coords
	if coords == nil {
		coords = []geom.Vec3{}
	}
	return json.Marshal(coords)
}

func (p *Piece) UnmarshalJSON(b []byte) error {
	var coords []geom.Vec3
	if err := json.Unmarshal(b, &coords); err != nil {
		return fmt.Errorf("piece: %w", err)
	}
	seen := make(map[geom.Vec3]struct{}, len(coords))
	for _, c := range coords {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("piece: duplicate cube %v", c)
		}
		seen[c] = struct{}{}
	}
	p.Coords = coords
	return nil
}
