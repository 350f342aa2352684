package geom

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Axis names a rotation axis. Players may only rotate about X and Y; Z is
// used internally when enumerating orientations.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

func (a Axis) unit() r3.Vec {
	switch a {
	case AxisY:
		return r3.Vec{Y: 1}
	case AxisZ:
		return r3.Vec{Z: 1}
	default:
		return r3.Vec{X: 1}
	}
}

// PlayerAxis reports whether a is exposed to players.
func (a Axis) PlayerAxis() bool { return a == AxisX || a == AxisY }

func (a Axis) MarshalJSON() ([]byte, error) {
	if !a.PlayerAxis() {
		return nil, fmt.Errorf("axis %s is not a player axis", a)
	}
	return json.Marshal(a.String())
}

func (a *Axis) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("axis: %w", err)
	}
	switch s {
	case "X":
		*a = AxisX
	case "Y":
		*a = AxisY
	default:
		return fmt.Errorf("axis: unknown rotation axis %q", s)
	}
	return nil
}

// Rotation is a proper rotation of grid offsets.
type Rotation struct {
	r r3.Rotation
}

// QuarterTurns builds a rotation of quarters*90 degrees about axis, using the
// right-hand rule.
func QuarterTurns(axis Axis, quarters int) Rotation {
	quarters %= 4
	if quarters < 0 {
		quarters += 4
	}
	return Rotation{r: r3.NewRotation(float64(quarters)*math.Pi/2, axis.unit())}
}

// Apply rotates v and rounds each component back onto the grid.
func (rot Rotation) Apply(v Vec3) Vec3 {
	p := rot.r.Rotate(r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)})
	return Round(p.X, p.Y, p.Z)
}
