package geom

import (
	"encoding/json"
	"fmt"
	"math"
)

// Vec3 is an integer grid coordinate. It is used both as an absolute board
// index and as an offset relative to a piece's local origin.
type Vec3 struct {
	X, Y, Z int
}

func V(x, y, z int) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

// Below is the coordinate directly beneath v.
func (v Vec3) Below() Vec3 { return Vec3{X: v.X, Y: v.Y - 1, Z: v.Z} }

func (v Vec3) String() string { return fmt.Sprintf("[%d,%d,%d]", v.X, v.Y, v.Z) }

// Neighbors are the six axis-aligned unit offsets.
var Neighbors = [6]Vec3{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// Round converts real-valued components to the nearest integer cell.
func Round(x, y, z float64) Vec3 {
	return Vec3{X: roundInt(x), Y: roundInt(y), Z: roundInt(z)}
}

func roundInt(f float64) int {
	r := math.Round(f)
	if r == 0 {
		// collapse -0
		return 0
	}
	return int(r)
}

// MarshalJSON encodes v as a [x,y,z] array.
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{v.X, v.Y, v.Z})
}

// UnmarshalJSON accepts [x,y,z] with integer or real components; reals are
// rounded to the nearest cell.
func (v *Vec3) UnmarshalJSON(b []byte) error {
	var raw []float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("vec3: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("vec3: want 3 components, got %d", len(raw))
	}
	for _, f := range raw {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("vec3: non-finite component")
		}
	}
	*v = Round(raw[0], raw[1], raw[2])
	return nil
}
