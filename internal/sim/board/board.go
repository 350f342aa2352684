package board

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"polycube.ai/internal/sim/geom"
	"polycube.ai/internal/sim/player"
)

// Size is the edge length of the physical grid.
const Size = 8

// Board is the fixed 8x8x8 grid indexed [x][y][z]. Cells above a column's
// height limit, and columns outside the height table, are permanently
// OutOfBounds.
//
// Board is a value type: assigning it copies the grid. The height table is
// shared and must be treated as read only.
type Board struct {
	cells   [Size][Size][Size]Cell
	heights [][]int
	center  [3]float64
}

// ValidateHeights checks a column height table: 1..8 rows of 1..8 columns,
// every height in 0..8 and at least one usable column.
func ValidateHeights(heights [][]int) error {
	if len(heights) == 0 || len(heights) > Size {
		return fmt.Errorf("height table: want 1..%d rows, got %d", Size, len(heights))
	}
	max := 0
	for x, row := range heights {
		if len(row) == 0 || len(row) > Size {
			return fmt.Errorf("height table: row %d: want 1..%d columns, got %d", x, Size, len(row))
		}
		for z, h := range row {
			if h < 0 || h > Size {
				return fmt.Errorf("height table: (%d,%d): height %d outside 0..%d", x, z, h, Size)
			}
			if h > max {
				max = h
			}
		}
	}
	if max == 0 {
		return errors.New("height table: every column has height 0")
	}
	return nil
}

// New builds an empty board from a column height table.
func New(heights [][]int) (Board, error) {
	if err := ValidateHeights(heights); err != nil {
		return Board{}, err
	}
	var b Board
	for x := range b.cells {
		for y := range b.cells[x] {
			for z := range b.cells[x][y] {
				b.cells[x][y][z] = OutOfBounds
			}
		}
	}
	for x, row := range heights {
		for z, h := range row {
			for y := 0; y < h; y++ {
				b.cells[x][y][z] = Empty
			}
		}
	}
	b.heights = heights
	b.center = centerOf(heights)
	return b, nil
}

func centerOf(heights [][]int) [3]float64 {
	maxH, maxLen := 0, 0
	for _, row := range heights {
		for _, h := range row {
			if h > maxH {
				maxH = h
			}
		}
		if len(row) > maxLen {
			maxLen = len(row)
		}
	}
	return [3]float64{
		float64(len(heights)-1) / 2,
		float64(maxH-1) / 2,
		float64(maxLen-1) / 2,
	}
}

// playable reports whether c lies below its column's height limit.
func playable(heights [][]int, c geom.Vec3) bool {
	if c.X < 0 || c.X >= len(heights) || c.Z < 0 || c.Z >= len(heights[c.X]) {
		return false
	}
	return c.Y >= 0 && c.Y < heights[c.X][c.Z]
}

func inArray(c geom.Vec3) bool {
	return c.X >= 0 && c.X < Size && c.Y >= 0 && c.Y < Size && c.Z >= 0 && c.Z < Size
}

// Get returns the cell at c, or false if c lies outside the physical grid.
func (b *Board) Get(c geom.Vec3) (Cell, bool) {
	if !inArray(c) {
		return Cell{}, false
	}
	return b.cells[c.X][c.Y][c.Z], true
}

func (b *Board) set(c geom.Vec3, cell Cell) bool {
	if !inArray(c) {
		return false
	}
	b.cells[c.X][c.Y][c.Z] = cell
	return true
}

func (b *Board) HeightLimits() [][]int { return b.heights }

// Center is the midpoint of the playable volume.
func (b *Board) Center() [3]float64 { return b.center }

// CheckInBoundsNoCollision returns nil if c is an empty cell.
func (b *Board) CheckInBoundsNoCollision(c geom.Vec3) *CubeError {
	cell, ok := b.Get(c)
	switch {
	case ok && cell.Kind == CellEmpty:
		return nil
	case ok && cell.Kind == CellPlayer:
		return errPtr(Collision)
	default:
		return errPtr(OutOfBoundsError)
	}
}

// Supports reports whether c rests on the ground or on a non-empty cell.
func (b *Board) Supports(c geom.Vec3) bool {
	if c.Y == 0 {
		return true
	}
	below, ok := b.Get(c.Below())
	return ok && !below.IsEmpty()
}

// PlayerHasPlayed reports whether p owns any cell.
func (b *Board) PlayerHasPlayed(p player.Player) bool {
	want := Owned(p)
	for x := range b.cells {
		for y := range b.cells[x] {
			for z := range b.cells[x][y] {
				if b.cells[x][y][z] == want {
					return true
				}
			}
		}
	}
	return false
}

// touchTarget picks whose cubes a placement by p must touch: p's own once p
// has played, otherwise the opponent's once they have, otherwise nobody's.
func (b *Board) touchTarget(p player.Player) (player.Player, bool) {
	if b.PlayerHasPlayed(p) {
		return p, true
	}
	if b.PlayerHasPlayed(p.Other()) {
		return p.Other(), true
	}
	return 0, false
}

// CheckTouchesPiece enforces the contact rule for a candidate placement owned
// by cubes[0].Player. On success it returns cubes unchanged and true. On
// failure it returns a copy with every cube marked NotTouchingPiece.
func (b *Board) CheckTouchesPiece(cubes []Cube) ([]Cube, bool) {
	if len(cubes) == 0 {
		return cubes, true
	}
	target, ok := b.touchTarget(cubes[0].Player)
	if !ok {
		return cubes, true
	}
	want := Owned(target)
	for _, c := range cubes {
		for _, n := range geom.Neighbors {
			if cell, ok := b.Get(c.Position.Add(n)); ok && cell == want {
				return cubes, true
			}
		}
	}
	out := make([]Cube, len(cubes))
	for i, c := range cubes {
		out[i] = Cube{Player: c.Player, Position: c.Position, Error: errPtr(NotTouchingPiece)}
	}
	return out, false
}

// AddCubes claims each cube's cell for its owner. Cubes outside the grid are
// skipped.
func (b *Board) AddCubes(cubes []Cube) {
	for _, c := range cubes {
		b.set(c.Position, Owned(c.Player))
	}
}

// CalculateScore awards each column to the owner of its topmost occupied cell.
func (b *Board) CalculateScore() Score {
	s := NewScore()
	for x, row := range b.heights {
		for z, limit := range row {
			for y := limit - 1; y >= 0; y-- {
				cell, _ := b.Get(geom.V(x, y, z))
				if cell.Kind == CellPlayer {
					s[cell.Owner]++
					break
				}
			}
		}
	}
	return s
}

// AvailablePositions lists every empty cell, x-major, then z, then y
// ascending. Move search tie-breaks depend on this order.
func (b *Board) AvailablePositions() []geom.Vec3 {
	var out []geom.Vec3
	for x, row := range b.heights {
		for z, limit := range row {
			for y := 0; y <= limit; y++ {
				if cell, ok := b.Get(geom.V(x, y, z)); ok && cell.IsEmpty() {
					out = append(out, geom.V(x, y, z))
				}
			}
		}
	}
	return out
}

// Clone returns an independent copy of the grid.
func (b Board) Clone() Board { return b }

// Digest hashes the grid contents.
func (b *Board) Digest() string {
	h := sha256.New()
	var tmp [2]byte
	for x := range b.cells {
		for y := range b.cells[x] {
			for z := range b.cells[x][y] {
				c := b.cells[x][y][z]
				tmp[0] = byte(c.Kind)
				tmp[1] = byte(c.Owner)
				h.Write(tmp[:])
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

type boardJSON struct {
	Cells        [][][]Cell `json:"cells"`
	HeightLimits [][]int    `json:"height_limits"`
	Center       [3]float64 `json:"center"`
}

func (b Board) MarshalJSON() ([]byte, error) {
	out := boardJSON{
		Cells:        make([][][]Cell, Size),
		HeightLimits: b.heights,
		Center:       b.center,
	}
	for x := range b.cells {
		out.Cells[x] = make([][]Cell, Size)
		for y := range b.cells[x] {
			out.Cells[x][y] = append([]Cell(nil), b.cells[x][y][:]...)
		}
	}
	return json.Marshal(out)
}

func (b *Board) UnmarshalJSON(raw []byte) error {
	var in boardJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	if err := ValidateHeights(in.HeightLimits); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	if len(in.Cells) != Size {
		return fmt.Errorf("board: want %d x planes, got %d", Size, len(in.Cells))
	}
	var next Board
	for x := range in.Cells {
		if len(in.Cells[x]) != Size {
			return fmt.Errorf("board: x=%d: want %d y rows, got %d", x, Size, len(in.Cells[x]))
		}
		for y := range in.Cells[x] {
			if len(in.Cells[x][y]) != Size {
				return fmt.Errorf("board: (%d,%d): want %d cells, got %d", x, y, Size, len(in.Cells[x][y]))
			}
			for z, cell := range in.Cells[x][y] {
				if (cell.Kind == CellOutOfBounds) == playable(in.HeightLimits, geom.V(x, y, z)) {
					return fmt.Errorf("board: (%d,%d,%d) = %s does not match the height table", x, y, z, cell)
				}
				next.cells[x][y][z] = cell
			}
		}
	}
	next.heights = in.HeightLimits
	next.center = centerOf(in.HeightLimits)
	*b = next
	return nil
}
