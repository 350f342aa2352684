package piece

import (
	"encoding/json"
	"testing"

	"polycube.ai/internal/sim/geom"
)

func TestSetOrigin(t *testing.T) {
	p := Piece{Coords: []geom.Vec3{geom.V(1, 1, 1), geom.V(2, 2, 2)}}
	p.SetOrigin(geom.V(1, 1, 1))
	if p.Coords[0] != geom.V(0, 0, 0) || p.Coords[1] != geom.V(1, 1, 1) {
		t.Fatalf("unexpected coords: %v", p.Coords)
	}
}

func TestMovedCopy_DoesNotMutate(t *testing.T) {
	p, _ := Shape(OneByTwo)
	moved := p.MovedCopy(geom.V(2, 1, 3))
	if p.Coords[0] != geom.V(0, 0, 0) {
		t.Fatalf("original mutated: %v", p.Coords)
	}
	if moved.Coords[0] != geom.V(2, 1, 3) || moved.Coords[1] != geom.V(2, 1, 4) {
		t.Fatalf("moved: %v", moved.Coords)
	}
}

func TestRotate_FourTimesRestores(t *testing.T) {
	for _, name := range Names() {
		orig, _ := Shape(name)
		for _, axis := range []geom.Axis{geom.AxisX, geom.AxisY} {
			p := orig.Clone()
			for i := 0; i < 4; i++ {
				p.Rotate(axis)
			}
			for i := range orig.Coords {
				if p.Coords[i] != orig.Coords[i] {
					t.Fatalf("%s about %s: got %v want %v", name, axis, p.Coords, orig.Coords)
				}
			}
		}
	}
}

func TestRotate_AboutX(t *testing.T) {
	p, _ := Shape(OneByTwo)
	p.Rotate(geom.AxisX)
	// (0,0,1) -> (0,-1,0)
	if p.Coords[1] != geom.V(0, -1, 0) {
		t.Fatalf("got %v", p.Coords)
	}
}

func TestSupports_OwnCubes(t *testing.T) {
	p, _ := Shape(TwoByTwo)
	if !p.Supports(geom.V(0, 1, 0)) {
		t.Fatalf("expected (0,1,0) supported by (0,0,0)")
	}
	if p.Supports(geom.V(0, 0, 0)) {
		t.Fatalf("(0,0,0) has nothing beneath it within the piece")
	}
}

func TestRotations_Count24AndRigid(t *testing.T) {
	for _, name := range Names() {
		p, _ := Shape(name)
		rots := p.Rotations()
		if len(rots) != RotationCount {
			t.Fatalf("%s: got %d rotations", name, len(rots))
		}
		for i, r := range rots {
			if r.Len() != p.Len() {
				t.Fatalf("%s rot %d: cube count changed", name, i)
			}
			seen := map[geom.Vec3]bool{}
			for _, c := range r.Coords {
				if seen[c] {
					t.Fatalf("%s rot %d: duplicate cube %v", name, i, c)
				}
				seen[c] = true
			}
		}
	}
}

func TestRotations_StraightPieceHasThreeAxes(t *testing.T) {
	p, _ := Shape(OneByFour)
	dirs := map[geom.Vec3]bool{}
	for _, r := range p.Rotations() {
		d := r.Coords[1].Sub(r.Coords[0])
		dirs[d] = true
	}
	// the bar points along each of the six directions at least once
	if len(dirs) != 6 {
		t.Fatalf("expected 6 bar directions, got %d: %v", len(dirs), dirs)
	}
}

func TestRotations_FirstIsIdentity(t *testing.T) {
	p, _ := Shape(Corner)
	first := p.Rotations()[0]
	for i := range p.Coords {
		if first.Coords[i] != p.Coords[i] {
			t.Fatalf("first rotation should be identity: %v", first.Coords)
		}
	}
}

func TestNameJSON(t *testing.T) {
	b, err := json.Marshal(ShortL)
	if err != nil || string(b) != `"short_l"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var n Name
	if err := json.Unmarshal([]byte(`"right_screw"`), &n); err != nil || n != RightScrew {
		t.Fatalf("unmarshal: %v %v", n, err)
	}
	if err := json.Unmarshal([]byte(`"pentomino"`), &n); err == nil {
		t.Fatalf("expected unknown name error")
	}
}

func TestPieceJSON_RejectsDuplicates(t *testing.T) {
	var p Piece
	if err := json.Unmarshal([]byte(`[[0,0,0],[0,0,1]]`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte(`[[0,0,0],[0,0,0]]`), &p); err == nil {
		t.Fatalf("expected duplicate error")
	}
}
