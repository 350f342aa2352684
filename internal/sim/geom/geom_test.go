package geom

import (
	"encoding/json"
	"testing"
)

func TestQuarterTurns_RightHandRule(t *testing.T) {
	cases := []struct {
		axis Axis
		in   Vec3
		want Vec3
	}{
		{axis: AxisX, in: V(0, 1, 0), want: V(0, 0, 1)},
		{axis: AxisX, in: V(0, 0, 1), want: V(0, -1, 0)},
		{axis: AxisY, in: V(1, 0, 0), want: V(0, 0, -1)},
		{axis: AxisY, in: V(0, 0, 1), want: V(1, 0, 0)},
		{axis: AxisZ, in: V(1, 0, 0), want: V(0, 1, 0)},
		{axis: AxisZ, in: V(0, 1, 0), want: V(-1, 0, 0)},
	}
	for _, c := range cases {
		if got := QuarterTurns(c.axis, 1).Apply(c.in); got != c.want {
			t.Fatalf("rotate %v about %s: got %v want %v", c.in, c.axis, got, c.want)
		}
	}
}

func TestQuarterTurns_FourTurnsIsIdentity(t *testing.T) {
	pts := []Vec3{V(0, 0, 0), V(1, 2, 3), V(-1, 0, 2), V(3, -2, -1)}
	for _, axis := range []Axis{AxisX, AxisY, AxisZ} {
		rot := QuarterTurns(axis, 1)
		for _, p := range pts {
			got := p
			for i := 0; i < 4; i++ {
				got = rot.Apply(got)
			}
			if got != p {
				t.Fatalf("4x%s(%v)=%v", axis, p, got)
			}
		}
	}
}

func TestQuarterTurns_NormalizesCount(t *testing.T) {
	p := V(1, 2, 3)
	if QuarterTurns(AxisY, 5).Apply(p) != QuarterTurns(AxisY, 1).Apply(p) {
		t.Fatalf("5 quarter turns should equal 1")
	}
	if QuarterTurns(AxisY, -1).Apply(p) != QuarterTurns(AxisY, 3).Apply(p) {
		t.Fatalf("-1 quarter turns should equal 3")
	}
}

func TestVec3JSON_RoundsReals(t *testing.T) {
	var v Vec3
	if err := json.Unmarshal([]byte(`[0.9999, -0.0001, 2.5]`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v != V(1, 0, 3) {
		t.Fatalf("got %v", v)
	}
	b, err := json.Marshal(V(1, -2, 3))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[1,-2,3]" {
		t.Fatalf("got %s", b)
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Fatalf("expected error for short vector")
	}
}

func TestAxisJSON_RejectsZ(t *testing.T) {
	var a Axis
	if err := json.Unmarshal([]byte(`"Y"`), &a); err != nil || a != AxisY {
		t.Fatalf("Y: a=%v err=%v", a, err)
	}
	if err := json.Unmarshal([]byte(`"Z"`), &a); err == nil {
		t.Fatalf("expected Z to be rejected")
	}
	if _, err := json.Marshal(AxisZ); err == nil {
		t.Fatalf("expected marshal of Z to fail")
	}
}
