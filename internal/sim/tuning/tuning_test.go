package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"polycube.ai/internal/sim/maps"
)

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	tune, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	mode, err := tune.GameMode()
	if err != nil || mode != maps.Default() {
		t.Fatalf("mode=%v err=%v", mode, err)
	}
	if tune.Session.OutboxSize != 16 || tune.Log.Format != "console" {
		t.Fatalf("unexpected defaults: %+v", tune)
	}
}

func TestLoad_OverridesAndValidates(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"partial", "default_game_mode: VSGreedyAI:Pyramid\nlog:\n  level: debug\n  format: json\n", false},
		{"bad_mode", "default_game_mode: Solitaire:Tower\n", true},
		{"bad_format", "log:\n  format: xml\n", true},
		{"bad_outbox", "session:\n  outbox_size: 0\n", true},
		{"bad_pong_wait", "session:\n  pong_wait_ms: -1\n", true},
		{"bad_level", "log:\n  level: loud\n", true},
	}
	for _, tc := range cases {
		p := filepath.Join(dir, tc.name+".yaml")
		if err := os.WriteFile(p, []byte(tc.body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		tune, err := Load(p)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		mode, _ := tune.GameMode()
		if mode != maps.VSGreedyAI(maps.Pyramid) || tune.Log.Level != "debug" {
			t.Fatalf("%s: %+v", tc.name, tune)
		}
		if tune.Session.MaxMessageBytes != 64<<10 {
			t.Fatalf("%s: defaults lost: %+v", tc.name, tune.Session)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
