package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"polycube.ai/internal/persistence/indexdb"
	persistlog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/sim/game"
	"polycube.ai/internal/sim/maps"
)

func seedIndex(t *testing.T, dataDir string) {
	t.Helper()
	idx, err := indexdb.OpenSQLite(defaultIndexPath(dataDir))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	mode := maps.TwoPlayer(maps.Tower)
	g, err := game.New(mode)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	idx.RecordGameStart("a-1", "a", mode, at)
	a := game.MakeGreedyAIMove()
	g.ApplyAction(a)
	d, _ := g.Digest()
	idx.RecordMove("a-1", 1, a, d)
	idx.RecordGameEnd("a-1", &g, 1, at.Add(time.Second))
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestDBCmd(t *testing.T) {
	dir := t.TempDir()
	seedIndex(t, dir)

	cases := []struct {
		q    string
		args []string
		want string
	}{
		{"games", nil, `"game_id":"a-1"`},
		{"moves", []string{"-game", "a-1"}, `"action":"MakeGreedyAIMove"`},
		{"summary", nil, `"mode":"TwoPlayer:Tower"`},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		if err := dbCmd(tc.q, append([]string{"-data", dir}, tc.args...), &out); err != nil {
			t.Fatalf("%s: %v", tc.q, err)
		}
		if !strings.Contains(out.String(), tc.want) {
			t.Fatalf("%s: output %q missing %q", tc.q, out.String(), tc.want)
		}
	}

	var out bytes.Buffer
	if err := dbCmd("moves", []string{"-data", dir}, &out); err == nil {
		t.Fatalf("expected missing -game error")
	}
	if err := dbCmd("games", []string{"-data", t.TempDir()}, &out); err == nil {
		t.Fatalf("expected open error for missing db")
	}
}

func TestSessionsCmd(t *testing.T) {
	dir := t.TempDir()
	l := persistlog.NewSessionLogger(dir)
	mode := maps.Default()
	if err := l.WriteEntry(persistlog.Entry{SessionID: "s", Seq: 1, Kind: persistlog.KindNewGame, GameMode: &mode}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = l.Close()

	var out bytes.Buffer
	if err := sessionsCmd([]string{"-data", dir}, &out); err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(out.String(), `"file":"sessions-`) {
		t.Fatalf("output %q", out.String())
	}
}

func TestGetCmd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/v1/games" || r.URL.Query().Get("limit") != "3" {
			http.NotFound(rw, r)
			return
		}
		_, _ = rw.Write([]byte(`[]`))
	}))
	defer ts.Close()

	var out bytes.Buffer
	if err := getCmd("remote-games", "/admin/v1/games", []string{"-url", ts.URL, "-limit", "3"}, &out); err != nil {
		t.Fatalf("getCmd: %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("output %q", out.String())
	}
	if err := getCmd("state", "/admin/v1/state", []string{"-url", ts.URL}, &out); err == nil {
		t.Fatalf("expected non-2xx error")
	}
}
