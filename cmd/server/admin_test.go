package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"polycube.ai/internal/persistence/indexdb"
	persistlog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/sim/maps"
	"polycube.ai/internal/transport/ws"
)

func TestMetricsHandler(t *testing.T) {
	srv, err := ws.NewServer(ws.Options{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	idx, err := indexdb.OpenSQLite(filepath.Join(t.TempDir(), "games.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	dir := t.TempDir()
	sessLog := persistlog.NewSessionLogger(dir)
	defer sessLog.Close()
	mode := maps.Default()
	if err := sessLog.WriteEntry(persistlog.Entry{SessionID: "s", Seq: 1, Kind: persistlog.KindNewGame, GameMode: &mode}); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := httptest.NewRecorder()
	metricsHandler(srv, idx, sessLog)(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		"polycube_sessions_active 0",
		"polycube_games_total 0",
		"polycube_index_queue_depth",
		"polycube_index_dropped_total 0",
		"polycube_session_log_entries_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}

	rec = httptest.NewRecorder()
	metricsHandler(srv, nil, nil)(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if b := rec.Body.String(); strings.Contains(b, "polycube_index_") || strings.Contains(b, "polycube_session_log_") {
		t.Fatalf("storage metrics without storage:\n%s", b)
	}
}

func TestAdminGames(t *testing.T) {
	srv, err := ws.NewServer(ws.Options{})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	idx, err := indexdb.OpenSQLite(filepath.Join(t.TempDir(), "games.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()
	idx.RecordGameStart("g-1", "s", maps.Default(), time.Now())

	mux := http.NewServeMux()
	registerAdmin(mux, srv, idx)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	var rows []indexdb.GameRow
	deadline := time.Now().Add(3 * time.Second)
	for len(rows) == 0 && time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/admin/v1/games?limit=5")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d: %s", resp.StatusCode, b)
		}
		if err := json.Unmarshal(b, &rows); err != nil {
			t.Fatalf("decode %s: %v", b, err)
		}
		if len(rows) == 0 {
			time.Sleep(50 * time.Millisecond)
		}
	}
	if len(rows) != 1 || rows[0].GameID != "g-1" {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5000": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("%s: got %v want %v", in, got, want)
		}
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("PC_TEST_BOOL", "false")
	if envBool("PC_TEST_BOOL", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("PC_TEST_BOOL", "nope")
	if !envBool("PC_TEST_BOOL", true) {
		t.Fatalf("expected default on parse error")
	}
}
