package main

import (
	"context"
	"sync"
	"testing"

	plog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/sim/maps"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []plog.Entry
}

func (m *memRecorder) WriteEntry(e plog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func TestRunSelfPlay_Deterministic(t *testing.T) {
	rec := &memRecorder{}
	cfg := config{
		Presets: maps.Defaults(),
		Mode:    maps.TwoPlayer(maps.Tower),
		Games:   3,
		Workers: 2,
		RunID:   "t",
		Entries: rec,
	}
	rs, err := runSelfPlay(context.Background(), cfg)
	if err != nil {
		t.Fatalf("runSelfPlay: %v", err)
	}
	if len(rs) != 3 {
		t.Fatalf("results=%d", len(rs))
	}
	for i, r := range rs {
		if !r.Ended || r.Game != i {
			t.Fatalf("game %d: %+v", i, r)
		}
		if r.Digest != rs[0].Digest || r.Moves != rs[0].Moves {
			t.Fatalf("game %d diverged: %+v vs %+v", i, r, rs[0])
		}
		if r.ScoreP1+r.ScoreP2 == 0 {
			t.Fatalf("game %d: nobody scored", i)
		}
	}

	s := summarize(rs)
	if s.Games != 3 || s.P1Wins+s.P2Wins+s.Draws != 3 {
		t.Fatalf("summary %+v", s)
	}

	perSession := map[string]int{}
	for _, e := range rec.entries {
		perSession[e.SessionID]++
	}
	if len(perSession) != 3 {
		t.Fatalf("sessions=%v", perSession)
	}
	for id, n := range perSession {
		if uint64(n) != rs[0].Moves+1 {
			t.Fatalf("%s: %d entries want %d", id, n, rs[0].Moves+1)
		}
	}
}

func TestRunSelfPlay_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runSelfPlay(ctx, config{Presets: maps.Defaults(), Mode: maps.Default(), Games: 2})
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestSummarize_Empty(t *testing.T) {
	if s := summarize(nil); s.Games != 0 || s.AvgP1 != 0 {
		t.Fatalf("summary %+v", s)
	}
}
