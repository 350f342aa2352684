package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/sim/game"
	"polycube.ai/internal/sim/maps"
)

func main() {
	var (
		dataDir  = flag.String("data", "./data", "runtime data directory")
		logsDir  = flag.String("sessions", "", "directory containing sessions-*.jsonl.zst (default: <data>/sessions)")
		mapsPath = flag.String("maps", "", "maps.yaml the server ran with (default: built-in)")
		session  = flag.String("session", "", "verify only this session id (optional)")
	)
	flag.Parse()

	dir := *logsDir
	if dir == "" {
		dir = persistlog.SessionDir(*dataDir)
	}
	presets := maps.Defaults()
	if *mapsPath != "" {
		p, err := maps.Load(*mapsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load maps:", err)
			os.Exit(1)
		}
		presets = p
	}

	files, err := persistlog.ListSessionFiles(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list sessions:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no session files found in", dir)
		os.Exit(1)
	}

	v := newVerifier(presets, *session)
	for _, path := range files {
		if err := persistlog.ReadEntries(path, v.apply); err != nil {
			fmt.Fprintf(os.Stderr, "replay %s: %v\n", filepath.Base(path), err)
			os.Exit(1)
		}
	}
	fmt.Printf("replay ok: sessions=%d games=%d checked=%d\n", len(v.sessions), v.games, v.checked)
}

type sessionState struct {
	game    *game.GameState
	lastSeq uint64
}

// verifier re-applies logged actions per session and compares digests.
type verifier struct {
	presets maps.Presets
	only    string

	sessions map[string]*sessionState
	games    int
	checked  uint64
}

func newVerifier(p maps.Presets, only string) *verifier {
	return &verifier{presets: p, only: only, sessions: map[string]*sessionState{}}
}

func (v *verifier) apply(e persistlog.Entry) error {
	if v.only != "" && e.SessionID != v.only {
		return nil
	}
	s := v.sessions[e.SessionID]
	if s == nil {
		s = &sessionState{}
		v.sessions[e.SessionID] = s
	}
	if e.Seq <= s.lastSeq {
		return fmt.Errorf("session %s: seq went backwards: %d after %d", e.SessionID, e.Seq, s.lastSeq)
	}
	s.lastSeq = e.Seq

	switch e.Kind {
	case persistlog.KindNewGame:
		if e.GameMode == nil {
			return fmt.Errorf("session %s seq %d: new_game without game_mode", e.SessionID, e.Seq)
		}
		g, err := game.NewWithPresets(v.presets, *e.GameMode)
		if err != nil {
			return fmt.Errorf("session %s seq %d: %w", e.SessionID, e.Seq, err)
		}
		s.game = &g
		v.games++
	case persistlog.KindAction:
		if s.game == nil {
			return fmt.Errorf("session %s seq %d: action before new_game", e.SessionID, e.Seq)
		}
		if e.Action == nil {
			return fmt.Errorf("session %s seq %d: action entry without action", e.SessionID, e.Seq)
		}
		s.game.ApplyAction(*e.Action)
	default:
		return fmt.Errorf("session %s seq %d: unknown kind %q", e.SessionID, e.Seq, e.Kind)
	}

	got, err := s.game.Digest()
	if err != nil {
		return err
	}
	v.checked++
	if got != e.Digest {
		return fmt.Errorf("digest mismatch at session %s seq %d: got=%s want=%s", e.SessionID, e.Seq, got, e.Digest)
	}
	return nil
}
