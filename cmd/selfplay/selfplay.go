package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	plog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/sim/game"
	"polycube.ai/internal/sim/maps"
	"polycube.ai/internal/sim/player"
)

type result struct {
	Game    int
	Moves   uint64
	ScoreP1 int
	ScoreP2 int
	Ended   bool
	Digest  string
}

type recorder interface {
	WriteEntry(e plog.Entry) error
}

type indexer interface {
	RecordGameStart(gameID, sessionID string, mode maps.GameMode, at time.Time)
	RecordMove(gameID string, seq uint64, a game.Action, digest string)
	RecordGameEnd(gameID string, g *game.GameState, moves uint64, at time.Time)
}

type config struct {
	Presets  maps.Presets
	Mode     maps.GameMode
	Games    int
	Workers  int
	MaxMoves int
	RunID    string

	// Optional sinks.
	Entries recorder
	Index   indexer
}

// runSelfPlay plays cfg.Games greedy-vs-greedy games, each on its own
// goroutine-owned GameState.
func runSelfPlay(ctx context.Context, cfg config) ([]result, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxMoves <= 0 {
		cfg.MaxMoves = 256
	}
	out := make([]result, cfg.Games)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Games; i++ {
		i := i
		g.Go(func() error {
			r, err := playOne(ctx, cfg, i)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func playOne(ctx context.Context, cfg config, n int) (result, error) {
	st, err := game.NewWithPresets(cfg.Presets, cfg.Mode)
	if err != nil {
		return result{}, err
	}
	sessionID := fmt.Sprintf("%s-%d", cfg.RunID, n)
	gameID := sessionID + "-1"
	var seq uint64

	digest, err := st.Digest()
	if err != nil {
		return result{}, err
	}
	seq++
	mode := cfg.Mode
	if err := write(cfg.Entries, plog.Entry{SessionID: sessionID, Seq: seq, Kind: plog.KindNewGame, GameMode: &mode, Digest: digest}); err != nil {
		return result{}, err
	}
	if cfg.Index != nil {
		cfg.Index.RecordGameStart(gameID, sessionID, mode, time.Now())
	}

	a := game.MakeGreedyAIMove()
	var moves uint64
	for !st.GameEnded && moves < uint64(cfg.MaxMoves) {
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		st.ApplyAction(a)
		moves++
		seq++
		if digest, err = st.Digest(); err != nil {
			return result{}, err
		}
		if err := write(cfg.Entries, plog.Entry{SessionID: sessionID, Seq: seq, Kind: plog.KindAction, Action: &a, Digest: digest}); err != nil {
			return result{}, err
		}
		if cfg.Index != nil {
			cfg.Index.RecordMove(gameID, moves, a, digest)
		}
	}
	if cfg.Index != nil {
		cfg.Index.RecordGameEnd(gameID, &st, moves, time.Now())
	}
	return result{
		Game:    n,
		Moves:   moves,
		ScoreP1: st.Score[player.P1],
		ScoreP2: st.Score[player.P2],
		Ended:   st.GameEnded,
		Digest:  digest,
	}, nil
}

func write(r recorder, e plog.Entry) error {
	if r == nil {
		return nil
	}
	e.TimeMs = time.Now().UnixMilli()
	return r.WriteEntry(e)
}

type summary struct {
	Games  int
	P1Wins int
	P2Wins int
	Draws  int
	AvgP1  float64
	AvgP2  float64
}

func summarize(rs []result) summary {
	s := summary{Games: len(rs)}
	if len(rs) == 0 {
		return s
	}
	var t1, t2 int
	for _, r := range rs {
		t1 += r.ScoreP1
		t2 += r.ScoreP2
		switch {
		case r.ScoreP1 > r.ScoreP2:
			s.P1Wins++
		case r.ScoreP2 > r.ScoreP1:
			s.P2Wins++
		default:
			s.Draws++
		}
	}
	s.AvgP1 = float64(t1) / float64(len(rs))
	s.AvgP2 = float64(t2) / float64(len(rs))
	return s
}
