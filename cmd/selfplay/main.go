package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"polycube.ai/internal/logging"
	"polycube.ai/internal/persistence/indexdb"
	persistlog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/sim/maps"
	"polycube.ai/internal/sim/tuning"
)

func main() {
	var (
		mode     = flag.String("mode", maps.Default().String(), "game mode as Kind:Map")
		mapsPath = flag.String("maps", "", "path to a maps.yaml overriding the built-in height tables")
		games    = flag.Int("games", 8, "number of games")
		workers  = flag.Int("workers", runtime.NumCPU(), "concurrent games")
		dataDir  = flag.String("data", "", "runtime data directory; when set, games are logged and indexed there")
		level    = flag.String("log_level", "info", "log level")
	)
	flag.Parse()

	if err := logging.Setup(tuning.LogConfig{Level: *level, Format: "console"}, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(2)
	}
	logger := logging.Named("selfplay")

	gm, err := maps.ParseGameMode(*mode)
	if err != nil {
		logger.Fatal().Err(err).Msg("mode")
	}
	presets := maps.Defaults()
	if *mapsPath != "" {
		if presets, err = maps.Load(*mapsPath); err != nil {
			logger.Fatal().Err(err).Msg("maps")
		}
	}

	cfg := config{
		Presets: presets,
		Mode:    gm,
		Games:   *games,
		Workers: *workers,
		RunID:   fmt.Sprintf("selfplay-%d", time.Now().Unix()),
	}
	if *dataDir != "" {
		sessLog := persistlog.NewSessionLogger(*dataDir)
		defer sessLog.Close()
		cfg.Entries = sessLog

		idx, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "games.sqlite"))
		if err != nil {
			logger.Fatal().Err(err).Msg("open index")
		}
		defer idx.Close()
		cfg.Index = idx
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	results, err := runSelfPlay(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("selfplay failed")
		return
	}
	for _, r := range results {
		logger.Debug().Int("game", r.Game).Uint64("moves", r.Moves).Int("p1", r.ScoreP1).Int("p2", r.ScoreP2).Msg("result")
	}
	s := summarize(results)
	fmt.Printf("mode=%s games=%d p1_wins=%d p2_wins=%d draws=%d avg_p1=%.2f avg_p2=%.2f elapsed=%s\n",
		gm, s.Games, s.P1Wins, s.P2Wins, s.Draws, s.AvgP1, s.AvgP2, time.Since(start).Round(time.Millisecond))
}
