package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"polycube.ai/internal/logging"
	"polycube.ai/internal/persistence/indexdb"
	persistlog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/sim/maps"
	"polycube.ai/internal/sim/tuning"
	"polycube.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		mapsPath   = flag.String("maps", "", "path to a maps.yaml overriding the built-in height tables")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite games index")
		disableLog = flag.Bool("disable_session_log", false, "disable the compressed session log")
	)
	flag.Parse()

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	tuneMissing := os.IsNotExist(err)
	if err != nil {
		if !tuneMissing {
			log.Fatal().Err(err).Str("path", tp).Msg("load tuning")
		}
		tune = tuning.Defaults()
	}
	if err := logging.Setup(tune.Log, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}
	logger := logging.Named("server")
	if tuneMissing {
		logger.Info().Str("path", tp).Msg("tuning not found; using defaults")
	}

	mp := strings.TrimSpace(*mapsPath)
	if mp == "" {
		mp = tune.MapsPath
	}
	presets := maps.Defaults()
	if mp != "" {
		presets, err = maps.Load(mp)
		if err != nil {
			logger.Fatal().Err(err).Str("path", mp).Msg("load maps")
		}
	}
	defMode, err := tune.GameMode()
	if err != nil {
		logger.Fatal().Err(err).Msg("default game mode")
	}

	opts := ws.Options{
		Presets:          presets,
		DefaultMode:      defMode,
		MaxMessageBytes:  int64(tune.Session.MaxMessageBytes),
		WriteTimeout:     time.Duration(tune.Session.WriteTimeoutMs) * time.Millisecond,
		PongWait:         time.Duration(tune.Session.PongWaitMs) * time.Millisecond,
		OutboxSize:       tune.Session.OutboxSize,
		MaxActionsPerSec: tune.Session.MaxActionsPerSec,
	}

	var sessLog *persistlog.SessionLogger
	if !*disableLog {
		sessLog = persistlog.NewSessionLogger(*dataDir)
		defer sessLog.Close()
		opts.Entries = sessLog
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "games.sqlite"))
		if err != nil {
			logger.Fatal().Err(err).Msg("open index")
		}
		defer idx.Close()
		opts.Index = idx
	}

	srv, err := ws.NewServer(opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("ws server")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(srv, idx, sessLog))
	mux.HandleFunc("/v1/ws", srv.Handler())
	mux.HandleFunc("/v1/new_game", srv.NewGameHandler())
	mux.HandleFunc("/v1/next_game_state", srv.NextGameStateHandler())

	if envBool("PC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		registerAdmin(mux, srv, idx)
	} else {
		logger.Info().Msg("admin endpoints disabled (PC_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("PC_ENABLE_PPROF_HTTP", false) {
		registerPprof(mux)
	} else {
		logger.Info().Msg("pprof endpoints disabled (PC_ENABLE_PPROF_HTTP=false)")
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", *addr).Str("default_mode", defMode.String()).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		herr := httpSrv.Shutdown(ctx2)
		// Websocket sessions are hijacked, so drain them before the deferred
		// closes of the index and the session log run.
		if err := srv.Shutdown(ctx2); err != nil {
			logger.Warn().Err(err).Msg("sessions still open at shutdown")
		}
		return herr
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped")
	}
	st := srv.Stats()
	logger.Info().Uint64("sessions", st.SessionsTotal).Uint64("games", st.GamesTotal).Msg("bye")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
