package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"polycube.ai/internal/logging"
	"polycube.ai/internal/protocol"
	"polycube.ai/internal/sim/game"
	"polycube.ai/internal/sim/maps"
	"polycube.ai/internal/sim/player"
	"polycube.ai/internal/sim/tuning"
)

// maxSteps bounds one game; a full game needs at most one move or pass per
// piece and player plus the closing passes.
const maxSteps = 256

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "client name")
		mode  = flag.String("mode", "", "game mode as Kind:Map (default: server default)")
		games = flag.Int("games", 1, "games to play")
		level = flag.String("log_level", "info", "log level")
	)
	flag.Parse()

	if err := logging.Setup(tuning.LogConfig{Level: *level, Format: "console"}, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(2)
	}
	logger := logging.Named("bot")

	var rawMode json.RawMessage
	if *mode != "" {
		gm, err := maps.ParseGameMode(*mode)
		if err != nil {
			logger.Fatal().Err(err).Msg("mode")
		}
		rawMode, _ = json.Marshal(gm)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("dial")
	}
	defer conn.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	if err := conn.WriteJSON(protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: *name}); err != nil {
		logger.Fatal().Err(err).Msg("send HELLO")
	}
	var welcome protocol.WelcomeMsg
	if err := conn.ReadJSON(&welcome); err != nil {
		logger.Fatal().Err(err).Msg("read WELCOME")
	}
	logger.Info().Str("session_id", welcome.SessionID).RawJSON("default_mode", welcome.DefaultGameMode).Msg("WELCOME")

	for i := 0; i < *games; i++ {
		g, err := playGame(conn, rawMode, logger)
		if err != nil {
			logger.Fatal().Err(err).Int("game", i+1).Msg("game failed")
		}
		logger.Info().
			Int("game", i+1).
			Str("mode", g.GameMode.String()).
			Int("p1", g.Score[player.P1]).
			Int("p2", g.Score[player.P2]).
			Bool("ended", g.GameEnded).
			Msg("game over")
	}
}

func playGame(conn *websocket.Conn, rawMode json.RawMessage, logger zerolog.Logger) (game.GameState, error) {
	if err := conn.WriteJSON(protocol.NewGameMsg{Type: protocol.TypeNewGame, ProtocolVersion: protocol.Version, GameMode: rawMode}); err != nil {
		return game.GameState{}, err
	}
	g, err := readState(conn)
	if err != nil {
		return game.GameState{}, err
	}

	move, _ := json.Marshal(game.MakeGreedyAIMove())
	act := protocol.ActMsg{Type: protocol.TypeAct, ProtocolVersion: protocol.Version, Action: move}
	for step := 0; step < maxSteps && !g.GameEnded; step++ {
		mover := g.PlayerState.CurrentPlayer()
		if err := conn.WriteJSON(act); err != nil {
			return g, err
		}
		if g, err = readState(conn); err != nil {
			return g, err
		}
		logger.Debug().Int("step", step).Str("mover", mover.String()).Interface("score", g.Score).Msg("moved")
	}
	if !g.GameEnded {
		return g, errors.New("game did not finish")
	}
	return g, nil
}

func readState(conn *websocket.Conn) (game.GameState, error) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return game.GameState{}, err
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return game.GameState{}, err
	}
	switch base.Type {
	case protocol.TypeState:
		var st protocol.StateMsg
		if err := protocol.Unmarshal(msg, &st); err != nil {
			return game.GameState{}, err
		}
		return game.DecodeState(st.State)
	case protocol.TypeError:
		var e protocol.ErrorMsg
		_ = protocol.Unmarshal(msg, &e)
		return game.GameState{}, fmt.Errorf("%s: %s", e.Code, e.Message)
	default:
		return game.GameState{}, fmt.Errorf("unexpected %s", base.Type)
	}
}
