package ws

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"polycube.ai/internal/logging"
	plog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/protocol"
	"polycube.ai/internal/sim/game"
	"polycube.ai/internal/sim/maps"
)

// EntryWriter receives every state change of every session.
type EntryWriter interface {
	WriteEntry(e plog.Entry) error
}

// GameIndex receives game lifecycle events. Implementations must not block.
type GameIndex interface {
	RecordGameStart(gameID, sessionID string, mode maps.GameMode, at time.Time)
	RecordMove(gameID string, seq uint64, a game.Action, digest string)
	RecordGameEnd(gameID string, g *game.GameState, moves uint64, at time.Time)
}

type Options struct {
	Presets     maps.Presets
	DefaultMode maps.GameMode

	MaxMessageBytes int64
	WriteTimeout    time.Duration
	// PongWait is how long a connection may stay silent, pongs included.
	// Pings go out at 9/10 of it.
	PongWait         time.Duration
	OutboxSize       int
	MaxActionsPerSec int

	// Optional.
	Entries EntryWriter
	Index   GameIndex
}

func (o *Options) fill() {
	if o.Presets.TwoPlayer == nil && o.Presets.Solitaire == nil {
		o.Presets = maps.Defaults()
	}
	if o.DefaultMode == (maps.GameMode{}) {
		o.DefaultMode = maps.Default()
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 64 << 10
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 16
	}
}

type Server struct {
	opts      Options
	validator *protocol.Validator
	log       zerolog.Logger

	upgrader websocket.Upgrader

	// base is the parent of every session context; stop cancels it on
	// Shutdown.
	base    context.Context
	stop    context.CancelFunc
	mu      sync.Mutex
	closing bool
	conns   sync.WaitGroup

	sessionsActive atomic.Int64
	sessionsTotal  atomic.Uint64
	gamesTotal     atomic.Uint64
	actionsTotal   atomic.Uint64
	errorsTotal    atomic.Uint64
}

// Stats is a point-in-time view of the server counters.
type Stats struct {
	SessionsActive int64
	SessionsTotal  uint64
	GamesTotal     uint64
	ActionsTotal   uint64
	ErrorsTotal    uint64
}

func NewServer(opts Options) (*Server, error) {
	opts.fill()
	v, err := protocol.NewValidator()
	if err != nil {
		return nil, err
	}
	base, stop := context.WithCancel(context.Background())
	s := &Server{
		base:      base,
		stop:      stop,
		opts:      opts,
		validator: v,
		log:       logging.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s, nil
}

func (s *Server) Stats() Stats {
	return Stats{
		SessionsActive: s.sessionsActive.Load(),
		SessionsTotal:  s.sessionsTotal.Load(),
		GamesTotal:     s.gamesTotal.Load(),
		ActionsTotal:   s.actionsTotal.Load(),
		ErrorsTotal:    s.errorsTotal.Load(),
	}
}

// Manifest lists the configured map names.
func (s *Server) Manifest() protocol.MapManifest {
	var m protocol.MapManifest
	for _, n := range maps.TwoPlayerMaps {
		m.TwoPlayer = append(m.TwoPlayer, string(n))
	}
	for _, n := range maps.SolitaireMaps {
		m.Solitaire = append(m.Solitaire, string(n))
	}
	return m
}

// Shutdown refuses new sessions, closes every open connection and waits for
// their handlers to record the outcome of unfinished games.
// http.Server.Shutdown does not wait for hijacked connections, so call this
// before closing the session log or the index.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.stop()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns.Add(1)
	return true
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !s.track() {
			http.Error(rw, "shutting down", http.StatusServiceUnavailable)
			return
		}
		defer s.conns.Done()

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetReadLimit(s.opts.MaxMessageBytes)

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		s.sessionsActive.Add(1)
		s.sessionsTotal.Add(1)
		defer s.sessionsActive.Add(-1)

		ctx, cancel := context.WithCancel(s.base)
		defer cancel()
		sess.ctx = ctx

		pongWait := s.opts.PongWait
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		// Writer goroutine. It owns every write and closes the connection
		// once the session ends, which unblocks the reader.
		done := make(chan struct{})
		go func() {
			defer close(done)
			ping := time.NewTicker(pongWait * 9 / 10)
			defer ping.Stop()
			for {
				select {
				case <-ctx.Done():
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
						time.Now().Add(time.Second))
					_ = conn.Close()
					return
				case <-ping.C:
					_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						cancel()
					}
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sess.handle(msg)
			if ctx.Err() != nil {
				break
			}
		}
		sess.finish()
		cancel()
		<-done
		sess.log.Info().Uint64("seq", sess.seq).Msg("session closed")
	}
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}
	if base.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	if err := s.validator.Validate(protocol.SchemaHello, msg); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad HELLO"), time.Now().Add(time.Second))
		return nil
	}
	var hello protocol.HelloMsg
	if err := protocol.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	mode, err := protocol.Marshal(s.opts.DefaultMode)
	if err != nil {
		return nil
	}
	id := uuid.NewString()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       id,
		DefaultGameMode: mode,
		Maps:            s.Manifest(),
	}
	if err := s.writeJSON(conn, welcome); err != nil {
		return nil
	}

	sess := newSession(s, id)
	sess.log.Info().Str("client", hello.ClientName).Msg("session opened")
	return sess
}

func (s *Server) writeJSON(conn *websocket.Conn, v any) error {
	b, err := protocol.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
