package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	plog "polycube.ai/internal/persistence/log"
	"polycube.ai/internal/protocol"
	"polycube.ai/internal/sim/game"
)

// session is one connection's game. Only the reader goroutine touches it.
type session struct {
	srv *Server
	id  string
	log zerolog.Logger
	ctx context.Context

	out     chan []byte
	limiter *rate.Limiter

	game   *game.GameState
	gameNo int
	gameID string
	seq    uint64
	moves  uint64
}

func newSession(s *Server, id string) *session {
	var lim *rate.Limiter
	if n := s.opts.MaxActionsPerSec; n > 0 {
		lim = rate.NewLimiter(rate.Limit(n), n)
	}
	return &session{
		srv:     s,
		id:      id,
		log:     s.log.With().Str("session_id", id).Logger(),
		ctx:     context.Background(),
		out:     make(chan []byte, s.opts.OutboxSize),
		limiter: lim,
	}
}

func (ss *session) handle(msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		ss.fail(protocol.ErrProtoBadRequest, "malformed message")
		return
	}
	if base.ProtocolVersion != protocol.Version {
		ss.fail(protocol.ErrProtoVersion, fmt.Sprintf("unsupported protocol_version %q", base.ProtocolVersion))
		return
	}
	if ss.limiter != nil && !ss.limiter.Allow() {
		ss.fail(protocol.ErrRateLimit, "too many messages")
		return
	}

	switch base.Type {
	case protocol.TypeNewGame:
		if err := ss.srv.validator.Validate(protocol.SchemaNewGame, msg); err != nil {
			ss.fail(protocol.ErrProtoBadRequest, err.Error())
			return
		}
		var m protocol.NewGameMsg
		if err := protocol.Unmarshal(msg, &m); err != nil {
			ss.fail(protocol.ErrProtoBadRequest, err.Error())
			return
		}
		ss.newGame(m.GameMode)
	case protocol.TypeAct:
		if err := ss.srv.validator.Validate(protocol.SchemaAct, msg); err != nil {
			ss.fail(protocol.ErrProtoBadRequest, err.Error())
			return
		}
		var m protocol.ActMsg
		if err := protocol.Unmarshal(msg, &m); err != nil {
			ss.fail(protocol.ErrProtoBadRequest, err.Error())
			return
		}
		ss.act(m.Action)
	default:
		ss.fail(protocol.ErrProtoBadRequest, fmt.Sprintf("unexpected message type %q", base.Type))
	}
}

func (ss *session) newGame(rawMode json.RawMessage) {
	mode := ss.srv.opts.DefaultMode
	if len(rawMode) > 0 && string(rawMode) != "null" {
		if err := json.Unmarshal(rawMode, &mode); err != nil {
			ss.fail(protocol.ErrBadRequest, err.Error())
			return
		}
	}
	g, err := game.NewWithPresets(ss.srv.opts.Presets, mode)
	if err != nil {
		ss.fail(protocol.ErrBadRequest, err.Error())
		return
	}

	now := time.Now()
	ss.finish()
	ss.game = &g
	ss.gameNo++
	ss.gameID = fmt.Sprintf("%s-%d", ss.id, ss.gameNo)
	ss.moves = 0
	ss.seq++
	ss.srv.gamesTotal.Add(1)

	digest, err := g.Digest()
	if err != nil {
		ss.fail(protocol.ErrInternal, "digest failed")
		return
	}
	if ss.srv.opts.Index != nil {
		ss.srv.opts.Index.RecordGameStart(ss.gameID, ss.id, mode, now)
	}
	ss.record(plog.Entry{Kind: plog.KindNewGame, GameMode: &mode, Digest: digest}, now)
	ss.log.Info().Str("game_id", ss.gameID).Str("mode", mode.String()).Msg("game started")
	ss.sendState()
}

func (ss *session) act(rawAction json.RawMessage) {
	if ss.game == nil {
		ss.fail(protocol.ErrNoGame, "send NEW_GAME first")
		return
	}
	var a game.Action
	if err := json.Unmarshal(rawAction, &a); err != nil {
		ss.fail(protocol.ErrBadRequest, err.Error())
		return
	}

	wasEnded := ss.game.GameEnded
	ss.game.ApplyAction(a)
	ss.seq++
	ss.moves++
	ss.srv.actionsTotal.Add(1)

	digest, err := ss.game.Digest()
	if err != nil {
		ss.fail(protocol.ErrInternal, "digest failed")
		return
	}
	now := time.Now()
	if ss.srv.opts.Index != nil {
		ss.srv.opts.Index.RecordMove(ss.gameID, ss.moves, a, digest)
		if ss.game.GameEnded && !wasEnded {
			ss.srv.opts.Index.RecordGameEnd(ss.gameID, ss.game, ss.moves, now)
		}
	}
	ss.record(plog.Entry{Kind: plog.KindAction, Action: &a, Digest: digest}, now)
	ss.log.Debug().Str("action", a.String()).Bool("game_ended", ss.game.GameEnded).Msg("applied")
	ss.sendState()
}

// finish records the last known outcome of an unfinished game.
func (ss *session) finish() {
	if ss.game == nil || ss.game.GameEnded || ss.srv.opts.Index == nil {
		return
	}
	ss.srv.opts.Index.RecordGameEnd(ss.gameID, ss.game, ss.moves, time.Now())
}

func (ss *session) record(e plog.Entry, at time.Time) {
	if ss.srv.opts.Entries == nil {
		return
	}
	e.SessionID = ss.id
	e.Seq = ss.seq
	e.TimeMs = at.UnixMilli()
	if err := ss.srv.opts.Entries.WriteEntry(e); err != nil {
		ss.log.Warn().Err(err).Msg("session log write failed")
	}
}

func (ss *session) sendState() {
	state, err := protocol.Marshal(ss.game)
	if err != nil {
		ss.fail(protocol.ErrInternal, "encode state failed")
		return
	}
	ss.send(protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		SessionID:       ss.id,
		Seq:             ss.seq,
		State:           state,
	})
}

func (ss *session) fail(code, message string) {
	ss.srv.errorsTotal.Add(1)
	ss.log.Debug().Str("code", code).Str("message", message).Msg("rejected")
	ss.send(protocol.NewError(code, message))
}

func (ss *session) send(v any) {
	b, err := protocol.Marshal(v)
	if err != nil {
		ss.log.Error().Err(err).Msg("encode")
		return
	}
	select {
	case ss.out <- b:
	case <-ss.ctx.Done():
	}
}
