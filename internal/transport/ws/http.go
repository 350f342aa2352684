package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"polycube.ai/internal/protocol"
	"polycube.ai/internal/sim/game"
)

// NewGameHandler serves POST /v1/new_game: GameMode in, GameState out. An
// empty body selects the default mode.
func (s *Server) NewGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		mode := s.opts.DefaultMode
		if len(bytes.TrimSpace(body)) > 0 {
			if err := s.validator.Validate(protocol.SchemaGameMode, body); err != nil {
				s.httpError(w, http.StatusBadRequest, protocol.ErrProtoBadRequest, err.Error())
				return
			}
			if err := json.Unmarshal(body, &mode); err != nil {
				s.httpError(w, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
				return
			}
		}
		g, err := game.NewWithPresets(s.opts.Presets, mode)
		if err != nil {
			s.httpError(w, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
			return
		}
		s.gamesTotal.Add(1)
		s.writeHTTPJSON(w, &g)
	}
}

// NextGameStateHandler serves POST /v1/next_game_state: {state, action} in,
// the resulting GameState out.
func (s *Server) NextGameStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.readBody(w, r)
		if !ok {
			return
		}
		if err := s.validator.Validate(protocol.SchemaNextGameState, body); err != nil {
			s.httpError(w, http.StatusBadRequest, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		var req protocol.NextGameStateReq
		if err := protocol.Unmarshal(body, &req); err != nil {
			s.httpError(w, http.StatusBadRequest, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		g, err := game.DecodeState(req.State)
		if err != nil {
			s.httpError(w, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
			return
		}
		var a game.Action
		if err := json.Unmarshal(req.Action, &a); err != nil {
			s.httpError(w, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
			return
		}
		g.ApplyAction(a)
		s.actionsTotal.Add(1)
		s.writeHTTPJSON(w, &g)
	}
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.httpError(w, http.StatusMethodNotAllowed, protocol.ErrProtoBadRequest, "method not allowed")
		return nil, false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxMessageBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.httpError(w, http.StatusRequestEntityTooLarge, protocol.ErrProtoBadRequest, "body too large")
			return nil, false
		}
		s.httpError(w, http.StatusBadRequest, protocol.ErrProtoBadRequest, err.Error())
		return nil, false
	}
	return body, true
}

func (s *Server) writeHTTPJSON(w http.ResponseWriter, v any) {
	b, err := protocol.Marshal(v)
	if err != nil {
		s.httpError(w, http.StatusInternalServerError, protocol.ErrInternal, "encode failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (s *Server) httpError(w http.ResponseWriter, status int, code, message string) {
	s.errorsTotal.Add(1)
	b, _ := protocol.Marshal(protocol.NewError(code, message))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
