package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

type GameRow struct {
	GameID    string `json:"game_id"`
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	ScoreP1   int    `json:"score_p1"`
	ScoreP2   int    `json:"score_p2"`
	Moves     int64  `json:"moves"`
	GameEnded bool   `json:"game_ended"`
}

type MoveRow struct {
	Seq        int64  `json:"seq"`
	Action     string `json:"action"`
	ActionJSON string `json:"action_json"`
	Digest     string `json:"digest"`
}

// ModeSummary aggregates finished games per game mode.
type ModeSummary struct {
	Mode    string  `json:"mode"`
	Games   int64   `json:"games"`
	Ended   int64   `json:"ended"`
	P1Wins  int64   `json:"p1_wins"`
	P2Wins  int64   `json:"p2_wins"`
	Draws   int64   `json:"draws"`
	AvgMove float64 `json:"avg_moves"`
}

// OpenQuery opens an existing index for ad-hoc queries without starting a
// writer.
func OpenQuery(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *SQLiteIndex) RecentGames(ctx context.Context, limit int) ([]GameRow, error) {
	return RecentGames(ctx, s.db, limit)
}

func RecentGames(ctx context.Context, db *sql.DB, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT game_id,session_id,mode,started_at,COALESCE(ended_at,''),score_p1,score_p2,moves,game_ended FROM games ORDER BY started_at DESC, game_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameRow
	for rows.Next() {
		var r GameRow
		var ended int
		if err := rows.Scan(&r.GameID, &r.SessionID, &r.Mode, &r.StartedAt, &r.EndedAt, &r.ScoreP1, &r.ScoreP2, &r.Moves, &ended); err != nil {
			return nil, err
		}
		r.GameEnded = ended != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func GameMoves(ctx context.Context, db *sql.DB, gameID string) ([]MoveRow, error) {
	rows, err := db.QueryContext(ctx, `SELECT seq,action,action_json,digest FROM moves WHERE game_id=? ORDER BY seq`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MoveRow
	for rows.Next() {
		var r MoveRow
		if err := rows.Scan(&r.Seq, &r.Action, &r.ActionJSON, &r.Digest); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func Summary(ctx context.Context, db *sql.DB) ([]ModeSummary, error) {
	rows, err := db.QueryContext(ctx, `SELECT mode,
		COUNT(*),
		SUM(game_ended),
		SUM(CASE WHEN game_ended=1 AND score_p1>score_p2 THEN 1 ELSE 0 END),
		SUM(CASE WHEN game_ended=1 AND score_p2>score_p1 THEN 1 ELSE 0 END),
		SUM(CASE WHEN game_ended=1 AND score_p1=score_p2 THEN 1 ELSE 0 END),
		AVG(moves)
		FROM games GROUP BY mode ORDER BY mode`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModeSummary
	for rows.Next() {
		var r ModeSummary
		if err := rows.Scan(&r.Mode, &r.Games, &r.Ended, &r.P1Wins, &r.P2Wins, &r.Draws, &r.AvgMove); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
