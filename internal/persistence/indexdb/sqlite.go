package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"polycube.ai/internal/sim/game"
	"polycube.ai/internal/sim/maps"
	"polycube.ai/internal/sim/player"
)

// SQLiteIndex is a queryable secondary index of played games. Writes are
// queued and applied by a single goroutine; the session logs stay the
// source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu guards closed and the close of ch against concurrent senders.
	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
}

type reqKind int

const (
	reqGameStart reqKind = iota + 1
	reqMove
	reqGameEnd
)

type req struct {
	kind reqKind

	start gameStartRow
	move  moveRow
	end   gameEndRow
}

type gameStartRow struct {
	GameID    string
	SessionID string
	Mode      string
	StartedAt string
}

type moveRow struct {
	GameID string
	Seq    uint64
	Action string
	Raw    []byte
	Digest string
}

type gameEndRow struct {
	GameID    string
	EndedAt   string
	ScoreP1   int
	ScoreP2   int
	Moves     uint64
	GameEnded bool
}

// Stats reports queue pressure.
type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTotal     uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			score_p1 INTEGER NOT NULL DEFAULT 0,
			score_p2 INTEGER NOT NULL DEFAULT 0,
			moves INTEGER NOT NULL DEFAULT 0,
			game_ended INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_session ON games(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_games_started ON games(started_at);`,
		`CREATE TABLE IF NOT EXISTS moves (
			game_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			action TEXT NOT NULL,
			action_json TEXT NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (game_id, seq)
		);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTotal:     s.dropped.Load(),
	}
}

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

func (s *SQLiteIndex) RecordGameStart(gameID, sessionID string, mode maps.GameMode, at time.Time) {
	s.enqueue(req{kind: reqGameStart, start: gameStartRow{
		GameID:    gameID,
		SessionID: sessionID,
		Mode:      mode.String(),
		StartedAt: at.UTC().Format(time.RFC3339Nano),
	}})
}

func (s *SQLiteIndex) RecordMove(gameID string, seq uint64, a game.Action, digest string) {
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	s.enqueue(req{kind: reqMove, move: moveRow{
		GameID: gameID,
		Seq:    seq,
		Action: a.Kind.String(),
		Raw:    raw,
		Digest: digest,
	}})
}

// RecordGameEnd stores the final (or last known) score of a game. It may be
// called more than once; the latest call wins.
func (s *SQLiteIndex) RecordGameEnd(gameID string, g *game.GameState, moves uint64, at time.Time) {
	s.enqueue(req{kind: reqGameEnd, end: gameEndRow{
		GameID:    gameID,
		EndedAt:   at.UTC().Format(time.RFC3339Nano),
		ScoreP1:   g.Score[player.P1],
		ScoreP2:   g.Score[player.P2],
		Moves:     moves,
		GameEnded: g.GameEnded,
	}})
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertGame, _ := s.db.Prepare(`INSERT OR REPLACE INTO games(game_id,session_id,mode,started_at) VALUES(?,?,?,?)`)
	insertMove, _ := s.db.Prepare(`INSERT OR REPLACE INTO moves(game_id,seq,action,action_json,digest) VALUES(?,?,?,?,?)`)
	updateGame, _ := s.db.Prepare(`UPDATE games SET ended_at=?, score_p1=?, score_p2=?, moves=?, game_ended=? WHERE game_id=?`)
	defer func() {
		for _, st := range []*sql.Stmt{insertGame, insertMove, updateGame} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 500 * time.Millisecond
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	tick := time.NewTicker(commitMaxWait)
	defer tick.Stop()

	for {
		var r req
		select {
		case <-tick.C:
			if tx != nil && time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
			continue
		case rr, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			r = rr
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqGameStart:
			g := r.start
			exec(insertGame, g.GameID, g.SessionID, g.Mode, g.StartedAt)
		case reqMove:
			m := r.move
			exec(insertMove, m.GameID, int64(m.Seq), m.Action, string(m.Raw), m.Digest)
		case reqGameEnd:
			e := r.end
			ended := 0
			if e.GameEnded {
				ended = 1
			}
			exec(updateGame, e.EndedAt, e.ScoreP1, e.ScoreP2, int64(e.Moves), ended, e.GameID)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}
}
