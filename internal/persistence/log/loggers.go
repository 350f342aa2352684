package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"polycube.ai/internal/sim/game"
	"polycube.ai/internal/sim/maps"
)

const (
	KindNewGame = "new_game"
	KindAction  = "action"
)

// Entry records one state change of a session together with the digest of
// the resulting GameState.
type Entry struct {
	SessionID string         `json:"session_id"`
	Seq       uint64         `json:"seq"`
	TimeMs    int64          `json:"ts_ms"`
	Kind      string         `json:"kind"`
	GameMode  *maps.GameMode `json:"game_mode,omitempty"`
	Action    *game.Action   `json:"action,omitempty"`
	Digest    string         `json:"digest"`
}

// ErrClosed is returned by WriteEntry after Close.
var ErrClosed = errors.New("session log: closed")

const (
	sessionPrefix = "sessions"
	hourLayout    = "2006-01-02-15"
)

func SessionDir(dataDir string) string { return filepath.Join(dataDir, "sessions") }

func segmentName(hour string) string {
	return fmt.Sprintf("%s-%s.jsonl.zst", sessionPrefix, hour)
}

// segment is one open hourly file.
type segment struct {
	hour string
	f    *os.File
	zw   *zstd.Encoder
	bw   *bufio.Writer
	je   *json.Encoder
}

func openSegment(dir, hour string) (*segment, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, segmentName(hour)), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	bw := bufio.NewWriterSize(zw, 64*1024)
	je := json.NewEncoder(bw)
	je.SetEscapeHTML(false)
	return &segment{hour: hour, f: f, zw: zw, bw: bw, je: je}, nil
}

// append writes e as one line and pushes a complete zstd block to the file,
// so readers of a live segment see every entry written so far.
func (s *segment) append(e Entry) error {
	if err := s.je.Encode(e); err != nil {
		return err
	}
	if err := s.bw.Flush(); err != nil {
		return err
	}
	return s.zw.Flush()
}

func (s *segment) close() error {
	ferr := s.bw.Flush()
	zerr := s.zw.Close()
	cerr := s.f.Close()
	for _, err := range []error{ferr, zerr, cerr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// SessionLogger appends entries of every session to hourly compressed JSONL
// segments under <dataDir>/sessions. It is safe for concurrent use.
type SessionLogger struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	cur     *segment
	written uint64
	closed  bool
}

func NewSessionLogger(dataDir string) *SessionLogger {
	return newSessionLoggerAt(SessionDir(dataDir))
}

func newSessionLoggerAt(dir string) *SessionLogger {
	return &SessionLogger{dir: dir, now: time.Now}
}

func (l *SessionLogger) WriteEntry(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}

	hour := l.now().UTC().Format(hourLayout)
	if l.cur == nil || l.cur.hour != hour {
		if err := l.closeLocked(); err != nil {
			return err
		}
		seg, err := openSegment(l.dir, hour)
		if err != nil {
			return fmt.Errorf("session log: %w", err)
		}
		l.cur = seg
	}
	if err := l.cur.append(e); err != nil {
		return fmt.Errorf("session log: %w", err)
	}
	l.written++
	return nil
}

// Written is the number of entries appended since the logger was created.
func (l *SessionLogger) Written() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

func (l *SessionLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return l.closeLocked()
}

func (l *SessionLogger) closeLocked() error {
	if l.cur == nil {
		return nil
	}
	err := l.cur.close()
	l.cur = nil
	return err
}
