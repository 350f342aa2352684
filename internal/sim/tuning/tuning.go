package tuning

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"polycube.ai/internal/sim/maps"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	// DefaultGameMode is used when a client asks for a game without naming
	// one, written as "Kind:Map".
	DefaultGameMode string `yaml:"default_game_mode"`
	MapsPath        string `yaml:"maps_path"`

	Log     LogConfig     `yaml:"log"`
	Session SessionConfig `yaml:"session"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

type SessionConfig struct {
	MaxMessageBytes  int `yaml:"max_message_bytes"`
	WriteTimeoutMs   int `yaml:"write_timeout_ms"`
	PongWaitMs       int `yaml:"pong_wait_ms"`
	OutboxSize       int `yaml:"outbox_size"`
	MaxActionsPerSec int `yaml:"max_actions_per_sec"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		DefaultGameMode: maps.Default().String(),
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Session: SessionConfig{
			MaxMessageBytes:  64 << 10,
			WriteTimeoutMs:   5000,
			PongWaitMs:       60000,
			OutboxSize:       16,
			MaxActionsPerSec: 50,
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return t, err
		}
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return t, fmt.Errorf("tuning.yaml: %w", err)
		}
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if _, err := t.GameMode(); err != nil {
		return fmt.Errorf("default_game_mode: %w", err)
	}
	switch t.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: want console or json, got %q", t.Log.Format)
	}
	if _, err := zerolog.ParseLevel(t.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if t.Session.MaxMessageBytes <= 0 {
		return fmt.Errorf("session.max_message_bytes must be > 0")
	}
	if t.Session.WriteTimeoutMs <= 0 {
		return fmt.Errorf("session.write_timeout_ms must be > 0")
	}
	if t.Session.PongWaitMs <= 0 {
		return fmt.Errorf("session.pong_wait_ms must be > 0")
	}
	if t.Session.OutboxSize <= 0 {
		return fmt.Errorf("session.outbox_size must be > 0")
	}
	if t.Session.MaxActionsPerSec < 0 {
		return fmt.Errorf("session.max_actions_per_sec must be >= 0")
	}
	return nil
}

func (t Tuning) GameMode() (maps.GameMode, error) {
	return maps.ParseGameMode(t.DefaultGameMode)
}
