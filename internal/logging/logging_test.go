package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"polycube.ai/internal/sim/tuning"
)

func TestSetup_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	if err := Setup(tuning.LogConfig{Level: "warn", Format: "json"}, &buf); err != nil {
		t.Fatalf("setup: %v", err)
	}
	l := Named("test")
	l.Info().Msg("hidden")
	l.Warn().Str("k", "v").Msg("shown")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if rec["module"] != "test" || rec["k"] != "v" || rec["message"] != "shown" || rec["level"] != "warn" {
		t.Fatalf("record %v", rec)
	}
}

func TestSetup_Console(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	if err := Setup(tuning.LogConfig{Format: "console"}, &buf); err != nil {
		t.Fatalf("setup: %v", err)
	}
	log.Info().Msg("hello")
	if !bytes.Contains(buf.Bytes(), []byte("hello")) || bytes.HasPrefix(buf.Bytes(), []byte("{")) {
		t.Fatalf("console output %q", buf.String())
	}
}

func TestSetup_BadLevel(t *testing.T) {
	if err := Setup(tuning.LogConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error")
	}
}
