package infra

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env, override string
		want          zerolog.Level
	}{
		{"production", "", zerolog.InfoLevel},
		{"development", "", zerolog.DebugLevel},
		{"production", "warn", zerolog.WarnLevel},
		{"development", "error", zerolog.ErrorLevel},
		{"production", "loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := logLevel(tt.env, tt.override); got != tt.want {
			t.Errorf("logLevel(%q, %q) = %s, want %s", tt.env, tt.override, got, tt.want)
		}
	}
}

func TestNewLoggerTagsServiceAndEnv(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "staging", "worker", "")
	logger.Debug().Msg("hidden")
	logger.Info().Str("bill_id", "b-1").Msg("bill verified")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "worker" || line["env"] != "staging" || line["bill_id"] != "b-1" {
		t.Fatalf("line = %v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Fatal("timestamp missing")
	}
}
