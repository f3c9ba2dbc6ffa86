package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const devEnv = "development"

// Logger is the logger handed to services, repositories and workers.
type Logger = zerolog.Logger

// NewLogger builds the root logger for one binary (api, worker, poolctl).
// Development prints to the console at debug; elsewhere JSON lines at info.
// LOG_LEVEL overrides either default.
func NewLogger(appEnv, service string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if appEnv == devEnv {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return newLogger(out, appEnv, service, os.Getenv("LOG_LEVEL"))
}

func newLogger(out io.Writer, appEnv, service, levelOverride string) zerolog.Logger {
	fields := zerolog.New(out).Level(logLevel(appEnv, levelOverride)).With().Timestamp()
	if service != "" {
		fields = fields.Str("service", service)
	}
	if appEnv != "" && appEnv != devEnv {
		fields = fields.Str("env", appEnv)
	}
	return fields.Logger()
}

func logLevel(appEnv, override string) zerolog.Level {
	if override != "" {
		if lvl, err := zerolog.ParseLevel(override); err == nil && lvl != zerolog.NoLevel {
			return lvl
		}
	}
	if appEnv == devEnv {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}
