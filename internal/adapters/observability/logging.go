package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "attraction-registry"

// NewLogger returns the process logger writing to stdout.
func NewLogger(env, level string) zerolog.Logger {
	return newLogger(os.Stdout, env, level)
}

// newLogger uses a console writer with caller info for dev/development and
// JSON otherwise. level falls back to info when empty or unparsable.
func newLogger(w io.Writer, env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch strings.ToLower(env) {
	case "dev", "development":
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(lvl).With().Timestamp().Caller().Logger()
	default:
		return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", serviceName).Logger()
	}
}
