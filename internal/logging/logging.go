package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger fields
const (
	PACKAGE    = "pkg"
	OP         = "op"
	USER       = "user_id"
	GOAL       = "goal_id"
	DATE       = "date"
	REQUEST_ID = "request_id"
	METHOD     = "method"
	PATH       = "path"
	STATUS     = "status"
	DURATION   = "duration"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// Setup configures the global logger and returns it.
// format is "json" or "console"; unknown levels fall back to info.
func Setup(level, format string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// NewPackageLogger returns a logger with pkg={pkg}.
func NewPackageLogger(base zerolog.Logger, pkg string) zerolog.Logger {
	return base.With().Str(PACKAGE, pkg).Logger()
}
