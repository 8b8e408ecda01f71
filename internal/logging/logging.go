package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"messenger-service/internal/config"
)

// New creates the service logger. JSON to stdout by default, console
// writer when pretty output is requested.
func New(cfg config.LogConfig) zerolog.Logger {
	var w io.Writer = os.Stdout
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "messenger").Logger()
}
