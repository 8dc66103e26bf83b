package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases the zerolog.Logger so packages outside infra can accept a
// logger without importing the third-party module directly.
type Logger = zerolog.Logger

// NewLogger constructs the service logger. Development builds log at debug
// level through the console writer; every other environment emits JSON.
func NewLogger(appEnv string) Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "socialgood").
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}

// OrDiscard dereferences l, or returns a logger that drops everything when l is nil.
func OrDiscard(l *Logger) Logger {
	if l != nil {
		return *l
	}
	return zerolog.New(io.Discard)
}
