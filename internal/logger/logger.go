package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLogLevel converts LOG_LEVEL to a slog.Level. Unknown values give debug.
func ParseLogLevel(level string) slog.Level {
	level = strings.TrimSpace(level)
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelDebug
	}
	return l
}

// InitLogger creates the service logger.
// The dev environment gets colourized text on stderr, every other environment gets JSON on stdout.
func InitLogger(logLevel slog.Level, environment string) *slog.Logger {
	if environment == "dev" {
		return New(os.Stderr, logLevel, environment)
	}
	return New(os.Stdout, logLevel, environment)
}

// New creates a logger writing to w, formatted for the environment
func New(w io.Writer, logLevel slog.Level, environment string) *slog.Logger {
	if environment == "dev" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// Discard returns a logger that drops everything, used by components created without a logger
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
