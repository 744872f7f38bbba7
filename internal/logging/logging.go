// Package logging builds the slog loggers used by the wstask command.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "WSTASK_LOG_LEVEL"

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string

	// Format is "text" or "json". Empty means text.
	Format string

	// Output receives log records. Default: os.Stderr.
	Output io.Writer
}

// Logger is a slog.Logger whose level can be changed at runtime.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// SetLevel changes the minimum level of l and every logger derived from it.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// New builds a logger from opts. The EnvLevel environment variable takes
// precedence over opts.Level.
func New(opts Options) (*Logger, error) {
	levelName := opts.Level
	if env := os.Getenv(EnvLevel); env != "" {
		levelName = env
	}
	level, err := ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	lv := new(slog.LevelVar)
	lv.Set(level)
	handlerOpts := &slog.HandlerOptions{Level: lv}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		h = slog.NewTextHandler(out, handlerOpts)
	case "json":
		h = slog.NewJSONHandler(out, handlerOpts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", opts.Format)
	}

	return &Logger{Logger: slog.New(h), level: lv}, nil
}

// ParseLevel parses a level name. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
	}
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
