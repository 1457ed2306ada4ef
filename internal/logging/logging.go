// Package logging builds the application logger: slog with masking of
// sensitive attributes, written to stderr or to a rotated file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/iudanet/vaultkeeper/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ParseLevel разбирает уровень логирования (debug, info, warn, error)
func ParseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}

// New creates the logger described by cfg. With an empty cfg.File the
// logger writes text to stderr; otherwise JSON lines go to a rotated file.
// The returned closer releases the file.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.File == "" {
		return NewWithWriter(os.Stderr, opts, false), nopCloser{}, nil
	}

	writer, err := NewRotatingWriter(RotationConfig{
		File:      cfg.File,
		MaxSizeMB: cfg.MaxSizeMB,
		MaxFiles:  cfg.MaxFiles,
	})
	if err != nil {
		return nil, nil, err
	}
	return NewWithWriter(writer, opts, true), writer, nil
}

// NewWithWriter creates a redacting logger on top of w
func NewWithWriter(w io.Writer, opts *slog.HandlerOptions, json bool) *slog.Logger {
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewRedactingHandler(handler))
}
