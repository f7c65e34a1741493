// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// Structured logger construction shared by the pools, queues and CLI.

package control

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps debug/info/warning/error (and common aliases) to a slog level.
// An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("control: unknown log level %q", s)
}

// NewLogger returns a text logger writing to w at level.
func NewLogger(level string, w io.Writer) (*slog.Logger, error) {
	return NewLoggerFormat(level, "text", w)
}

// NewLoggerFormat returns a logger in the given format ("text" or "json").
func NewLoggerFormat(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("control: unknown log format %q", format)
}
