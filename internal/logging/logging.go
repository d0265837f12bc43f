// Package logging wraps log/slog with the level/format configuration the
// simulator's CLI exposes and a structured fatal path carrying the clock,
// channel, and pseudo-channel context every abort message must include.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var (
	mu      sync.RWMutex
	slogger = slog.New(slog.NewTextHandler(os.Stderr, nil))

	// exit is swappable so tests can observe Fatalf without dying.
	exit = os.Exit
)

// Default returns the process-wide logger.
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
}

func openOutput(s string) (io.Writer, error) {
	switch s {
	case "stdout":
		return os.Stdout, nil
	case "stderr", "":
		return os.Stderr, nil
	default:
		return os.OpenFile(s, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
}

// Configure rebuilds the default logger from cfg.
func Configure(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	out, err := openOutput(cfg.Output)
	if err != nil {
		return fmt.Errorf("logging: open output: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "text", "":
		handler = slog.NewTextHandler(out, opts)
	default:
		return fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	mu.Lock()
	slogger = slog.New(handler)
	mu.Unlock()
	return nil
}

// Fatalf logs a fatal simulator abort with its clock/channel/pseudo-channel
// context and exits non-zero. All invariant violations surface through this
// path at the tick boundary.
func Fatalf(clk int64, channel, pch int32, format string, args ...any) {
	Default().Error(fmt.Sprintf(format, args...),
		"clk", clk, "channel", channel, "pch", pch)
	exit(1)
}
