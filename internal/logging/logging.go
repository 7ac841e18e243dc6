// Package logging wraps log/slog with the level/format conventions the
// rest of the service expects: a process-wide default logger, a
// "simple" (level + message + attrs) format for local development and a
// "json" format for production log aggregation, and suppression of
// third-party library noise below debug level.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

const modulePrefix = "github.com/dataloomhq/dataloom"

var defaultLogger *slog.Logger

// ParseLevel parses a case-insensitive level name, defaulting to info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", level)
	}
}

// Init builds the process-wide default logger and installs it as the
// slog default so any library code using slog.Info/etc. is captured too.
func Init(level slog.Level, output io.Writer, format string) {
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	switch strings.ToLower(format) {
	case "json":
		base = slog.NewJSONHandler(output, opts)
	default:
		base = &simpleHandler{next: slog.NewTextHandler(output, opts), out: output}
	}

	defaultLogger = slog.New(&moduleFilterHandler{next: base, minLevel: level})
	slog.SetDefault(defaultLogger)
}

// Default returns the process-wide logger, initializing a sane default
// (info, simple, stderr) the first time it is called without Init.
func Default() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo, os.Stderr, "simple")
	}
	return defaultLogger
}

// WithRequestID returns a child logger tagging every record with a
// request id, for correlating a /chat call's logs across iterations
// and tool calls.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With(slog.String("request_id", requestID))
}

// moduleFilterHandler suppresses third-party library logs unless the
// configured level is debug - the service's own logs always pass.
type moduleFilterHandler struct {
	next     slog.Handler
	minLevel slog.Level
}

func (h *moduleFilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *moduleFilterHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel <= slog.LevelDebug || isOwnPackage(record.PC) {
		return h.next.Handle(ctx, record)
	}
	return nil
}

func (h *moduleFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &moduleFilterHandler{next: h.next.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *moduleFilterHandler) WithGroup(name string) slog.Handler {
	return &moduleFilterHandler{next: h.next.WithGroup(name), minLevel: h.minLevel}
}

func isOwnPackage(pc uintptr) bool {
	if pc == 0 {
		return true
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.Function == "" {
		return true
	}
	return strings.Contains(frame.Function, modulePrefix)
}

// simpleHandler renders "LEVEL message key=value ..." with no timestamp,
// the format operators want for local/foreground runs.
type simpleHandler struct {
	next  slog.Handler
	out   io.Writer
	attrs []slog.Attr
}

func (h *simpleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *simpleHandler) Handle(ctx context.Context, record slog.Record) error {
	var b strings.Builder
	level := record.Level.String()
	if level == "WARNING" {
		level = "WARN"
	}
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(record.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
		return true
	})
	b.WriteByte('\n')
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *simpleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &simpleHandler{next: h.next.WithAttrs(attrs), out: h.out, attrs: merged}
}

func (h *simpleHandler) WithGroup(name string) slog.Handler {
	return &simpleHandler{next: h.next.WithGroup(name), out: h.out, attrs: h.attrs}
}
