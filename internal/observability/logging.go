// Package observability carries run and stage identity through a context so
// every log line of a build can be correlated.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/dist/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	RunID string
	Stage string
	Kind  string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunID = runID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithKind adds the discovery kind to the context.
func WithKind(ctx context.Context, kind string) context.Context {
	lc := extractLogContext(ctx)
	lc.Kind = kind
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := make([]slog.Attr, 0, 3)
	if lc.RunID != "" {
		attrs = append(attrs, logfields.RunID(lc.RunID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	if lc.Kind != "" {
		attrs = append(attrs, logfields.Kind(lc.Kind))
	}
	return attrs
}

func logContext(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	slog.LogAttrs(ctx, level, msg, append(getLogAttrs(ctx), attrs...)...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelDebug, msg, attrs)
}
