// Package observability builds the logger, tracer and metrics shared by every module.
package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// NewLogger returns a slog logger writing format ("json" or "text") at level.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type correlationKey struct{}

// WithCorrelationID stores id in ctx. An empty id gets a fresh UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFrom returns the correlation id in ctx, if any.
func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// CorrelationID is the log attribute for the correlation id in ctx.
func CorrelationID(ctx context.Context) slog.Attr {
	return slog.String("correlation_id", CorrelationIDFrom(ctx))
}

// ErrorAttr is the log attribute for err.
func ErrorAttr(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
