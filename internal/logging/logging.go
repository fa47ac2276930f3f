// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type ctxKey struct{}

// WithRequestID returns a context whose log records carry request_id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFromContext returns the id set by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok
}

// New builds a logger that writes human-readable text to out and JSON to
// jsonOut, both at level.
func New(level slog.Leveler, out, jsonOut io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(contextHandler{slog.NewMultiHandler(
		slog.NewTextHandler(out, opts),
		slog.NewJSONHandler(jsonOut, opts),
	)})
}

// contextHandler copies request-scoped values from the context onto each
// record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := RequestIDFromContext(ctx); ok {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
