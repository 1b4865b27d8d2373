// Package logging is the structured logger used across FileDeck: a small
// context-aware interface with a log/slog implementation. Request-scoped
// fields such as the session id travel in the context and are added to
// every record logged with it.
package logging

import (
	"context"
	"log/slog"
)

// Logger takes key/value pairs after the message:
//
//	log.Error(ctx, "delete failed", "path", file.Path, "error", err)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}

type fieldsKey struct{}

// ContextWith returns ctx carrying args in addition to the fields it
// already has.
func ContextWith(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	prev, _ := ctx.Value(fieldsKey{}).([]slog.Attr)
	r := slog.Record{}
	r.Add(args...)

	fields := make([]slog.Attr, 0, len(prev)+r.NumAttrs())
	fields = append(fields, prev...)
	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, a)
		return true
	})
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// contextHandler adds the context fields to each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if fields, ok := ctx.Value(fieldsKey{}).([]slog.Attr); ok {
		r = r.Clone()
		r.AddAttrs(fields...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
