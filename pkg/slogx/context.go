package slogx

import (
	"context"
	"log/slog"
	"sync"
)

type ctxKey struct{}

type requestKey struct{}

// requestAttrs collects attributes that inner handlers learn about a
// request (the caller, say) so the access log line can report them.
type requestAttrs struct {
	mu   sync.Mutex
	id   string
	args []any
}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, or slog.Default outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// Annotate adds args to the logger in ctx and to the access log entry
// written by HTTPMiddleware when the request completes.
func Annotate(ctx context.Context, args ...any) context.Context {
	if ra, ok := ctx.Value(requestKey{}).(*requestAttrs); ok {
		ra.mu.Lock()
		ra.args = append(ra.args, args...)
		ra.mu.Unlock()
	}
	return WithContext(ctx, FromContext(ctx).With(args...))
}

// RequestID returns the id HTTPMiddleware assigned to the request.
func RequestID(ctx context.Context) string {
	if ra, ok := ctx.Value(requestKey{}).(*requestAttrs); ok {
		return ra.id
	}
	return ""
}

func (ra *requestAttrs) snapshot() []any {
	ra.mu.Lock()
	defer ra.mu.Unlock()
	return append([]any(nil), ra.args...)
}
