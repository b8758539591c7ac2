// Package requestcontext carries per-operation values (correlation token, operation time)
// through context so services, stores and log lines agree on them.
package requestcontext

import (
	"context"
	"time"
)

type (
	contextKeyCorrelationID struct{}
	contextKeyTime          struct{}
)

// WithCorrelationID stores the caller-supplied correlation token.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyCorrelationID{}, id)
}

// CorrelationID returns the correlation token, or "" outside a request.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyCorrelationID{}).(string); ok {
		return id
	}
	return ""
}

// WithTime pins "now" for the lifetime of ctx. Used by the HTTP middleware,
// workers that process a batch, and tests.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyTime{}, t)
}

// Now returns the pinned operation time, falling back to time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(contextKeyTime{}).(time.Time); ok {
		return t
	}
	return time.Now()
}
