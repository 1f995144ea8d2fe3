package logger

import (
	"context"

	"github.com/google/uuid"
)

// TraceIDKey is the log field carrying the request trace ID.
const TraceIDKey = "trace_id"

type traceIDCtxKey struct{}

// GetTraceID gets a trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// SetTraceID stores a trace ID in the context.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDCtxKey{}, traceID)
}

// EnsureTraceID ensures that a trace ID exists in the context.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if id := GetTraceID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return SetTraceID(ctx, id), id
}
