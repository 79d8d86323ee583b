package helpers

import "context"

// RequestIDHeader carries the correlation id between services.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID stores the request id in ctx for outgoing calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
