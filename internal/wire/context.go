package wire

import "context"

type requestIDContextKey struct{}

// WithRequestID pins the X-Request-ID value for requests issued with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFrom returns the pinned request ID, or "" when none was set.
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
