package sessionkit

import (
	"context"

	"github.com/TransferAgent/sessionkit/internal/wire"
)

// WithRequestID pins the X-Request-ID header for every request issued with
// ctx, overriding the generated one. Use it to correlate client activity
// with platform-side traces.
//
//	Docs: docs/observability.md
func WithRequestID(ctx context.Context, id string) context.Context {
	return wire.WithRequestID(ctx, id)
}

func requestIDFromContext(ctx context.Context) string {
	return wire.RequestIDFrom(ctx)
}
