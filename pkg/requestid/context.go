package requestid

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// WithContext stores the request id in ctx
func WithContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the request id of ctx, or ""
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, ok := ctx.Value(contextKey{}).(string)
	if !ok {
		return ""
	}
	return requestID
}

// Ensure returns ctx with a request id, generating one if ctx has none
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithContext(ctx, id), id
}
