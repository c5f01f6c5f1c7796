package grpcx

import (
	"context"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/medportal/libs/httpx"
)

// RequestIDMetadataKey is the canonical key used for request id propagation over gRPC metadata.
// Lowercase is recommended by gRPC metadata conventions.
const RequestIDMetadataKey = "x-request-id"

// RequestIDFromContext shares the HTTP request id slot so ids survive HTTP -> gRPC hops.
func RequestIDFromContext(ctx context.Context) string {
	return httpx.RequestIDFromContext(ctx)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return httpx.ContextWithRequestID(ctx, id)
}

func NewRequestID() string {
	return uuid.NewString()
}
