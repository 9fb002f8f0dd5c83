package ratelimiter

import "context"

// Limiter gates outbound calls. Reserve charges a call's requirements
// before it runs; Complete settles them with actual usage afterward.
type Limiter interface {
	Reserve(ctx context.Context, req ReserveRequest) (ReserveResponse, error)
	Complete(ctx context.Context, req CompleteRequest) (CompleteResponse, error)
}
