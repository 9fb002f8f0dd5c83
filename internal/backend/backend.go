// Package backend defines the storage side of the rate limiter: where
// limit definitions live and how reservations are charged against them.
package backend

import (
	"context"
	"time"

	"ragtune/pkg/ratelimiter"
)

// Backend holds limit state and answers reserve/complete calls against it.
// The embedded tuner uses the in-memory implementation; the interface keeps
// the limiter client indifferent to where the state actually lives.
type Backend interface {
	// ApplyDefinition creates the limit named by def.Key or reconciles an
	// existing one toward def.
	ApplyDefinition(ctx context.Context, def ratelimiter.LimitDefinition) error
	// Reserve charges req against every limit it names, or none of them.
	Reserve(ctx context.Context, req ratelimiter.ReserveRequest, now time.Time) (ratelimiter.ReserveResponse, error)
	// Complete settles a reservation with the amounts actually used.
	Complete(ctx context.Context, req ratelimiter.CompleteRequest) (ratelimiter.CompleteResponse, error)
}
