package local

import (
	"context"
	"fmt"
	"time"

	"ragtune/internal/backend"
	"ragtune/internal/backend/memory"
	"ragtune/internal/registry"
	"ragtune/pkg/ratelimiter"
)

// Client implements Limiter on top of a server-side backend, keeping the
// reserve/complete protocol identical whether limits live in memory or
// somewhere shared.
type Client struct {
	backend backend.Backend
	now     func() time.Time
}

// NewMemoryLimiterFromFile loads limits from disk and returns a local client.
func NewMemoryLimiterFromFile(path string) (*Client, error) {
	reg := registry.New()
	if err := reg.Load(path); err != nil {
		return nil, err
	}
	return NewMemoryLimiterFromStates(reg.List())
}

// NewMemoryLimiterFromStates loads limits from memory and returns a local client.
func NewMemoryLimiterFromStates(states []ratelimiter.LimitState) (*Client, error) {
	backend := memory.New(nil)
	for _, state := range states {
		if err := backend.ApplyDefinition(context.Background(), state.Definition); err != nil {
			return nil, fmt.Errorf("apply limit definition: %w", err)
		}
	}
	return &Client{backend: backend, now: time.Now}, nil
}

// Reserve forwards reserve requests to the backend.
func (c *Client) Reserve(ctx context.Context, req ratelimiter.ReserveRequest) (ratelimiter.ReserveResponse, error) {
	return c.backend.Reserve(ctx, req, c.now())
}

// Complete forwards completion requests to the backend.
func (c *Client) Complete(ctx context.Context, req ratelimiter.CompleteRequest) (ratelimiter.CompleteResponse, error) {
	return c.backend.Complete(ctx, req)
}
