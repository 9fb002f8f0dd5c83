// Package memory keeps all rate limiter state in process memory. The tuner
// runs as a single process, so this is the backend that ships: no server,
// no shared store, one mutex around the budget table.
package memory

import (
	"sync"

	"ragtune/pkg/ratelimiter"
)

// MemoryBackend tracks limit definitions, live holds, and leases. All
// methods are safe for concurrent use.
type MemoryBackend struct {
	mu          sync.Mutex
	clock       Clock
	defs        map[ratelimiter.LimitKey]ratelimiter.LimitDefinition
	states      map[ratelimiter.LimitKey]ratelimiter.LimitState
	rolling     map[ratelimiter.LimitKey]*rollingLimit
	concurrency map[ratelimiter.LimitKey]*concurrencyLimit
	debts       map[ratelimiter.LimitKey]uint64
	leases      map[string]leaseRecord
}

// New returns an empty backend. A nil clock means wall-clock time.
func New(clock Clock) *MemoryBackend {
	if clock == nil {
		clock = wallClock{}
	}
	return &MemoryBackend{
		clock:       clock,
		defs:        map[ratelimiter.LimitKey]ratelimiter.LimitDefinition{},
		states:      map[ratelimiter.LimitKey]ratelimiter.LimitState{},
		rolling:     map[ratelimiter.LimitKey]*rollingLimit{},
		concurrency: map[ratelimiter.LimitKey]*concurrencyLimit{},
		debts:       map[ratelimiter.LimitKey]uint64{},
		leases:      map[string]leaseRecord{},
	}
}
