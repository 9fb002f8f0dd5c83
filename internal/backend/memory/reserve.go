package memory

import (
	"context"
	"time"

	"ragtune/pkg/ratelimiter"
)

const invalidRequestError = "invalid_request"

// Reserve charges req against every limit it names. The charge is
// all-or-nothing: if any named limit lacks room, nothing is charged and
// the denial carries a retry hint. Replaying a lease with identical
// requirements succeeds without charging again.
func (m *MemoryBackend) Reserve(_ context.Context, req ratelimiter.ReserveRequest, at time.Time) (ratelimiter.ReserveResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.LeaseID == "" || len(req.Requirements) == 0 {
		return ratelimiter.ReserveResponse{Allowed: false, Error: invalidRequestError}, nil
	}
	if prior, ok := m.leases[req.LeaseID]; ok {
		if sameRequirements(prior.requirements, req.Requirements) {
			return ratelimiter.ReserveResponse{Allowed: true, ReservedAtUnixMs: prior.reservedAtUnixMs}, nil
		}
		return ratelimiter.ReserveResponse{Allowed: false, Error: invalidRequestError}, nil
	}

	for _, r := range req.Requirements {
		if state, ok := m.states[r.Key]; ok && state.Status == ratelimiter.LimitStatusDecreasing {
			return ratelimiter.ReserveResponse{
				Allowed:      false,
				RetryAfterMs: decreaseRetryMs,
				Error:        "limit_decreasing:" + string(r.Key),
			}, nil
		}
	}
	// Keys without a definition are unthrottled: limits are opt-in per key,
	// and the scheduler derives all three call keys whether or not the
	// limits file defines them.
	now := m.now(at)
	retryMs := 0
	for _, r := range req.Requirements {
		def, ok := m.defs[r.Key]
		if !ok {
			continue
		}
		switch def.Kind {
		case ratelimiter.KindRolling:
			limit := m.rolling[r.Key]
			expireRolling(limit, now)
			if limit.used+r.Amount > limit.capacity {
				retryMs = max(retryMs, retryAfter(def))
			}
		case ratelimiter.KindConcurrency:
			limit := m.concurrency[r.Key]
			expireConcurrency(limit, now)
			if uint64(len(limit.holds))+1 > limit.capacity {
				retryMs = max(retryMs, retryAfter(def))
			}
		}
	}
	if retryMs > 0 {
		return ratelimiter.ReserveResponse{Allowed: false, RetryAfterMs: retryMs}, nil
	}

	for _, r := range req.Requirements {
		def, ok := m.defs[r.Key]
		if !ok {
			continue
		}
		switch def.Kind {
		case ratelimiter.KindRolling:
			chargeRolling(m.rolling[r.Key], req.LeaseID, r.Amount, now.Add(time.Duration(def.WindowSeconds)*time.Second))
		case ratelimiter.KindConcurrency:
			holdSlot(m.concurrency[r.Key], req.LeaseID, now.Add(time.Duration(def.TimeoutSeconds)*time.Second))
		}
	}

	m.leases[req.LeaseID] = leaseRecord{
		reservedAtUnixMs: now.UnixMilli(),
		requirements:     req.Requirements,
		reserved:         amountsByKey(req.Requirements),
	}
	return ratelimiter.ReserveResponse{Allowed: true, ReservedAtUnixMs: now.UnixMilli()}, nil
}
