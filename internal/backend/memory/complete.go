package memory

import (
	"context"

	"ragtune/pkg/ratelimiter"
)

// Complete settles a lease: concurrency slots free, rolling holds shrink to
// what was actually used, and usage beyond the hold accrues debt when the
// limit settles overage that way. Completing an unknown or already-settled
// lease is a no-op.
func (m *MemoryBackend) Complete(_ context.Context, req ratelimiter.CompleteRequest) (ratelimiter.CompleteResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.leases[req.LeaseID]
	if !ok {
		return ratelimiter.CompleteResponse{Ok: true}, nil
	}

	for _, r := range record.requirements {
		if def, ok := m.defs[r.Key]; ok && def.Kind == ratelimiter.KindConcurrency {
			if limit, ok := m.concurrency[r.Key]; ok {
				delete(limit.holds, req.LeaseID)
			}
		}
	}

	for _, actual := range req.Actuals {
		def, ok := m.defs[actual.Key]
		if !ok || def.Kind != ratelimiter.KindRolling {
			continue
		}
		reserved := record.reserved[actual.Key]
		switch {
		case actual.ActualAmount < reserved:
			refundRolling(m.rolling[actual.Key], req.LeaseID, actual.ActualAmount)
		case actual.ActualAmount > reserved && def.Overage == ratelimiter.OverageDebt:
			m.debts[actual.Key] += actual.ActualAmount - reserved
		}
	}

	delete(m.leases, req.LeaseID)
	return ratelimiter.CompleteResponse{Ok: true}, nil
}
