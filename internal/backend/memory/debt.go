package memory

import "ragtune/pkg/ratelimiter"

// DebtForKey reports how much overage has been booked against key by
// completions that used more than they reserved.
func (m *MemoryBackend) DebtForKey(key ratelimiter.LimitKey) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debts[key]
}
