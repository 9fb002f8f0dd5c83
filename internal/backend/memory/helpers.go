package memory

import (
	"time"

	"ragtune/pkg/ratelimiter"
)

// now prefers the caller's timestamp and falls back to the backend clock
// when the caller passed the zero time.
func (m *MemoryBackend) now(at time.Time) time.Time {
	if at.IsZero() {
		return m.clock.Now()
	}
	return at
}

// cleanupLocked expires stale holds for key at the backend clock's now.
func (m *MemoryBackend) cleanupLocked(key ratelimiter.LimitKey) {
	def, ok := m.defs[key]
	if !ok {
		return
	}
	switch def.Kind {
	case ratelimiter.KindRolling:
		if limit, ok := m.rolling[key]; ok {
			expireRolling(limit, m.clock.Now())
		}
	case ratelimiter.KindConcurrency:
		if limit, ok := m.concurrency[key]; ok {
			expireConcurrency(limit, m.clock.Now())
		}
	}
}

// availableCapacityLocked reports how much of def's budget is uncharged.
func (m *MemoryBackend) availableCapacityLocked(key ratelimiter.LimitKey, def ratelimiter.LimitDefinition) uint64 {
	switch def.Kind {
	case ratelimiter.KindRolling:
		if limit, ok := m.rolling[key]; ok && limit.used < limit.capacity {
			return limit.capacity - limit.used
		}
	case ratelimiter.KindConcurrency:
		if limit, ok := m.concurrency[key]; ok {
			if used := uint64(len(limit.holds)); used < limit.capacity {
				return limit.capacity - used
			}
		}
	}
	return 0
}
