package memory

import (
	"context"

	"ragtune/pkg/ratelimiter"
)

// ApplyDefinition installs or reconciles a limit. New limits and capacity
// increases take effect immediately. A capacity decrease cannot be forced
// while holds occupy the doomed headroom, so the limit flips to decreasing,
// refuses new reservations, and waits for TryApplyDecrease to land it.
func (m *MemoryBackend) ApplyDefinition(_ context.Context, def ratelimiter.LimitDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, exists := m.defs[def.Key]
	if exists && def.Capacity < prev.Capacity {
		m.states[def.Key] = ratelimiter.LimitState{
			Definition:        prev,
			Status:            ratelimiter.LimitStatusDecreasing,
			PendingDecreaseTo: def.Capacity,
		}
		return nil
	}

	m.installLocked(def)
	return nil
}

// TryApplyDecrease lands a pending capacity decrease once enough holds have
// drained. It is a no-op for limits that are not decreasing or whose usage
// still exceeds the target.
func (m *MemoryBackend) TryApplyDecrease(key ratelimiter.LimitKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[key]
	if !ok || state.Status != ratelimiter.LimitStatusDecreasing {
		return
	}
	target := state.PendingDecreaseTo
	current := state.Definition.Capacity
	if target == 0 || target >= current {
		return
	}

	m.cleanupLocked(key)
	if m.availableCapacityLocked(key, state.Definition) < current-target {
		return
	}

	state.Definition.Capacity = target
	m.installLocked(state.Definition)
}

// installLocked records def as the active definition and syncs the backing
// store's capacity. The store keeps its existing holds across capacity
// changes.
func (m *MemoryBackend) installLocked(def ratelimiter.LimitDefinition) {
	m.defs[def.Key] = def
	m.states[def.Key] = ratelimiter.LimitState{Definition: def, Status: ratelimiter.LimitStatusActive}
	switch def.Kind {
	case ratelimiter.KindRolling:
		limit, ok := m.rolling[def.Key]
		if !ok {
			m.rolling[def.Key] = newRollingLimit(def.Capacity)
			return
		}
		limit.capacity = def.Capacity
	case ratelimiter.KindConcurrency:
		limit, ok := m.concurrency[def.Key]
		if !ok {
			m.concurrency[def.Key] = newConcurrencyLimit(def.Capacity)
			return
		}
		limit.capacity = def.Capacity
	}
}
