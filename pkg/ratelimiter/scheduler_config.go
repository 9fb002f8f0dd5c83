package ratelimiter

import (
	"math/rand"
	"sync"
	"time"
)

const (
	defaultErrorRetryDelay = 100 * time.Millisecond
	defaultIdleInterval    = 5 * time.Millisecond
	defaultJitterMax       = 25 * time.Millisecond
)

// schedulerConfig carries the injectable pieces of a Scheduler. Tests swap
// the clock, lease ids and jitter for determinism.
type schedulerConfig struct {
	now             func() time.Time
	newLeaseID      func() string
	jitter          func(time.Duration) time.Duration
	errorRetryDelay time.Duration
	idleInterval    time.Duration
	observer        SchedulerObserver
}

func defaultSchedulerConfig() schedulerConfig {
	source := newJitterSource(time.Now().UnixNano())
	return schedulerConfig{
		now:             time.Now,
		newLeaseID:      NewULID,
		jitter:          source.Jitter,
		errorRetryDelay: defaultErrorRetryDelay,
		idleInterval:    defaultIdleInterval,
	}
}

// jitterSource wraps math/rand behind a mutex; workers call Jitter
// concurrently.
type jitterSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newJitterSource(seed int64) *jitterSource {
	return &jitterSource{r: rand.New(rand.NewSource(seed))}
}

// Jitter returns a random duration in [0, min(base, defaultJitterMax)],
// spreading retries so denied workers do not stampede the limiter together.
func (j *jitterSource) Jitter(base time.Duration) time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	bound := defaultJitterMax
	if base > 0 && base < bound {
		bound = base
	}
	return time.Duration(j.r.Int63n(int64(bound) + 1))
}
