package runner

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Default retry policy for pipeline and model calls.
const (
	defaultAttempts       = 3
	defaultInitialBackoff = 500 * time.Millisecond
	defaultBackoffFactor  = 2.0
	defaultMaxBackoff     = 5 * time.Second
)

// RetryPolicy bounds one external call: a per-attempt timeout plus retries
// with exponential backoff and jitter. The scorer shares it for judge calls.
type RetryPolicy struct {
	Attempts       int
	Timeout        time.Duration
	InitialBackoff time.Duration
	BackoffFactor  float64
	MaxBackoff     time.Duration

	// OnRetry fires before each wait, with the attempt that just failed.
	OnRetry func(attempt int, err error, wait time.Duration)

	// seams for tests
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(d time.Duration) time.Duration
}

// NewRetryPolicy fills a policy from caller options, keeping defaults for
// anything unset.
func NewRetryPolicy(attempts int, timeout, initialBackoff time.Duration) RetryPolicy {
	if attempts < 1 {
		attempts = defaultAttempts
	}
	if initialBackoff <= 0 {
		initialBackoff = defaultInitialBackoff
	}
	return RetryPolicy{
		Attempts:       attempts,
		Timeout:        timeout,
		InitialBackoff: initialBackoff,
		BackoffFactor:  defaultBackoffFactor,
		MaxBackoff:     defaultMaxBackoff,
		sleep:          sleepContext,
		jitter:         jitterDuration,
	}
}

// Isolate runs one external call under the policy. Every attempt gets its own
// timeout; errors are retried with backoff until the attempts are exhausted.
// Context cancellation stops the retry loop immediately.
func Isolate(ctx context.Context, policy RetryPolicy, call func(ctx context.Context) error) error {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	backoff := policy.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := func() error {
			attemptCtx := ctx
			if policy.Timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
				defer cancel()
			}
			return call(attemptCtx)
		}()
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return err
		}
		if attempt == policy.Attempts {
			break
		}
		wait := backoff
		if policy.jitter != nil {
			wait = policy.jitter(wait)
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err, wait)
		}
		if policy.sleep != nil {
			if sleepErr := policy.sleep(ctx, wait); sleepErr != nil {
				return sleepErr
			}
		}
		factor := policy.BackoffFactor
		if factor <= 1 {
			factor = defaultBackoffFactor
		}
		backoff = time.Duration(float64(backoff) * factor)
		if policy.MaxBackoff > 0 && backoff > policy.MaxBackoff {
			backoff = policy.MaxBackoff
		}
	}
	return fmt.Errorf("after %d attempts: %w", policy.Attempts, lastErr)
}

// sleepContext waits for the duration or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// jitterDuration spreads a wait by up to 25% to avoid retry stampedes.
func jitterDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	span := int64(d / 4)
	if span <= 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(span))
}
