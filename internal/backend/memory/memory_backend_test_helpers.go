package memory

import (
	"fmt"
	"testing"
	"time"

	"ragtune/internal/testutil"
	"ragtune/pkg/ratelimiter"
)

// Limit keys used throughout the backend tests. The shapes mirror what the
// tuner actually reserves: request and token budgets for the judge model
// and a slot cap for the pipeline under test.
const (
	keyJudgeRPM   = "openrouter:judge:rpm"
	keyJudgeTPM   = "openrouter:judge:tpm"
	keyAnswerSlot = "pipeline:answer:concurrency"
)

func newTestBackend(epoch int64) (*MemoryBackend, *testutil.FakeClock) {
	clock := testutil.NewFakeClock(time.Unix(epoch, 0))
	return New(clock), clock
}

func tokenLimit(key string, capacity uint64, windowSeconds int) ratelimiter.LimitDefinition {
	return ratelimiter.LimitDefinition{
		Key:           ratelimiter.LimitKey(key),
		Kind:          ratelimiter.KindRolling,
		Capacity:      capacity,
		WindowSeconds: windowSeconds,
		Unit:          "tokens",
		Overage:       ratelimiter.OverageDebt,
	}
}

func slotLimit(key string, capacity uint64, timeoutSeconds int) ratelimiter.LimitDefinition {
	return ratelimiter.LimitDefinition{
		Key:            ratelimiter.LimitKey(key),
		Kind:           ratelimiter.KindConcurrency,
		Capacity:       capacity,
		TimeoutSeconds: timeoutSeconds,
		Unit:           "requests",
		Overage:        ratelimiter.OverageDebt,
	}
}

func install(t *testing.T, backend *MemoryBackend, defs ...ratelimiter.LimitDefinition) {
	t.Helper()
	ctx := testutil.Context(t, time.Second)
	for _, def := range defs {
		if err := backend.ApplyDefinition(ctx, def); err != nil {
			t.Fatalf("ApplyDefinition(%s): %v", def.Key, err)
		}
	}
}

func want(key string, amount uint64) ratelimiter.Requirement {
	return ratelimiter.Requirement{Key: ratelimiter.LimitKey(key), Amount: amount}
}

// tryReserve issues a reservation and returns the raw response; transport
// errors fail the test, denials do not.
func tryReserve(t *testing.T, backend *MemoryBackend, lease string, now time.Time, reqs ...ratelimiter.Requirement) ratelimiter.ReserveResponse {
	t.Helper()
	ctx := testutil.Context(t, time.Second)
	res, err := backend.Reserve(ctx, ratelimiter.ReserveRequest{LeaseID: lease, Requirements: reqs}, now)
	if err != nil {
		t.Fatalf("Reserve(%s): %v", lease, err)
	}
	return res
}

func mustReserve(t *testing.T, backend *MemoryBackend, lease string, now time.Time, reqs ...ratelimiter.Requirement) {
	t.Helper()
	if res := tryReserve(t, backend, lease, now, reqs...); !res.Allowed {
		t.Fatalf("Reserve(%s): denied: %+v", lease, res)
	}
}

func mustDeny(t *testing.T, backend *MemoryBackend, lease string, now time.Time, reqs ...ratelimiter.Requirement) ratelimiter.ReserveResponse {
	t.Helper()
	res := tryReserve(t, backend, lease, now, reqs...)
	if res.Allowed {
		t.Fatalf("Reserve(%s): expected denial", lease)
	}
	return res
}

func settle(t *testing.T, backend *MemoryBackend, lease string, actuals ...ratelimiter.Actual) {
	t.Helper()
	ctx := testutil.Context(t, time.Second)
	if _, err := backend.Complete(ctx, ratelimiter.CompleteRequest{LeaseID: lease, Actuals: actuals}); err != nil {
		t.Fatalf("Complete(%s): %v", lease, err)
	}
}

func stressLease(worker int64, n int) string {
	return fmt.Sprintf("lease-%d-%d", worker, n)
}

// runWithTimeout guards a test body against deadlocking in the backend's
// mutex paths; the body runs on its own goroutine so the watchdog can fire.
func runWithTimeout(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	ctx := testutil.Context(t, timeout)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-ctx.Done():
		t.Fatalf("test timed out after %v", timeout)
	case <-done:
	}
}
