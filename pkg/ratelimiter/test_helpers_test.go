package ratelimiter

import (
	"testing"
	"time"

	"ragtune/internal/testutil"
)

// runWithTimeout runs fn on its own goroutine and fails the test if it is
// still going after timeout. Scheduler tests wrap their bodies in this so a
// stuck queue surfaces as a failure instead of a hung binary.
func runWithTimeout(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		fn()
	}()
	ctx := testutil.Context(t, timeout)
	select {
	case <-finished:
	case <-ctx.Done():
		t.Fatalf("test timed out")
	}
}

// waitFor blocks until ch delivers once or timeout passes.
func waitFor(t *testing.T, ch <-chan struct{}, timeout time.Duration) {
	t.Helper()
	waitForCount(t, ch, 1, timeout)
}

// waitForCount blocks until ch delivers count times or timeout passes.
func waitForCount(t *testing.T, ch <-chan struct{}, count int, timeout time.Duration) {
	t.Helper()
	ctx := testutil.Context(t, timeout)
	for seen := 0; seen < count; seen++ {
		select {
		case <-ch:
		case <-ctx.Done():
			t.Fatalf("timeout waiting for %d signals (got %d)", count, seen)
		}
	}
}
