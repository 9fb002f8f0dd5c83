package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds unit tests that take a context.
const DefaultTimeout = 5 * time.Second

// Context returns a context cancelled when the test ends. A non-positive
// timeout means DefaultTimeout; either way the deadline never outlives the
// test binary's own deadline.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	// testing.TB does not expose Deadline; *testing.T does.
	if td, ok := t.(interface{ Deadline() (time.Time, bool) }); ok {
		if deadline, ok := td.Deadline(); ok {
			// Leave a second for cleanup so a hang fails the test, not the binary.
			if remaining := time.Until(deadline) - time.Second; remaining > 0 && remaining < timeout {
				timeout = remaining
			}
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
