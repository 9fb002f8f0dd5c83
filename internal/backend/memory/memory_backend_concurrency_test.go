package memory

import (
	"testing"
	"time"
)

func TestSlotFreesWhenLeaseCompletes(t *testing.T) {
	runWithTimeout(t, 2*time.Second, func() {
		backend, clock := newTestBackend(0)
		install(t, backend, slotLimit(keyAnswerSlot, 1, 120))

		mustReserve(t, backend, "q1", clock.Now(), want(keyAnswerSlot, 1))
		mustDeny(t, backend, "q2", clock.Now(), want(keyAnswerSlot, 1))

		settle(t, backend, "q1")
		mustReserve(t, backend, "q2-retry", clock.Now(), want(keyAnswerSlot, 1))
	})
}

func TestAbandonedSlotReclaimedAfterTimeout(t *testing.T) {
	runWithTimeout(t, 2*time.Second, func() {
		backend, clock := newTestBackend(0)
		install(t, backend, slotLimit(keyAnswerSlot, 1, 5))

		// The holder crashes without completing; the slot comes back once
		// its hold timeout passes.
		mustReserve(t, backend, "crashed", clock.Now(), want(keyAnswerSlot, 1))
		mustDeny(t, backend, "waiting", clock.Now(), want(keyAnswerSlot, 1))
		clock.Advance(6 * time.Second)
		mustReserve(t, backend, "waiting-retry", clock.Now(), want(keyAnswerSlot, 1))
	})
}
