package memory

import (
	"container/heap"
	"time"
)

// rollingLimit charges holds against a windowed budget. A hold returns its
// amount to the pool when its window passes or when a refund shrinks it.
type rollingLimit struct {
	capacity uint64
	used     uint64
	expiry   holdHeap
	byLease  map[string]*rollingHold
}

type rollingHold struct {
	lease     string
	amount    uint64
	expiresAt time.Time
	heapIndex int
}

// holdHeap orders holds by expiry so expireRolling only inspects the front.
type holdHeap []*rollingHold

func (h holdHeap) Len() int { return len(h) }

func (h holdHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }

func (h holdHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *holdHeap) Push(x interface{}) {
	hold := x.(*rollingHold)
	hold.heapIndex = len(*h)
	*h = append(*h, hold)
}

func (h *holdHeap) Pop() interface{} {
	old := *h
	n := len(old)
	hold := old[n-1]
	hold.heapIndex = -1
	*h = old[:n-1]
	return hold
}

func newRollingLimit(capacity uint64) *rollingLimit {
	return &rollingLimit{
		capacity: capacity,
		expiry:   holdHeap{},
		byLease:  map[string]*rollingHold{},
	}
}

// expireRolling drops every hold whose window has passed, returning its
// amount to the pool.
func expireRolling(limit *rollingLimit, now time.Time) {
	for limit.expiry.Len() > 0 {
		hold := limit.expiry[0]
		if hold.expiresAt.After(now) {
			break
		}
		heap.Pop(&limit.expiry)
		delete(limit.byLease, hold.lease)
		if limit.used >= hold.amount {
			limit.used -= hold.amount
		} else {
			limit.used = 0
		}
	}
}

func chargeRolling(limit *rollingLimit, lease string, amount uint64, expiresAt time.Time) {
	hold := &rollingHold{lease: lease, amount: amount, expiresAt: expiresAt}
	limit.byLease[lease] = hold
	limit.used += amount
	heap.Push(&limit.expiry, hold)
}

// refundRolling shrinks a hold to newAmount and returns the slack to the
// pool. Holds never grow; usage beyond the hold settles as debt instead.
func refundRolling(limit *rollingLimit, lease string, newAmount uint64) {
	hold, ok := limit.byLease[lease]
	if !ok || newAmount >= hold.amount {
		return
	}
	slack := hold.amount - newAmount
	if limit.used >= slack {
		limit.used -= slack
	} else {
		limit.used = 0
	}
	hold.amount = newAmount
}
