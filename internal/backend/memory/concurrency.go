package memory

import (
	"container/heap"
	"time"
)

// concurrencyLimit counts in-flight holds. A slot frees when its lease
// completes or, for callers that never settle, when its timeout passes.
type concurrencyLimit struct {
	capacity uint64
	holds    map[string]time.Time
	expiry   slotHeap
}

type slotEntry struct {
	lease     string
	expiresAt time.Time
	heapIndex int
}

type slotHeap []*slotEntry

func (h slotHeap) Len() int { return len(h) }

func (h slotHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }

func (h slotHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *slotHeap) Push(x interface{}) {
	entry := x.(*slotEntry)
	entry.heapIndex = len(*h)
	*h = append(*h, entry)
}

func (h *slotHeap) Pop() interface{} {
	old := *h
	n := len(old)
	entry := old[n-1]
	entry.heapIndex = -1
	*h = old[:n-1]
	return entry
}

func newConcurrencyLimit(capacity uint64) *concurrencyLimit {
	return &concurrencyLimit{
		capacity: capacity,
		holds:    map[string]time.Time{},
		expiry:   slotHeap{},
	}
}

// expireConcurrency reclaims slots whose holders never completed. Heap
// entries for already-settled leases fall through harmlessly; Complete
// removes only the holds entry, never the heap entry.
func expireConcurrency(limit *concurrencyLimit, now time.Time) {
	for limit.expiry.Len() > 0 {
		entry := limit.expiry[0]
		if entry.expiresAt.After(now) {
			break
		}
		heap.Pop(&limit.expiry)
		delete(limit.holds, entry.lease)
	}
}

func holdSlot(limit *concurrencyLimit, lease string, expiresAt time.Time) {
	limit.holds[lease] = expiresAt
	heap.Push(&limit.expiry, &slotEntry{lease: lease, expiresAt: expiresAt})
}
