package ratelimiter

import (
	"sort"
	"time"
)

// schedulerState is the loop-private queue state. One queue per
// service:target pair keeps a slow target from starving the others.
type schedulerState struct {
	queues map[string]*workQueue
	order  []string
	cursor int
}

type workQueue struct {
	key     string
	ready   []Job
	blocked blockedQueue
}

// blockedQueue keeps jobs sorted by the time they become eligible again.
type blockedQueue struct {
	items []blockedItem
}

type blockedItem struct {
	job       Job
	notBefore time.Time
}

func newSchedulerState() *schedulerState {
	return &schedulerState{
		queues: map[string]*workQueue{},
		order:  []string{},
	}
}

func (s *schedulerState) enqueueReady(job Job) {
	q := s.queue(queueKey(job))
	q.ready = append(q.ready, job)
}

func (s *schedulerState) enqueueBlocked(job Job, notBefore time.Time) {
	q := s.queue(queueKey(job))
	q.blocked.push(blockedItem{job: job, notBefore: notBefore})
}

// promoteReady moves every blocked job whose time has come back onto its
// queue's ready list.
func (s *schedulerState) promoteReady(now time.Time) {
	for _, q := range s.queues {
		for {
			item, ok := q.blocked.popReady(now)
			if !ok {
				break
			}
			q.ready = append(q.ready, item.job)
		}
	}
}

// nextReady hands out ready jobs round-robin across queues so every
// service:target pair makes progress.
func (s *schedulerState) nextReady() (Job, bool) {
	if len(s.order) == 0 {
		return Job{}, false
	}
	start := s.cursor
	for i := 0; i < len(s.order); i++ {
		idx := (start + i) % len(s.order)
		q := s.queues[s.order[idx]]
		if q == nil || len(q.ready) == 0 {
			continue
		}
		job := q.ready[0]
		q.ready = q.ready[1:]
		s.cursor = (idx + 1) % len(s.order)
		return job, true
	}
	return Job{}, false
}

// nextBlockedTime returns the earliest eligibility time across all queues.
func (s *schedulerState) nextBlockedTime() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, q := range s.queues {
		next, ok := q.blocked.peekTime()
		if !ok {
			continue
		}
		if !found || next.Before(earliest) {
			earliest = next
			found = true
		}
	}
	return earliest, found
}

func (s *schedulerState) queue(key string) *workQueue {
	if q, ok := s.queues[key]; ok {
		return q
	}
	q := &workQueue{key: key}
	s.queues[key] = q
	s.order = append(s.order, key)
	return q
}

// push inserts in eligibility order.
func (b *blockedQueue) push(item blockedItem) {
	idx := sort.Search(len(b.items), func(i int) bool {
		return !b.items[i].notBefore.Before(item.notBefore)
	})
	b.items = append(b.items, blockedItem{})
	copy(b.items[idx+1:], b.items[idx:])
	b.items[idx] = item
}

func (b *blockedQueue) popReady(now time.Time) (blockedItem, bool) {
	if len(b.items) == 0 || b.items[0].notBefore.After(now) {
		return blockedItem{}, false
	}
	item := b.items[0]
	b.items = b.items[1:]
	return item, true
}

func (b *blockedQueue) peekTime() (time.Time, bool) {
	if len(b.items) == 0 {
		return time.Time{}, false
	}
	return b.items[0].notBefore, true
}

// queueKey groups jobs that share the same budget.
func queueKey(job Job) string {
	return job.Service + ":" + job.Target
}
