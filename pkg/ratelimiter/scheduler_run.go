package ratelimiter

import "time"

// requeueRequest sends a denied or errored job back to the loop with the
// earliest time it may run again.
type requeueRequest struct {
	job       Job
	notBefore time.Time
}

// run is the single goroutine that owns queue state. Workers never touch
// the queues; they hand denied jobs back through requeueCh.
func (s *Scheduler) run() {
	timer := time.NewTimer(s.idleInterval)
	defer timer.Stop()

	for {
		s.state.promoteReady(s.now())
		s.dispatchReady()
		resetTimer(timer, s.nextWakeDelay())

		select {
		case <-s.stopCh:
			close(s.workCh)
			close(s.doneCh)
			return
		case job := <-s.submitCh:
			s.state.enqueueReady(job)
		case msg := <-s.requeueCh:
			s.state.enqueueBlocked(msg.job, msg.notBefore)
		case <-timer.C:
		}
	}
}

// dispatchReady fills the worker channel without ever blocking the loop.
func (s *Scheduler) dispatchReady() {
	for len(s.workCh) < cap(s.workCh) {
		job, ok := s.state.nextReady()
		if !ok {
			return
		}
		s.workCh <- job
	}
}

func (s *Scheduler) requeue(job Job, notBefore time.Time) {
	msg := requeueRequest{job: job, notBefore: notBefore}
	select {
	case <-s.doneCh:
	case s.requeueCh <- msg:
	}
}

// nextWakeDelay returns how long the loop may sleep: until the next blocked
// job becomes eligible, or the idle interval when nothing is blocked.
func (s *Scheduler) nextWakeDelay() time.Duration {
	next, ok := s.state.nextBlockedTime()
	if !ok {
		return s.idleInterval
	}
	delay := time.Until(next)
	if delay < 0 {
		return 0
	}
	return delay
}

// resetTimer drains a fired timer before resetting so a stale tick cannot
// wake the loop twice.
func resetTimer(timer *time.Timer, interval time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(interval)
}
