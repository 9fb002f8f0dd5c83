package ratelimiter

import (
	"context"
	"time"
)

// worker consumes jobs from the work channel and executes them.
func (s *Scheduler) worker() {
	defer s.wg.Done()
	for job := range s.workCh {
		s.handleJob(job)
	}
}

// handleJob runs a single reserve/execute/complete attempt.
func (s *Scheduler) handleJob(job Job) {
	job = s.ensureLeaseID(job)
	if s.observer != nil {
		s.observer.OnReserveStart(job)
	}
	req := buildReserveRequest(job)
	res, err := s.limiter.Reserve(s.ctx, req)
	if err != nil {
		if s.observer != nil {
			s.observer.OnReserveError(job, err)
		}
		s.requeue(job, s.now().Add(s.errorRetryDelay))
		return
	}
	if !res.Allowed {
		if s.observer != nil {
			s.observer.OnReserveDenied(job, res)
		}
		job.LeaseID = s.newLeaseID()
		s.requeue(job, s.now().Add(s.retryDelay(res)))
		return
	}
	actuals := []Actual{}
	if job.Execute != nil {
		actualTokens, _ := job.Execute(s.ctx)
		actuals = buildCallActuals(job, actualTokens)
	}
	s.complete(job, actuals)
}

// ensureLeaseID assigns a lease ID if one is missing.
func (s *Scheduler) ensureLeaseID(job Job) Job {
	if job.LeaseID == "" {
		job.LeaseID = s.newLeaseID()
	}
	return job
}

// retryDelay calculates retry timing for a denied reservation.
func (s *Scheduler) retryDelay(res ReserveResponse) time.Duration {
	delay := time.Duration(res.RetryAfterMs) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	jitter := s.jitter(delay)
	if jitter < 0 {
		jitter = 0
	}
	return delay + jitter
}

// buildReserveRequest creates a reserve request for a job.
func buildReserveRequest(job Job) ReserveRequest {
	reqs := BuildCallRequirements(CallReserveInput{
		LeaseID:         job.LeaseID,
		JobID:           job.JobID,
		Service:         job.Service,
		Target:          job.Target,
		Payload:         job.Payload,
		MaxOutputTokens: job.MaxOutputTokens,
	})
	return ReserveRequest{LeaseID: job.LeaseID, JobID: job.JobID, Requirements: reqs}
}

// buildCallActuals builds actual usage entries for token-based limits.
func buildCallActuals(job Job, actualTokens uint64) []Actual {
	return []Actual{
		{Key: LimitKey(buildTPMKey(job.Service, job.Target)), ActualAmount: actualTokens},
	}
}

// complete reports completion to the limiter, ignoring errors. A fresh
// context keeps the concurrency release from being dropped on shutdown.
func (s *Scheduler) complete(job Job, actuals []Actual) {
	_, _ = s.limiter.Complete(context.Background(), CompleteRequest{
		LeaseID: job.LeaseID,
		JobID:   job.JobID,
		Actuals: actuals,
	})
}
