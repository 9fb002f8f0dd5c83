package ratelimiter

// SchedulerObserver is notified as a job moves through reserve attempts.
// Callbacks run on worker goroutines and must not block.
type SchedulerObserver interface {
	// OnReserveStart fires before each reserve attempt.
	OnReserveStart(job Job)
	// OnReserveDenied fires when the limiter denied the reservation.
	OnReserveDenied(job Job, res ReserveResponse)
	// OnReserveError fires when the reserve call itself failed.
	OnReserveError(job Job, err error)
}
