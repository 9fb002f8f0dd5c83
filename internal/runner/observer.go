package runner

import (
	"strings"
	"sync"
	"time"

	"ragtune/internal/question"
	"ragtune/pkg/ratelimiter"
)

// AnswerEventType identifies a per-question status update for observers.
type AnswerEventType string

const (
	// AnswerQueued marks a question known but not yet submitted.
	AnswerQueued AnswerEventType = "queued"
	// AnswerScheduled marks a question submitted to the scheduler.
	AnswerScheduled AnswerEventType = "scheduled"
	// AnswerReserving marks a reserve attempt in progress.
	AnswerReserving AnswerEventType = "reserving"
	// AnswerWaitingRateLimit marks a reserve denial with retry_after_ms.
	AnswerWaitingRateLimit AnswerEventType = "waiting_rate_limit"
	// AnswerWaitingLimitDecreasing marks a reserve denial for limit_decreasing.
	AnswerWaitingLimitDecreasing AnswerEventType = "waiting_limit_decreasing"
	// AnswerWaitingLimiterError marks a reserve error retry.
	AnswerWaitingLimiterError AnswerEventType = "waiting_limiter_error"
	// AnswerRunning marks an active pipeline call.
	AnswerRunning AnswerEventType = "running"
	// AnswerRetrying marks a failed call attempt about to be retried.
	AnswerRetrying AnswerEventType = "retrying"
	// AnswerCompleted marks a successful pipeline call.
	AnswerCompleted AnswerEventType = "completed"
	// AnswerFailed marks a call that exhausted its retries.
	AnswerFailed AnswerEventType = "failed"
)

// AnswerEvent carries a single status update while executing a batch.
type AnswerEvent struct {
	QuestionIndex int
	QuestionID    string
	QuestionText  string
	Type          AnswerEventType
	Attempt       int
	RetryAfterMs  int
	Sources       int
	QueryTimeMs   int64
	Error         string
	EmittedAt     time.Time
}

// BatchObserver receives per-question progress events for UI or logging.
type BatchObserver interface {
	OnAnswerEvent(event AnswerEvent)
}

// answerEventOptions carries optional metadata for an answer event.
type answerEventOptions struct {
	EventType    AnswerEventType
	Attempt      int
	RetryAfterMs int
	Sources      int
	QueryTimeMs  int64
	Error        string
	EmittedAt    time.Time
}

// answerJobObserver bridges scheduler and job events to BatchObserver callbacks.
type answerJobObserver struct {
	observer  BatchObserver
	questions []question.Question
	mu        sync.RWMutex
	jobIndex  map[string]int
}

// newAnswerJobObserver constructs a job observer when a BatchObserver is set.
func newAnswerJobObserver(observer BatchObserver, questions []question.Question) *answerJobObserver {
	if observer == nil {
		return nil
	}
	return &answerJobObserver{
		observer:  observer,
		questions: questions,
		jobIndex:  map[string]int{},
	}
}

// EmitQueuedAll emits queued events for every question in the batch.
func (o *answerJobObserver) EmitQueuedAll() {
	if o == nil {
		return
	}
	for index := range o.questions {
		o.Emit(index, answerEventOptions{EventType: AnswerQueued})
	}
}

// RegisterJob associates a scheduler job id with a question index.
func (o *answerJobObserver) RegisterJob(jobID string, index int) {
	if o == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.jobIndex[jobID] = index
}

// Emit emits an observer event for the given question index.
func (o *answerJobObserver) Emit(index int, opts answerEventOptions) {
	if o == nil || o.observer == nil {
		return
	}
	if index < 0 || index >= len(o.questions) {
		return
	}
	item := o.questions[index]
	emittedAt := opts.EmittedAt
	if emittedAt.IsZero() {
		emittedAt = time.Now()
	}
	o.observer.OnAnswerEvent(AnswerEvent{
		QuestionIndex: index,
		QuestionID:    item.ID,
		QuestionText:  item.Text,
		Type:          opts.EventType,
		Attempt:       opts.Attempt,
		RetryAfterMs:  opts.RetryAfterMs,
		Sources:       opts.Sources,
		QueryTimeMs:   opts.QueryTimeMs,
		Error:         opts.Error,
		EmittedAt:     emittedAt,
	})
}

// OnReserveStart reports reserve attempts from the scheduler.
func (o *answerJobObserver) OnReserveStart(job ratelimiter.Job) {
	o.emitByJob(job.JobID, answerEventOptions{EventType: AnswerReserving})
}

// OnReserveDenied reports reserve denials from the scheduler.
func (o *answerJobObserver) OnReserveDenied(job ratelimiter.Job, res ratelimiter.ReserveResponse) {
	eventType := AnswerWaitingRateLimit
	if strings.HasPrefix(res.Error, "limit_decreasing") {
		eventType = AnswerWaitingLimitDecreasing
	}
	o.emitByJob(job.JobID, answerEventOptions{
		EventType:    eventType,
		RetryAfterMs: res.RetryAfterMs,
		Error:        res.Error,
	})
}

// OnReserveError reports reserve errors from the scheduler.
func (o *answerJobObserver) OnReserveError(job ratelimiter.Job, err error) {
	if err == nil {
		return
	}
	o.emitByJob(job.JobID, answerEventOptions{
		EventType: AnswerWaitingLimiterError,
		Error:     err.Error(),
	})
}

// emitByJob resolves a job id to its question index and emits an event.
func (o *answerJobObserver) emitByJob(jobID string, opts answerEventOptions) {
	if o == nil {
		return
	}
	o.mu.RLock()
	index, ok := o.jobIndex[jobID]
	o.mu.RUnlock()
	if !ok {
		return
	}
	o.Emit(index, opts)
}
