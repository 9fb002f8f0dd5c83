package runner

import (
	"context"
	"io"
	"time"

	"ragtune/internal/pipeline"
	"ragtune/internal/question"
	"ragtune/pkg/ratelimiter"
)

// Service and target names used for pipeline limit keys.
const (
	pipelineService = "pipeline"
	pipelineTarget  = "answer"
)

// BatchOptions configures one executed batch.
type BatchOptions struct {
	Workers         int
	CheckpointEvery int
	CheckpointPath  string
	Timeout         time.Duration
	Retries         int
	RetryBackoff    time.Duration
	MaxOutputTokens uint64
	Limiter         ratelimiter.Limiter

	Verbose          bool
	VerboseWriter    io.Writer
	VerboseLogWriter io.Writer
	NoColor          bool
}

// RunBatch asks the pipeline every question once and returns one record per
// question, in input order regardless of worker count. Per-question failures
// are recorded, never fatal; the error return is reserved for cancellation.
func RunBatch(ctx context.Context, questions []question.Question, pipe pipeline.Pipeline, params pipeline.Params, opts BatchOptions, observer BatchObserver) ([]AnswerRecord, BatchStats, error) {
	records := make([]AnswerRecord, len(questions))
	if len(questions) == 0 {
		return records, Stats(records), nil
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimiter.NoopLimiter
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	jobObserver := newAnswerJobObserver(observer, questions)
	jobObserver.EmitQueuedAll()
	scheduler := ratelimiter.NewSchedulerWithObserver(limiter, workers, jobObserver)

	verboseWriter, verboseLogWriter := wrapVerboseWriters(workers, opts.VerboseWriter, opts.VerboseLogWriter)
	deps := answerJobDeps{
		pipeline:        pipe,
		params:          params,
		policy:          NewRetryPolicy(opts.Retries, opts.Timeout, opts.RetryBackoff),
		maxOutputTokens: opts.MaxOutputTokens,
		total:           len(questions),
		observer:        jobObserver,
		verbose:         opts.Verbose,
		verboseWriter:   verboseWriter,
		verboseLog:      verboseLogWriter,
		noColor:         opts.NoColor,
	}

	checkpoints := newCheckpointWriter(opts.CheckpointPath, opts.CheckpointEvery, records)
	if workers <= 1 {
		runAnswerJobsSequential(ctx, scheduler, questions, deps, records, checkpoints)
	} else {
		runAnswerJobsConcurrent(ctx, scheduler, questions, deps, records, checkpoints)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = scheduler.Shutdown(shutdownCtx)

	if err := ctx.Err(); err != nil {
		return records, Stats(records), err
	}
	return records, Stats(records), nil
}

// runAnswerJobsSequential executes questions one at a time through the scheduler.
func runAnswerJobsSequential(ctx context.Context, scheduler *ratelimiter.Scheduler, questions []question.Question, deps answerJobDeps, records []AnswerRecord, checkpoints *checkpointWriter) {
	for index, item := range questions {
		resultCh := make(chan answerJobResult, 1)
		submitAnswerJob(ctx, scheduler, deps, index, item, resultCh)
		jobResult := <-resultCh
		records[jobResult.index] = jobResult.record
		logCheckpointError(deps, checkpoints.complete(jobResult.index))
	}
}

// runAnswerJobsConcurrent executes answer jobs concurrently and preserves ordering.
func runAnswerJobsConcurrent(ctx context.Context, scheduler *ratelimiter.Scheduler, questions []question.Question, deps answerJobDeps, records []AnswerRecord, checkpoints *checkpointWriter) {
	resultCh := make(chan answerJobResult, len(questions))
	for index, item := range questions {
		submitAnswerJob(ctx, scheduler, deps, index, item, resultCh)
	}
	for range questions {
		jobResult := <-resultCh
		records[jobResult.index] = jobResult.record
		logCheckpointError(deps, checkpoints.complete(jobResult.index))
	}
}

// submitAnswerJob registers and submits one question as a scheduler job.
func submitAnswerJob(ctx context.Context, scheduler *ratelimiter.Scheduler, deps answerJobDeps, index int, item question.Question, resultCh chan<- answerJobResult) {
	job := ratelimiter.Job{
		JobID:           item.ID,
		Service:         pipelineService,
		Target:          pipelineTarget,
		Payload:         item.Text,
		MaxOutputTokens: deps.maxOutputTokens,
		Execute: func(_ context.Context) (uint64, error) {
			jobResult := executeAnswerJob(ctx, deps, index, item)
			resultCh <- jobResult
			return jobResult.actualTokens, jobResult.runErr
		},
	}
	deps.observer.RegisterJob(job.JobID, index)
	deps.observer.Emit(index, answerEventOptions{EventType: AnswerScheduled})
	scheduler.Submit(job)
}

// logCheckpointError surfaces checkpoint write failures without failing the batch.
func logCheckpointError(deps answerJobDeps, err error) {
	if err == nil {
		return
	}
	logVerbose(deps.verbose, deps.verboseWriter, deps.verboseLog, deps.noColor, styleError,
		"Checkpoint write failed: %v", err)
}
