package runner

import (
	"context"
	"io"
	"time"

	"ragtune/internal/pipeline"
	"ragtune/internal/question"
)

// answerJobDeps bundles dependencies for executing a single answer job.
type answerJobDeps struct {
	pipeline        pipeline.Pipeline
	params          pipeline.Params
	policy          RetryPolicy
	maxOutputTokens uint64
	total           int
	observer        *answerJobObserver

	verbose       bool
	verboseWriter io.Writer
	verboseLog    io.Writer
	noColor       bool
}

// answerJobResult captures the outcome of one answer job.
type answerJobResult struct {
	index        int
	record       AnswerRecord
	actualTokens uint64
	runErr       error
}

// executeAnswerJob runs a single pipeline call and returns its record. Call
// failures land in the record's Error field; the batch always continues.
func executeAnswerJob(ctx context.Context, deps answerJobDeps, index int, item question.Question) answerJobResult {
	logVerbose(deps.verbose, deps.verboseWriter, deps.verboseLog, deps.noColor, styleStage,
		"Question %d/%d id=%s", index+1, deps.total, item.ID)
	deps.observer.Emit(index, answerEventOptions{EventType: AnswerRunning})

	record := AnswerRecord{
		QuestionID: item.ID,
		Sources:    []pipeline.Source{},
	}

	policy := deps.policy
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		logVerbose(deps.verbose, deps.verboseWriter, deps.verboseLog, deps.noColor, styleError,
			"Question %d/%d attempt %d failed, retrying in %s: %v", index+1, deps.total, attempt, wait, err)
		deps.observer.Emit(index, answerEventOptions{
			EventType:    AnswerRetrying,
			Attempt:      attempt,
			RetryAfterMs: int(wait.Milliseconds()),
			Error:        err.Error(),
		})
	}

	var answer pipeline.Answer
	err := Isolate(ctx, policy, func(callCtx context.Context) error {
		var callErr error
		answer, callErr = deps.pipeline.Answer(callCtx, item.Text, deps.params)
		return callErr
	})
	if err != nil {
		record.Error = err.Error()
		logVerbose(deps.verbose, deps.verboseWriter, deps.verboseLog, deps.noColor, styleError,
			"Question %d/%d id=%s error=%v", index+1, deps.total, item.ID, err)
		deps.observer.Emit(index, answerEventOptions{EventType: AnswerFailed, Error: record.Error})
		return answerJobResult{index: index, record: record, runErr: err}
	}

	record.Answer = answer.Text
	if answer.Sources != nil {
		record.Sources = answer.Sources
	}
	record.RetrievalTimeMs = answer.RetrievalTimeMs
	record.GenerationTimeMs = answer.GenerationTimeMs

	logVerbose(deps.verbose, deps.verboseWriter, deps.verboseLog, deps.noColor, styleMetrics,
		"Question %d/%d id=%s sources=%d retrieval_ms=%d generation_ms=%d",
		index+1, deps.total, item.ID, len(record.Sources), record.RetrievalTimeMs, record.GenerationTimeMs)
	deps.observer.Emit(index, answerEventOptions{
		EventType:   AnswerCompleted,
		Sources:     len(record.Sources),
		QueryTimeMs: record.QueryTimeMs(),
	})
	return answerJobResult{
		index:        index,
		record:       record,
		actualTokens: uint64(len(item.Text)) + uint64(len(answer.Text)),
	}
}
