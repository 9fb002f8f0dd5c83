package eval

import (
	"context"
	"fmt"
	"time"

	"ragtune/internal/llm"
	"ragtune/internal/question"
	"ragtune/internal/runner"
	"ragtune/pkg/ratelimiter"
)

// ScoreOptions configures one scoring pass.
type ScoreOptions struct {
	Workers         int
	Timeout         time.Duration
	Retries         int
	RetryBackoff    time.Duration
	MaxOutputTokens uint64
	Limiter         ratelimiter.Limiter

	// Service and Target name the limit keys judge calls consume,
	// normally the provider and model from the LLM config.
	Service string
	Target  string

	// OnProgress reports scored counts for progress displays.
	OnProgress func(done, total int)
}

// Score judges every answered question and returns one record per question,
// in input order. Questions and records are matched by index; executing and
// scoring share the same set ordering for a whole run.
func Score(ctx context.Context, client llm.Client, questions []question.Question, records []runner.AnswerRecord, opts ScoreOptions) ([]ScoreRecord, error) {
	if len(questions) != len(records) {
		return nil, fmt.Errorf("questions and records length mismatch: %d vs %d", len(questions), len(records))
	}
	scores := make([]ScoreRecord, len(records))
	if len(records) == 0 {
		return scores, nil
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimiter.NoopLimiter
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	service := opts.Service
	if service == "" {
		service = "openrouter"
	}
	target := opts.Target
	if target == "" {
		target = "judge"
	}

	scheduler := ratelimiter.NewScheduler(limiter, workers)
	policy := runner.NewRetryPolicy(opts.Retries, opts.Timeout, opts.RetryBackoff)

	type scoreJobResult struct {
		index int
		score ScoreRecord
	}
	resultCh := make(chan scoreJobResult, len(records))
	submitted := 0
	for index, record := range records {
		// Execution failures are carried over without a judge call.
		if record.Failed() {
			scores[index] = ScoreRecord{QuestionID: record.QuestionID, Error: record.Error}
			continue
		}
		idx := index
		item := questions[index]
		prompt := buildJudgePrompt(item, record)
		scheduler.Submit(ratelimiter.Job{
			JobID:           "judge-" + record.QuestionID,
			Service:         service,
			Target:          target,
			Payload:         prompt,
			MaxOutputTokens: opts.MaxOutputTokens,
			Execute: func(_ context.Context) (uint64, error) {
				score, tokens, err := judgeOne(ctx, client, policy, item, prompt)
				resultCh <- scoreJobResult{index: idx, score: score}
				return tokens, err
			},
		})
		submitted++
	}

	done := len(records) - submitted
	for i := 0; i < submitted; i++ {
		jobResult := <-resultCh
		scores[jobResult.index] = jobResult.score
		done++
		if opts.OnProgress != nil {
			opts.OnProgress(done, len(records))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = scheduler.Shutdown(shutdownCtx)

	if err := ctx.Err(); err != nil {
		return scores, err
	}
	return scores, nil
}

// judgeOne runs one judge call, retrying a malformed verdict exactly once
// with a fresh completion before recording the failure.
func judgeOne(ctx context.Context, client llm.Client, policy runner.RetryPolicy, item question.Question, prompt string) (ScoreRecord, uint64, error) {
	score := ScoreRecord{QuestionID: item.ID}
	var totalTokens uint64

	var parsed judgeResponse
	var parseErr error
	for attempt := 0; attempt < 2; attempt++ {
		var completion llm.Completion
		callErr := runner.Isolate(ctx, policy, func(callCtx context.Context) error {
			var err error
			completion, err = client.Complete(callCtx, prompt, llm.Options{
				Temperature:    0,
				ResponseFormat: llm.ResponseFormatJSON,
				SystemMessage:  judgeSystemMessage,
			})
			return err
		})
		if callErr != nil {
			score.Error = callErr.Error()
			return score, totalTokens, callErr
		}
		totalTokens += completion.TotalTokens
		parsed, parseErr = parseJudgeResponse(completion.Text)
		if parseErr == nil {
			break
		}
	}
	if parseErr != nil {
		score.Error = parseErr.Error()
		return score, totalTokens, parseErr
	}

	score.Accuracy = parsed.Accuracy
	score.Completeness = parsed.Completeness
	score.Relevance = parsed.Relevance
	score.Clarity = parsed.Clarity
	score.Composite = composite(parsed)
	score.Weaknesses = normalizeList(parsed.Weaknesses)
	score.MissingInfo = normalizeList(parsed.MissingInfo)
	return score, totalTokens, nil
}

// normalizeList keeps score payload slices non-nil for stable JSON artifacts.
func normalizeList(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
