package loop

import (
	"time"

	"ragtune/internal/advisor"
	"ragtune/internal/runner"
)

// RunInfo describes a run at start time.
type RunInfo struct {
	RunID         string
	Document      string
	RunDir        string
	MaxIterations int
	StartedAt     time.Time
}

// RunObserver receives run lifecycle events for UI or logging.
type RunObserver interface {
	// OnRunStarted signals the start of a run.
	OnRunStarted(info RunInfo)
	// OnQuestionsReady reports the resolved question set size. generated is
	// false when the set was supplied instead of generated.
	OnQuestionsReady(total int, generated bool)
	// OnStateChange delivers a controller state transition.
	OnStateChange(change StateChange)
	// OnAnswerEvent delivers a per-question execution update.
	OnAnswerEvent(iteration int, event runner.AnswerEvent)
	// OnScoreProgress reports judged counts for progress displays.
	OnScoreProgress(iteration, done, total int)
	// OnSuggestionApplied reports one suggestion's application outcome.
	OnSuggestionApplied(iteration int, suggestion advisor.Suggestion, applied bool)
	// OnIterationFinished delivers a completed iteration summary.
	OnIterationFinished(summary IterationSummary)
	// OnNotice delivers a non-fatal warning, tied to an iteration or to the
	// run when iteration is zero.
	OnNotice(iteration int, message string)
	// OnRunFinished signals run completion with the final result.
	OnRunFinished(result *RunResult)
}

// runEmitter guards observer calls so a nil observer is valid.
type runEmitter struct {
	observer RunObserver
}

func (e runEmitter) runStarted(info RunInfo) {
	if e.observer != nil {
		e.observer.OnRunStarted(info)
	}
}

func (e runEmitter) questionsReady(total int, generated bool) {
	if e.observer != nil {
		e.observer.OnQuestionsReady(total, generated)
	}
}

func (e runEmitter) stateChange(change StateChange) {
	if e.observer != nil {
		e.observer.OnStateChange(change)
	}
}

func (e runEmitter) answerEvent(iteration int, event runner.AnswerEvent) {
	if e.observer != nil {
		e.observer.OnAnswerEvent(iteration, event)
	}
}

func (e runEmitter) scoreProgress(iteration, done, total int) {
	if e.observer != nil {
		e.observer.OnScoreProgress(iteration, done, total)
	}
}

func (e runEmitter) suggestionApplied(iteration int, suggestion advisor.Suggestion, applied bool) {
	if e.observer != nil {
		e.observer.OnSuggestionApplied(iteration, suggestion, applied)
	}
}

func (e runEmitter) iterationFinished(summary IterationSummary) {
	if e.observer != nil {
		e.observer.OnIterationFinished(summary)
	}
}

func (e runEmitter) notice(iteration int, message string) {
	if e.observer != nil {
		e.observer.OnNotice(iteration, message)
	}
}

func (e runEmitter) runFinished(result *RunResult) {
	if e.observer != nil {
		e.observer.OnRunFinished(result)
	}
}
