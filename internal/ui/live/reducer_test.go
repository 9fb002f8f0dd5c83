package live

import (
	"strings"
	"testing"
	"time"

	"ragtune/internal/eval"
	"ragtune/internal/loop"
	"ragtune/internal/runner"
	"ragtune/internal/testutil"
)

// TestReduceAnswerLifecycle verifies core status transitions are recorded.
func TestReduceAnswerLifecycle(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		start := time.Now()
		state := State{}
		state = Reduce(state, event(0, runner.AnswerQueued, "", start))
		state = Reduce(state, event(0, runner.AnswerScheduled, "", start))
		state = Reduce(state, event(0, runner.AnswerReserving, "", start))
		state = Reduce(state, event(0, runner.AnswerRunning, "", start))
		done := event(0, runner.AnswerCompleted, "", start.Add(150*time.Millisecond))
		done.Sources = 3
		done.QueryTimeMs = 420
		state = Reduce(state, done)

		row := state.Rows[0]
		if row.Status != runner.AnswerCompleted {
			t.Fatalf("expected completed status, got %s", row.Status)
		}
		if row.Sources != 3 || row.QueryTimeMs != 420 {
			t.Fatalf("expected sources and timing to be set, got %+v", row)
		}
		if state.Counts.Completed != 1 || state.Counts.Done != 1 {
			t.Fatalf("unexpected counts: %+v", state.Counts)
		}
		if !strings.Contains(state.LastEvent, "answered") {
			t.Fatalf("unexpected last event: %s", state.LastEvent)
		}
	})
}

// TestReduceWaitingIncrementsRetry verifies retry counts are tracked.
func TestReduceWaitingIncrementsRetry(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		state := State{}
		state = Reduce(state, event(0, runner.AnswerWaitingRateLimit, "", time.Now()))
		state = Reduce(state, event(0, runner.AnswerWaitingLimitDecreasing, "", time.Now()))
		row := state.Rows[0]
		if row.RetryCount != 2 {
			t.Fatalf("expected retries=2, got %d", row.RetryCount)
		}
		if state.Counts.Waiting != 1 {
			t.Fatalf("expected waiting count, got %d", state.Counts.Waiting)
		}
	})
}

// TestReduceRecordsFailure verifies failed answers keep their error.
func TestReduceRecordsFailure(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		state := State{}
		failed := event(1, runner.AnswerFailed, "pipeline timeout", time.Now())
		state = Reduce(state, failed)
		if state.Rows[1].Error != "pipeline timeout" {
			t.Fatalf("expected error to be recorded, got %q", state.Rows[1].Error)
		}
		if state.Rows[0].Status != runner.AnswerQueued {
			t.Fatalf("expected backfilled row to be queued, got %s", state.Rows[0].Status)
		}
		if state.Counts.Failed != 1 {
			t.Fatalf("expected failed count, got %d", state.Counts.Failed)
		}
	})
}

// TestApplyEventResetsRowsPerIteration verifies a new executing stage starts
// with a fresh batch.
func TestApplyEventResetsRowsPerIteration(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		model := NewModel(nil, Options{NoColor: true})
		model = applyEvent(model, Event{Kind: EventAnswer, Answer: event(0, runner.AnswerRunning, "", time.Now())})
		if len(model.state.Rows) != 1 {
			t.Fatalf("expected one row, got %d", len(model.state.Rows))
		}
		model = applyEvent(model, Event{Kind: EventStateChange, Change: loop.StateChange{
			Iteration: 2,
			From:      loop.StateApplying,
			To:        loop.StateExecuting,
		}})
		if len(model.state.Rows) != 0 {
			t.Fatalf("expected rows to reset, got %d", len(model.state.Rows))
		}
		if model.state.Iteration != 2 || model.state.Stage != loop.StateExecuting {
			t.Fatalf("unexpected state: %+v", model.state)
		}
	})
}

// TestApplyEventTracksTrajectory verifies iteration summaries append points.
func TestApplyEventTracksTrajectory(t *testing.T) {
	runWithTimeout(t, time.Second, func() {
		model := NewModel(nil, Options{NoColor: true})
		model = applyEvent(model, Event{Kind: EventIterationEnd, Summary: loop.IterationSummary{
			Iteration:  1,
			Statistics: eval.Statistics{AvgComposite: 6.2},
		}})
		model = applyEvent(model, Event{Kind: EventIterationEnd, Summary: loop.IterationSummary{
			Iteration:          2,
			Statistics:         eval.Statistics{AvgComposite: 7.1},
			ConvergenceChecked: true,
			Delta:              0.9,
		}})
		if len(model.state.Trajectory) != 2 {
			t.Fatalf("expected 2 trajectory points, got %d", len(model.state.Trajectory))
		}
		last := model.state.Trajectory[1]
		if !last.Checked || last.Delta != 0.9 {
			t.Fatalf("unexpected trajectory point: %+v", last)
		}
		if !strings.Contains(model.state.LastEvent, "composite 7.10") {
			t.Fatalf("unexpected last event: %s", model.state.LastEvent)
		}
	})
}

// TestFormatFinal verifies the completion line for each terminal state.
func TestFormatFinal(t *testing.T) {
	converged := &loop.RunResult{
		State:          loop.StateConverged,
		Iterations:     make([]loop.IterationSummary, 3),
		NetImprovement: 1.3,
	}
	if got := formatFinal(converged); got != "converged after 3 iterations (net +1.30)" {
		t.Fatalf("unexpected final line: %s", got)
	}
	interrupted := &loop.RunResult{
		State:       loop.StateInterrupted,
		Interrupted: true,
		Iterations:  make([]loop.IterationSummary, 1),
	}
	if got := formatFinal(interrupted); got != "interrupted after 1 iteration" {
		t.Fatalf("unexpected final line: %s", got)
	}
}

// event builds an AnswerEvent for testing.
func event(index int, kind runner.AnswerEventType, errMsg string, when time.Time) runner.AnswerEvent {
	return runner.AnswerEvent{
		QuestionIndex: index,
		QuestionText:  "Question",
		Type:          kind,
		Error:         errMsg,
		EmittedAt:     when,
	}
}

// runWithTimeout executes a test body with a timeout.
func runWithTimeout(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	ctx := testutil.Context(t, timeout)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("test timed out")
	}
}
