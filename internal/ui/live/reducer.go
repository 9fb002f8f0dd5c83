package live

import (
	"fmt"

	"ragtune/internal/runner"
)

// Reduce applies an answer event to the UI state.
func Reduce(state State, event runner.AnswerEvent) State {
	state = ensureRow(state, event)
	state = applyAnswerEvent(state, event)
	state.Counts = recount(state.Rows)
	if message := formatLastEvent(event); message != "" {
		state.LastEvent = message
	}
	return state
}

// ensureRow grows the state rows to include the target index.
func ensureRow(state State, event runner.AnswerEvent) State {
	if event.QuestionIndex < 0 {
		return state
	}
	if event.QuestionIndex < len(state.Rows) {
		return state
	}
	rows := make([]QuestionRow, event.QuestionIndex+1)
	copy(rows, state.Rows)
	for i := len(state.Rows); i < len(rows); i++ {
		rows[i] = QuestionRow{Index: i, Status: runner.AnswerQueued}
	}
	state.Rows = rows
	return state
}

// applyAnswerEvent updates a row with the given event.
func applyAnswerEvent(state State, event runner.AnswerEvent) State {
	if event.QuestionIndex < 0 || event.QuestionIndex >= len(state.Rows) {
		return state
	}
	row := state.Rows[event.QuestionIndex]
	if row.ID == "" {
		row.ID = event.QuestionID
	}
	if row.Text == "" {
		row.Text = event.QuestionText
	}
	row.Status = event.Type
	row.RetryAfterMs = event.RetryAfterMs
	if event.Attempt > row.Attempt {
		row.Attempt = event.Attempt
	}
	switch event.Type {
	case runner.AnswerWaitingRateLimit,
		runner.AnswerWaitingLimitDecreasing,
		runner.AnswerWaitingLimiterError,
		runner.AnswerRetrying:
		row.RetryCount++
	case runner.AnswerRunning:
		if row.StartedAt.IsZero() {
			row.StartedAt = event.EmittedAt
		}
	}
	if isTerminalStatus(event.Type) {
		if !event.EmittedAt.IsZero() {
			row.FinishedAt = event.EmittedAt
		}
		row.Sources = event.Sources
		row.QueryTimeMs = event.QueryTimeMs
		row.Error = event.Error
	}
	state.Rows[event.QuestionIndex] = row
	return state
}

// isTerminalStatus reports whether a status is final.
func isTerminalStatus(status runner.AnswerEventType) bool {
	return status == runner.AnswerCompleted || status == runner.AnswerFailed
}

// recount recomputes status counts for the current rows.
func recount(rows []QuestionRow) StatusCounts {
	var counts StatusCounts
	for _, row := range rows {
		switch row.Status {
		case runner.AnswerQueued:
			counts.Queued++
		case runner.AnswerScheduled:
			counts.Scheduled++
		case runner.AnswerReserving:
			counts.Reserving++
		case runner.AnswerWaitingRateLimit,
			runner.AnswerWaitingLimitDecreasing,
			runner.AnswerWaitingLimiterError:
			counts.Waiting++
		case runner.AnswerRunning:
			counts.Running++
		case runner.AnswerRetrying:
			counts.Retrying++
		case runner.AnswerCompleted:
			counts.Done++
			counts.Completed++
		case runner.AnswerFailed:
			counts.Done++
			counts.Failed++
		}
	}
	return counts
}

// formatLastEvent creates a short footer message for the event.
func formatLastEvent(event runner.AnswerEvent) string {
	switch event.Type {
	case runner.AnswerWaitingRateLimit:
		if event.RetryAfterMs > 0 {
			return fmt.Sprintf("Q%d rate limited (retry in %s)", event.QuestionIndex+1, formatRetryAfter(event.RetryAfterMs))
		}
		return fmt.Sprintf("Q%d rate limited", event.QuestionIndex+1)
	case runner.AnswerWaitingLimitDecreasing:
		return fmt.Sprintf("Q%d limit decreasing", event.QuestionIndex+1)
	case runner.AnswerWaitingLimiterError:
		return fmt.Sprintf("Q%d limiter error (retrying)", event.QuestionIndex+1)
	case runner.AnswerRetrying:
		return fmt.Sprintf("Q%d retrying (attempt %d)", event.QuestionIndex+1, event.Attempt)
	case runner.AnswerFailed:
		return fmt.Sprintf("Q%d failed: %s", event.QuestionIndex+1, event.Error)
	case runner.AnswerCompleted:
		if event.Sources > 0 {
			return fmt.Sprintf("Q%d answered (%dms, %d sources)", event.QuestionIndex+1, event.QueryTimeMs, event.Sources)
		}
		return fmt.Sprintf("Q%d answered (%dms)", event.QuestionIndex+1, event.QueryTimeMs)
	}
	return ""
}
