package report

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// formatScore renders a 0-10 score with two decimals.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatDelta renders a signed score movement.
func formatDelta(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}

// formatInt renders an integer for template expressions.
func formatInt(v int) string {
	return strconv.Itoa(v)
}

// formatValue renders a parameter value, dropping decimals when whole.
func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatTimestamp renders a UTC timestamp for the run header.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// stateLabel renders the run state with the interrupted marker.
func stateLabel(state string, interrupted bool) string {
	if interrupted {
		return state + " (interrupted)"
	}
	return state
}

// shortCommit truncates a commit hash for display.
func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}
