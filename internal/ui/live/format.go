package live

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"ragtune/internal/runner"
)

// formatQuestionID returns the display id for a question row.
func formatQuestionID(row QuestionRow) string {
	if row.ID != "" {
		return row.ID
	}
	return formatIndex(row.Index)
}

// formatIndex formats a question index.
func formatIndex(index int) string {
	return "Q" + pad2(index+1)
}

// pad2 left-pads a number to two digits when needed.
func pad2(value int) string {
	if value >= 10 {
		return fmtInt(value)
	}
	return "0" + fmtInt(value)
}

// fmtInt converts an int to string.
func fmtInt(value int) string {
	return strconv.Itoa(value)
}

// fmtScore renders a composite score with two decimals.
func fmtScore(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// formatQuestionText truncates question text for display.
func formatQuestionText(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return ""
	}
	const limit = 80
	if len(normalized) <= limit {
		return normalized
	}
	return normalized[:limit-3] + "..."
}

// formatStatus renders a status cell for a row.
func formatStatus(row QuestionRow, noColor bool) string {
	return stylizeStatus(formatPrimaryStatus(row), row.Status, noColor)
}

// formatPrimaryStatus renders the primary status text.
func formatPrimaryStatus(row QuestionRow) string {
	switch row.Status {
	case runner.AnswerWaitingRateLimit:
		if row.RetryAfterMs > 0 {
			return "waiting rate limit (" + formatRetryAfter(row.RetryAfterMs) + ")"
		}
		return "waiting rate limit"
	case runner.AnswerWaitingLimitDecreasing:
		return "waiting limit decreasing"
	case runner.AnswerWaitingLimiterError:
		return "waiting limiter error"
	case runner.AnswerRetrying:
		if row.Attempt > 0 {
			return "retrying (attempt " + fmtInt(row.Attempt) + ")"
		}
		return "retrying"
	case runner.AnswerCompleted:
		return "answered"
	case runner.AnswerFailed:
		return "failed"
	default:
		return string(row.Status)
	}
}

// formatRetryAfter renders retry delays in human readable units.
func formatRetryAfter(ms int) string {
	if ms <= 0 {
		return ""
	}
	return formatDuration(time.Duration(ms) * time.Millisecond)
}

// formatRowDuration returns elapsed or total time for a row.
func formatRowDuration(row QuestionRow, now time.Time) string {
	if !row.FinishedAt.IsZero() && !row.StartedAt.IsZero() {
		return row.FinishedAt.Sub(row.StartedAt).Round(100 * time.Millisecond).String()
	}
	if !row.StartedAt.IsZero() {
		return now.Sub(row.StartedAt).Round(100 * time.Millisecond).String()
	}
	return ""
}

// formatSources formats retrieved source counts for display.
func formatSources(row QuestionRow) string {
	if !isTerminalStatus(row.Status) {
		return ""
	}
	return fmtInt(row.Sources)
}

// formatRetries formats retry counts for display.
func formatRetries(retries int) string {
	if retries <= 0 {
		return ""
	}
	return fmtInt(retries)
}

// formatDuration renders a rounded duration for display.
func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "0s"
	}
	return duration.Round(100 * time.Millisecond).String()
}

// stylizeStatus applies status coloring when enabled.
func stylizeStatus(text string, status runner.AnswerEventType, noColor bool) string {
	if noColor {
		return text
	}
	return statusStyle(status).Render(text)
}

// statusStyle selects a style for a given status.
func statusStyle(status runner.AnswerEventType) lipgloss.Style {
	color := lipgloss.Color("244")
	switch status {
	case runner.AnswerCompleted:
		color = lipgloss.Color("42")
	case runner.AnswerFailed:
		color = lipgloss.Color("196")
	case runner.AnswerRetrying:
		color = lipgloss.Color("220")
	case runner.AnswerWaitingRateLimit,
		runner.AnswerWaitingLimitDecreasing,
		runner.AnswerWaitingLimiterError:
		color = lipgloss.Color("39")
	case runner.AnswerRunning:
		color = lipgloss.Color("33")
	case runner.AnswerQueued,
		runner.AnswerScheduled,
		runner.AnswerReserving:
		color = lipgloss.Color("246")
	}
	return lipgloss.NewStyle().Foreground(color)
}
