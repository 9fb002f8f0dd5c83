package live

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"ragtune/internal/advisor"
	"ragtune/internal/loop"
)

// renderHeader renders the run header line.
func renderHeader(state State, now time.Time, noColor bool) string {
	elapsed := ""
	if !state.StartedAt.IsZero() {
		elapsed = now.Sub(state.StartedAt).Round(100 * time.Millisecond).String()
	}
	line := "Run " + state.RunID
	if state.Document != "" {
		line += " | " + state.Document
	}
	if state.MaxIterations > 0 {
		line += " | Iteration " + fmtInt(state.Iteration) + "/" + fmtInt(state.MaxIterations)
	}
	if elapsed != "" {
		line += " | Elapsed: " + elapsed
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderStage renders the controller stage line.
func renderStage(state State, noColor bool) string {
	if state.Stage == "" {
		return ""
	}
	line := "Stage: " + string(state.Stage)
	if state.Questions > 0 {
		source := "loaded"
		if state.Generated {
			source = "generated"
		}
		line += " | Questions: " + fmtInt(state.Questions) + " (" + source + ")"
	}
	return stylize(line, noColor, lipgloss.Color("240"))
}

// renderSummary renders the status counts line.
func renderSummary(state State, noColor bool) string {
	counts := state.Counts
	line := "Queued: " + fmtInt(counts.Queued) +
		" Waiting: " + fmtInt(counts.Waiting) +
		" Running: " + fmtInt(counts.Running) +
		" Retrying: " + fmtInt(counts.Retrying) +
		" Done: " + fmtInt(counts.Done) +
		" Answered: " + fmtInt(counts.Completed) +
		" Failed: " + fmtInt(counts.Failed)
	if state.ScoreTotal > 0 {
		line += " | Scored: " + fmtInt(state.ScoreDone) + "/" + fmtInt(state.ScoreTotal)
	}
	return stylize(line, noColor, lipgloss.Color("242"))
}

// renderTrajectory renders the per-iteration composite line.
func renderTrajectory(state State, noColor bool) string {
	if len(state.Trajectory) == 0 {
		return ""
	}
	line := "Composite:"
	for _, point := range state.Trajectory {
		line += " " + fmtScore(point.AvgComposite)
	}
	last := state.Trajectory[len(state.Trajectory)-1]
	if last.Checked {
		line += " (last change " + formatSigned(last.Delta) + ")"
	}
	return stylize(line, noColor, lipgloss.Color("36"))
}

// renderFooter renders the final result or the last event line.
func renderFooter(state State, noColor bool) string {
	if state.FinalLine != "" {
		return stylize(state.FinalLine, noColor, lipgloss.Color("42"))
	}
	if state.LastEvent == "" {
		return ""
	}
	return stylize("Last event: "+state.LastEvent, noColor, lipgloss.Color("244"))
}

// formatQuestionsReady describes the resolved question set.
func formatQuestionsReady(total int, generated bool) string {
	if generated {
		return "generated " + fmtInt(total) + " questions"
	}
	return "loaded " + fmtInt(total) + " questions"
}

// formatSuggestion describes one suggestion's disposition.
func formatSuggestion(s advisor.Suggestion, applied bool) string {
	change := s.Parameter + " " + fmtParam(s.CurrentValue) + " -> " + fmtParam(s.SuggestedValue)
	if applied {
		return "applied " + change
	}
	return "skipped " + change + " (needs re-index)"
}

// formatIterationEnd summarizes a finished iteration.
func formatIterationEnd(summary loop.IterationSummary) string {
	line := "iteration " + fmtInt(summary.Iteration) + " composite " + fmtScore(summary.Statistics.AvgComposite)
	if summary.ConvergenceChecked {
		line += " (change " + formatSigned(summary.Delta) + ")"
	}
	return line
}

// formatFinal renders the run completion line.
func formatFinal(result *loop.RunResult) string {
	if result == nil {
		return ""
	}
	iterations := fmtInt(len(result.Iterations)) + " iterations"
	if len(result.Iterations) == 1 {
		iterations = "1 iteration"
	}
	switch {
	case result.Interrupted:
		return "interrupted after " + iterations
	case result.State == loop.StateConverged:
		return "converged after " + iterations + " (net " + formatSigned(result.NetImprovement) + ")"
	default:
		return "stopped after " + iterations + " (net " + formatSigned(result.NetImprovement) + ")"
	}
}

// formatSigned renders a signed two-decimal delta.
func formatSigned(value float64) string {
	formatted := strconv.FormatFloat(value, 'f', 2, 64)
	if value >= 0 {
		return "+" + formatted
	}
	return formatted
}

// fmtParam renders a parameter value, dropping decimals when whole.
func fmtParam(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
