package cli

import (
	"fmt"
	"io"
	"strconv"

	"ragtune/internal/advisor"
	"ragtune/internal/loop"
	"ragtune/internal/runner"
)

// plainProgress prints tuning progress as plain lines, one event per line.
// It is the non-TTY counterpart of the live table UI.
type plainProgress struct {
	out io.Writer
}

func newPlainProgress(out io.Writer) *plainProgress {
	return &plainProgress{out: out}
}

func (p *plainProgress) OnRunStarted(info loop.RunInfo) {
	fmt.Fprintf(p.out, "Run %s started (max %d iterations)\n", info.RunID, info.MaxIterations)
	fmt.Fprintf(p.out, "Artifacts: %s\n", info.RunDir)
}

func (p *plainProgress) OnQuestionsReady(total int, generated bool) {
	source := "loaded"
	if generated {
		source = "generated"
	}
	fmt.Fprintf(p.out, "Questions: %d (%s)\n", total, source)
}

func (p *plainProgress) OnStateChange(change loop.StateChange) {
	switch change.To {
	case loop.StateGeneratingQuestions:
		fmt.Fprintln(p.out, "Generating questions...")
	case loop.StateExecuting:
		fmt.Fprintf(p.out, "\n--- Iteration %d ---\n", change.Iteration)
	case loop.StateScoring:
		fmt.Fprintln(p.out, "Scoring answers...")
	case loop.StateAdvising:
		fmt.Fprintln(p.out, "Analyzing results...")
	}
}

// OnAnswerEvent surfaces failures only; per-question detail belongs to
// verbose logging.
func (p *plainProgress) OnAnswerEvent(_ int, event runner.AnswerEvent) {
	if event.Type == runner.AnswerFailed {
		fmt.Fprintf(p.out, "Q%d failed: %s\n", event.QuestionIndex+1, event.Error)
	}
}

func (p *plainProgress) OnScoreProgress(_, _, _ int) {}

func (p *plainProgress) OnSuggestionApplied(_ int, suggestion advisor.Suggestion, applied bool) {
	change := fmt.Sprintf("%s %s -> %s", suggestion.Parameter,
		formatParamValue(suggestion.CurrentValue), formatParamValue(suggestion.SuggestedValue))
	if applied {
		fmt.Fprintf(p.out, "Applied %s\n", change)
		return
	}
	fmt.Fprintf(p.out, "Skipped %s (needs re-index)\n", change)
}

func (p *plainProgress) OnIterationFinished(summary loop.IterationSummary) {
	line := fmt.Sprintf("Iteration %d: composite %.2f (%d scored, %d failed, %.1fs)",
		summary.Iteration, summary.Statistics.AvgComposite,
		summary.Statistics.Scored, summary.Statistics.Failed, summary.ElapsedSeconds)
	if summary.ConvergenceChecked {
		line += fmt.Sprintf(", change %.2f", summary.Delta)
	}
	fmt.Fprintln(p.out, line)
}

func (p *plainProgress) OnNotice(_ int, message string) {
	fmt.Fprintf(p.out, "Note: %s\n", message)
}

// OnRunFinished is a no-op; the command prints the final report itself.
func (p *plainProgress) OnRunFinished(*loop.RunResult) {}

// formatParamValue renders whole-number parameters without a decimal tail.
func formatParamValue(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
