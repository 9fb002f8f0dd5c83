package loop

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ragtune/internal/pipeline"
)

var finalReportRule = strings.Repeat("=", 80)

// paramOrder fixes the rendering order of the tuning surface.
var paramOrder = []string{
	pipeline.ParamTopK,
	pipeline.ParamSimilarityThreshold,
	pipeline.ParamLLMTemperature,
	pipeline.ParamChunkSize,
	pipeline.ParamChunkOverlap,
}

// FormatFinalReport renders the end-of-run text report written to report.txt.
func FormatFinalReport(result *RunResult) string {
	var builder strings.Builder

	builder.WriteString(finalReportRule + "\n")
	builder.WriteString(" RAG PIPELINE TUNING - FINAL REPORT\n")
	builder.WriteString(finalReportRule + "\n\n")

	builder.WriteString(fmt.Sprintf("Run:        %s\n", result.RunID))
	if result.Document != "" {
		builder.WriteString(fmt.Sprintf("Document:   %s\n", result.Document))
	}
	if result.Repo != nil {
		builder.WriteString(fmt.Sprintf("Repository: %s\n", formatRepo(result.Repo)))
	}
	builder.WriteString(fmt.Sprintf("Started:    %s\n", result.StartedAt.UTC().Format("2006-01-02 15:04:05")))
	builder.WriteString(fmt.Sprintf("Elapsed:    %s\n", formatElapsed(result.ElapsedSeconds)))
	builder.WriteString(fmt.Sprintf("Questions:  %d\n", result.Questions))
	builder.WriteString(fmt.Sprintf("Iterations: %d of %d (%s)\n", len(result.Iterations), result.MaxIterations, result.State))
	if result.Interrupted {
		builder.WriteString("\nRun interrupted: partial results, covering the completed iterations only.\n")
	}
	builder.WriteString("\n" + finalReportRule + "\n")

	appendProgression(&builder, result)
	appendImprovement(&builder, result)
	appendConfiguration(&builder, result)
	appendRecommendations(&builder, result)

	builder.WriteString("\n" + finalReportRule + "\n")
	return builder.String()
}

func appendProgression(builder *strings.Builder, result *RunResult) {
	builder.WriteString("\n## PERFORMANCE PROGRESSION\n\n")
	if len(result.Iterations) == 0 {
		builder.WriteString("No iterations completed.\n")
		return
	}
	for i, iteration := range result.Iterations {
		if i > 0 {
			builder.WriteString("\n")
		}
		stats := iteration.Statistics
		builder.WriteString(fmt.Sprintf("Iteration %d:\n", iteration.Iteration))
		builder.WriteString(fmt.Sprintf("  Composite Score: %.2f/10\n", stats.AvgComposite))
		builder.WriteString(fmt.Sprintf("  Accuracy:        %.2f/10\n", stats.AvgAccuracy))
		builder.WriteString(fmt.Sprintf("  Completeness:    %.2f/10\n", stats.AvgCompleteness))
	}
}

func appendImprovement(builder *strings.Builder, result *RunResult) {
	if len(result.Trajectory) < 2 {
		return
	}
	first := result.Trajectory[0]
	last := result.Trajectory[len(result.Trajectory)-1]
	improvement := last - first
	pct := 0.0
	if first > 0 {
		pct = improvement / first * 100
	}
	builder.WriteString("\n## OVERALL IMPROVEMENT\n\n")
	builder.WriteString(fmt.Sprintf("Initial Score: %.2f/10\n", first))
	builder.WriteString(fmt.Sprintf("Final Score:   %.2f/10\n", last))
	builder.WriteString(fmt.Sprintf("Improvement:   %+.2f (%+.1f%%)\n", improvement, pct))
	builder.WriteString(fmt.Sprintf("Best Score:    %.2f/10 (iteration %d)\n", result.Trajectory[result.BestIteration-1], result.BestIteration))
}

func appendConfiguration(builder *strings.Builder, result *RunResult) {
	builder.WriteString("\n## CONFIGURATION\n\n")
	changes := diffParams(result.InitialConfig, result.FinalConfig)
	if len(changes) == 0 {
		builder.WriteString("No parameter changes were applied.\n")
	} else {
		builder.WriteString("Applied changes:\n")
		for _, change := range changes {
			builder.WriteString("  " + change + "\n")
		}
	}
	if result.BestIteration > 0 && result.BestConfig != result.FinalConfig {
		best := diffParams(result.InitialConfig, result.BestConfig)
		if len(best) == 0 {
			builder.WriteString(fmt.Sprintf("\nBest score came from the initial configuration (iteration %d).\n", result.BestIteration))
		} else {
			builder.WriteString(fmt.Sprintf("\nBest-scoring configuration (iteration %d):\n", result.BestIteration))
			for _, change := range best {
				builder.WriteString("  " + change + "\n")
			}
		}
	}
}

func appendRecommendations(builder *strings.Builder, result *RunResult) {
	builder.WriteString("\n## FINAL RECOMMENDATIONS\n\n")
	if len(result.Iterations) == 0 {
		builder.WriteString("None.\n")
		return
	}
	actions := result.Iterations[len(result.Iterations)-1].Actions
	if len(actions) == 0 {
		builder.WriteString("No further action needed.\n")
		return
	}
	if len(actions) > 5 {
		actions = actions[:5]
	}
	for i, action := range actions {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, strings.ToUpper(action.Impact), action.Action))
		builder.WriteString(fmt.Sprintf("   Rationale: %s\n", action.Rationale))
	}
}

// diffParams lists the tuning parameters whose values differ, in the fixed
// surface order.
func diffParams(from, to pipeline.Params) []string {
	var changes []string
	for _, name := range paramOrder {
		before, _ := from.Value(name)
		after, _ := to.Value(name)
		if before == after {
			continue
		}
		changes = append(changes, fmt.Sprintf("%s: %s -> %s", name, formatParam(name, before), formatParam(name, after)))
	}
	return changes
}

func formatParam(name string, value float64) string {
	switch name {
	case pipeline.ParamTopK, pipeline.ParamChunkSize, pipeline.ParamChunkOverlap:
		return strconv.Itoa(int(value))
	default:
		return strconv.FormatFloat(value, 'f', 2, 64)
	}
}

func formatRepo(repo *RepoInfo) string {
	label := repo.Name
	if label == "" {
		label = repo.VCS
	}
	commit := repo.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if commit != "" {
		label += " @ " + commit
	}
	if repo.Dirty {
		label += " (dirty)"
	}
	return label
}

func formatElapsed(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(100 * time.Millisecond).String()
}
