package advisor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ragtune/internal/pipeline"
)

const reportRule = "================================================================================"

// PriorityActions ranks the next steps for the improvement report. Retrieval
// failures and the dominant weakness come first, then the strongest parameter
// changes. Ordering is deterministic for a given input.
func PriorityActions(suggestions []Suggestion, weaknesses []PhraseCount, health RetrievalHealth) []Action {
	actions := make([]Action, 0, 4)
	if health.ZeroSourcePct > maxZeroSourcePct {
		actions = append(actions, Action{
			Priority:  1,
			Action:    "Lower similarity_threshold",
			Rationale: fmt.Sprintf("%.1f%% of questions retrieved no sources", health.ZeroSourcePct),
			Impact:    "high",
		})
	}
	if len(weaknesses) > 0 {
		top := weaknesses[0]
		actions = append(actions, Action{
			Priority:  1,
			Action:    fmt.Sprintf("Address recurring weakness: %s", top.Phrase),
			Rationale: fmt.Sprintf("appears in %d evaluations", top.Count),
			Impact:    "high",
		})
	}
	tuned := 0
	for _, suggestion := range suggestions {
		if suggestion.Priority != PriorityHigh || tuned == 2 {
			continue
		}
		tuned++
		actions = append(actions, Action{
			Priority: 2,
			Action: fmt.Sprintf("Tune %s: %s -> %s", suggestion.Parameter,
				formatParamValue(suggestion.Parameter, suggestion.CurrentValue),
				formatParamValue(suggestion.Parameter, suggestion.SuggestedValue)),
			Rationale: suggestion.Rationale,
			Impact:    "medium",
		})
	}
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority < actions[j].Priority
	})
	return actions
}

// ImprovementReport carries everything one iteration's improvement report
// renders. Advisory is nil when the advisory call was disabled or failed.
type ImprovementReport struct {
	Suggestions []Suggestion
	Actions     []Action
	Weaknesses  []PhraseCount
	MissingInfo []PhraseCount
	Health      RetrievalHealth
	Shape       AnswerShape
	Advisory    *Advisory
}

// FormatImprovementReport renders the human-readable improvement report
// written alongside each iteration's score artifacts.
func FormatImprovementReport(report ImprovementReport) string {
	var builder strings.Builder
	builder.WriteString(reportRule + "\n")
	builder.WriteString("IMPROVEMENT SUGGESTIONS REPORT\n")
	builder.WriteString(reportRule + "\n")

	builder.WriteString("\n## PRIORITY ACTIONS\n\n")
	if len(report.Actions) == 0 {
		builder.WriteString("No priority actions; the batch shows no dominant problem.\n")
	}
	for i, action := range report.Actions {
		if i == 5 {
			break
		}
		fmt.Fprintf(&builder, "%d. [%s] %s\n", i+1, strings.ToUpper(action.Impact), action.Action)
		fmt.Fprintf(&builder, "   Rationale: %s\n", action.Rationale)
	}

	builder.WriteString("\n## PARAMETER TUNING RECOMMENDATIONS\n\n")
	if len(report.Suggestions) == 0 {
		builder.WriteString("No parameter changes suggested.\n")
	}
	for _, suggestion := range report.Suggestions {
		fmt.Fprintf(&builder, "- %s: %s -> %s (%s)\n", suggestion.Parameter,
			formatParamValue(suggestion.Parameter, suggestion.CurrentValue),
			formatParamValue(suggestion.Parameter, suggestion.SuggestedValue),
			suggestion.Priority)
		fmt.Fprintf(&builder, "  Rationale: %s\n", suggestion.Rationale)
		if !suggestion.AppliesWithoutReindex {
			builder.WriteString("  Note: takes effect after the document index is rebuilt.\n")
		}
	}

	builder.WriteString("\n## BATCH SIGNALS\n\n")
	fmt.Fprintf(&builder, "- Retrieval: %.1f sources per answer, %d answers without sources (%.1f%%), %.1f unique locations per answered question\n",
		report.Health.AvgSources, report.Health.ZeroSourceCount, report.Health.ZeroSourcePct, report.Health.AvgUniqueLocations)
	fmt.Fprintf(&builder, "- Answers: %.0f words on average (min %d, max %d, median %d), citations in %.0f%% of answers\n",
		report.Shape.AvgWords, report.Shape.MinWords, report.Shape.MaxWords, report.Shape.MedianWords, report.Shape.CitationRate*100)
	builder.WriteString(formatPhrases("- Recurring weaknesses: ", report.Weaknesses))
	builder.WriteString(formatPhrases("- Recurring missing information: ", report.MissingInfo))

	if advisory := report.Advisory; advisory != nil {
		if len(advisory.CriticalIssues) > 0 {
			builder.WriteString("\n## CRITICAL ISSUES\n\n")
			for _, issue := range advisory.CriticalIssues {
				fmt.Fprintf(&builder, "- [%s] %s\n", strings.ToUpper(issue.Impact), issue.Issue)
				fmt.Fprintf(&builder, "  Solution: %s\n", issue.Solution)
			}
		}
		if len(advisory.Retrieval) > 0 {
			builder.WriteString("\n## RETRIEVAL IMPROVEMENTS\n\n")
			writeRecommendations(&builder, advisory.Retrieval)
		}
		if len(advisory.AnswerGeneration) > 0 {
			builder.WriteString("\n## ANSWER GENERATION IMPROVEMENTS\n\n")
			writeRecommendations(&builder, advisory.AnswerGeneration)
		}
		if len(advisory.PromptEngineering) > 0 {
			builder.WriteString("\n## PROMPT ENGINEERING\n\n")
			for _, note := range advisory.PromptEngineering {
				fmt.Fprintf(&builder, "- %s: %s\n", note.Area, note.Suggestion)
			}
		}
	}

	builder.WriteString("\n" + reportRule + "\n")
	return builder.String()
}

func writeRecommendations(builder *strings.Builder, recommendations []Recommendation) {
	for _, rec := range recommendations {
		fmt.Fprintf(builder, "- %s\n", rec.Recommendation)
		fmt.Fprintf(builder, "  Expected benefit: %s\n", rec.ExpectedBenefit)
	}
}

// formatParamValue renders a parameter value the way the parameter is typed:
// counts as integers, thresholds and temperatures with two decimals.
func formatParamValue(parameter string, value float64) string {
	switch parameter {
	case pipeline.ParamTopK, pipeline.ParamChunkSize, pipeline.ParamChunkOverlap:
		return strconv.Itoa(int(value))
	default:
		return strconv.FormatFloat(value, 'f', 2, 64)
	}
}
