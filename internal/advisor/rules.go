package advisor

import (
	"fmt"

	"ragtune/internal/eval"
	"ragtune/internal/pipeline"
	"ragtune/internal/runner"
)

// Rule thresholds and step sizes for the tuning heuristics.
const (
	minAvgSources      = 3.0
	topKStep           = 3
	topKCap            = 15
	minAvgCompleteness = 6.0
	chunkSizeStep      = 200
	chunkSizeCap       = 1500
	maxZeroSourcePct   = 10.0
	similarityStep     = 0.05
	similarityFloor    = 0.5
	minAvgClarity      = 7.0
	focusedTemperature = 0.1
)

// Suggest maps batch signals to concrete parameter changes. Rules are
// evaluated in a fixed order and each fires at most once, so identical
// inputs always yield the identical suggestion list. A rule whose parameter
// already sits at its cap or floor does not fire.
func Suggest(scores []eval.ScoreRecord, records []runner.AnswerRecord, params pipeline.Params) []Suggestion {
	stats := eval.Aggregate(scores, 0)
	health := Retrieval(records)

	suggestions := make([]Suggestion, 0, 4)
	if len(records) > 0 && health.AvgSources < minAvgSources {
		if suggested := minInt(params.TopK+topKStep, topKCap); suggested != params.TopK {
			suggestions = append(suggestions, Suggestion{
				Parameter:             pipeline.ParamTopK,
				CurrentValue:          float64(params.TopK),
				SuggestedValue:        float64(suggested),
				Rationale:             fmt.Sprintf("Average of %.1f sources per answer is low; retrieving more documents widens the evidence base", health.AvgSources),
				Priority:              PriorityHigh,
				AppliesWithoutReindex: !pipeline.RequiresReindex(pipeline.ParamTopK),
			})
		}
	}
	if stats.Scored > 0 && stats.AvgCompleteness < minAvgCompleteness {
		if suggested := minInt(params.ChunkSize+chunkSizeStep, chunkSizeCap); suggested != params.ChunkSize {
			suggestions = append(suggestions, Suggestion{
				Parameter:             pipeline.ParamChunkSize,
				CurrentValue:          float64(params.ChunkSize),
				SuggestedValue:        float64(suggested),
				Rationale:             fmt.Sprintf("Average completeness of %.1f/10 suggests larger chunks would carry more context per match", stats.AvgCompleteness),
				Priority:              PriorityMedium,
				AppliesWithoutReindex: !pipeline.RequiresReindex(pipeline.ParamChunkSize),
			})
		}
	}
	if len(records) > 0 && health.ZeroSourcePct > maxZeroSourcePct {
		if suggested := maxFloat(params.SimilarityThreshold-similarityStep, similarityFloor); suggested != params.SimilarityThreshold {
			suggestions = append(suggestions, Suggestion{
				Parameter:             pipeline.ParamSimilarityThreshold,
				CurrentValue:          params.SimilarityThreshold,
				SuggestedValue:        suggested,
				Rationale:             fmt.Sprintf("%.1f%% of questions retrieved no sources; the similarity cutoff is filtering out usable context", health.ZeroSourcePct),
				Priority:              PriorityHigh,
				AppliesWithoutReindex: !pipeline.RequiresReindex(pipeline.ParamSimilarityThreshold),
			})
		}
	}
	if stats.Scored > 0 && stats.AvgClarity < minAvgClarity {
		if params.LLMTemperature != focusedTemperature {
			suggestions = append(suggestions, Suggestion{
				Parameter:             pipeline.ParamLLMTemperature,
				CurrentValue:          params.LLMTemperature,
				SuggestedValue:        focusedTemperature,
				Rationale:             fmt.Sprintf("Average clarity of %.1f/10 suggests a lower sampling temperature for more focused answers", stats.AvgClarity),
				Priority:              PriorityMedium,
				AppliesWithoutReindex: !pipeline.RequiresReindex(pipeline.ParamLLMTemperature),
			})
		}
	}
	return suggestions
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
