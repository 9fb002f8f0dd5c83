package advisor

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"ragtune/internal/eval"
	"ragtune/internal/pipeline"
	"ragtune/internal/runner"
)

func baseParams() pipeline.Params {
	return pipeline.Params{
		TopK:                7,
		SimilarityThreshold: 0.65,
		LLMTemperature:      0.2,
		ChunkSize:           800,
		ChunkOverlap:        150,
	}
}

// fixedScores builds scored records with the given completeness and clarity;
// accuracy and relevance stay healthy so only the targeted rules can fire.
func fixedScores(count int, completeness, clarity float64) []eval.ScoreRecord {
	scores := make([]eval.ScoreRecord, 0, count)
	for i := 0; i < count; i++ {
		scores = append(scores, eval.ScoreRecord{
			QuestionID:   fmt.Sprintf("q-%d", i+1),
			Accuracy:     8,
			Completeness: completeness,
			Relevance:    8,
			Clarity:      clarity,
			Composite:    (8 + completeness + 8 + clarity) / 4,
		})
	}
	return scores
}

// answeredRecords builds successful records with the given source counts.
func answeredRecords(sourceCounts ...int) []runner.AnswerRecord {
	records := make([]runner.AnswerRecord, 0, len(sourceCounts))
	for i, count := range sourceCounts {
		record := runner.AnswerRecord{
			QuestionID: fmt.Sprintf("q-%d", i+1),
			Answer:     "an answer citing [Page 1]",
		}
		for s := 0; s < count; s++ {
			record.Sources = append(record.Sources, pipeline.Source{
				Location:   fmt.Sprintf("page-%d", s+1),
				Similarity: 0.8,
			})
		}
		records = append(records, record)
	}
	return records
}

func healthyBatch() ([]eval.ScoreRecord, []runner.AnswerRecord) {
	return fixedScores(5, 8, 8), answeredRecords(5, 5, 5, 5, 5)
}

func findSuggestion(t *testing.T, suggestions []Suggestion, parameter string) Suggestion {
	t.Helper()
	for _, suggestion := range suggestions {
		if suggestion.Parameter == parameter {
			return suggestion
		}
	}
	t.Fatalf("no suggestion for %q in %+v", parameter, suggestions)
	return Suggestion{}
}

func hasSuggestion(suggestions []Suggestion, parameter string) bool {
	for _, suggestion := range suggestions {
		if suggestion.Parameter == parameter {
			return true
		}
	}
	return false
}

func TestSuggestHealthyBatchProducesNothing(t *testing.T) {
	scores, records := healthyBatch()
	suggestions := Suggest(scores, records, baseParams())
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %+v", suggestions)
	}
}

// TestSuggestAllRulesFireInOrder drives every rule at once and checks the
// deterministic ordering of the result.
func TestSuggestAllRulesFireInOrder(t *testing.T) {
	scores := fixedScores(10, 4, 5)
	records := answeredRecords(0, 0, 1, 2, 2, 2, 2, 2, 2, 2)

	suggestions := Suggest(scores, records, baseParams())
	if len(suggestions) != 4 {
		t.Fatalf("expected 4 suggestions, got %d: %+v", len(suggestions), suggestions)
	}
	order := []string{
		pipeline.ParamTopK,
		pipeline.ParamChunkSize,
		pipeline.ParamSimilarityThreshold,
		pipeline.ParamLLMTemperature,
	}
	for i, parameter := range order {
		if suggestions[i].Parameter != parameter {
			t.Fatalf("suggestion %d is %q, expected %q", i, suggestions[i].Parameter, parameter)
		}
	}

	topK := suggestions[0]
	if topK.SuggestedValue != 10 || topK.Priority != PriorityHigh || !topK.AppliesWithoutReindex {
		t.Fatalf("unexpected top_k suggestion: %+v", topK)
	}
	chunk := suggestions[1]
	if chunk.SuggestedValue != 1000 || chunk.Priority != PriorityMedium || chunk.AppliesWithoutReindex {
		t.Fatalf("unexpected chunk_size suggestion: %+v", chunk)
	}
	similarity := suggestions[2]
	if math.Abs(similarity.SuggestedValue-0.6) > 1e-9 || similarity.Priority != PriorityHigh {
		t.Fatalf("unexpected similarity suggestion: %+v", similarity)
	}
	temperature := suggestions[3]
	if temperature.SuggestedValue != 0.1 || temperature.Priority != PriorityMedium {
		t.Fatalf("unexpected temperature suggestion: %+v", temperature)
	}
}

func TestSuggestIdempotent(t *testing.T) {
	scores := fixedScores(10, 4, 5)
	records := answeredRecords(0, 0, 1, 2, 2, 2, 2, 2, 2, 2)
	params := baseParams()

	first := Suggest(scores, records, params)
	second := Suggest(scores, records, params)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical suggestions, got\n%+v\nvs\n%+v", first, second)
	}
}

func TestSuggestTopKCap(t *testing.T) {
	scores, _ := healthyBatch()
	records := answeredRecords(1, 1, 1, 1)

	params := baseParams()
	params.TopK = 13
	capped := findSuggestion(t, Suggest(scores, records, params), pipeline.ParamTopK)
	if capped.SuggestedValue != 15 {
		t.Fatalf("expected cap at 15, got %v", capped.SuggestedValue)
	}

	params.TopK = 15
	if hasSuggestion(Suggest(scores, records, params), pipeline.ParamTopK) {
		t.Fatalf("rule at its cap should not fire")
	}
}

func TestSuggestChunkSizeCap(t *testing.T) {
	_, records := healthyBatch()
	scores := fixedScores(5, 4, 8)

	params := baseParams()
	params.ChunkSize = 1400
	capped := findSuggestion(t, Suggest(scores, records, params), pipeline.ParamChunkSize)
	if capped.SuggestedValue != 1500 {
		t.Fatalf("expected cap at 1500, got %v", capped.SuggestedValue)
	}

	params.ChunkSize = 1500
	if hasSuggestion(Suggest(scores, records, params), pipeline.ParamChunkSize) {
		t.Fatalf("rule at its cap should not fire")
	}
}

func TestSuggestSimilarityFloor(t *testing.T) {
	scores, _ := healthyBatch()
	records := answeredRecords(0, 5, 5, 5)

	params := baseParams()
	params.SimilarityThreshold = 0.52
	floored := findSuggestion(t, Suggest(scores, records, params), pipeline.ParamSimilarityThreshold)
	if floored.SuggestedValue != 0.5 {
		t.Fatalf("expected floor at 0.5, got %v", floored.SuggestedValue)
	}

	params.SimilarityThreshold = 0.5
	if hasSuggestion(Suggest(scores, records, params), pipeline.ParamSimilarityThreshold) {
		t.Fatalf("rule at its floor should not fire")
	}
}

func TestSuggestTemperatureAlreadyFocused(t *testing.T) {
	_, records := healthyBatch()
	scores := fixedScores(5, 8, 5)

	params := baseParams()
	params.LLMTemperature = 0.1
	if hasSuggestion(Suggest(scores, records, params), pipeline.ParamLLMTemperature) {
		t.Fatalf("temperature already at target should not fire")
	}
}

// TestSuggestNoEvidenceNoRules verifies empty batches and all-failed batches
// never trigger rules off zero-valued averages.
func TestSuggestNoEvidenceNoRules(t *testing.T) {
	if got := Suggest(nil, nil, baseParams()); len(got) != 0 {
		t.Fatalf("expected no suggestions on empty input, got %+v", got)
	}

	failed := []eval.ScoreRecord{
		{QuestionID: "q-1", Error: "judge failed"},
		{QuestionID: "q-2", Error: "judge failed"},
	}
	if got := Suggest(failed, nil, baseParams()); len(got) != 0 {
		t.Fatalf("expected no suggestions without scored records, got %+v", got)
	}
}
