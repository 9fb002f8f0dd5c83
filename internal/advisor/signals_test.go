package advisor

import (
	"fmt"
	"math"
	"testing"

	"ragtune/internal/eval"
	"ragtune/internal/pipeline"
	"ragtune/internal/runner"
)

func TestWeaknessFrequencyRanksPhrases(t *testing.T) {
	scores := []eval.ScoreRecord{
		{QuestionID: "q-1", Weaknesses: []string{"too terse", "no citations"}},
		{QuestionID: "q-2", Weaknesses: []string{"no citations", "  too terse "}},
		{QuestionID: "q-3", Weaknesses: []string{"no citations", "vague"}},
		{QuestionID: "q-4", Error: "judge failed", Weaknesses: []string{"ignored"}},
	}

	phrases := WeaknessFrequency(scores)
	expected := []PhraseCount{
		{Phrase: "no citations", Count: 3},
		{Phrase: "too terse", Count: 2},
		{Phrase: "vague", Count: 1},
	}
	if len(phrases) != len(expected) {
		t.Fatalf("expected %d phrases, got %+v", len(expected), phrases)
	}
	for i, want := range expected {
		if phrases[i] != want {
			t.Fatalf("phrase %d is %+v, expected %+v", i, phrases[i], want)
		}
	}
}

func TestWeaknessFrequencyTieBreaksAlphabetically(t *testing.T) {
	scores := []eval.ScoreRecord{
		{QuestionID: "q-1", Weaknesses: []string{"zeta", "alpha"}},
		{QuestionID: "q-2", Weaknesses: []string{"alpha", "zeta"}},
	}
	phrases := WeaknessFrequency(scores)
	if len(phrases) != 2 || phrases[0].Phrase != "alpha" || phrases[1].Phrase != "zeta" {
		t.Fatalf("expected alphabetical tie-break, got %+v", phrases)
	}
}

func TestWeaknessFrequencyCapsAtTen(t *testing.T) {
	record := eval.ScoreRecord{QuestionID: "q-1"}
	for i := 0; i < 15; i++ {
		record.Weaknesses = append(record.Weaknesses, fmt.Sprintf("weakness %02d", i))
	}
	phrases := WeaknessFrequency([]eval.ScoreRecord{record})
	if len(phrases) != 10 {
		t.Fatalf("expected 10 phrases, got %d", len(phrases))
	}
}

func TestMissingInfoFrequency(t *testing.T) {
	scores := []eval.ScoreRecord{
		{QuestionID: "q-1", MissingInfo: []string{"exact dates"}},
		{QuestionID: "q-2", MissingInfo: []string{"exact dates", ""}},
	}
	phrases := MissingInfoFrequency(scores)
	if len(phrases) != 1 || phrases[0].Phrase != "exact dates" || phrases[0].Count != 2 {
		t.Fatalf("unexpected phrases: %+v", phrases)
	}
}

func TestRetrievalCountsFailuresAsZeroSource(t *testing.T) {
	records := []runner.AnswerRecord{
		{QuestionID: "q-1", Answer: "a", Sources: []pipeline.Source{
			{Location: "page-1"}, {Location: "page-1"}, {Location: "page-2"},
		}},
		{QuestionID: "q-2", Answer: "b", Sources: []pipeline.Source{
			{Location: "page-3"},
		}},
		{QuestionID: "q-3", Answer: "c"},
		{QuestionID: "q-4", Error: "pipeline timed out"},
	}

	health := Retrieval(records)
	if health.AvgSources != 1.0 {
		t.Fatalf("expected avg sources 1.0, got %v", health.AvgSources)
	}
	if health.ZeroSourceCount != 2 {
		t.Fatalf("expected 2 zero-source records, got %d", health.ZeroSourceCount)
	}
	if health.ZeroSourcePct != 50 {
		t.Fatalf("expected 50%% zero-source, got %v", health.ZeroSourcePct)
	}
	// Unique locations: (2 + 1) over the two records that returned sources.
	if health.AvgUniqueLocations != 1.5 {
		t.Fatalf("expected avg unique locations 1.5, got %v", health.AvgUniqueLocations)
	}
	if health.Diversity != 1.5 {
		t.Fatalf("expected diversity 1.5, got %v", health.Diversity)
	}
}

func TestRetrievalEmptyBatch(t *testing.T) {
	if health := Retrieval(nil); health != (RetrievalHealth{}) {
		t.Fatalf("expected zero health, got %+v", health)
	}
}

func TestShapeMeasuresAnswers(t *testing.T) {
	records := []runner.AnswerRecord{
		{QuestionID: "q-1", Answer: "one two three four [Page 3]"},
		{QuestionID: "q-2", Answer: "one two [p. 12] and [PAGE 4]"},
		{QuestionID: "q-3", Answer: "one two three four five six seven eight"},
		{QuestionID: "q-4", Error: "pipeline timed out", Answer: ""},
	}

	shape := Shape(records)
	// Whitespace-separated word counts: 6, 7, 8.
	if shape.MinWords != 6 || shape.MaxWords != 8 || shape.MedianWords != 7 {
		t.Fatalf("unexpected length distribution: %+v", shape)
	}
	if shape.AvgWords != 7 {
		t.Fatalf("expected avg words 7, got %v", shape.AvgWords)
	}
	if math.Abs(shape.CitationRate-2.0/3.0) > 1e-9 {
		t.Fatalf("expected citation rate 2/3, got %v", shape.CitationRate)
	}
	if shape.AvgCitations != 1.0 {
		t.Fatalf("expected 1.0 citations per answer, got %v", shape.AvgCitations)
	}
}

func TestShapeEmptyBatch(t *testing.T) {
	if shape := Shape(nil); shape != (AnswerShape{}) {
		t.Fatalf("expected zero shape, got %+v", shape)
	}
	failed := []runner.AnswerRecord{{QuestionID: "q-1", Error: "down"}}
	if shape := Shape(failed); shape != (AnswerShape{}) {
		t.Fatalf("expected zero shape for all-failed batch, got %+v", shape)
	}
}
