package question

import (
	"errors"
	"strings"
	"testing"
)

// TestNormalizeSetReportsIssues verifies all problems are collected before
// the set is rejected.
func TestNormalizeSetReportsIssues(t *testing.T) {
	set := Set{
		Version: 1,
		Questions: []Question{
			{ID: "q1", Text: "First?", Type: "riddle", ExpectedAnswer: "Yes."},
			{ID: "q1", Text: "", Type: TypeFactual, ExpectedAnswer: ""},
		},
	}
	_, err := NormalizeSet(set)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := make([]string, 0, len(validationErr.Issues))
	for _, issue := range validationErr.Issues {
		fields = append(fields, issue.Field)
	}
	joined := strings.Join(fields, " ")
	for _, want := range []string{
		"questions[0].type",
		"questions[1].id",
		"questions[1].question",
		"questions[1].expected_answer",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected issue for %s, got %v", want, fields)
		}
	}
}

// TestNormalizeSetRejectsWrongVersion verifies unsupported versions fail.
func TestNormalizeSetRejectsWrongVersion(t *testing.T) {
	set := Set{
		Version: 2,
		Questions: []Question{
			{ID: "q1", Text: "First?", Type: TypeFactual, ExpectedAnswer: "Yes."},
		},
	}
	if _, err := NormalizeSet(set); err == nil {
		t.Fatalf("expected error for version 2")
	}
}

// TestNormalizeSetRejectsMetadataMismatch verifies declared counts must
// match the question list.
func TestNormalizeSetRejectsMetadataMismatch(t *testing.T) {
	set := Set{
		Version: 1,
		Questions: []Question{
			{ID: "q1", Text: "First?", Type: TypeFactual, ExpectedAnswer: "Yes."},
		},
		Metadata: Coverage{TotalQuestions: 5},
	}
	_, err := NormalizeSet(set)
	if err == nil {
		t.Fatalf("expected error for metadata mismatch")
	}
	if !strings.Contains(err.Error(), "metadata.total_questions") {
		t.Fatalf("unexpected error: %v", err)
	}
}
