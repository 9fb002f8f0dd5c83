package question

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoadSetYAML verifies YAML question sets load and normalize properly.
func TestLoadSetYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yml")
	payload := `version: 1
questions:
  - id: q-p1-1
    question: "  What is retrieval-augmented generation? "
    type: Conceptual
    expected_answer: "A technique that grounds model answers in retrieved documents."
    concepts: ["RAG", " retrieval "]
    segment_id: p1
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	set, err := LoadSet(path)
	if err != nil {
		t.Fatalf("load set: %v", err)
	}
	if set.Version != 1 {
		t.Fatalf("expected version 1, got %d", set.Version)
	}
	if len(set.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(set.Questions))
	}
	q := set.Questions[0]
	if q.Text != "What is retrieval-augmented generation?" {
		t.Fatalf("expected trimmed question, got %q", q.Text)
	}
	if q.Type != TypeConceptual {
		t.Fatalf("expected lowercased type, got %q", q.Type)
	}
	if len(q.Concepts) != 2 || q.Concepts[1] != "retrieval" {
		t.Fatalf("unexpected concepts: %+v", q.Concepts)
	}
	if set.Metadata.TotalQuestions != 1 {
		t.Fatalf("expected metadata filled, got %d", set.Metadata.TotalQuestions)
	}
}

// TestLoadSetJSON verifies JSON question sets are parsed and validated.
func TestLoadSetJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.json")
	payload := `{
  "version": 1,
  "questions": [
    {
      "id": "q-p2-1",
      "question": "Which index does the pipeline search?",
      "type": "factual",
      "expected_answer": "The vector index built from document chunks.",
      "segment_id": "p2"
    }
  ]
}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	set, err := LoadSet(path)
	if err != nil {
		t.Fatalf("load set: %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].ID != "q-p2-1" {
		t.Fatalf("unexpected set: %+v", set.Questions)
	}
}

// TestLoadSetRejectsUnknownField verifies strict parsing of unknown keys.
func TestLoadSetRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yml")
	payload := `version: 1
questons:
  - id: q1
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	if _, err := LoadSet(path); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

// TestLoadSetRejectsMultipleDocuments verifies one YAML document per file.
func TestLoadSetRejectsMultipleDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yml")
	payload := `version: 1
questions:
  - id: q1
    question: "One?"
    type: factual
    expected_answer: "One."
---
version: 1
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	_, err := LoadSet(path)
	if err == nil {
		t.Fatalf("expected error for multiple documents")
	}
	if !strings.Contains(err.Error(), "multiple documents") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestSaveSetRoundTrip verifies a saved set loads back unchanged.
func TestSaveSetRoundTrip(t *testing.T) {
	set := Set{
		Version: 1,
		Questions: []Question{
			{
				ID:             "q-p1-1",
				Text:           "What does the chunker split on?",
				Type:           TypeFactual,
				ExpectedAnswer: "Fixed-size character windows with overlap.",
				Concepts:       []string{"chunking"},
				SegmentID:      "p1",
			},
		},
		Metadata: Coverage{TotalQuestions: 1, SegmentsUsed: 1, SegmentsTotal: 1},
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "questions.yml")
	if err := SaveSet(path, set); err != nil {
		t.Fatalf("save set: %v", err)
	}
	loaded, err := LoadSet(path)
	if err != nil {
		t.Fatalf("load set: %v", err)
	}
	got := loaded.Questions[0]
	want := set.Questions[0]
	if got.ID != want.ID || got.Text != want.Text || got.Type != want.Type || got.ExpectedAnswer != want.ExpectedAnswer {
		t.Fatalf("round trip changed question: %+v", got)
	}
	if len(got.Concepts) != 1 || got.Concepts[0] != "chunking" {
		t.Fatalf("round trip changed concepts: %+v", got.Concepts)
	}
	if loaded.Metadata != set.Metadata {
		t.Fatalf("round trip changed metadata: %+v", loaded.Metadata)
	}
}

// TestLoadSetMissingFile verifies a readable error for missing files.
func TestLoadSetMissingFile(t *testing.T) {
	_, err := LoadSet(filepath.Join(t.TempDir(), "absent.yml"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
