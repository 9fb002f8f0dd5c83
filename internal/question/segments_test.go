package question

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadSegmentsYAML verifies structured segment files keep ids and fill
// missing positions.
func TestLoadSegmentsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segments.yml")
	payload := `segments:
  - id: intro
    text: "The pipeline retrieves chunks before answering."
  - id: details
    text: "Chunk size and overlap control retrieval granularity."
    position: 7
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write segments: %v", err)
	}
	segments, err := LoadSegments(path)
	if err != nil {
		t.Fatalf("load segments: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].ID != "intro" || segments[0].Position != 1 {
		t.Fatalf("unexpected first segment: %+v", segments[0])
	}
	if segments[1].Position != 7 {
		t.Fatalf("expected explicit position kept, got %+v", segments[1])
	}
}

// TestLoadSegmentsRejectsDuplicateIDs verifies duplicate ids fail loading.
func TestLoadSegmentsRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "segments.yml")
	payload := `segments:
  - id: intro
    text: "First."
  - id: intro
    text: "Second."
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write segments: %v", err)
	}
	if _, err := LoadSegments(path); err == nil {
		t.Fatalf("expected error for duplicate ids")
	}
}

// TestLoadSegmentsPlainText verifies form-feed page splitting with blank
// pages skipped and page numbers preserved.
func TestLoadSegmentsPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.txt")
	payload := "Page one text.\f\fPage three text."
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	segments, err := LoadSegments(path)
	if err != nil {
		t.Fatalf("load segments: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].ID != "p1" || segments[1].ID != "p3" {
		t.Fatalf("unexpected ids: %q, %q", segments[0].ID, segments[1].ID)
	}
	if segments[1].Position != 3 {
		t.Fatalf("expected position 3, got %d", segments[1].Position)
	}
}
