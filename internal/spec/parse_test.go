package spec

import "testing"

// TestParseConfigValid verifies valid config parsing succeeds.
func TestParseConfigValid(t *testing.T) {
	data := []byte(`version: 1
document:
  segments_file: "docs/manual.segments.yml"
pipeline:
  answer_url: "http://127.0.0.1:8080/answer"
llm:
  provider: openrouter
  model: gpt-4.1-mini
tuning:
  iterations: 3
  convergence_threshold: 0.05
output_dir: "./ragtune-output"
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if cfg.Tuning.Iterations != 3 {
		t.Fatalf("expected 3 iterations, got %d", cfg.Tuning.Iterations)
	}
	if cfg.Pipeline.AnswerURL != "http://127.0.0.1:8080/answer" {
		t.Fatalf("unexpected answer url %q", cfg.Pipeline.AnswerURL)
	}
}

// TestParseConfigUnknownField verifies unknown fields are rejected.
func TestParseConfigUnknownField(t *testing.T) {
	data := []byte(`version: 1
output_dir: "./out"
unknown: true
`)
	if _, err := ParseConfig(data); err == nil {
		t.Fatalf("expected parse error for unknown field")
	}
}

// TestParseConfigRejectsMultipleDocs verifies multiple YAML docs are rejected.
func TestParseConfigRejectsMultipleDocs(t *testing.T) {
	data := []byte("version: 1\n---\nversion: 1\n")
	if _, err := ParseConfig(data); err == nil {
		t.Fatalf("expected parse error for multiple documents")
	}
}
