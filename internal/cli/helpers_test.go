package cli

import (
	"os"
	"path/filepath"
	"testing"
)

const testSegmentsYAML = `segments:
  - id: "p1"
    position: 1
    text: >
      The retrieval layer splits documents into overlapping chunks and embeds
      each chunk once. At query time the top matches above the similarity
      threshold are handed to the generator as context.
  - id: "p2"
    position: 2
    text: >
      Convergence is declared when the composite score moves less than the
      configured threshold between two consecutive iterations. The iteration
      budget bounds the loop when scores keep moving.
`

const testQuestionsYAML = `version: 1
questions:
  - id: "p1-q1"
    question: "What does the retrieval layer hand to the generator?"
    type: "factual"
    expected_answer: "The top matching chunks above the similarity threshold."
  - id: "p2-q1"
    question: "When is convergence declared?"
    type: "conceptual"
    expected_answer: "When the composite score moves less than the threshold between iterations."
`

// writeProject scaffolds a loadable .ragtune project under dir and returns
// the config path. The answer URL can be overridden for tests that stand up
// a fake pipeline.
func writeProject(t *testing.T, dir, answerURL string) string {
	t.Helper()
	if answerURL == "" {
		answerURL = "http://127.0.0.1:8080/answer"
	}
	configPath := filepath.Join(dir, ".ragtune", "config.yml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	config := `version: 1
document:
  segments_file: ".ragtune/segments.yml"
pipeline:
  answer_url: "` + answerURL + `"
llm:
  provider: "openrouter"
  model: "gpt-4.1-mini"
tuning:
  iterations: 2
  apply_improvements: true
output_dir: "ragtune-output"
`
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	segmentsPath := filepath.Join(dir, ".ragtune", "segments.yml")
	if err := os.WriteFile(segmentsPath, []byte(testSegmentsYAML), 0o644); err != nil {
		t.Fatalf("write segments: %v", err)
	}
	return configPath
}

// writeQuestions writes a small valid question set and returns its path.
func writeQuestions(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "questions.yml")
	if err := os.WriteFile(path, []byte(testQuestionsYAML), 0o644); err != nil {
		t.Fatalf("write questions: %v", err)
	}
	return path
}
