package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"ragtune/internal/llm"
	"ragtune/internal/question"
	"ragtune/internal/spec"
)

// generatorClient returns the same two-question payload for every segment.
type generatorClient struct{}

func (generatorClient) Complete(context.Context, string, llm.Options) (llm.Completion, error) {
	return llm.Completion{Text: `{"questions": [
		{"question": "What is embedded?", "type": "factual", "expected_answer": "Each chunk, once.", "concepts": ["embedding"]},
		{"question": "Why overlap chunks?", "type": "conceptual", "expected_answer": "Overlap keeps context intact across chunk boundaries.", "concepts": ["chunking"]}
	]}`}, nil
}

type failingClient struct{}

func (failingClient) Complete(context.Context, string, llm.Options) (llm.Completion, error) {
	return llm.Completion{}, errors.New("upstream unavailable")
}

func stubGeneratorClient(t *testing.T, client llm.Client) {
	t.Helper()
	orig := newLLMClient
	newLLMClient = func(spec.Config) (llm.Client, error) { return client, nil }
	t.Cleanup(func() { newLLMClient = orig })
}

// TestGenerateCommandWritesQuestionSet verifies the full generation flow.
func TestGenerateCommandWritesQuestionSet(t *testing.T) {
	dir := t.TempDir()
	configPath := writeProject(t, dir, "")
	outPath := filepath.Join(dir, "generated.yml")
	stubGeneratorClient(t, generatorClient{})

	var out, stderr bytes.Buffer
	code := Run([]string{"generate", "--config", configPath, "--out", outPath}, &out, &stderr)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (%s)", ExitOK, code, stderr.String())
	}
	if !strings.Contains(out.String(), "Generated 4 questions from 2 of 2 segments") {
		t.Fatalf("expected coverage summary, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Wrote "+outPath) {
		t.Fatalf("expected output path, got %q", out.String())
	}

	set, err := question.LoadSet(outPath)
	if err != nil {
		t.Fatalf("load generated set: %v", err)
	}
	if len(set.Questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(set.Questions))
	}
	if set.Questions[0].SegmentID != "p1" {
		t.Fatalf("expected first question from segment p1, got %q", set.Questions[0].SegmentID)
	}
}

// TestGenerateCommandReportsSkippedSegments verifies per-segment failures warn
// and an empty result aborts.
func TestGenerateCommandReportsSkippedSegments(t *testing.T) {
	dir := t.TempDir()
	configPath := writeProject(t, dir, "")
	stubGeneratorClient(t, failingClient{})

	var out, stderr bytes.Buffer
	code := Run([]string{"generate", "--config", configPath, "--out", filepath.Join(dir, "generated.yml")}, &out, &stderr)
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if !strings.Contains(stderr.String(), "Warning: segment p1 skipped") {
		t.Fatalf("expected segment warning, got %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "Generate failed") {
		t.Fatalf("expected failure message, got %q", stderr.String())
	}
}
