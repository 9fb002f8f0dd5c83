package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputPaths describes filesystem locations for one run's artifacts.
type OutputPaths struct {
	Root  string
	RunID string
}

// NewOutputPaths validates and constructs output paths metadata.
func NewOutputPaths(root, runID string) (OutputPaths, error) {
	if strings.TrimSpace(root) == "" {
		return OutputPaths{}, fmt.Errorf("output root is empty")
	}
	if strings.TrimSpace(runID) == "" {
		return OutputPaths{}, fmt.Errorf("run ID is empty")
	}
	return OutputPaths{Root: root, RunID: runID}, nil
}

// RunDir returns the directory for this run.
func (o OutputPaths) RunDir() string {
	return filepath.Join(o.Root, "runs", o.RunID)
}

// QuestionsPath returns the path to the saved question set.
func (o OutputPaths) QuestionsPath() string {
	return filepath.Join(o.RunDir(), "questions.yml")
}

// IterationDir returns the directory for one iteration's artifacts.
func (o OutputPaths) IterationDir(iteration int) string {
	return filepath.Join(o.RunDir(), "iterations", fmt.Sprintf("iter_%d", iteration))
}

// AnswersPath returns the path to an iteration's answer records. The executor
// also checkpoints to this path, so a crash leaves a usable partial file.
func (o OutputPaths) AnswersPath(iteration int) string {
	return filepath.Join(o.IterationDir(iteration), "answers.json")
}

// ScoresPath returns the path to an iteration's score records.
func (o OutputPaths) ScoresPath(iteration int) string {
	return filepath.Join(o.IterationDir(iteration), "scores.json")
}

// SummaryPath returns the path to an iteration's summary.
func (o OutputPaths) SummaryPath(iteration int) string {
	return filepath.Join(o.IterationDir(iteration), "summary.json")
}

// ImprovementsPath returns the path to an iteration's improvement report.
func (o OutputPaths) ImprovementsPath(iteration int) string {
	return filepath.Join(o.IterationDir(iteration), "improvements.txt")
}

// ResultPath returns the path to the final run result.
func (o OutputPaths) ResultPath() string {
	return filepath.Join(o.RunDir(), "result.json")
}

// ReportPath returns the path to the final text report.
func (o OutputPaths) ReportPath() string {
	return filepath.Join(o.RunDir(), "report.txt")
}

// LogsDir returns the path for verbose log outputs.
func (o OutputPaths) LogsDir() string {
	return filepath.Join(o.RunDir(), "logs")
}

// WriteJSON writes a payload as pretty JSON, creating parent directories.
func WriteJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s dir: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteText writes a text artifact, creating parent directories.
func WriteText(path string, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s dir: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
