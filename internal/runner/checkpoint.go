package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// checkpointWriter flushes finished records to disk every N completions so a
// crashed batch loses at most one checkpoint interval of work. Callers own
// the locking; the batch collection loop is single-goroutine.
type checkpointWriter struct {
	path      string
	every     int
	records   []AnswerRecord
	finished  []bool
	completed int
}

// newCheckpointWriter returns nil when checkpointing is disabled.
func newCheckpointWriter(path string, every int, records []AnswerRecord) *checkpointWriter {
	if path == "" || every <= 0 {
		return nil
	}
	return &checkpointWriter{
		path:     path,
		every:    every,
		records:  records,
		finished: make([]bool, len(records)),
	}
}

// complete marks one record finished and flushes when a checkpoint is due.
func (w *checkpointWriter) complete(index int) error {
	if w == nil {
		return nil
	}
	if index < 0 || index >= len(w.finished) {
		return nil
	}
	if w.finished[index] {
		return nil
	}
	w.finished[index] = true
	w.completed++
	if w.completed%w.every != 0 {
		return nil
	}
	return w.flush()
}

// flush writes a snapshot of the finished records in input order.
func (w *checkpointWriter) flush() error {
	if w == nil {
		return nil
	}
	snapshot := make([]AnswerRecord, 0, w.completed)
	for index, done := range w.finished {
		if done {
			snapshot = append(snapshot, w.records[index])
		}
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(w.path, payload, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}
