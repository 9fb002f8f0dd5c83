package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ragtune/internal/eval"
	"ragtune/internal/loop"
	"ragtune/internal/question"
	"ragtune/internal/runner"
)

// IngestStats counts what one IngestRun call processed.
type IngestStats struct {
	RunID       string
	Questions   int
	Iterations  int
	Answers     int
	Scores      int
	Suggestions int
}

// IngestRun loads one finished run directory into the history database. The
// directory is the per-run tree written during tuning: result.json and
// questions.yml at the root plus iterations/iter_<n>/ artifact files for every
// completed iteration. Ingestion is idempotent; loading the same directory
// twice leaves the database unchanged.
//
// Artifacts from an iteration that was interrupted before its summary landed
// in result.json are skipped: only iterations the run accounted for are
// loaded.
func IngestRun(ctx context.Context, db *sql.DB, runDir string) (IngestStats, error) {
	var stats IngestStats
	if ctx == nil {
		return stats, errors.New("duckdb: context is nil")
	}
	if db == nil {
		return stats, errors.New("duckdb: db is nil")
	}
	result, err := readResult(filepath.Join(runDir, "result.json"))
	if err != nil {
		return stats, err
	}
	// Inserts below reference the row UUID; the stats carry the run's own
	// ID, the one a caller can correlate with the run directory.
	runID, err := UpsertRun(ctx, db, result)
	if err != nil {
		return stats, err
	}
	stats.RunID = result.RunID

	set, err := question.LoadSet(filepath.Join(runDir, "questions.yml"))
	if err != nil {
		return stats, fmt.Errorf("load questions: %w", err)
	}
	ids := make(map[string]string, len(set.Questions))
	for _, q := range set.Questions {
		qid, _, err := UpsertQuestion(ctx, db, q)
		if err != nil {
			return stats, err
		}
		ids[q.ID] = qid
		stats.Questions++
	}

	for _, summary := range result.Iterations {
		if err := ingestIteration(ctx, db, runID, runDir, summary, ids, &stats); err != nil {
			return stats, fmt.Errorf("iteration %d: %w", summary.Iteration, err)
		}
	}
	return stats, nil
}

func ingestIteration(ctx context.Context, db *sql.DB, runID, runDir string, summary loop.IterationSummary, ids map[string]string, stats *IngestStats) error {
	if err := insertIteration(ctx, db, runID, summary); err != nil {
		return err
	}
	stats.Iterations++

	iterDir := filepath.Join(runDir, "iterations", fmt.Sprintf("iter_%d", summary.Iteration))

	var answers []runner.AnswerRecord
	if err := readJSON(filepath.Join(iterDir, "answers.json"), &answers); err != nil {
		return err
	}
	for ordinal, record := range answers {
		qid, ok := ids[record.QuestionID]
		if !ok {
			return fmt.Errorf("answer references unknown question %q", record.QuestionID)
		}
		if err := insertAnswer(ctx, db, runID, qid, summary.Iteration, ordinal, record); err != nil {
			return err
		}
		stats.Answers++
	}

	var scores []eval.ScoreRecord
	if err := readJSON(filepath.Join(iterDir, "scores.json"), &scores); err != nil {
		return err
	}
	for _, record := range scores {
		qid, ok := ids[record.QuestionID]
		if !ok {
			return fmt.Errorf("score references unknown question %q", record.QuestionID)
		}
		if err := insertScore(ctx, db, runID, qid, summary.Iteration, record); err != nil {
			return err
		}
		stats.Scores++
	}

	status := suggestionStatuses(summary)
	for _, s := range summary.Suggestions {
		if err := insertSuggestion(ctx, db, runID, summary.Iteration, s, status[s.Parameter]); err != nil {
			return err
		}
		stats.Suggestions++
	}
	return nil
}

// suggestionStatuses resolves the stored status per parameter from what the
// controller recorded for the iteration. Applied wins over skipped; anything
// the controller never acted on stays suggested.
func suggestionStatuses(summary loop.IterationSummary) map[string]string {
	status := make(map[string]string, len(summary.Suggestions))
	for _, s := range summary.Suggestions {
		status[s.Parameter] = StatusSuggested
	}
	for _, s := range summary.SkippedReindex {
		status[s.Parameter] = StatusSkippedReindex
	}
	for _, s := range summary.Applied {
		status[s.Parameter] = StatusApplied
	}
	return status
}

func readResult(path string) (*loop.RunResult, error) {
	var result loop.RunResult
	if err := readJSON(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
