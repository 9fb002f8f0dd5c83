package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run is one tuning run loaded from the history database.
type Run struct {
	RunKey         string
	Document       string
	State          string
	Interrupted    bool
	Questions      int
	MaxIterations  int
	NetImprovement float64
	BestIteration  int
	RepoName       string
	RepoCommit     string
	StartedAt      time.Time
	ElapsedSeconds float64
	Iterations     []Iteration
	Suggestions    []Suggestion
}

// Iteration is one row of a run's score trajectory.
type Iteration struct {
	Iteration          int
	AvgComposite       float64
	AvgAccuracy        float64
	AvgCompleteness    float64
	AvgRelevance       float64
	AvgClarity         float64
	Scored             int
	Failed             int
	ConvergenceChecked bool
	Delta              float64
}

// Suggestion is one advisor recommendation with its disposition.
type Suggestion struct {
	Iteration      int
	Parameter      string
	CurrentValue   float64
	SuggestedValue float64
	Priority       string
	Status         string
	Rationale      string
}

const runColumns = `CAST(run_id AS VARCHAR), run_key, document, state, interrupted,
	question_count, max_iterations, net_improvement, best_iteration,
	repo_name, repo_commit, started_at, elapsed_seconds`

// LoadHistory loads every run with its trajectory and suggestions, newest
// first.
func LoadHistory(ctx context.Context, db *sql.DB) ([]Run, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, run_key DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var runs []Run
	var ids []string
	for rows.Next() {
		run, id, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	for i := range runs {
		if err := loadRunDetails(ctx, db, ids[i], &runs[i]); err != nil {
			return nil, fmt.Errorf("run %s: %w", runs[i].RunKey, err)
		}
	}
	return runs, nil
}

// LoadRun loads a single run by its run key.
func LoadRun(ctx context.Context, db *sql.DB, runKey string) (Run, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_key = ?`, runKey)
	run, id, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %s not found", runKey)
		}
		return Run{}, err
	}
	if err := loadRunDetails(ctx, db, id, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s rowScanner) (Run, string, error) {
	var (
		run        Run
		id         string
		document   sql.NullString
		repoName   sql.NullString
		repoCommit sql.NullString
		startedAt  sql.NullTime
	)
	if err := s.Scan(
		&id, &run.RunKey, &document, &run.State, &run.Interrupted,
		&run.Questions, &run.MaxIterations, &run.NetImprovement, &run.BestIteration,
		&repoName, &repoCommit, &startedAt, &run.ElapsedSeconds,
	); err != nil {
		return Run{}, "", err
	}
	run.Document = document.String
	run.RepoName = repoName.String
	run.RepoCommit = repoCommit.String
	run.StartedAt = startedAt.Time
	return run, id, nil
}

func loadRunDetails(ctx context.Context, db *sql.DB, runID string, run *Run) error {
	iterRows, err := db.QueryContext(ctx, `SELECT iteration, avg_composite, avg_accuracy,
		avg_completeness, avg_relevance, avg_clarity, scored, failed, convergence_checked, delta
		FROM iterations WHERE CAST(run_id AS VARCHAR) = ? ORDER BY iteration`, runID)
	if err != nil {
		return fmt.Errorf("query iterations: %w", err)
	}
	defer iterRows.Close()
	for iterRows.Next() {
		var it Iteration
		if err := iterRows.Scan(
			&it.Iteration, &it.AvgComposite, &it.AvgAccuracy,
			&it.AvgCompleteness, &it.AvgRelevance, &it.AvgClarity,
			&it.Scored, &it.Failed, &it.ConvergenceChecked, &it.Delta,
		); err != nil {
			return fmt.Errorf("scan iteration: %w", err)
		}
		run.Iterations = append(run.Iterations, it)
	}
	if err := iterRows.Err(); err != nil {
		return fmt.Errorf("iterate iterations: %w", err)
	}

	sugRows, err := db.QueryContext(ctx, `SELECT iteration, parameter, current_value, suggested_value,
		priority, status, COALESCE(rationale, '')
		FROM suggestions WHERE CAST(run_id AS VARCHAR) = ? ORDER BY iteration, parameter`, runID)
	if err != nil {
		return fmt.Errorf("query suggestions: %w", err)
	}
	defer sugRows.Close()
	for sugRows.Next() {
		var s Suggestion
		if err := sugRows.Scan(
			&s.Iteration, &s.Parameter, &s.CurrentValue, &s.SuggestedValue,
			&s.Priority, &s.Status, &s.Rationale,
		); err != nil {
			return fmt.Errorf("scan suggestion: %w", err)
		}
		run.Suggestions = append(run.Suggestions, s)
	}
	if err := sugRows.Err(); err != nil {
		return fmt.Errorf("iterate suggestions: %w", err)
	}
	return nil
}
