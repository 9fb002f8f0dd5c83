package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ragtune/internal/advisor"
	"ragtune/internal/eval"
	"ragtune/internal/loop"
	"ragtune/internal/question"
	"ragtune/internal/runner"
)

// Suggestion status values stored in the suggestions table.
const (
	StatusSuggested      = "suggested"
	StatusApplied        = "applied"
	StatusSkippedReindex = "skipped_reindex"
)

// QuestionKey returns the stable fingerprint that deduplicates a question
// across runs. Only scoring-relevant fields participate; concept tags and
// segment previews can change without minting a new row.
func QuestionKey(q question.Question) (string, error) {
	payload := map[string]interface{}{
		"id":       q.ID,
		"question": q.Text,
		"type":     string(q.Type),
		"expected": q.ExpectedAnswer,
	}
	return FingerprintJSON(payload)
}

// UpsertRun inserts the run row for a finished run, keyed naturally by the
// run directory id. Returns the row UUID whether inserted or already present.
func UpsertRun(ctx context.Context, db *sql.DB, result *loop.RunResult) (string, error) {
	if ctx == nil {
		return "", errors.New("duckdb: context is nil")
	}
	if db == nil {
		return "", errors.New("duckdb: db is nil")
	}
	if result == nil {
		return "", errors.New("duckdb: run result is nil")
	}
	if result.RunID == "" {
		return "", errors.New("duckdb: run id is empty")
	}
	initial, err := CanonicalJSON(result.InitialConfig)
	if err != nil {
		return "", err
	}
	final, err := CanonicalJSON(result.FinalConfig)
	if err != nil {
		return "", err
	}
	best, err := CanonicalJSON(result.BestConfig)
	if err != nil {
		return "", err
	}
	var repoName, repoCommit, repoBranch, repoDirty interface{}
	if result.Repo != nil {
		repoName = nullIfEmpty(result.Repo.Name)
		repoCommit = nullIfEmpty(result.Repo.Commit)
		repoBranch = nullIfEmpty(result.Repo.Branch)
		repoDirty = result.Repo.Dirty
	}
	id := uuid.NewString()
	if _, err := db.ExecContext(
		ctx,
		`INSERT INTO runs (
		   run_id, run_key, document, state, interrupted, question_count,
		   max_iterations, net_improvement, best_iteration,
		   initial_config, final_config, best_config,
		   repo_name, repo_commit, repo_branch, repo_dirty,
		   started_at, elapsed_seconds, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())
		 ON CONFLICT (run_key) DO NOTHING`,
		id,
		result.RunID,
		nullIfEmpty(result.Document),
		string(result.State),
		result.Interrupted,
		result.Questions,
		result.MaxIterations,
		result.NetImprovement,
		result.BestIteration,
		string(initial),
		string(final),
		string(best),
		repoName,
		repoCommit,
		repoBranch,
		repoDirty,
		result.StartedAt,
		result.ElapsedSeconds,
	); err != nil {
		return "", fmt.Errorf("upsert run: %w", err)
	}
	outID, err := lookupID(ctx, db, "runs", "run_id", "run_key", result.RunID)
	if err != nil {
		return "", fmt.Errorf("lookup run id: %w", err)
	}
	return outID, nil
}

// UpsertQuestion inserts a question by its fingerprint key, returning the row
// UUID and the key. Re-inserting an identical question is a no-op.
func UpsertQuestion(ctx context.Context, db *sql.DB, q question.Question) (string, string, error) {
	if ctx == nil {
		return "", "", errors.New("duckdb: context is nil")
	}
	if db == nil {
		return "", "", errors.New("duckdb: db is nil")
	}
	key, err := QuestionKey(q)
	if err != nil {
		return "", "", err
	}
	spec, err := CanonicalJSON(q)
	if err != nil {
		return "", "", err
	}
	id := uuid.NewString()
	if _, err := db.ExecContext(
		ctx,
		`INSERT INTO questions (question_id, question_key, spec, question_text, question_type, created_at)
		 VALUES (?, ?, ?, ?, ?, now())
		 ON CONFLICT (question_key) DO NOTHING`,
		id,
		key,
		string(spec),
		q.Text,
		string(q.Type),
	); err != nil {
		return "", "", fmt.Errorf("upsert question: %w", err)
	}
	outID, err := lookupID(ctx, db, "questions", "question_id", "question_key", key)
	if err != nil {
		return "", "", fmt.Errorf("lookup question id: %w", err)
	}
	return outID, key, nil
}

func insertIteration(ctx context.Context, db *sql.DB, runID string, summary loop.IterationSummary) error {
	config, err := CanonicalJSON(summary.Config)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(
		ctx,
		`INSERT INTO iterations (
		   iteration_id, run_id, iteration, started_at, elapsed_seconds,
		   convergence_checked, delta, config,
		   total, scored, failed,
		   avg_accuracy, avg_completeness, avg_relevance, avg_clarity, avg_composite,
		   weak_count, success_rate, avg_query_ms, avg_sources
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, iteration) DO NOTHING`,
		uuid.NewString(),
		runID,
		summary.Iteration,
		summary.StartedAt,
		summary.ElapsedSeconds,
		summary.ConvergenceChecked,
		summary.Delta,
		string(config),
		summary.Statistics.Total,
		summary.Statistics.Scored,
		summary.Statistics.Failed,
		summary.Statistics.AvgAccuracy,
		summary.Statistics.AvgCompleteness,
		summary.Statistics.AvgRelevance,
		summary.Statistics.AvgClarity,
		summary.Statistics.AvgComposite,
		summary.Statistics.WeakCount,
		summary.Batch.SuccessRate,
		summary.Batch.AvgQueryMs,
		summary.Batch.AvgSources,
	); err != nil {
		return fmt.Errorf("insert iteration %d: %w", summary.Iteration, err)
	}
	return nil
}

func insertAnswer(ctx context.Context, db *sql.DB, runID, questionID string, iteration, ordinal int, record runner.AnswerRecord) error {
	var sources interface{}
	if len(record.Sources) > 0 {
		data, err := json.Marshal(record.Sources)
		if err != nil {
			return fmt.Errorf("encode sources: %w", err)
		}
		sources = string(data)
	}
	if _, err := db.ExecContext(
		ctx,
		`INSERT INTO answers (
		   answer_id, run_id, iteration, question_id, ordinal,
		   answer, sources, source_count, retrieval_time_ms, generation_time_ms, error
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, iteration, question_id) DO NOTHING`,
		uuid.NewString(),
		runID,
		iteration,
		questionID,
		ordinal,
		nullIfEmpty(record.Answer),
		sources,
		len(record.Sources),
		record.RetrievalTimeMs,
		record.GenerationTimeMs,
		nullIfEmpty(record.Error),
	); err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func insertScore(ctx context.Context, db *sql.DB, runID, questionID string, iteration int, record eval.ScoreRecord) error {
	weaknesses, err := jsonOrNull(record.Weaknesses)
	if err != nil {
		return fmt.Errorf("encode weaknesses: %w", err)
	}
	missing, err := jsonOrNull(record.MissingInfo)
	if err != nil {
		return fmt.Errorf("encode missing info: %w", err)
	}
	if _, err := db.ExecContext(
		ctx,
		`INSERT INTO scores (
		   score_id, run_id, iteration, question_id,
		   accuracy, completeness, relevance, clarity, composite,
		   weaknesses, missing_info, error
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, iteration, question_id) DO NOTHING`,
		uuid.NewString(),
		runID,
		iteration,
		questionID,
		record.Accuracy,
		record.Completeness,
		record.Relevance,
		record.Clarity,
		record.Composite,
		weaknesses,
		missing,
		nullIfEmpty(record.Error),
	); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func insertSuggestion(ctx context.Context, db *sql.DB, runID string, iteration int, s advisor.Suggestion, status string) error {
	if _, err := db.ExecContext(
		ctx,
		`INSERT INTO suggestions (
		   suggestion_id, run_id, iteration, parameter,
		   current_value, suggested_value, rationale, priority,
		   applies_without_reindex, status
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, iteration, parameter) DO NOTHING`,
		uuid.NewString(),
		runID,
		iteration,
		s.Parameter,
		s.CurrentValue,
		s.SuggestedValue,
		nullIfEmpty(s.Rationale),
		string(s.Priority),
		s.AppliesWithoutReindex,
		status,
	); err != nil {
		return fmt.Errorf("insert suggestion %s: %w", s.Parameter, err)
	}
	return nil
}
