// Command generate_fixture builds a synthetic tuning history database for
// exercising the report and serve commands without running a real tune.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"ragtune/internal/duckdb"
	"ragtune/internal/pipeline"
)

// fixtureParams sizes the synthetic tuning history.
type fixtureParams struct {
	runs       int
	iterations int
	questions  int
}

func main() {
	outPath := flag.String("out", "", "output duckdb history file")
	runs := flag.Int("runs", 3, "number of synthetic runs")
	iterations := flag.Int("iterations", 4, "iterations per run")
	questions := flag.Int("questions", 12, "questions per run")
	flag.Parse()
	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: generate_fixture --out <duckdb file> [--runs N] [--iterations N] [--questions N]")
		os.Exit(2)
	}
	params := fixtureParams{runs: *runs, iterations: *iterations, questions: *questions}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := generateFixture(ctx, *outPath, params); err != nil {
		fmt.Fprintf(os.Stderr, "generate fixture: %v\n", err)
		os.Exit(1)
	}
}

func generateFixture(ctx context.Context, path string, p fixtureParams) error {
	if p.runs < 1 || p.iterations < 1 || p.questions < 1 {
		return fmt.Errorf("runs, iterations, and questions must be positive")
	}
	if err := removeIfExists(path); err != nil {
		return err
	}
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return fmt.Errorf("mkdir output dir: %w", err)
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := duckdb.EnsureSchema(db); err != nil {
		return err
	}

	questionIDs, err := insertQuestions(ctx, db, p.questions)
	if err != nil {
		return err
	}

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	staged := make([]scoreRow, 0, p.runs*p.iterations*p.questions)
	for run := 0; run < p.runs; run++ {
		rows, err := insertRun(ctx, db, run, p, base, questionIDs)
		if err != nil {
			return fmt.Errorf("run %d: %w", run, err)
		}
		staged = append(staged, rows...)
	}

	// Scores dominate the row count, so they go through the appender instead
	// of prepared inserts.
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	scores, err := newScoreAppender(conn)
	if err != nil {
		return err
	}
	for _, row := range staged {
		if err := scores.append(row); err != nil {
			return fmt.Errorf("append score: %w", err)
		}
	}
	if err := scores.close(); err != nil {
		return fmt.Errorf("flush scores: %w", err)
	}
	return nil
}

func insertQuestions(ctx context.Context, db *sql.DB, count int) ([]string, error) {
	types := []string{"factual", "conceptual", "analytical"}
	ids := make([]string, count)
	for q := 0; q < count; q++ {
		id := deterministicID("question", q)
		text := fmt.Sprintf("Synthetic question %d about the document.", q+1)
		spec := fmt.Sprintf(`{"id":"q%d","question":%q}`, q+1, text)
		if _, err := db.ExecContext(ctx,
			`INSERT INTO questions (question_id, question_key, spec, question_text, question_type) VALUES (?, ?, ?, ?, ?)`,
			id, deterministicID("question-key", q), spec, text, types[q%len(types)],
		); err != nil {
			return nil, fmt.Errorf("insert question %d: %w", q, err)
		}
		ids[q] = id
	}
	return ids, nil
}

func insertRun(ctx context.Context, db *sql.DB, run int, p fixtureParams, base time.Time, questionIDs []string) ([]scoreRow, error) {
	runID := deterministicID("run", run)
	runUUID, err := parseDuckDBUUID(runID)
	if err != nil {
		return nil, err
	}
	startedAt := base.Add(time.Duration(run) * time.Hour)
	runKey := fmt.Sprintf("%s-%08x", startedAt.Format("20060102T150405Z"), run+1)

	initial := pipeline.Params{TopK: 7, SimilarityThreshold: 0.65, LLMTemperature: 0.2, ChunkSize: 800, ChunkOverlap: 150}
	tuned := initial
	tuned.TopK = 10
	initialJSON, err := json.Marshal(initial)
	if err != nil {
		return nil, err
	}
	tunedJSON, err := json.Marshal(tuned)
	if err != nil {
		return nil, err
	}

	first := iterationComposite(run, 1, p.questions)
	last := iterationComposite(run, p.iterations, p.questions)
	state := "converged"
	if run%2 == 1 {
		state = "exhausted"
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO runs (
		   run_id, run_key, document, state, interrupted, question_count,
		   max_iterations, net_improvement, best_iteration,
		   initial_config, final_config, best_config,
		   started_at, elapsed_seconds
		 ) VALUES (?, ?, ?, ?, FALSE, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, runKey, "docs/synthetic-manual.pdf", state, p.questions,
		p.iterations, round2(last-first), p.iterations,
		string(initialJSON), string(tunedJSON), string(tunedJSON),
		startedAt, float64(p.iterations)*30,
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	iterStmt, err := tx.PrepareContext(ctx, `INSERT INTO iterations (
	   iteration_id, run_id, iteration, started_at, elapsed_seconds,
	   convergence_checked, delta, config, total, scored, failed,
	   avg_accuracy, avg_completeness, avg_relevance, avg_clarity, avg_composite,
	   weak_count, success_rate, avg_query_ms, avg_sources
	 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer iterStmt.Close()
	answerStmt, err := tx.PrepareContext(ctx, `INSERT INTO answers (
	   answer_id, run_id, iteration, question_id, ordinal,
	   answer, sources, source_count, retrieval_time_ms, generation_time_ms
	 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer answerStmt.Close()
	suggestionStmt, err := tx.PrepareContext(ctx, `INSERT INTO suggestions (
	   suggestion_id, run_id, iteration, parameter,
	   current_value, suggested_value, rationale, priority,
	   applies_without_reindex, status
	 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer suggestionStmt.Close()

	staged := make([]scoreRow, 0, p.iterations*p.questions)
	prev := 0.0
	for it := 1; it <= p.iterations; it++ {
		avg := iterationComposite(run, it, p.questions)
		weakCount := 0
		for q := 0; q < p.questions; q++ {
			if questionComposite(run, it, q) < 6.0 {
				weakCount++
			}
		}
		config := initial
		if it > 1 {
			config = tuned
		}
		configJSON, err := json.Marshal(config)
		if err != nil {
			return nil, err
		}
		delta := 0.0
		if it >= 2 {
			delta = round2(math.Abs(avg - prev))
		}
		if _, err := iterStmt.ExecContext(ctx,
			deterministicID(fmt.Sprintf("iteration-%d", run), it),
			runID, it, startedAt.Add(time.Duration(it-1)*30*time.Second), 30.0,
			it >= 2, delta, string(configJSON),
			p.questions, p.questions, 0,
			clampScore(avg-0.3), clampScore(avg-0.1), clampScore(avg+0.2), clampScore(avg+0.2), avg,
			weakCount, 1.0, 400+float64(it)*10, 3.0,
		); err != nil {
			return nil, fmt.Errorf("insert iteration %d: %w", it, err)
		}
		prev = avg

		for q := 0; q < p.questions; q++ {
			sources, err := json.Marshal([]pipeline.Source{{
				Location:   fmt.Sprintf("doc p.%d", q+1),
				Similarity: 0.8,
			}})
			if err != nil {
				return nil, err
			}
			if _, err := answerStmt.ExecContext(ctx,
				deterministicID(fmt.Sprintf("answer-%d-%d", run, it), q),
				runID, it, questionIDs[q], q,
				fmt.Sprintf("Synthetic answer %d for question %d.", it, q+1),
				string(sources), 1, 120, 300,
			); err != nil {
				return nil, fmt.Errorf("insert answer %d/%d: %w", it, q, err)
			}

			questionUUID, err := parseDuckDBUUID(questionIDs[q])
			if err != nil {
				return nil, err
			}
			scoreUUID, err := parseDuckDBUUID(deterministicID(fmt.Sprintf("score-%d-%d", run, it), q))
			if err != nil {
				return nil, err
			}
			composite := questionComposite(run, it, q)
			var weaknesses interface{}
			if composite < 6.0 {
				weaknesses = `["answer lacks supporting detail"]`
			}
			staged = append(staged, scoreRow{
				id:           scoreUUID,
				runID:        runUUID,
				iteration:    int32(it),
				questionID:   questionUUID,
				accuracy:     clampScore(composite - 0.3),
				completeness: clampScore(composite - 0.1),
				relevance:    clampScore(composite + 0.2),
				clarity:      clampScore(composite + 0.2),
				composite:    composite,
				weaknesses:   weaknesses,
			})
		}

		if it == 1 {
			if _, err := suggestionStmt.ExecContext(ctx,
				deterministicID(fmt.Sprintf("suggestion-%d", run), 0),
				runID, it, pipeline.ParamTopK, 7.0, 10.0,
				"retrieval misses push accuracy down", "high", true, duckdb.StatusApplied,
			); err != nil {
				return nil, fmt.Errorf("insert suggestion: %w", err)
			}
			if _, err := suggestionStmt.ExecContext(ctx,
				deterministicID(fmt.Sprintf("suggestion-%d", run), 1),
				runID, it, pipeline.ParamChunkSize, 800.0, 600.0,
				"answers cite overly broad chunks", "medium", false, duckdb.StatusSkippedReindex,
			); err != nil {
				return nil, fmt.Errorf("insert suggestion: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return staged, nil
}

// questionComposite is the deterministic judge score for one question. Later
// iterations score higher and later runs start slightly lower, so trajectories
// look plausible in the report.
func questionComposite(run, iteration, q int) float64 {
	offset := (float64(q%3) - 1) * 0.2
	return clampScore(5.8 + 0.45*float64(iteration) - 0.1*float64(run) + offset)
}

func iterationComposite(run, iteration, questions int) float64 {
	total := 0.0
	for q := 0; q < questions; q++ {
		total += questionComposite(run, iteration, q)
	}
	return round2(total / float64(questions))
}

func clampScore(v float64) float64 {
	if v > 9.5 {
		v = 9.5
	}
	if v < 0 {
		v = 0
	}
	return round2(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
