package duckdb_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

type constraintCase struct {
	name  string
	query string
	args  []interface{}
}

// TestPrimaryKeyConstraints ensures primary keys reject duplicates.
func TestPrimaryKeyConstraints(t *testing.T) {
	db, ctx := openTestDB(t)
	now := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	cases := []constraintCase{
		{
			name:  "runs",
			query: "INSERT INTO runs (run_id, run_key, state, started_at) VALUES (?, ?, 'done', ?)",
			args:  []interface{}{uuid.NewString(), "run-pk", now},
		},
		{
			name:  "questions",
			query: "INSERT INTO questions (question_id, question_key, spec, question_text) VALUES (?, ?, '{\"id\":\"q1\"}', 'What is indexed?')",
			args:  []interface{}{uuid.NewString(), "question-pk"},
		},
		{
			name:  "iterations",
			query: "INSERT INTO iterations (iteration_id, run_id, iteration) VALUES (?, ?, 1)",
			args:  []interface{}{uuid.NewString(), uuid.NewString()},
		},
		{
			name:  "answers",
			query: "INSERT INTO answers (answer_id, run_id, iteration, question_id) VALUES (?, ?, 1, ?)",
			args:  []interface{}{uuid.NewString(), uuid.NewString(), uuid.NewString()},
		},
		{
			name:  "scores",
			query: "INSERT INTO scores (score_id, run_id, iteration, question_id) VALUES (?, ?, 1, ?)",
			args:  []interface{}{uuid.NewString(), uuid.NewString(), uuid.NewString()},
		},
		{
			name:  "suggestions",
			query: "INSERT INTO suggestions (suggestion_id, run_id, iteration, parameter, priority) VALUES (?, ?, 1, 'top_k', 'high')",
			args:  []interface{}{uuid.NewString(), uuid.NewString()},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			execSQL(t, ctx, db, tc.query, tc.args...)
			if _, err := db.ExecContext(ctx, tc.query, tc.args...); err == nil {
				t.Fatalf("expected duplicate insert to fail for %s", tc.name)
			}
		})
	}
}

// TestUniqueConstraints ensures natural keys reject duplicates even under a
// fresh primary key, which is what makes re-ingestion idempotent.
func TestUniqueConstraints(t *testing.T) {
	db, ctx := openTestDB(t)
	cases := []constraintCase{
		{
			name:  "runs.run_key",
			query: "INSERT INTO runs (run_id, run_key, state) VALUES (?, 'run-unique', 'done')",
			args:  []interface{}{uuid.NewString()},
		},
		{
			name:  "questions.question_key",
			query: "INSERT INTO questions (question_id, question_key, spec, question_text) VALUES (?, 'question-unique', '{\"id\":\"q1\"}', 'What is indexed?')",
			args:  []interface{}{uuid.NewString()},
		},
		{
			name:  "iterations.run_iteration",
			query: "INSERT INTO iterations (iteration_id, run_id, iteration) VALUES (?, ?, 3)",
			args:  []interface{}{uuid.NewString(), uuid.NewString()},
		},
		{
			name:  "answers.run_iteration_question",
			query: "INSERT INTO answers (answer_id, run_id, iteration, question_id) VALUES (?, ?, 3, ?)",
			args:  []interface{}{uuid.NewString(), uuid.NewString(), uuid.NewString()},
		},
		{
			name:  "scores.run_iteration_question",
			query: "INSERT INTO scores (score_id, run_id, iteration, question_id) VALUES (?, ?, 3, ?)",
			args:  []interface{}{uuid.NewString(), uuid.NewString(), uuid.NewString()},
		},
		{
			name:  "suggestions.run_iteration_parameter",
			query: "INSERT INTO suggestions (suggestion_id, run_id, iteration, parameter, priority) VALUES (?, ?, 3, 'chunk_size', 'medium')",
			args:  []interface{}{uuid.NewString(), uuid.NewString()},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			execSQL(t, ctx, db, tc.query, tc.args...)
			secondArgs := append([]interface{}{}, tc.args...)
			secondArgs[0] = uuid.NewString()
			if _, err := db.ExecContext(ctx, tc.query, secondArgs...); err == nil {
				t.Fatalf("expected unique constraint to fail for %s", tc.name)
			}
		})
	}
}
