package report

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"ragtune/internal/duckdb"
	duckdbtesting "ragtune/internal/duckdb/testing"
	"ragtune/internal/testutil"
)

const testTimeout = 2 * time.Second

const (
	olderRunKey = "20260310T090000Z-aaaaaaaa"
	newerRunKey = "20260312T110000Z-bbbbbbbb"
)

// seedHistory inserts two runs: an older converged run with a full
// trajectory and suggestions, and a newer interrupted run with no children.
func seedHistory(t *testing.T, ctx context.Context, db *sql.DB) {
	t.Helper()
	olderID := uuid.NewString()
	newerID := uuid.NewString()
	execSQL(t, ctx, db,
		`INSERT INTO runs (run_id, run_key, document, state, interrupted, question_count,
		   max_iterations, net_improvement, best_iteration, repo_name, repo_commit,
		   started_at, elapsed_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		olderID, olderRunKey, "docs/manual.pdf", "converged", false, 12,
		5, 1.3, 3, "manual", "0123456789abcdef0123",
		time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 42.5)
	execSQL(t, ctx, db,
		`INSERT INTO runs (run_id, run_key, state, interrupted, question_count,
		   max_iterations, net_improvement, best_iteration, started_at, elapsed_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		newerID, newerRunKey, "exhausted", true, 8,
		2, 0.0, 0, time.Date(2026, 3, 12, 11, 0, 0, 0, time.UTC), 7.25)

	iterations := []struct {
		iteration int
		composite float64
		checked   bool
		delta     float64
	}{
		{1, 6.2, false, 0},
		{2, 7.5, true, 1.3},
	}
	for _, it := range iterations {
		execSQL(t, ctx, db,
			`INSERT INTO iterations (iteration_id, run_id, iteration, convergence_checked, delta,
			   total, scored, failed, avg_accuracy, avg_completeness, avg_relevance, avg_clarity, avg_composite)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), olderID, it.iteration, it.checked, it.delta,
			12, 12, 0, it.composite, it.composite, it.composite, it.composite, it.composite)
	}
	execSQL(t, ctx, db,
		`INSERT INTO suggestions (suggestion_id, run_id, iteration, parameter,
		   current_value, suggested_value, rationale, priority, applies_without_reindex, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), olderID, 1, "top_k",
		7.0, 10.0, "retrieval misses push accuracy down", "high", true, duckdb.StatusApplied)
	execSQL(t, ctx, db,
		`INSERT INTO suggestions (suggestion_id, run_id, iteration, parameter,
		   current_value, suggested_value, rationale, priority, applies_without_reindex, status)
		 VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?)`,
		uuid.NewString(), olderID, 1, "chunk_size",
		800.0, 600.0, "medium", false, duckdb.StatusSkippedReindex)
}

func openHistoryDB(t *testing.T) (*sql.DB, context.Context) {
	t.Helper()
	ctx := testutil.Context(t, testTimeout)
	db := duckdbtesting.Open(t, ":memory:")
	duckdbtesting.ApplySchema(t, db)
	return db, ctx
}

func execSQL(t *testing.T, ctx context.Context, db *sql.DB, query string, args ...interface{}) {
	t.Helper()
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		t.Fatalf("exec sql failed: %v", err)
	}
}

// TestLoadHistoryOrdersNewestFirst verifies both runs load with their
// trajectories attached, newest run first.
func TestLoadHistoryOrdersNewestFirst(t *testing.T) {
	db, ctx := openHistoryDB(t)
	seedHistory(t, ctx, db)

	runs, err := LoadHistory(ctx, db)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunKey != newerRunKey || runs[1].RunKey != olderRunKey {
		t.Fatalf("unexpected order: %s, %s", runs[0].RunKey, runs[1].RunKey)
	}

	newer := runs[0]
	if !newer.Interrupted || newer.Document != "" || len(newer.Iterations) != 0 {
		t.Fatalf("unexpected interrupted run: %+v", newer)
	}

	older := runs[1]
	if older.Document != "docs/manual.pdf" || older.Questions != 12 || older.BestIteration != 3 {
		t.Fatalf("unexpected run fields: %+v", older)
	}
	if older.NetImprovement != 1.3 || older.RepoCommit != "0123456789abcdef0123" {
		t.Fatalf("unexpected run fields: %+v", older)
	}
	if len(older.Iterations) != 2 {
		t.Fatalf("expected 2 iterations, got %d", len(older.Iterations))
	}
	second := older.Iterations[1]
	if second.Iteration != 2 || !second.ConvergenceChecked || second.Delta != 1.3 || second.AvgComposite != 7.5 {
		t.Fatalf("unexpected iteration: %+v", second)
	}
	if len(older.Suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(older.Suggestions))
	}
	// Ordered by iteration then parameter.
	if older.Suggestions[0].Parameter != "chunk_size" || older.Suggestions[0].Rationale != "" {
		t.Fatalf("unexpected suggestion: %+v", older.Suggestions[0])
	}
	if older.Suggestions[1].Parameter != "top_k" || older.Suggestions[1].Status != duckdb.StatusApplied {
		t.Fatalf("unexpected suggestion: %+v", older.Suggestions[1])
	}
}

// TestLoadRunByKey verifies single-run lookup and the not-found error.
func TestLoadRunByKey(t *testing.T) {
	db, ctx := openHistoryDB(t)
	seedHistory(t, ctx, db)

	run, err := LoadRun(ctx, db, olderRunKey)
	if err != nil {
		t.Fatalf("load run: %v", err)
	}
	if run.RunKey != olderRunKey || len(run.Iterations) != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}

	if _, err := LoadRun(ctx, db, "20990101T000000Z-ffffffff"); err == nil {
		t.Fatalf("expected not-found error")
	} else if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestRenderReportHTML verifies the rendered page includes run metadata,
// the trajectory table and the suggestion arrows.
func TestRenderReportHTML(t *testing.T) {
	db, ctx := openHistoryDB(t)
	seedHistory(t, ctx, db)

	runs, err := LoadHistory(ctx, db)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	html, err := RenderReportHTML(ctx, runs)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, token := range []string{
		olderRunKey,
		newerRunKey,
		"docs/manual.pdf",
		"exhausted (interrupted)",
		"<table",
		"top_k",
		"&rarr;",
		"+1.30",
	} {
		if !strings.Contains(html, token) {
			t.Fatalf("expected report to include %q", token)
		}
	}
}

// TestRenderReportHTMLEmpty verifies the empty-state message.
func TestRenderReportHTMLEmpty(t *testing.T) {
	ctx := testutil.Context(t, testTimeout)
	html, err := RenderReportHTML(ctx, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "No runs ingested yet.") {
		t.Fatalf("expected empty-state message")
	}
}

// TestBuildReportFromFile verifies the end-to-end path: open a history file
// read-only, load it and render the page.
func TestBuildReportFromFile(t *testing.T) {
	ctx := testutil.Context(t, testTimeout)
	path := filepath.Join(t.TempDir(), "history.duckdb")

	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := duckdb.EnsureSchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	seedHistory(t, ctx, db)
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	html, err := BuildReport(ctx, path)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if !strings.Contains(html, olderRunKey) {
		t.Fatalf("expected report to include run key")
	}
}

// TestBuildReportMissingDatabase verifies a missing file is rejected before
// the driver is asked to create one.
func TestBuildReportMissingDatabase(t *testing.T) {
	ctx := testutil.Context(t, testTimeout)
	if _, err := BuildReport(ctx, filepath.Join(t.TempDir(), "absent.duckdb")); err == nil {
		t.Fatalf("expected error for missing database")
	}
}

// TestFormatHelpers pins the formatting the page relies on.
func TestFormatHelpers(t *testing.T) {
	if got := formatValue(10); got != "10" {
		t.Fatalf("formatValue(10) = %s", got)
	}
	if got := formatValue(0.65); got != "0.65" {
		t.Fatalf("formatValue(0.65) = %s", got)
	}
	if got := formatDelta(1.3); got != "+1.30" {
		t.Fatalf("formatDelta(1.3) = %s", got)
	}
	if got := formatDelta(-0.2); got != "-0.20" {
		t.Fatalf("formatDelta(-0.2) = %s", got)
	}
	if got := stateLabel("exhausted", true); got != "exhausted (interrupted)" {
		t.Fatalf("stateLabel = %s", got)
	}
	if got := shortCommit("0123456789abcdef0123"); got != "0123456789ab" {
		t.Fatalf("shortCommit = %s", got)
	}
}
