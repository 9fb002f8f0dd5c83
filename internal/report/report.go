package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/duckdb/duckdb-go/v2"
)

// BuildReport opens a history database read-only and renders the full HTML
// report for every ingested run.
func BuildReport(ctx context.Context, dbPath string) (string, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("history database: %w", err)
	}
	db, err := sql.Open("duckdb", dbPath+"?access_mode=read_only")
	if err != nil {
		return "", fmt.Errorf("open history database: %w", err)
	}
	defer db.Close()
	runs, err := LoadHistory(ctx, db)
	if err != nil {
		return "", err
	}
	return RenderReportHTML(ctx, runs)
}
