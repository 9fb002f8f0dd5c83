package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"ragtune/internal/duckdb"
)

// ingestRun is a test seam for the history loader.
var ingestRun = duckdb.IngestRun

// runIngest builds the handler for the ingest command.
func runIngest(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		fs := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		fs.SetOutput(stderr)
		dbPath := fs.String("db", "", "History database file (created if missing)")
		if err := fs.Parse(args); err != nil {
			if err == flag.ErrHelp {
				printCommandUsage(cmd, stdout)
				return ExitOK
			}
			return ExitUsage
		}

		runDir := fs.Arg(0)
		if runDir == "" {
			fmt.Fprintln(stderr, "Missing <run-dir>")
			return ExitUsage
		}
		if fs.NArg() > 1 {
			fmt.Fprintln(stderr, "Too many arguments")
			return ExitUsage
		}
		if *dbPath == "" {
			fmt.Fprintln(stderr, "Missing --db")
			return ExitUsage
		}
		info, err := os.Stat(runDir)
		if err != nil {
			fmt.Fprintf(stderr, "Run directory not found: %v\n", err)
			return ExitError
		}
		if !info.IsDir() {
			fmt.Fprintf(stderr, "Not a run directory: %s\n", runDir)
			return ExitError
		}

		db, err := sql.Open("duckdb", *dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "Open database: %v\n", err)
			return ExitError
		}
		defer db.Close()
		if err := duckdb.EnsureSchema(db); err != nil {
			fmt.Fprintf(stderr, "Prepare database: %v\n", err)
			return ExitError
		}

		stats, err := ingestRun(context.Background(), db, runDir)
		if err != nil {
			fmt.Fprintf(stderr, "Ingest failed: %v\n", err)
			return ExitError
		}

		fmt.Fprintf(stdout, "Ingested run %s into %s\n", stats.RunID, *dbPath)
		fmt.Fprintf(stdout, "  questions: %d, iterations: %d, answers: %d, scores: %d, suggestions: %d\n",
			stats.Questions, stats.Iterations, stats.Answers, stats.Scores, stats.Suggestions)
		return ExitOK
	}
}
