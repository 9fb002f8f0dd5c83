// Package duckdbtesting opens throwaway history databases for tests.
package duckdbtesting

import (
	"database/sql"
	"testing"
	"time"

	"ragtune/internal/duckdb"
	"ragtune/internal/testutil"

	_ "github.com/duckdb/duckdb-go/v2"
)

const openTimeout = 2 * time.Second

// Open connects to dsn and pings it. The connection closes with the test.
// An empty dsn opens an in-memory database.
func Open(t testing.TB, dsn string) *sql.DB {
	t.Helper()
	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	if err := conn.PingContext(testutil.Context(t, openTimeout)); err != nil {
		t.Fatalf("ping duckdb: %v", err)
	}
	return conn
}

// ApplySchema installs the run-history DDL on db.
func ApplySchema(t testing.TB, db *sql.DB) {
	t.Helper()
	if _, err := db.ExecContext(testutil.Context(t, openTimeout), duckdb.SchemaDDL()); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
}
