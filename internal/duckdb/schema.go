package duckdb

import (
	"database/sql"
	_ "embed"
	"errors"

	// Callers open history databases through database/sql, so the driver
	// is registered here once for the whole module.
	_ "github.com/duckdb/duckdb-go/v2"
)

// schemaDDL holds the run history schema definition.
//
//go:embed schema.sql
var schemaDDL string

// SchemaDDL returns the DDL used for initializing history databases.
func SchemaDDL() string {
	return schemaDDL
}

// EnsureSchema applies the schema DDL to the provided database connection.
// Every statement is idempotent, so applying to an existing file is safe.
func EnsureSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("duckdb: db is nil")
	}
	_, err := db.Exec(schemaDDL)
	return err
}
