package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// nullIfEmpty converts an empty string into a SQL NULL argument.
func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// jsonOrNull encodes a string slice as a JSON array, or NULL when empty.
func jsonOrNull(values []string) (interface{}, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// lookupID fetches a single ID column value for a row keyed by keyColumn.
func lookupID(ctx context.Context, db *sql.DB, table, idColumn, keyColumn, key string) (string, error) {
	query := fmt.Sprintf("SELECT CAST(%s AS VARCHAR) FROM %s WHERE %s = ?", idColumn, table, keyColumn)
	var id string
	if err := db.QueryRowContext(ctx, query, key).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}
