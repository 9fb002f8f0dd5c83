package main

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	duckdbdriver "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
)

type duckdbUUID = duckdbdriver.UUID

// scoreRow is one scores-table row staged for bulk append. Field order follows
// the table's column order, which the appender requires.
type scoreRow struct {
	id           duckdbUUID
	runID        duckdbUUID
	iteration    int32
	questionID   duckdbUUID
	accuracy     float64
	completeness float64
	relevance    float64
	clarity      float64
	composite    float64
	weaknesses   interface{}
}

// scoreAppender bulk-loads score rows through the DuckDB appender API.
type scoreAppender struct {
	appender *duckdbdriver.Appender
}

func newScoreAppender(conn *sql.Conn) (*scoreAppender, error) {
	var appender *duckdbdriver.Appender
	if err := conn.Raw(func(driverConn any) error {
		rawConn, ok := driverConn.(driver.Conn)
		if !ok {
			return fmt.Errorf("duckdb driver connection unavailable (got %T)", driverConn)
		}
		var err error
		appender, err = duckdbdriver.NewAppenderFromConn(rawConn, "", "scores")
		return err
	}); err != nil {
		return nil, err
	}
	if appender == nil {
		return nil, fmt.Errorf("duckdb appender initialization failed")
	}
	return &scoreAppender{appender: appender}, nil
}

func (a *scoreAppender) append(row scoreRow) error {
	return a.appender.AppendRow(
		row.id, row.runID, row.iteration, row.questionID,
		row.accuracy, row.completeness, row.relevance, row.clarity, row.composite,
		row.weaknesses, nil, nil,
	)
}

func (a *scoreAppender) close() error {
	return a.appender.Close()
}

// parseDuckDBUUID converts a UUID string into the duckdb-go UUID wrapper.
func parseDuckDBUUID(value string) (duckdbUUID, error) {
	parsed, err := uuid.Parse(value)
	if err != nil {
		return duckdbUUID{}, err
	}
	return duckdbUUID(parsed), nil
}

// dirOf returns the parent directory for a file path.
func dirOf(path string) string {
	if path == "" {
		return "."
	}
	if idx := len(path) - 1; idx >= 0 && path[idx] == os.PathSeparator {
		return path
	}
	return filepath.Dir(path)
}

// removeIfExists deletes an existing fixture file so we always start fresh.
func removeIfExists(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove existing fixture: %w", err)
		}
		return nil
	}
	if os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("stat fixture: %w", err)
}

// deterministicID generates a repeatable UUID for fixture rows.
func deterministicID(prefix string, index int) string {
	return uuid.NewSHA1(fixtureNamespace, []byte(fmt.Sprintf("%s-%d", prefix, index))).String()
}

// fixtureNamespace ensures stable UUIDs across fixture runs.
var fixtureNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
