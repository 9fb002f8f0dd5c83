package reportserver

import (
	"errors"
	"io"
	"net/http"

	"ragtune/internal/report"
)

// NewHandler builds the HTTP handler serving the rendered report and the
// history database file.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("reportserver: db path is required")
	}

	mux := http.NewServeMux()
	mux.Handle("/", serveReport(cfg.DBPath))
	mux.Handle("/data/history.duckdb", serveDatabase(cfg.DBPath))
	return mux, nil
}

// serveReport renders the report page from the database on every request,
// so the page always reflects the latest ingest.
func serveReport(dbPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		html, err := report.BuildReport(r.Context(), dbPath)
		if err != nil {
			http.Error(w, "render report: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, html)
	})
}

// serveDatabase serves the DuckDB file from disk so the raw history can be
// pulled for local analysis.
func serveDatabase(dbPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, dbPath)
	})
}
