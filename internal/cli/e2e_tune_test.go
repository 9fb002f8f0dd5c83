package cli

// End-to-end tests drive the real controller, executor, judge and rule
// advisor through the CLI against in-process HTTP fakes. Nothing leaves
// the test binary.

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"ragtune/internal/loop"
)

// fakePipeline serves the answer endpoint and records the top_k of every
// request, so tests can observe applied parameter changes reaching the
// pipeline under test.
type fakePipeline struct {
	mu   sync.Mutex
	topK []int
}

func (f *fakePipeline) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
			TopK     int    `json:"top_k"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.topK = append(f.topK, req.TopK)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer": "The retrieval layer hands the top matching chunks to the generator.",
			"sources": []map[string]any{
				{"location": "p1", "similarity": 0.82, "excerpt": "top matches above the similarity threshold"},
			},
			"retrieval_time_ms":  3,
			"generation_time_ms": 5,
		})
	}
}

func (f *fakePipeline) observedTopK() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.topK...)
}

// startJudge serves an OpenRouter-compatible completions endpoint returning
// the same verdict for every answer: composite 8.0, so two iterations always
// converge.
func startJudge(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		verdict := `{"accuracy": 8, "completeness": 7, "relevance": 8, "clarity": 9, "weaknesses": ["terse"], "missing_info": []}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": verdict}},
			},
			"usage": map[string]int{"total_tokens": 42},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// tuneProject stands up the fakes and a project directory, returning the
// project dir and the recording pipeline.
func tuneProject(t *testing.T) (string, string, string, *fakePipeline) {
	t.Helper()
	pipe := &fakePipeline{}
	pipeSrv := httptest.NewServer(pipe.handler())
	t.Cleanup(pipeSrv.Close)
	judgeSrv := startJudge(t)

	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_BASE_URL", judgeSrv.URL)

	dir := t.TempDir()
	configPath := writeProject(t, dir, pipeSrv.URL+"/answer")
	questionsPath := writeQuestions(t, dir)
	return dir, configPath, questionsPath, pipe
}

// readRunResult locates the single run directory under the project's output
// root and decodes its result.json.
func readRunResult(t *testing.T, dir string) (string, loop.RunResult) {
	t.Helper()
	runsDir := filepath.Join(dir, "ragtune-output", "runs")
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		t.Fatalf("read runs dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one run directory, got %d", len(entries))
	}
	runDir := filepath.Join(runsDir, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(runDir, "result.json"))
	if err != nil {
		t.Fatalf("read result.json: %v", err)
	}
	var result loop.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode result.json: %v", err)
	}
	return runDir, result
}

// TestTuneEndToEnd runs a full two-iteration tuning loop: the fixed judge
// verdict converges it, and the low source count makes the top_k rule fire
// and apply between iterations.
func TestTuneEndToEnd(t *testing.T) {
	dir, configPath, questionsPath, pipe := tuneProject(t)

	var out, stderr bytes.Buffer
	code := Run([]string{"tune", "--config", configPath, "--questions", questionsPath, "--ui", "plain"}, &out, &stderr)
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d\nstdout: %s\nstderr: %s", ExitOK, code, out.String(), stderr.String())
	}

	for _, want := range []string{
		"Questions: 2 (loaded)",
		"--- Iteration 1 ---",
		"Applied top_k 7 -> 10",
		"--- Iteration 2 ---",
		"FINAL REPORT",
		"completed",
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out.String())
		}
	}

	runDir, result := readRunResult(t, dir)
	if result.State != loop.StateConverged {
		t.Fatalf("expected converged run, got %q", result.State)
	}
	if result.Interrupted {
		t.Fatalf("did not expect an interrupted run")
	}
	if result.Questions != 2 {
		t.Fatalf("expected 2 questions, got %d", result.Questions)
	}
	if len(result.Iterations) != 2 {
		t.Fatalf("expected 2 iterations, got %d", len(result.Iterations))
	}
	if len(result.Trajectory) != 2 || result.Trajectory[0] != 8 || result.Trajectory[1] != 8 {
		t.Fatalf("unexpected trajectory: %v", result.Trajectory)
	}
	if result.InitialConfig.TopK != 7 {
		t.Fatalf("expected initial top_k 7, got %d", result.InitialConfig.TopK)
	}
	if result.FinalConfig.TopK != 10 {
		t.Fatalf("expected applied top_k 10, got %d", result.FinalConfig.TopK)
	}

	for _, name := range []string{
		"questions.yml",
		"report.txt",
		filepath.Join("iterations", "iter_1", "answers.json"),
		filepath.Join("iterations", "iter_1", "scores.json"),
		filepath.Join("iterations", "iter_1", "summary.json"),
		filepath.Join("iterations", "iter_1", "improvements.txt"),
		filepath.Join("iterations", "iter_2", "summary.json"),
	} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Fatalf("expected artifact %s: %v", name, err)
		}
	}

	// Iteration 1 queried with the configured top_k, iteration 2 with the
	// applied suggestion.
	topK := pipe.observedTopK()
	if len(topK) != 4 {
		t.Fatalf("expected 4 pipeline calls, got %d", len(topK))
	}
	if topK[0] != 7 || topK[1] != 7 {
		t.Fatalf("expected first iteration to query with top_k 7, got %v", topK)
	}
	if topK[2] != 10 || topK[3] != 10 {
		t.Fatalf("expected second iteration to query with top_k 10, got %v", topK)
	}
}

// TestTuneHistoryEndToEnd chains tune -> ingest -> report through the CLI.
func TestTuneHistoryEndToEnd(t *testing.T) {
	dir, configPath, questionsPath, _ := tuneProject(t)

	var out, stderr bytes.Buffer
	code := Run([]string{"tune", "--config", configPath, "--questions", questionsPath, "--ui", "plain"}, &out, &stderr)
	if code != ExitOK {
		t.Fatalf("tune: expected exit %d, got %d (%s)", ExitOK, code, stderr.String())
	}
	runDir, result := readRunResult(t, dir)

	dbPath := filepath.Join(dir, "history.duckdb")
	var ingestOut, ingestErr bytes.Buffer
	code = Run([]string{"ingest", "--db", dbPath, runDir}, &ingestOut, &ingestErr)
	if code != ExitOK {
		t.Fatalf("ingest: expected exit %d, got %d (%s)", ExitOK, code, ingestErr.String())
	}
	if !strings.Contains(ingestOut.String(), "Ingested run "+result.RunID) {
		t.Fatalf("expected ingest summary for %s, got %q", result.RunID, ingestOut.String())
	}
	if !strings.Contains(ingestOut.String(), "questions: 2, iterations: 2, answers: 4, scores: 4") {
		t.Fatalf("expected ingest counts, got %q", ingestOut.String())
	}

	var reportOut, reportErr bytes.Buffer
	code = Run([]string{"report", "--db", dbPath}, &reportOut, &reportErr)
	if code != ExitOK {
		t.Fatalf("report: expected exit %d, got %d (%s)", ExitOK, code, reportErr.String())
	}
	html, err := os.ReadFile(filepath.Join(dir, "report.html"))
	if err != nil {
		t.Fatalf("read report.html: %v", err)
	}
	if !strings.Contains(string(html), "ragtune report") {
		t.Fatalf("expected report title in %q", string(html))
	}
	if !strings.Contains(string(html), result.RunID) {
		t.Fatalf("expected run %s in report", result.RunID)
	}
}
