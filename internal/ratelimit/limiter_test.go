package ratelimit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ragtune/internal/spec"
	"ragtune/internal/testutil"
	"ragtune/pkg/ratelimiter"
	"ragtune/pkg/ratelimiter/local"
)

// TestBuildLimiterDefaultsToNoop ensures an empty limits file setting returns a no-op limiter.
func TestBuildLimiterDefaultsToNoop(t *testing.T) {
	runWithTimeout(t, func() {
		cfg := spec.Config{}
		limiter, err := BuildLimiter(cfg, t.TempDir())
		if err != nil {
			t.Fatalf("build limiter: %v", err)
		}
		if limiter != ratelimiter.NoopLimiter {
			t.Fatalf("expected noop limiter")
		}
	})
}

// TestBuildLimiterLoadsLimitsFile ensures a configured limits file yields an embedded limiter.
func TestBuildLimiterLoadsLimitsFile(t *testing.T) {
	runWithTimeout(t, func() {
		baseDir := t.TempDir()
		limitsPath := writeLimitsFile(t, baseDir, sampleLimitStates())
		cfg := spec.Config{
			Execution: spec.ExecutionConfig{RateLimitsFile: filepath.Base(limitsPath)},
		}
		limiter, err := BuildLimiter(cfg, baseDir)
		if err != nil {
			t.Fatalf("build limiter: %v", err)
		}
		if _, ok := limiter.(*local.Client); !ok {
			t.Fatalf("expected local limiter, got %T", limiter)
		}
	})
}

// TestBuildLimiterMissingFileFails ensures missing limits files return an error.
func TestBuildLimiterMissingFileFails(t *testing.T) {
	runWithTimeout(t, func() {
		cfg := spec.Config{
			Execution: spec.ExecutionConfig{RateLimitsFile: "missing.json"},
		}
		_, err := BuildLimiter(cfg, t.TempDir())
		if err == nil {
			t.Fatalf("expected error for missing limits file")
		}
	})
}

// TestResolveWorkersFallsBackToOne ensures unset worker counts default to one.
func TestResolveWorkersFallsBackToOne(t *testing.T) {
	if workers := ResolveWorkers(spec.Config{}); workers != 1 {
		t.Fatalf("expected 1 worker, got %d", workers)
	}
	cfg := spec.Config{Execution: spec.ExecutionConfig{Workers: 6}}
	if workers := ResolveWorkers(cfg); workers != 6 {
		t.Fatalf("expected 6 workers, got %d", workers)
	}
}

// TestMaxOutputTokensFallback ensures the reservation bound has a fallback.
func TestMaxOutputTokensFallback(t *testing.T) {
	if tokens := MaxOutputTokens(spec.Config{}); tokens != fallbackMaxOutputTokens {
		t.Fatalf("expected fallback %d, got %d", fallbackMaxOutputTokens, tokens)
	}
	cfg := spec.Config{Execution: spec.ExecutionConfig{MaxOutputTokens: 512}}
	if tokens := MaxOutputTokens(cfg); tokens != 512 {
		t.Fatalf("expected 512, got %d", tokens)
	}
}

// runWithTimeout executes a test body with an explicit timeout.
func runWithTimeout(t *testing.T, fn func()) {
	t.Helper()
	ctx := testutil.Context(t, time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatalf("test timed out")
	}
}

// writeLimitsFile writes a minimal limits JSON file and returns the path.
func writeLimitsFile(t *testing.T, dir string, states []ratelimiter.LimitState) string {
	t.Helper()
	payload, err := json.Marshal(states)
	if err != nil {
		t.Fatalf("marshal limits: %v", err)
	}
	path := filepath.Join(dir, "limits.json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write limits file: %v", err)
	}
	return path
}

func sampleLimitStates() []ratelimiter.LimitState {
	return []ratelimiter.LimitState{
		{
			Definition: ratelimiter.LimitDefinition{
				Key:            "openrouter:gpt-4o:concurrency",
				Kind:           ratelimiter.KindConcurrency,
				Capacity:       1,
				TimeoutSeconds: 60,
				Unit:           "requests",
				Overage:        ratelimiter.OverageDebt,
			},
			Status: ratelimiter.LimitStatusActive,
		},
	}
}
