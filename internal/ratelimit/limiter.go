package ratelimit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ragtune/internal/spec"
	"ragtune/pkg/ratelimiter"
	"ragtune/pkg/ratelimiter/local"
)

const fallbackMaxOutputTokens uint64 = 2048

// BuildLimiter constructs a limiter client based on configuration. Without a
// limits file the run is unthrottled.
func BuildLimiter(cfg spec.Config, baseDir string) (ratelimiter.Limiter, error) {
	path := strings.TrimSpace(cfg.Execution.RateLimitsFile)
	if path == "" {
		return ratelimiter.NoopLimiter, nil
	}
	resolved := resolveLimitsPath(baseDir, path)
	if _, err := os.Stat(resolved); err != nil {
		return nil, fmt.Errorf("read limits file: %w", err)
	}
	return local.NewMemoryLimiterFromFile(resolved)
}

// ResolveWorkers returns the worker count for a tuning run.
func ResolveWorkers(cfg spec.Config) int {
	if cfg.Execution.Workers > 0 {
		return cfg.Execution.Workers
	}
	return 1
}

// MaxOutputTokens returns the output token bound used for reservations.
func MaxOutputTokens(cfg spec.Config) uint64 {
	if cfg.Execution.MaxOutputTokens > 0 {
		return cfg.Execution.MaxOutputTokens
	}
	return fallbackMaxOutputTokens
}

// resolveLimitsPath resolves a limits file path against the config base dir.
func resolveLimitsPath(baseDir, path string) string {
	if filepath.IsAbs(path) || strings.TrimSpace(baseDir) == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
