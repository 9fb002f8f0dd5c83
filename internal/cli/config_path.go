package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"ragtune/internal/config"
)

// resolveConfigPath normalizes an explicit config path or searches upward
// from the working directory when none is given.
func resolveConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return config.FindConfigPath("")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}

// resolveBasePath resolves a config-relative path against the project root.
func resolveBasePath(baseDir, path string) string {
	if filepath.IsAbs(path) || strings.TrimSpace(baseDir) == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
