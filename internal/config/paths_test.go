package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBaseDirFromConfigPath(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		expected   string
	}{
		{
			name:       "standard layout",
			configPath: filepath.Join("project", ConfigDirName, ConfigFileName),
			expected:   "project",
		},
		{
			name:       "bare file",
			configPath: filepath.Join("project", ConfigFileName),
			expected:   "project",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := BaseDirFromConfigPath(test.configPath)
			if got != test.expected {
				t.Fatalf("expected %q, got %q", test.expected, got)
			}
		})
	}
}

// TestFindConfigPathWalksUp verifies the upward search from nested directories.
func TestFindConfigPathWalksUp(t *testing.T) {
	root := t.TempDir()
	writeProjectConfig(t, root, "version: 1\n")

	nested := filepath.Join(root, "docs", "guides")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("create nested dir: %v", err)
	}

	found, err := FindConfigPath(nested)
	if err != nil {
		t.Fatalf("find config: %v", err)
	}
	expected := ConfigPath(root)
	if found != expected {
		t.Fatalf("expected %q, got %q", expected, found)
	}
}

func TestFindConfigPathNotFound(t *testing.T) {
	root := t.TempDir()
	_, err := FindConfigPath(root)
	if err == nil {
		t.Fatalf("expected error")
	}
}

// TestFindConfigPathDirWithoutFile verifies the dedicated error when the
// .ragtune directory exists but holds no config file.
func TestFindConfigPathDirWithoutFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(ConfigDir(root), 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	_, err := FindConfigPath(root)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "is missing") {
		t.Fatalf("expected missing-file error, got %v", err)
	}
}
