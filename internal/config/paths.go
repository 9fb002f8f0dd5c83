package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ConfigDirName    = ".ragtune"
	ConfigFileName   = "config.yml"
	DefaultOutputDir = "ragtune-output"
)

// ConfigDir returns the .ragtune directory under the project root.
func ConfigDir(root string) string {
	return filepath.Join(root, ConfigDirName)
}

// ConfigPath returns the full config file path under the project root.
func ConfigPath(root string) string {
	return filepath.Join(ConfigDir(root), ConfigFileName)
}

// BaseDirFromConfigPath derives the project root from a config file path.
// Relative paths inside the config (segments file, limits file, output
// directory) resolve against this root.
func BaseDirFromConfigPath(configPath string) string {
	dir := filepath.Dir(configPath)
	if filepath.Base(dir) == ConfigDirName {
		return filepath.Dir(dir)
	}
	return dir
}

// FindConfigPath walks from startDir toward the filesystem root looking for
// .ragtune/config.yml, so ragtune commands work from anywhere inside a
// project. An empty startDir starts from the working directory.
func FindConfigPath(startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}

	for {
		path, found, err := probeConfig(dir)
		if err != nil {
			return "", err
		}
		if found {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or parent directories", filepath.Join(ConfigDirName, ConfigFileName), dir)
		}
		dir = parent
	}
}

// probeConfig checks one directory for the config file. A .ragtune
// directory without a config file is reported as an error rather than
// silently skipped: the project marker exists but is broken.
func probeConfig(dir string) (string, bool, error) {
	configDir := filepath.Join(dir, ConfigDirName)
	configPath := filepath.Join(configDir, ConfigFileName)

	info, err := os.Stat(configPath)
	switch {
	case err == nil && info.IsDir():
		return "", false, fmt.Errorf("config path %q is a directory", configPath)
	case err == nil:
		return configPath, true, nil
	case !os.IsNotExist(err):
		return "", false, fmt.Errorf("stat config path %q: %w", configPath, err)
	}

	if dirInfo, dirErr := os.Stat(configDir); dirErr == nil && dirInfo.IsDir() {
		return "", false, fmt.Errorf("found %q but %s is missing", configDir, ConfigFileName)
	}
	return "", false, nil
}
