package config

import (
	"fmt"
	"os"

	"ragtune/internal/spec"
)

// Load reads a config file and runs it through the full parse, normalize,
// validate pipeline. The returned config is ready to hand to the tuning
// loop; callers never see a half-checked config.
func Load(path string) (spec.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return spec.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := spec.ParseConfig(data)
	if err != nil {
		return spec.Config{}, err
	}
	Normalize(&cfg)
	if err := Validate(&cfg, BaseDirFromConfigPath(path)); err != nil {
		return spec.Config{}, err
	}
	return cfg, nil
}
