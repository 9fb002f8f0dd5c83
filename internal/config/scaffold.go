package config

import (
	"fmt"
	"os"
	"path/filepath"

	"ragtune/internal/registry"
	"ragtune/pkg/ratelimiter"
)

const defaultConfig = `version: 1

document:
  segments_file: ".ragtune/segments.yml"
  min_segment_chars: 100

generation:
  questions_per_segment: 3
  max_segments: 0
  temperature: 0.7

pipeline:
  answer_url: "http://127.0.0.1:8080/answer"
  timeout_seconds: 30

llm:
  provider: "openrouter"
  model: "gpt-4.1-mini"

tuning:
  iterations: 3
  convergence_threshold: 0.05
  weak_threshold: 6.0
  apply_improvements: true
  advisory: false

params:
  top_k: 7
  similarity_threshold: 0.65
  llm_temperature: 0.2
  chunk_size: 800
  chunk_overlap: 150

execution:
  workers: 4
  checkpoint_every: 10
  retries: 3
  max_output_tokens: 2048
  # Uncomment to throttle pipeline and judge calls with the example limits.
  # rate_limits_file: ".ragtune/limits.json"

output_dir: "ragtune-output"
`

const defaultSegments = `segments:
  - id: "p1"
    position: 1
    text: >
      Replace this segment with text extracted from your source document.
      Each segment should hold one page or section; the question generator
      skips segments shorter than the configured minimum length.
  - id: "p2"
    position: 2
    text: >
      A second example segment. Segments are sampled in order, and every
      generated question records the segment it came from so weak answers
      can be traced back to their source material.
`

// Scaffold writes a starter config, example segments, and example limits.
func Scaffold(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path is required")
	}
	if info, err := os.Stat(configPath); err == nil {
		if info.IsDir() {
			return fmt.Errorf("config path %q is a directory", configPath)
		}
		return fmt.Errorf("config file already exists at %q", configPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	segmentsPath := filepath.Join(configDir, "segments.yml")
	if info, err := os.Stat(segmentsPath); err == nil {
		if info.IsDir() {
			return fmt.Errorf("segments path %q is a directory", segmentsPath)
		}
		return fmt.Errorf("segments file already exists at %q", segmentsPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat segments file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	if err := os.WriteFile(segmentsPath, []byte(defaultSegments), 0o644); err != nil {
		return fmt.Errorf("write segments file: %w", err)
	}
	limitsPath := filepath.Join(configDir, "limits.json")
	if _, err := os.Stat(limitsPath); os.IsNotExist(err) {
		if err := writeExampleLimits(limitsPath); err != nil {
			return err
		}
	}
	return nil
}

// writeExampleLimits persists a starter limits registry covering both the
// pipeline endpoint and the judge model.
func writeExampleLimits(path string) error {
	reg := registry.New()
	for _, state := range exampleLimitStates() {
		reg.Put(state)
	}
	if err := reg.Save(path); err != nil {
		return fmt.Errorf("write limits file: %w", err)
	}
	return nil
}

func exampleLimitStates() []ratelimiter.LimitState {
	return []ratelimiter.LimitState{
		{
			Definition: ratelimiter.LimitDefinition{
				Key:           "pipeline:answer:rpm",
				Kind:          ratelimiter.KindRolling,
				Capacity:      120,
				WindowSeconds: 60,
				Unit:          "requests",
				Description:   "pipeline answer requests per minute",
				Overage:       ratelimiter.OverageDeny,
			},
			Status: ratelimiter.LimitStatusActive,
		},
		{
			Definition: ratelimiter.LimitDefinition{
				Key:            "pipeline:answer:concurrency",
				Kind:           ratelimiter.KindConcurrency,
				Capacity:       8,
				TimeoutSeconds: 120,
				Unit:           "requests",
				Description:    "pipeline answer calls in flight",
				Overage:        ratelimiter.OverageDeny,
			},
			Status: ratelimiter.LimitStatusActive,
		},
		{
			Definition: ratelimiter.LimitDefinition{
				Key:           "openrouter:gpt-4.1-mini:rpm",
				Kind:          ratelimiter.KindRolling,
				Capacity:      60,
				WindowSeconds: 60,
				Unit:          "requests",
				Description:   "judge requests per minute",
				Overage:       ratelimiter.OverageDeny,
			},
			Status: ratelimiter.LimitStatusActive,
		},
		{
			Definition: ratelimiter.LimitDefinition{
				Key:           "openrouter:gpt-4.1-mini:tpm",
				Kind:          ratelimiter.KindRolling,
				Capacity:      200000,
				WindowSeconds: 60,
				Unit:          "tokens",
				Description:   "judge tokens per minute",
				Overage:       ratelimiter.OverageDebt,
			},
			Status: ratelimiter.LimitStatusActive,
		},
		{
			Definition: ratelimiter.LimitDefinition{
				Key:            "openrouter:gpt-4.1-mini:concurrency",
				Kind:           ratelimiter.KindConcurrency,
				Capacity:       4,
				TimeoutSeconds: 120,
				Unit:           "requests",
				Description:    "judge calls in flight",
				Overage:        ratelimiter.OverageDeny,
			},
			Status: ratelimiter.LimitStatusActive,
		},
	}
}
