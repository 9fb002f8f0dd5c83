package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"ragtune/internal/spec"
)

// Validate checks a config for correctness and referenced files.
func Validate(cfg *spec.Config, baseDir string) error {
	collector := &issueCollector{}

	if cfg.Version == 0 {
		collector.add("version", "is required")
	} else if cfg.Version != 1 {
		collector.addf("version", "unsupported version %d", cfg.Version)
	}

	if baseDir == "" {
		baseDir = "."
	}

	validateDocument(cfg, baseDir, collector.add)
	validateGeneration(cfg, collector.add)
	validatePipeline(cfg, collector.add)
	validateLLM(cfg, collector.add)
	validateTuning(cfg, collector.add)
	validateParams(&cfg.Params, collector.add)
	validateExecution(cfg, baseDir, collector.add)

	if strings.TrimSpace(cfg.OutputDir) == "" {
		collector.add("output_dir", "is required")
	}

	return collector.result()
}

func validateDocument(cfg *spec.Config, baseDir string, add issueAdder) {
	segmentsFile := strings.TrimSpace(cfg.Document.SegmentsFile)
	if segmentsFile == "" {
		add("document.segments_file", "is required")
	} else {
		requireFile(baseDir, segmentsFile, "document.segments_file", add)
	}
	if cfg.Document.MinSegmentChars < 0 {
		add("document.min_segment_chars", "must be >= 0")
	}
}

func validateGeneration(cfg *spec.Config, add issueAdder) {
	if cfg.Generation.QuestionsPerSegment < 1 {
		add("generation.questions_per_segment", "must be >= 1")
	}
	if cfg.Generation.MaxSegments < 0 {
		add("generation.max_segments", "must be >= 0")
	}
	if cfg.Generation.Temperature < 0 || cfg.Generation.Temperature > 2 {
		add("generation.temperature", "must be between 0 and 2")
	}
}

func validatePipeline(cfg *spec.Config, add issueAdder) {
	answerURL := strings.TrimSpace(cfg.Pipeline.AnswerURL)
	if answerURL == "" {
		add("pipeline.answer_url", "is required")
		return
	}
	parsed, err := url.Parse(answerURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		add("pipeline.answer_url", fmt.Sprintf("invalid URL %q", answerURL))
	}
	if cfg.Pipeline.TimeoutSeconds < 1 {
		add("pipeline.timeout_seconds", "must be >= 1")
	}
}

func validateLLM(cfg *spec.Config, add issueAdder) {
	if strings.TrimSpace(cfg.LLM.Provider) == "" {
		add("llm.provider", "is required")
	}
	if strings.TrimSpace(cfg.LLM.Model) == "" {
		add("llm.model", "is required")
	}
}

func validateTuning(cfg *spec.Config, add issueAdder) {
	if cfg.Tuning.Iterations < 1 {
		add("tuning.iterations", "must be >= 1")
	}
	if cfg.Tuning.ConvergenceThreshold <= 0 {
		add("tuning.convergence_threshold", "must be > 0")
	}
	if cfg.Tuning.WeakThreshold < 0 || cfg.Tuning.WeakThreshold > 10 {
		add("tuning.weak_threshold", "must be between 0 and 10")
	}
}

func validateParams(params *spec.ParamsConfig, add issueAdder) {
	if params.TopK < 1 {
		add("params.top_k", "must be >= 1")
	}
	if params.SimilarityThreshold <= 0 || params.SimilarityThreshold >= 1 {
		add("params.similarity_threshold", "must be between 0 and 1 exclusive")
	}
	if params.LLMTemperature < 0 || params.LLMTemperature > 2 {
		add("params.llm_temperature", "must be between 0 and 2")
	}
	if params.ChunkSize < 1 {
		add("params.chunk_size", "must be >= 1")
	}
	if params.ChunkOverlap < 0 {
		add("params.chunk_overlap", "must be >= 0")
	} else if params.ChunkOverlap >= params.ChunkSize {
		add("params.chunk_overlap", "must be smaller than chunk_size")
	}
}

func validateExecution(cfg *spec.Config, baseDir string, add issueAdder) {
	if cfg.Execution.Workers < 1 {
		add("execution.workers", "must be >= 1")
	}
	if cfg.Execution.CheckpointEvery < 0 {
		add("execution.checkpoint_every", "must be >= 0")
	}
	if cfg.Execution.Retries < 0 {
		add("execution.retries", "must be >= 0")
	}
	if limitsFile := strings.TrimSpace(cfg.Execution.RateLimitsFile); limitsFile != "" {
		requireFile(baseDir, limitsFile, "execution.rate_limits_file", add)
	}
}

// requireFile checks that a possibly-relative path exists and is a regular file.
func requireFile(baseDir, path, field string, add issueAdder) {
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(baseDir, resolved)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			add(field, fmt.Sprintf("file %q not found", path))
			return
		}
		add(field, fmt.Sprintf("stat %q: %v", path, err))
		return
	}
	if info.IsDir() {
		add(field, fmt.Sprintf("%q is a directory", path))
	}
}
