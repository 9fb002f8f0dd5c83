package config

import "ragtune/internal/spec"

// Default tuning surface values, matching the reference deployment.
const (
	DefaultTopK                = 7
	DefaultSimilarityThreshold = 0.65
	DefaultLLMTemperature      = 0.2
	DefaultChunkSize           = 800
	DefaultChunkOverlap        = 150
)

// Normalize fills zero-valued optional fields with their defaults.
func Normalize(cfg *spec.Config) {
	if cfg.Document.MinSegmentChars == 0 {
		cfg.Document.MinSegmentChars = 100
	}
	if cfg.Generation.QuestionsPerSegment == 0 {
		cfg.Generation.QuestionsPerSegment = 3
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.7
	}
	if cfg.Pipeline.TimeoutSeconds == 0 {
		cfg.Pipeline.TimeoutSeconds = 30
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openrouter"
	}
	if cfg.Tuning.Iterations == 0 {
		cfg.Tuning.Iterations = 3
	}
	if cfg.Tuning.ConvergenceThreshold == 0 {
		cfg.Tuning.ConvergenceThreshold = 0.05
	}
	if cfg.Tuning.WeakThreshold == 0 {
		cfg.Tuning.WeakThreshold = 6.0
	}
	normalizeParams(&cfg.Params)
	if cfg.Execution.Workers == 0 {
		cfg.Execution.Workers = 4
	}
	if cfg.Execution.CheckpointEvery == 0 {
		cfg.Execution.CheckpointEvery = 10
	}
	if cfg.Execution.Retries == 0 {
		cfg.Execution.Retries = 3
	}
	if cfg.Execution.MaxOutputTokens == 0 {
		cfg.Execution.MaxOutputTokens = 2048
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
}

func normalizeParams(params *spec.ParamsConfig) {
	if params.TopK == 0 {
		params.TopK = DefaultTopK
	}
	if params.SimilarityThreshold == 0 {
		params.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if params.LLMTemperature == 0 {
		params.LLMTemperature = DefaultLLMTemperature
	}
	if params.ChunkSize == 0 {
		params.ChunkSize = DefaultChunkSize
	}
	if params.ChunkOverlap == 0 {
		params.ChunkOverlap = DefaultChunkOverlap
	}
}
