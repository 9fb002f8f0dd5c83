package pipeline

import "ragtune/internal/spec"

// Parameter names on the tuning surface.
const (
	ParamTopK                = "top_k"
	ParamSimilarityThreshold = "similarity_threshold"
	ParamLLMTemperature      = "llm_temperature"
	ParamChunkSize           = "chunk_size"
	ParamChunkOverlap        = "chunk_overlap"
)

// Params is the mutable tuning surface shared between the controller and the
// pipeline-under-test. Only the controller mutates it, only between iterations;
// every iteration works from a Snapshot fixed for its whole duration.
type Params struct {
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	LLMTemperature      float64 `json:"llm_temperature"`
	ChunkSize           int     `json:"chunk_size"`
	ChunkOverlap        int     `json:"chunk_overlap"`
}

// FromSpec builds the initial tuning surface from configuration.
func FromSpec(cfg spec.ParamsConfig) *Params {
	return &Params{
		TopK:                cfg.TopK,
		SimilarityThreshold: cfg.SimilarityThreshold,
		LLMTemperature:      cfg.LLMTemperature,
		ChunkSize:           cfg.ChunkSize,
		ChunkOverlap:        cfg.ChunkOverlap,
	}
}

// Snapshot returns a copy of the current parameter values.
func (p *Params) Snapshot() Params {
	return *p
}

// Value returns the current value of a named parameter.
func (p *Params) Value(name string) (float64, bool) {
	switch name {
	case ParamTopK:
		return float64(p.TopK), true
	case ParamSimilarityThreshold:
		return p.SimilarityThreshold, true
	case ParamLLMTemperature:
		return p.LLMTemperature, true
	case ParamChunkSize:
		return float64(p.ChunkSize), true
	case ParamChunkOverlap:
		return float64(p.ChunkOverlap), true
	default:
		return 0, false
	}
}

// Set assigns a named parameter, reporting whether the name is known.
func (p *Params) Set(name string, value float64) bool {
	switch name {
	case ParamTopK:
		p.TopK = int(value)
	case ParamSimilarityThreshold:
		p.SimilarityThreshold = value
	case ParamLLMTemperature:
		p.LLMTemperature = value
	case ParamChunkSize:
		p.ChunkSize = int(value)
	case ParamChunkOverlap:
		p.ChunkOverlap = int(value)
	default:
		return false
	}
	return true
}

// RequiresReindex reports whether changing a parameter invalidates the
// document index. Chunking parameters only take effect after a rebuild;
// the rest apply to live queries.
func RequiresReindex(name string) bool {
	switch name {
	case ParamChunkSize, ParamChunkOverlap:
		return true
	default:
		return false
	}
}
