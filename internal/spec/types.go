package spec

type Config struct {
	Version    int              `yaml:"version"`
	Document   DocumentConfig   `yaml:"document"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	LLM        LLMConfig        `yaml:"llm"`
	Tuning     TuningConfig     `yaml:"tuning"`
	Params     ParamsConfig     `yaml:"params"`
	Execution  ExecutionConfig  `yaml:"execution"`
	OutputDir  string           `yaml:"output_dir"`
}

type DocumentConfig struct {
	SegmentsFile    string `yaml:"segments_file"`
	MinSegmentChars int    `yaml:"min_segment_chars"`
}

type GenerationConfig struct {
	QuestionsPerSegment int     `yaml:"questions_per_segment"`
	MaxSegments         int     `yaml:"max_segments"`
	Temperature         float64 `yaml:"temperature"`
}

type PipelineConfig struct {
	AnswerURL      string `yaml:"answer_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type TuningConfig struct {
	Iterations           int     `yaml:"iterations"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`
	WeakThreshold        float64 `yaml:"weak_threshold"`
	ApplyImprovements    bool    `yaml:"apply_improvements"`
	Advisory             bool    `yaml:"advisory"`
}

type ParamsConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	LLMTemperature      float64 `yaml:"llm_temperature"`
	ChunkSize           int     `yaml:"chunk_size"`
	ChunkOverlap        int     `yaml:"chunk_overlap"`
}

type ExecutionConfig struct {
	Workers         int    `yaml:"workers"`
	CheckpointEvery int    `yaml:"checkpoint_every"`
	Retries         int    `yaml:"retries"`
	RateLimitsFile  string `yaml:"rate_limits_file"`
	MaxOutputTokens uint64 `yaml:"max_output_tokens"`
}
