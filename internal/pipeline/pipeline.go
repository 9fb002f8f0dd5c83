package pipeline

import "context"

// Source is one retrieved context chunk backing an answer.
type Source struct {
	Location   string  `json:"location"`
	Similarity float64 `json:"similarity"`
	Excerpt    string  `json:"excerpt"`
}

// Answer is the pipeline's response to a single question.
type Answer struct {
	Text             string   `json:"answer"`
	Sources          []Source `json:"sources"`
	RetrievalTimeMs  int64    `json:"retrieval_time_ms"`
	GenerationTimeMs int64    `json:"generation_time_ms"`
}

// Pipeline is the question-answering system under test. Implementations may
// fail per call; the executor records the failure and continues the batch.
type Pipeline interface {
	Answer(ctx context.Context, question string, params Params) (Answer, error)
}
