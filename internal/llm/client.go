package llm

import "context"

// Options controls a single completion request.
type Options struct {
	Temperature    float64
	ResponseFormat string
	SystemMessage  string
	MaxTokens      int
}

// Completion is the result of a completion request.
type Completion struct {
	Text        string
	TotalTokens uint64
}

// Client sends prompts to a language model service.
type Client interface {
	Complete(ctx context.Context, prompt string, opts Options) (Completion, error)
}

// ResponseFormatJSON requests a JSON object response from the model.
const ResponseFormatJSON = "json_object"
