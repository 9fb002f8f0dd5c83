package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ragtune/internal/llm"
)

// ErrNoQuestions indicates generation produced an empty set. It is the only
// generation failure that aborts a run; individual segment failures are
// reported and skipped.
var ErrNoQuestions = errors.New("no questions generated")

const segmentPreviewChars = 200

// generationSchema validates the model's question payload before any field
// is trusted.
const generationSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "type", "expected_answer"],
        "properties": {
          "question": { "type": "string", "minLength": 1 },
          "type": { "enum": ["factual", "conceptual", "analytical"] },
          "expected_answer": { "type": "string", "minLength": 1 },
          "concepts": { "type": "array", "items": { "type": "string" } }
        }
      }
    }
  }
}`

var compiledGenerationSchema = jsonschema.MustCompileString("generation.json", generationSchema)

// GenerateOptions controls question generation.
type GenerateOptions struct {
	PerSegment      int
	MaxSegments     int
	MinSegmentChars int
	Temperature     float64
}

// Generator derives evaluation questions from document segments.
type Generator struct {
	Client llm.Client
	// OnSegmentError is invoked when one segment's generation fails. The
	// segment is skipped and generation continues.
	OnSegmentError func(segmentID string, err error)
}

// Generate samples segments in order and asks the model for a fixed count of
// questions per segment. Question ids are derived from segment ids and
// per-segment indices, so a fixed segment list and a deterministic client
// produce identical output.
func (g *Generator) Generate(ctx context.Context, segments []Segment, opts GenerateOptions) (Set, error) {
	if opts.PerSegment <= 0 {
		opts.PerSegment = 3
	}
	if opts.MinSegmentChars <= 0 {
		opts.MinSegmentChars = 100
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.7
	}

	eligible := make([]Segment, 0, len(segments))
	for _, segment := range segments {
		if len(strings.TrimSpace(segment.Text)) < opts.MinSegmentChars {
			continue
		}
		eligible = append(eligible, segment)
	}
	if opts.MaxSegments > 0 && len(eligible) > opts.MaxSegments {
		eligible = eligible[:opts.MaxSegments]
	}

	questions := make([]Question, 0, len(eligible)*opts.PerSegment)
	segmentsUsed := 0
	for _, segment := range eligible {
		if err := ctx.Err(); err != nil {
			return Set{}, err
		}
		generated, err := g.generateForSegment(ctx, segment, opts)
		if err != nil {
			if g.OnSegmentError != nil {
				g.OnSegmentError(segment.ID, err)
			}
			continue
		}
		questions = append(questions, generated...)
		segmentsUsed++
	}

	if len(questions) == 0 {
		return Set{}, fmt.Errorf("%w (attempted %d segments)", ErrNoQuestions, len(eligible))
	}
	return Set{
		Version:   1,
		Questions: questions,
		Metadata: Coverage{
			TotalQuestions: len(questions),
			SegmentsUsed:   segmentsUsed,
			SegmentsTotal:  len(segments),
		},
	}, nil
}

// generatedQuestion is the per-question shape returned by the model.
type generatedQuestion struct {
	Question       string   `json:"question"`
	Type           string   `json:"type"`
	ExpectedAnswer string   `json:"expected_answer"`
	Concepts       []string `json:"concepts"`
}

type generationResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

func (g *Generator) generateForSegment(ctx context.Context, segment Segment, opts GenerateOptions) ([]Question, error) {
	prompt := buildGenerationPrompt(segment.Text, opts.PerSegment)
	completion, err := g.Client.Complete(ctx, prompt, llm.Options{
		Temperature:    opts.Temperature,
		ResponseFormat: llm.ResponseFormatJSON,
		SystemMessage:  generationSystemMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	parsed, err := parseGenerationResponse(completion.Text)
	if err != nil {
		return nil, err
	}

	preview := segment.Text
	if len(preview) > segmentPreviewChars {
		preview = preview[:segmentPreviewChars] + "..."
	}
	questions := make([]Question, 0, len(parsed.Questions))
	for i, item := range parsed.Questions {
		questions = append(questions, Question{
			ID:             fmt.Sprintf("q-%s-%d", segment.ID, i+1),
			Text:           strings.TrimSpace(item.Question),
			Type:           Type(item.Type),
			ExpectedAnswer: strings.TrimSpace(item.ExpectedAnswer),
			Concepts:       normalizeStringSlice(item.Concepts),
			SegmentID:      segment.ID,
			SegmentPreview: preview,
		})
	}
	return questions, nil
}

func parseGenerationResponse(text string) (generationResponse, error) {
	payload, err := llm.ExtractJSONObject(text)
	if err != nil {
		return generationResponse{}, fmt.Errorf("parse generation response: %w", err)
	}
	var raw interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return generationResponse{}, fmt.Errorf("parse generation response: %w", err)
	}
	if err := compiledGenerationSchema.Validate(raw); err != nil {
		return generationResponse{}, fmt.Errorf("invalid generation response: %w", err)
	}
	var parsed generationResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return generationResponse{}, fmt.Errorf("parse generation response: %w", err)
	}
	return parsed, nil
}

const generationSystemMessage = "You are an expert at generating educational questions from technical documents. Generate diverse, high-quality questions that test understanding at multiple levels."

func buildGenerationPrompt(text string, count int) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Generate %d diverse questions from the following text.\n\n", count)
	builder.WriteString("Create a mix of question types:\n")
	builder.WriteString("- Factual: Questions about specific facts, definitions, or details\n")
	builder.WriteString("- Conceptual: Questions about concepts, relationships, or principles\n")
	builder.WriteString("- Analytical: Questions requiring analysis, comparison, or evaluation\n\n")
	builder.WriteString("Text:\n")
	builder.WriteString(text)
	builder.WriteString("\n\nFor each question, provide:\n")
	builder.WriteString("1. The question itself\n")
	builder.WriteString("2. The type (factual, conceptual, analytical)\n")
	builder.WriteString("3. The expected answer (brief, 2-3 sentences)\n")
	builder.WriteString("4. Key concepts covered\n\n")
	builder.WriteString(`Return a JSON object with this format:
{
  "questions": [
    {
      "question": "...",
      "type": "factual",
      "expected_answer": "...",
      "concepts": ["concept1", "concept2"]
    }
  ]
}`)
	return builder.String()
}
