package eval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ragtune/internal/llm"
	"ragtune/internal/pipeline"
	"ragtune/internal/question"
	"ragtune/internal/runner"
)

// judgeSchema validates the judge's payload before any score is trusted.
const judgeSchema = `{
  "type": "object",
  "required": ["accuracy", "completeness", "relevance", "clarity"],
  "properties": {
    "accuracy": { "type": "number", "minimum": 0, "maximum": 10 },
    "completeness": { "type": "number", "minimum": 0, "maximum": 10 },
    "relevance": { "type": "number", "minimum": 0, "maximum": 10 },
    "clarity": { "type": "number", "minimum": 0, "maximum": 10 },
    "weaknesses": { "type": "array", "items": { "type": "string" } },
    "missing_info": { "type": "array", "items": { "type": "string" } }
  }
}`

var compiledJudgeSchema = jsonschema.MustCompileString("judge.json", judgeSchema)

// ParseError reports judge output that stayed malformed after the retry. Raw
// preserves the full model output for the report and for debugging prompts.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	snippet := strings.TrimSpace(e.Raw)
	if len(snippet) > 120 {
		snippet = snippet[:120] + "..."
	}
	return fmt.Sprintf("judge response not parseable: %q", snippet)
}

// judgeResponse is the shape returned by the judge model.
type judgeResponse struct {
	Accuracy     float64  `json:"accuracy"`
	Completeness float64  `json:"completeness"`
	Relevance    float64  `json:"relevance"`
	Clarity      float64  `json:"clarity"`
	Weaknesses   []string `json:"weaknesses"`
	MissingInfo  []string `json:"missing_info"`
}

// parseJudgeResponse extracts and validates one judge verdict. Any failure
// returns a *ParseError carrying the raw output.
func parseJudgeResponse(text string) (judgeResponse, error) {
	payload, err := llm.ExtractJSONObject(text)
	if err != nil {
		return judgeResponse{}, &ParseError{Raw: text}
	}
	var raw interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return judgeResponse{}, &ParseError{Raw: text}
	}
	if err := compiledJudgeSchema.Validate(raw); err != nil {
		return judgeResponse{}, &ParseError{Raw: text}
	}
	var parsed judgeResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return judgeResponse{}, &ParseError{Raw: text}
	}
	for _, score := range []float64{parsed.Accuracy, parsed.Completeness, parsed.Relevance, parsed.Clarity} {
		if score < 0 || score > 10 {
			return judgeResponse{}, &ParseError{Raw: text}
		}
	}
	return parsed, nil
}

// composite is the equal-weight mean of the four sub-scores.
func composite(r judgeResponse) float64 {
	return (r.Accuracy + r.Completeness + r.Relevance + r.Clarity) / 4
}

const judgeSystemMessage = "You are a strict quality judge for a document question-answering system. Score answers precisely and consistently, and respond only with the requested JSON object."

// buildJudgePrompt assembles the scoring prompt for one answered question.
// The expected answer is a grading hint, not ground truth; the judge also
// sees where the answer's context came from.
func buildJudgePrompt(item question.Question, record runner.AnswerRecord) string {
	var builder strings.Builder
	builder.WriteString("Evaluate the quality of this answer produced by a document QA system.\n\n")
	fmt.Fprintf(&builder, "Question (%s):\n%s\n\n", item.Type, item.Text)
	fmt.Fprintf(&builder, "Expected answer (grading hint):\n%s\n\n", item.ExpectedAnswer)
	fmt.Fprintf(&builder, "Produced answer:\n%s\n\n", record.Answer)
	builder.WriteString(formatSources(record.Sources))
	builder.WriteString(`Score each dimension from 0 to 10:
- accuracy: factual agreement with the expected answer and sources
- completeness: coverage of every part of the question
- relevance: staying on the question without padding
- clarity: structure and readability

Return a JSON object with this format:
{
  "accuracy": 0,
  "completeness": 0,
  "relevance": 0,
  "clarity": 0,
  "weaknesses": ["..."],
  "missing_info": ["..."]
}`)
	return builder.String()
}

// formatSources renders the retrieved context summary for the judge prompt.
func formatSources(sources []pipeline.Source) string {
	if len(sources) == 0 {
		return "Retrieved sources: none (the system answered without context).\n\n"
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "Retrieved sources (%d):\n", len(sources))
	for i, source := range sources {
		excerpt := strings.TrimSpace(source.Excerpt)
		if len(excerpt) > 200 {
			excerpt = excerpt[:200] + "..."
		}
		fmt.Fprintf(&builder, "%d. %s (similarity %.2f): %s\n", i+1, source.Location, source.Similarity, excerpt)
	}
	builder.WriteString("\n")
	return builder.String()
}
