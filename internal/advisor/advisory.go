package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ragtune/internal/eval"
	"ragtune/internal/llm"
	"ragtune/internal/pipeline"
	"ragtune/internal/runner"
)

// advisorySchema validates the advisory payload before it reaches a report.
// Every section is optional; a model that only finds retrieval problems
// returns only retrieval_improvements.
const advisorySchema = `{
  "type": "object",
  "properties": {
    "critical_issues": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "issue": { "type": "string" },
          "impact": { "type": "string" },
          "solution": { "type": "string" }
        }
      }
    },
    "retrieval_improvements": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "recommendation": { "type": "string" },
          "expected_benefit": { "type": "string" }
        }
      }
    },
    "answer_improvements": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "recommendation": { "type": "string" },
          "expected_benefit": { "type": "string" }
        }
      }
    },
    "prompt_engineering": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "area": { "type": "string" },
          "suggestion": { "type": "string" }
        }
      }
    }
  }
}`

var compiledAdvisorySchema = jsonschema.MustCompileString("advisory.json", advisorySchema)

const advisorySystemMessage = "You are an expert in retrieval-augmented question answering. Provide specific, actionable recommendations for improving QA system performance, and respond only with the requested JSON object."

// advisoryTemperature is higher than the judge's: the advisory is brainstorming,
// not grading.
const advisoryTemperature = 0.3

// Advise asks the model for free-form improvement recommendations based on the
// batch evidence. The result is advisory only; nothing in it is ever applied
// automatically, and callers treat a failure here as non-fatal.
func Advise(ctx context.Context, client llm.Client, scores []eval.ScoreRecord, records []runner.AnswerRecord, params pipeline.Params, maxTokens int) (*Advisory, error) {
	prompt := buildAdvisoryPrompt(scores, records, params)
	completion, err := client.Complete(ctx, prompt, llm.Options{
		Temperature:    advisoryTemperature,
		ResponseFormat: llm.ResponseFormatJSON,
		SystemMessage:  advisorySystemMessage,
		MaxTokens:      maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("advisory completion: %w", err)
	}
	advisory, err := parseAdvisory(completion.Text)
	if err != nil {
		return nil, err
	}
	return advisory, nil
}

// parseAdvisory extracts and validates one advisory payload.
func parseAdvisory(text string) (*Advisory, error) {
	payload, err := llm.ExtractJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("advisory response not parseable: %w", err)
	}
	var raw interface{}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("advisory response not parseable: %w", err)
	}
	if err := compiledAdvisorySchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("advisory response rejected: %w", err)
	}
	var advisory Advisory
	if err := json.Unmarshal([]byte(payload), &advisory); err != nil {
		return nil, fmt.Errorf("advisory response not parseable: %w", err)
	}
	return &advisory, nil
}

// buildAdvisoryPrompt renders the batch evidence the advisory reasons over:
// aggregate scores, recurring judge phrases, retrieval health, answer shape,
// and the current tuning parameters.
func buildAdvisoryPrompt(scores []eval.ScoreRecord, records []runner.AnswerRecord, params pipeline.Params) string {
	stats := eval.Aggregate(scores, 0)
	health := Retrieval(records)
	shape := Shape(records)

	var builder strings.Builder
	builder.WriteString("Analyze the following QA system performance data and provide specific, actionable improvement suggestions.\n\n")

	builder.WriteString("Weakness analysis:\n")
	fmt.Fprintf(&builder, "- Average scores over %d scored answers: accuracy %.1f, completeness %.1f, relevance %.1f, clarity %.1f (composite %.1f)\n",
		stats.Scored, stats.AvgAccuracy, stats.AvgCompleteness, stats.AvgRelevance, stats.AvgClarity, stats.AvgComposite)
	builder.WriteString(formatPhrases("- Common weaknesses: ", WeaknessFrequency(scores)))
	builder.WriteString(formatPhrases("- Common missing information: ", MissingInfoFrequency(scores)))

	builder.WriteString("\nRetrieval analysis:\n")
	fmt.Fprintf(&builder, "- Average sources per answer: %.1f\n", health.AvgSources)
	fmt.Fprintf(&builder, "- Questions with no sources: %d (%.1f%%)\n", health.ZeroSourceCount, health.ZeroSourcePct)
	fmt.Fprintf(&builder, "- Average unique source locations per answered question: %.1f\n", health.AvgUniqueLocations)

	builder.WriteString("\nAnswer pattern analysis:\n")
	fmt.Fprintf(&builder, "- Average answer length: %.0f words (min %d, max %d, median %d)\n",
		shape.AvgWords, shape.MinWords, shape.MaxWords, shape.MedianWords)
	fmt.Fprintf(&builder, "- Citation rate: %.0f%% of answers, %.1f citations per answer\n",
		shape.CitationRate*100, shape.AvgCitations)

	builder.WriteString("\nCurrent configuration:\n")
	fmt.Fprintf(&builder, "- top_k: %d\n", params.TopK)
	fmt.Fprintf(&builder, "- similarity_threshold: %.2f\n", params.SimilarityThreshold)
	fmt.Fprintf(&builder, "- llm_temperature: %.2f\n", params.LLMTemperature)
	fmt.Fprintf(&builder, "- chunk_size: %d\n", params.ChunkSize)
	fmt.Fprintf(&builder, "- chunk_overlap: %d\n", params.ChunkOverlap)

	builder.WriteString(`
Based on this data, provide:
1. Critical issues: the most important problems to address
2. Retrieval improvements: how to improve document retrieval
3. Answer generation improvements: how to improve answer quality
4. Prompt engineering suggestions: how to improve system prompts

Return a JSON object with this format:
{
  "critical_issues": [
    {"issue": "description", "impact": "high/medium/low", "solution": "suggested fix"}
  ],
  "retrieval_improvements": [
    {"recommendation": "description", "expected_benefit": "description"}
  ],
  "answer_improvements": [
    {"recommendation": "description", "expected_benefit": "description"}
  ],
  "prompt_engineering": [
    {"area": "system/user prompt", "suggestion": "description"}
  ]
}`)
	return builder.String()
}

// formatPhrases renders a ranked phrase list as one prompt line.
func formatPhrases(label string, phrases []PhraseCount) string {
	if len(phrases) == 0 {
		return label + "none recorded\n"
	}
	parts := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		parts = append(parts, fmt.Sprintf("%q (x%d)", phrase.Phrase, phrase.Count))
	}
	return label + strings.Join(parts, ", ") + "\n"
}
