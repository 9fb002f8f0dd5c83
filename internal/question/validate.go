package question

import (
	"fmt"
	"strings"
)

// Issue captures a validation problem in a question set.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports one or more validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("question set validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(field, message string) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: collector.issues}
}

// NormalizeSet trims whitespace and validates a question set.
func NormalizeSet(set Set) (Set, error) {
	collector := &issueCollector{}
	if set.Version == 0 {
		collector.add("version", "is required")
	} else if set.Version != 1 {
		collector.add("version", fmt.Sprintf("unsupported version %d", set.Version))
	}
	if len(set.Questions) == 0 {
		collector.add("questions", "must include at least one entry")
	}

	seenIDs := map[string]struct{}{}
	for i, item := range set.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		item.ID = strings.TrimSpace(item.ID)
		if item.ID == "" {
			collector.add(prefix+".id", "is required")
		} else if _, exists := seenIDs[item.ID]; exists {
			collector.add(prefix+".id", fmt.Sprintf("duplicate id %q", item.ID))
		} else {
			seenIDs[item.ID] = struct{}{}
		}

		item.Text = strings.TrimSpace(item.Text)
		if item.Text == "" {
			collector.add(prefix+".question", "is required")
		}

		item.Type = Type(strings.ToLower(strings.TrimSpace(string(item.Type))))
		switch item.Type {
		case TypeFactual, TypeConceptual, TypeAnalytical:
		case "":
			collector.add(prefix+".type", "is required")
		default:
			collector.add(prefix+".type", fmt.Sprintf("unknown type %q", item.Type))
		}

		item.ExpectedAnswer = strings.TrimSpace(item.ExpectedAnswer)
		if item.ExpectedAnswer == "" {
			collector.add(prefix+".expected_answer", "is required")
		}

		item.Concepts = normalizeStringSlice(item.Concepts)
		set.Questions[i] = item
	}

	if set.Metadata.TotalQuestions == 0 {
		set.Metadata.TotalQuestions = len(set.Questions)
	} else if set.Metadata.TotalQuestions != len(set.Questions) {
		collector.add("metadata.total_questions", fmt.Sprintf("does not match %d questions", len(set.Questions)))
	}

	if err := collector.result(); err != nil {
		return Set{}, err
	}
	return set, nil
}

func normalizeStringSlice(values []string) []string {
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		normalized = append(normalized, value)
	}
	return normalized
}
