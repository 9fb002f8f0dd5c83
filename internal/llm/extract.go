package llm

import (
	"errors"
	"strings"
)

// ErrMissingJSON indicates that no JSON object was found in the output.
var ErrMissingJSON = errors.New("missing JSON object")

// ExtractJSONObject returns the JSON object embedded in model output.
// Providers asked for a json_object response usually return bare JSON, but
// some models still wrap it in a markdown fence or surround it with prose.
func ExtractJSONObject(output string) (string, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return "", ErrMissingJSON
	}
	trimmed = stripFence(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrMissingJSON
	}
	return trimmed[start : end+1], nil
}

// stripFence removes a surrounding markdown code fence, with or without a
// language tag, leaving the fenced body.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if newline := strings.Index(body, "\n"); newline != -1 {
		first := strings.TrimSpace(body[:newline])
		if first == "" || isFenceTag(first) {
			body = body[newline+1:]
		}
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

func isFenceTag(tag string) bool {
	for _, r := range tag {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
