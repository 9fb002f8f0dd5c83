package config

import "fmt"

// issueAdder is the callback the per-section validators report through.
type issueAdder func(field, message string)

// issueCollector gathers issues across every validator so a broken config
// surfaces all of its problems in one pass.
type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

// addf is add with a formatted message.
func (c *issueCollector) addf(field, format string, args ...any) {
	c.add(field, fmt.Sprintf(format, args...))
}

// result returns nil when the config is clean, otherwise a ValidationError
// carrying every collected issue.
func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}
