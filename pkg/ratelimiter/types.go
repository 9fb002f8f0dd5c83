package ratelimiter

// LimitKey names one budgeted resource, e.g. "openrouter:gpt-4.1-mini:tpm".
type LimitKey string

// LimitKind selects the enforcement model for a limit.
type LimitKind string

const (
	// KindRolling caps total usage inside a sliding window.
	KindRolling LimitKind = "rolling"
	// KindConcurrency caps the number of leases held at once.
	KindConcurrency LimitKind = "concurrency"
)

// OveragePolicy says what happens when a call's actual usage comes back
// higher than what was reserved for it.
type OveragePolicy string

const (
	// OverageDeny drops the excess on the floor.
	OverageDeny OveragePolicy = "deny"
	// OverageDebt books the excess as debt against the limit.
	OverageDebt OveragePolicy = "debt"
)

// LimitStatus gates whether a limit accepts new reservations.
type LimitStatus string

const (
	// LimitStatusActive accepts reservations.
	LimitStatusActive LimitStatus = "active"
	// LimitStatusDecreasing refuses reservations while capacity shrinks.
	LimitStatusDecreasing LimitStatus = "decreasing"
)

// LimitDefinition declares a limit. WindowSeconds applies to rolling limits,
// TimeoutSeconds bounds how long a concurrency hold may stay open.
type LimitDefinition struct {
	Key            LimitKey      `json:"key"`
	Kind           LimitKind     `json:"kind"`
	Capacity       uint64        `json:"capacity"`
	WindowSeconds  int           `json:"window_seconds"`
	TimeoutSeconds int           `json:"timeout_seconds"`
	Unit           string        `json:"unit"`
	Description    string        `json:"description"`
	Overage        OveragePolicy `json:"overage"`
}

// LimitState is a definition plus its runtime status, the shape stored in
// the project limits file.
type LimitState struct {
	Definition        LimitDefinition `json:"definition"`
	Status            LimitStatus     `json:"status"`
	PendingDecreaseTo uint64          `json:"pending_decrease_to"`
}

// Requirement asks for an amount against one limit key.
type Requirement struct {
	Key    LimitKey `json:"key"`
	Amount uint64   `json:"amount"`
}

// Actual reports what a finished call really consumed.
type Actual struct {
	Key          LimitKey `json:"key"`
	ActualAmount uint64   `json:"actual_amount"`
}
