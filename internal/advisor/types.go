package advisor

// Priority ranks how urgently a suggestion should be tried.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Suggestion is one recommended parameter change. Values are carried as
// float64 so integer and fractional parameters share one apply path; the
// controller decides whether to act on it based on AppliesWithoutReindex.
type Suggestion struct {
	Parameter             string   `json:"parameter"`
	CurrentValue          float64  `json:"current_value"`
	SuggestedValue        float64  `json:"suggested_value"`
	Rationale             string   `json:"rationale"`
	Priority              Priority `json:"priority"`
	AppliesWithoutReindex bool     `json:"applies_without_reindex"`
}

// PhraseCount is one recurring judge phrase and how often it appeared.
type PhraseCount struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// RetrievalHealth aggregates how well retrieval supplied context.
type RetrievalHealth struct {
	AvgSources         float64 `json:"avg_sources"`
	ZeroSourceCount    int     `json:"zero_source_count"`
	ZeroSourcePct      float64 `json:"zero_source_pct"`
	AvgUniqueLocations float64 `json:"avg_unique_locations"`
	Diversity          float64 `json:"diversity"`
}

// AnswerShape aggregates surface features of the produced answers.
type AnswerShape struct {
	AvgWords     float64 `json:"avg_words"`
	MinWords     int     `json:"min_words"`
	MaxWords     int     `json:"max_words"`
	MedianWords  int     `json:"median_words"`
	CitationRate float64 `json:"citation_rate"`
	AvgCitations float64 `json:"avg_citations"`
}

// Action is one prioritized step for the improvement report. Priority 1
// actions address retrieval failures and dominant weaknesses; priority 2
// actions are the top parameter changes.
type Action struct {
	Priority  int    `json:"priority"`
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
	Impact    string `json:"impact"`
}

// Advisory holds free-form model recommendations. Advisory content is never
// applied automatically; it only appears in the improvement report.
type Advisory struct {
	CriticalIssues    []Issue          `json:"critical_issues"`
	Retrieval         []Recommendation `json:"retrieval_improvements"`
	AnswerGeneration  []Recommendation `json:"answer_improvements"`
	PromptEngineering []PromptNote     `json:"prompt_engineering"`
}

// Issue is one model-identified problem with a proposed fix.
type Issue struct {
	Issue    string `json:"issue"`
	Impact   string `json:"impact"`
	Solution string `json:"solution"`
}

// Recommendation pairs a recommendation with its expected benefit.
type Recommendation struct {
	Recommendation  string `json:"recommendation"`
	ExpectedBenefit string `json:"expected_benefit"`
}

// PromptNote is a prompt-engineering observation for a prompt area.
type PromptNote struct {
	Area       string `json:"area"`
	Suggestion string `json:"suggestion"`
}
