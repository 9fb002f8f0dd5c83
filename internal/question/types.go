package question

// Type classifies a generated question.
type Type string

const (
	TypeFactual    Type = "factual"
	TypeConceptual Type = "conceptual"
	TypeAnalytical Type = "analytical"
)

// Set is the question set schema loaded from and saved to disk. The same set
// is reused across every iteration of a run so that composite score movements
// are attributable to configuration changes rather than sampling variance.
type Set struct {
	Version   int        `json:"version" yaml:"version"`
	Questions []Question `json:"questions" yaml:"questions"`
	Metadata  Coverage   `json:"metadata" yaml:"metadata"`
}

// Coverage summarizes how much of the source document a set covers.
type Coverage struct {
	TotalQuestions int `json:"total_questions" yaml:"total_questions"`
	SegmentsUsed   int `json:"segments_used" yaml:"segments_used"`
	SegmentsTotal  int `json:"segments_total" yaml:"segments_total"`
}

// Question is a single evaluation question. The expected answer is a scoring
// aid shown only to the judge, never to the pipeline under test.
type Question struct {
	ID             string   `json:"id" yaml:"id"`
	Text           string   `json:"question" yaml:"question"`
	Type           Type     `json:"type" yaml:"type"`
	ExpectedAnswer string   `json:"expected_answer" yaml:"expected_answer"`
	Concepts       []string `json:"concepts,omitempty" yaml:"concepts,omitempty"`
	SegmentID      string   `json:"segment_id,omitempty" yaml:"segment_id,omitempty"`
	SegmentPreview string   `json:"segment_preview,omitempty" yaml:"segment_preview,omitempty"`
}

// Segment is one contiguous unit of source document text, by convention a
// page of the extracted document.
type Segment struct {
	ID       string `json:"id" yaml:"id"`
	Text     string `json:"text" yaml:"text"`
	Position int    `json:"position" yaml:"position"`
}
