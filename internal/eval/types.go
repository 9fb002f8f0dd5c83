package eval

// ScoreRecord is the judge's verdict on one answered question. Sub-scores are
// on a 0-10 scale; Composite is their equal-weight mean. A record with Error
// set was never scored and is excluded from every aggregate.
type ScoreRecord struct {
	QuestionID   string   `json:"question_id"`
	Accuracy     float64  `json:"accuracy"`
	Completeness float64  `json:"completeness"`
	Relevance    float64  `json:"relevance"`
	Clarity      float64  `json:"clarity"`
	Composite    float64  `json:"composite"`
	Weaknesses   []string `json:"weaknesses"`
	MissingInfo  []string `json:"missing_info"`
	Error        string   `json:"error,omitempty"`
}

// Scored reports whether the judge produced a usable verdict.
func (r ScoreRecord) Scored() bool {
	return r.Error == ""
}

// Statistics aggregates one iteration's score records. Averages cover scored
// records only; Failed counts execution and judging failures together.
type Statistics struct {
	Total           int     `json:"total"`
	Scored          int     `json:"scored"`
	Failed          int     `json:"failed"`
	AvgAccuracy     float64 `json:"avg_accuracy"`
	AvgCompleteness float64 `json:"avg_completeness"`
	AvgRelevance    float64 `json:"avg_relevance"`
	AvgClarity      float64 `json:"avg_clarity"`
	AvgComposite    float64 `json:"avg_composite"`
	WeakCount       int     `json:"weak_count"`
	WeakPct         float64 `json:"weak_pct"`
}

// Aggregate computes batch statistics over the scored records.
func Aggregate(scores []ScoreRecord, weakThreshold float64) Statistics {
	stats := Statistics{Total: len(scores)}
	var accuracy, completeness, relevance, clarity, composite float64
	for _, score := range scores {
		if !score.Scored() {
			stats.Failed++
			continue
		}
		stats.Scored++
		accuracy += score.Accuracy
		completeness += score.Completeness
		relevance += score.Relevance
		clarity += score.Clarity
		composite += score.Composite
		if score.Composite < weakThreshold {
			stats.WeakCount++
		}
	}
	if stats.Scored > 0 {
		scored := float64(stats.Scored)
		stats.AvgAccuracy = accuracy / scored
		stats.AvgCompleteness = completeness / scored
		stats.AvgRelevance = relevance / scored
		stats.AvgClarity = clarity / scored
		stats.AvgComposite = composite / scored
		stats.WeakPct = float64(stats.WeakCount) / scored * 100
	}
	return stats
}

// IdentifyWeak returns the scored records below the composite threshold and
// their share of all scored records as a percentage.
func IdentifyWeak(scores []ScoreRecord, threshold float64) ([]ScoreRecord, float64) {
	weak := make([]ScoreRecord, 0)
	scored := 0
	for _, score := range scores {
		if !score.Scored() {
			continue
		}
		scored++
		if score.Composite < threshold {
			weak = append(weak, score)
		}
	}
	pct := 0.0
	if scored > 0 {
		pct = float64(len(weak)) / float64(scored) * 100
	}
	return weak, pct
}
