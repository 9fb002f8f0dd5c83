package runner

import "ragtune/internal/pipeline"

// AnswerRecord is the outcome of asking the pipeline one question. Records are
// written once per (question, iteration) and never mutated afterwards; a failed
// call leaves Answer empty and Error set.
type AnswerRecord struct {
	QuestionID       string            `json:"question_id"`
	Answer           string            `json:"answer"`
	Sources          []pipeline.Source `json:"sources"`
	RetrievalTimeMs  int64             `json:"retrieval_time_ms"`
	GenerationTimeMs int64             `json:"generation_time_ms"`
	Error            string            `json:"error,omitempty"`
}

// Failed reports whether the pipeline call behind this record failed.
func (r AnswerRecord) Failed() bool {
	return r.Error != ""
}

// QueryTimeMs returns the total pipeline-reported time for the call.
func (r AnswerRecord) QueryTimeMs() int64 {
	return r.RetrievalTimeMs + r.GenerationTimeMs
}

// BatchStats summarizes one executed batch.
type BatchStats struct {
	Total       int     `json:"total"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
	AvgQueryMs  float64 `json:"avg_query_ms"`
	AvgSources  float64 `json:"avg_sources"`
}

// Stats aggregates a batch of answer records. Failed records count toward
// Total and Failed but are excluded from the averages.
func Stats(records []AnswerRecord) BatchStats {
	stats := BatchStats{Total: len(records)}
	var queryMs int64
	var sources int
	for _, record := range records {
		if record.Failed() {
			stats.Failed++
			continue
		}
		stats.Succeeded++
		queryMs += record.QueryTimeMs()
		sources += len(record.Sources)
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(stats.Total)
	}
	if stats.Succeeded > 0 {
		stats.AvgQueryMs = float64(queryMs) / float64(stats.Succeeded)
		stats.AvgSources = float64(sources) / float64(stats.Succeeded)
	}
	return stats
}
