package advisor

import (
	"regexp"
	"sort"
	"strings"

	"ragtune/internal/eval"
	"ragtune/internal/runner"
)

const topPhraseCount = 10

// citationPattern matches inline source citations such as [Page 12] or [p. 4].
var citationPattern = regexp.MustCompile(`(?i)\[(?:page|p\.)\s*\d+\]`)

// WeaknessFrequency returns the most recurring weakness phrases across the
// scored records, most frequent first. Ties break on the phrase itself so
// identical inputs always produce identical output.
func WeaknessFrequency(scores []eval.ScoreRecord) []PhraseCount {
	phrases := make([]string, 0, len(scores))
	for _, score := range scores {
		if !score.Scored() {
			continue
		}
		phrases = append(phrases, score.Weaknesses...)
	}
	return topPhrases(phrases, topPhraseCount)
}

// MissingInfoFrequency returns the most recurring missing-information
// phrases across the scored records, most frequent first.
func MissingInfoFrequency(scores []eval.ScoreRecord) []PhraseCount {
	phrases := make([]string, 0, len(scores))
	for _, score := range scores {
		if !score.Scored() {
			continue
		}
		phrases = append(phrases, score.MissingInfo...)
	}
	return topPhrases(phrases, topPhraseCount)
}

// Retrieval computes retrieval-health metrics over a batch. Failed records
// count as zero-source queries; they are the retrievals that never happened.
func Retrieval(records []runner.AnswerRecord) RetrievalHealth {
	health := RetrievalHealth{}
	if len(records) == 0 {
		return health
	}
	totalSources := 0
	uniqueSum := 0
	withSources := 0
	for _, record := range records {
		count := len(record.Sources)
		totalSources += count
		if count == 0 {
			health.ZeroSourceCount++
			continue
		}
		withSources++
		locations := map[string]struct{}{}
		for _, source := range record.Sources {
			locations[source.Location] = struct{}{}
		}
		uniqueSum += len(locations)
	}
	total := float64(len(records))
	health.AvgSources = float64(totalSources) / total
	health.ZeroSourcePct = float64(health.ZeroSourceCount) / total * 100
	if withSources > 0 {
		health.AvgUniqueLocations = float64(uniqueSum) / float64(withSources)
	}
	if health.AvgSources > 0 {
		health.Diversity = health.AvgUniqueLocations / health.AvgSources
	}
	return health
}

// Shape computes answer-shape metrics over the successful records.
func Shape(records []runner.AnswerRecord) AnswerShape {
	shape := AnswerShape{}
	lengths := make([]int, 0, len(records))
	cited := 0
	citations := 0
	for _, record := range records {
		if record.Failed() {
			continue
		}
		words := len(strings.Fields(record.Answer))
		lengths = append(lengths, words)
		found := citationPattern.FindAllString(record.Answer, -1)
		if len(found) > 0 {
			cited++
		}
		citations += len(found)
	}
	if len(lengths) == 0 {
		return shape
	}
	total := 0
	shape.MinWords = lengths[0]
	shape.MaxWords = lengths[0]
	for _, words := range lengths {
		total += words
		if words < shape.MinWords {
			shape.MinWords = words
		}
		if words > shape.MaxWords {
			shape.MaxWords = words
		}
	}
	count := float64(len(lengths))
	shape.AvgWords = float64(total) / count
	sorted := append([]int(nil), lengths...)
	sort.Ints(sorted)
	shape.MedianWords = sorted[len(sorted)/2]
	shape.CitationRate = float64(cited) / count
	shape.AvgCitations = float64(citations) / count
	return shape
}

// topPhrases counts phrase occurrences and returns the most frequent,
// breaking count ties alphabetically.
func topPhrases(phrases []string, limit int) []PhraseCount {
	counts := map[string]int{}
	for _, phrase := range phrases {
		trimmed := strings.TrimSpace(phrase)
		if trimmed == "" {
			continue
		}
		counts[trimmed]++
	}
	ranked := make([]PhraseCount, 0, len(counts))
	for phrase, count := range counts {
		ranked = append(ranked, PhraseCount{Phrase: phrase, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Phrase < ranked[j].Phrase
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
