package domain

import (
	"strings"
	"time"
)

// CriterionType names a caller-supplied scoring rule.
type CriterionType string

const (
	CriterionKeywordPresence    CriterionType = "keyword_presence"
	CriterionTopicRelevance     CriterionType = "topic_relevance"
	CriterionInformationDensity CriterionType = "information_density"
	CriterionFactualContent     CriterionType = "factual_content"
	CriterionRecency            CriterionType = "recency"
	CriterionSourceCredibility  CriterionType = "source_credibility"
	CriterionCompleteness       CriterionType = "completeness"
)

// FilterCriterion is a weighted scoring rule evaluated alongside the built-in
// heuristics. Terms carries the criterion payload where one applies: keywords
// for keyword presence, topic words for topic relevance, trusted source names
// for source credibility.
type FilterCriterion struct {
	Type   CriterionType
	Terms  []string
	Weight float64
}

// EvaluateCriterion dispatches a criterion to its heuristic scorer and
// returns the unweighted score in [0, 1]. Unknown criterion types score a
// neutral 0.5 rather than failing the assessment.
func EvaluateCriterion(chunk Chunk, query string, c FilterCriterion, now time.Time) float64 {
	switch c.Type {
	case CriterionKeywordPresence:
		return keywordPresence(chunk.Content, c.Terms)
	case CriterionTopicRelevance:
		return topicRelevance(chunk.Content, c.Terms, query)
	case CriterionInformationDensity:
		return InformationDensity(chunk.Content)
	case CriterionFactualContent:
		return FactualSignal(chunk.Content)
	case CriterionRecency:
		return RecencyScore(chunk, now)
	case CriterionSourceCredibility:
		return SourceCredibility(chunk, c.Terms)
	case CriterionCompleteness:
		return Completeness(chunk.Content)
	default:
		return 0.5
	}
}

func keywordPresence(content string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0.5
	}
	lower := strings.ToLower(content)
	found := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// topicRelevance measures overlap between topic terms and content words,
// ignoring stop words on both sides. Falls back to the query when the
// criterion carries no terms of its own.
func topicRelevance(content string, terms []string, query string) float64 {
	if len(terms) == 0 {
		terms = strings.Fields(query)
	}
	var topicWords []string
	for _, t := range terms {
		for _, w := range strings.Fields(strings.ToLower(t)) {
			if !IsStopWord(w) {
				topicWords = append(topicWords, w)
			}
		}
	}
	if len(topicWords) == 0 {
		return 0.5
	}

	contentWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(content)) {
		if !IsStopWord(w) {
			contentWords[strings.Trim(w, ".,!?;:\"'()")] = true
		}
	}

	matched := 0
	for _, w := range topicWords {
		if contentWords[w] {
			matched++
		}
	}
	return float64(matched) / float64(len(topicWords))
}
