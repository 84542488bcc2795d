package domain

import (
	"strings"
	"time"
	"unicode"
)

// Static reference tables shared by the heuristics. These are never mutated
// after initialization.
var (
	stopWords = map[string]bool{
		"a": true, "an": true, "and": true, "are": true, "as": true,
		"at": true, "be": true, "by": true, "for": true, "from": true,
		"has": true, "in": true, "is": true, "it": true, "its": true,
		"of": true, "on": true, "or": true, "that": true, "the": true,
		"to": true, "was": true, "were": true, "will": true, "with": true,
	}

	// Abbreviations whose trailing period does not terminate a sentence.
	abbreviations = map[string]bool{
		"e.g.": true, "i.e.": true, "etc.": true, "vs.": true,
		"dr.": true, "mr.": true, "mrs.": true, "ms.": true,
		"approx.": true, "inc.": true, "ltd.": true,
	}

	factualMarkers = []string{
		"according to", "research", "study", "studies", "data",
		"measured", "reported", "%", "published",
	}
)

// ContentRelevance scores how much of the query appears in the content.
// Query terms are lower-cased and whitespace-split; each term found as a
// substring of the lower-cased content counts. With no query the score is a
// neutral 0.5.
func ContentRelevance(content, query string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0.5
	}
	lower := strings.ToLower(content)
	found := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

// InformationDensity scores lexical diversity with a bonus for numeric and
// technical tokens.
func InformationDensity(content string) float64 {
	words := strings.Fields(content)
	if len(words) == 0 {
		return 0
	}
	unique := make(map[string]bool, len(words))
	hasNumeric := false
	hasTechnical := false
	for _, w := range words {
		unique[strings.ToLower(w)] = true
		if strings.ContainsFunc(w, unicode.IsDigit) {
			hasNumeric = true
		}
		if strings.ContainsAny(w, "_-.") {
			hasTechnical = true
		}
	}
	score := float64(len(unique)) / float64(len(words))
	if hasNumeric {
		score += 0.1
	}
	if hasTechnical {
		score += 0.1
	}
	return clamp01(score)
}

// StructuralImportance favors chunks carrying headings, code, tables, or an
// early position in the source document.
func StructuralImportance(chunk Chunk) float64 {
	score := 0.5
	content := chunk.Content
	lower := strings.ToLower(content)

	if strings.HasPrefix(strings.TrimSpace(content), "#") || strings.Contains(lower, "heading") {
		score += 0.2
	}
	if strings.Contains(content, "```") || strings.Contains(lower, "code") {
		score += 0.15
	}
	if strings.Contains(content, "|") || strings.Contains(lower, "table") {
		score += 0.15
	}
	if idx, ok := chunk.MetaIndex(); ok && idx < 3 {
		score += 0.1
	}
	return clamp01(score)
}

// Completeness checks whether the chunk reads like a whole passage: it should
// start capitalized and end with terminal punctuation. A trailing
// abbreviation period does not count as a sentence end.
func Completeness(content string) float64 {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0
	}
	score := 0.5

	runes := []rune(trimmed)
	if unicode.IsUpper(runes[0]) {
		score += 0.25
	}

	if endsWithTerminator(trimmed) {
		score += 0.25
	}
	return clamp01(score)
}

func endsWithTerminator(trimmed string) bool {
	last := trimmed[len(trimmed)-1]
	switch last {
	case '!', '?':
		return true
	case '.':
		fields := strings.Fields(trimmed)
		lastWord := strings.ToLower(fields[len(fields)-1])
		return !abbreviations[lastWord]
	default:
		return false
	}
}

// FactualSignal estimates how much verifiable material the chunk carries,
// from numeric tokens and reporting phrases.
func FactualSignal(content string) float64 {
	score := 0.5
	lower := strings.ToLower(content)

	if strings.ContainsFunc(content, unicode.IsDigit) {
		score += 0.15
	}
	for _, marker := range factualMarkers {
		if strings.Contains(lower, marker) {
			score += 0.05
		}
	}
	return clamp01(score)
}

// RecencyScore rates the chunk by the age of its processed_at metadata
// relative to now. Chunks without a timestamp score a neutral 0.5.
func RecencyScore(chunk Chunk, now time.Time) float64 {
	ts, ok := chunk.MetaTime(MetaKeyProcessedAt)
	if !ok {
		return 0.5
	}
	age := now.Sub(ts)
	switch {
	case age < 7*24*time.Hour:
		return 1.0
	case age < 30*24*time.Hour:
		return 0.8
	case age < 90*24*time.Hour:
		return 0.6
	case age < 365*24*time.Hour:
		return 0.4
	default:
		return 0.2
	}
}

// SourceCredibility rates the chunk's source metadata against a caller
// supplied trusted-source list. Without source metadata the score is neutral.
func SourceCredibility(chunk Chunk, trusted []string) float64 {
	source, ok := chunk.MetaString(MetaKeySource)
	if !ok || source == "" {
		return 0.5
	}
	lower := strings.ToLower(source)
	for _, t := range trusted {
		if t != "" && strings.Contains(lower, strings.ToLower(t)) {
			return 0.9
		}
	}
	return 0.4
}

// PatternValidation checks the chunk against expected well-formed text
// patterns. The result centers on 0.5 for unremarkable content.
func PatternValidation(content string) float64 {
	score := 0.5
	length := len(content)

	if length > 100 && length < 2000 {
		score += 0.1
	}
	if containsSentenceBoundary(content) {
		score += 0.1
	}
	if length < 50 {
		score -= 0.2
	}
	if length > 0 {
		newlines := strings.Count(content, "\n")
		if float64(newlines)/float64(length) > 0.05 {
			score -= 0.1
		}
	}
	return score
}

func containsSentenceBoundary(content string) bool {
	for _, term := range []string{". ", ".\n", "! ", "!\n", "? ", "?\n"} {
		if strings.Contains(content, term) {
			return true
		}
	}
	return false
}

// EdgeCasePenalty returns a non-positive adjustment for degenerate chunks:
// very short content, mostly-numeric content, or heavy repetition.
func EdgeCasePenalty(content string) float64 {
	penalty := 0.0

	if len(content) < 50 {
		penalty -= 0.3
	}

	words := strings.Fields(content)
	if len(words) > 0 {
		numeric := 0
		unique := make(map[string]bool, len(words))
		for _, w := range words {
			if isNumericToken(w) {
				numeric++
			}
			unique[strings.ToLower(w)] = true
		}
		if float64(numeric)/float64(len(words)) > 0.8 {
			penalty -= 0.2
		}
		if len(words) > 10 && float64(len(unique))/float64(len(words)) < 0.3 {
			penalty -= 0.2
		}
	}
	return penalty
}

func isNumericToken(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsStopWord reports whether the lower-cased word is in the shared stop-word
// table.
func IsStopWord(word string) bool {
	return stopWords[strings.ToLower(word)]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp01 bounds a score to [0, 1].
func Clamp01(v float64) float64 { return clamp01(v) }
