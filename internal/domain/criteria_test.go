package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateCriterion_KeywordPresence(t *testing.T) {
	chunk := Chunk{Content: "Vector databases store embeddings for similarity search."}

	full := EvaluateCriterion(chunk, "", FilterCriterion{
		Type:  CriterionKeywordPresence,
		Terms: []string{"vector", "embeddings"},
	}, time.Now())
	assert.InDelta(t, 1.0, full, 1e-9)

	half := EvaluateCriterion(chunk, "", FilterCriterion{
		Type:  CriterionKeywordPresence,
		Terms: []string{"vector", "graph"},
	}, time.Now())
	assert.InDelta(t, 0.5, half, 1e-9)

	noTerms := EvaluateCriterion(chunk, "", FilterCriterion{Type: CriterionKeywordPresence}, time.Now())
	assert.Equal(t, 0.5, noTerms)
}

func TestEvaluateCriterion_TopicRelevance_IgnoresStopWords(t *testing.T) {
	chunk := Chunk{Content: "The index is rebuilt nightly from the primary store."}

	// "the" and "of" are stop words and must not dilute the topic terms.
	score := EvaluateCriterion(chunk, "", FilterCriterion{
		Type:  CriterionTopicRelevance,
		Terms: []string{"the rebuilding of index"},
	}, time.Now())
	// topic words after stop-word removal: rebuilding, index -> index matches
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestEvaluateCriterion_TopicRelevance_FallsBackToQuery(t *testing.T) {
	chunk := Chunk{Content: "Sharding splits the index across nodes."}
	score := EvaluateCriterion(chunk, "index sharding", FilterCriterion{
		Type: CriterionTopicRelevance,
	}, time.Now())
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestEvaluateCriterion_DispatchesToHeuristics(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	chunk := Chunk{
		Content: "A complete sentence with several distinct words.",
		Metadata: map[string]MetaValue{
			MetaKeyProcessedAt: MetaTime(now.Add(-48 * time.Hour)),
		},
	}

	assert.Equal(t,
		InformationDensity(chunk.Content),
		EvaluateCriterion(chunk, "", FilterCriterion{Type: CriterionInformationDensity}, now))
	assert.Equal(t,
		Completeness(chunk.Content),
		EvaluateCriterion(chunk, "", FilterCriterion{Type: CriterionCompleteness}, now))
	assert.Equal(t,
		FactualSignal(chunk.Content),
		EvaluateCriterion(chunk, "", FilterCriterion{Type: CriterionFactualContent}, now))
	assert.Equal(t, 1.0,
		EvaluateCriterion(chunk, "", FilterCriterion{Type: CriterionRecency}, now))
}

func TestEvaluateCriterion_UnknownTypeIsNeutral(t *testing.T) {
	score := EvaluateCriterion(Chunk{Content: "anything"}, "", FilterCriterion{Type: "mystery"}, time.Now())
	assert.Equal(t, 0.5, score)
}
