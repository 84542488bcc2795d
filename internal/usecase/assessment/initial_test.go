package assessment_test

import (
	"context"
	"testing"
	"time"

	"chunk-gate/internal/domain"
	"chunk-gate/internal/usecase/assessment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStageContext(chunk domain.Chunk, query string) *assessment.StageContext {
	return assessment.NewStageContext("test-assessment", chunk, query, time.Now())
}

func TestInitialAssess_NoQuery_SkipsProbe(t *testing.T) {
	provider := new(MockCompletionProvider)

	sc := newStageContext(domain.Chunk{ID: "c1", Content: "Plain prose with several distinct words."}, "")
	assessment.InitialAssess(context.Background(), sc, provider, nil, discardLogger())

	// relevance, density, structural; no probe factor without a query
	require.Len(t, sc.Factors, 3)
	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	assert.Contains(t, sc.Reasoning, domain.StageInitial)
}

func TestInitialAssess_WithQuery_AppendsProbeScore(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("0.9", nil)

	chunk := domain.Chunk{ID: "c1", Content: "Machine learning is a subset of AI."}
	sc := newStageContext(chunk, "machine learning")
	assessment.InitialAssess(context.Background(), sc, provider, nil, discardLogger())

	require.Len(t, sc.Factors, 4)

	probe, ok := domain.FindFactor(sc.Factors, domain.FactorLLMRelevance)
	require.True(t, ok)
	assert.InDelta(t, 0.9, probe.Contribution, 1e-9)

	// mean of relevance 1.0, density 1.0, structural 0.5, probe 0.9
	assert.InDelta(t, 0.85, sc.InitialScore, 1e-9)
}

func TestInitialAssess_WeightsCustomCriteria(t *testing.T) {
	chunk := domain.Chunk{ID: "c1", Content: "Vector search over dense embeddings."}
	criteria := []domain.FilterCriterion{
		{Type: domain.CriterionKeywordPresence, Terms: []string{"vector"}, Weight: 0.5},
	}

	sc := newStageContext(chunk, "")
	assessment.InitialAssess(context.Background(), sc, nil, criteria, discardLogger())

	criterion, ok := domain.FindFactor(sc.Factors, "Criterion: keyword_presence")
	require.True(t, ok)
	// raw keyword score 1.0 at weight 0.5
	assert.InDelta(t, 0.5, criterion.Contribution, 1e-9)
}

func TestInitialAssess_HeavyCriterionWeightStaysInRange(t *testing.T) {
	// every word distinct, so density scores high before the weight applies
	chunk := domain.Chunk{ID: "c1", Content: "Sparse retrieval complements dense embeddings during hybrid ranking experiments."}
	criteria := []domain.FilterCriterion{
		{Type: domain.CriterionInformationDensity, Weight: 3.0},
	}

	sc := newStageContext(chunk, "")
	assessment.InitialAssess(context.Background(), sc, nil, criteria, discardLogger())

	assert.GreaterOrEqual(t, sc.InitialScore, 0.0)
	assert.LessOrEqual(t, sc.InitialScore, 1.0)
}

func TestInitialAssess_ReasoningNamesDominantFactor(t *testing.T) {
	chunk := domain.Chunk{ID: "c1", Content: "# Setup\nword word word word word word word word word word"}
	sc := newStageContext(chunk, "")
	assessment.InitialAssess(context.Background(), sc, nil, nil, discardLogger())

	// the heading marker makes structural importance the largest contribution
	assert.Contains(t, sc.Reasoning[domain.StageInitial], domain.FactorStructuralImportance)
}
