package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"chunk-gate/internal/domain"
	"chunk-gate/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompletionProvider is a test double for domain.CompletionProvider.
type MockCompletionProvider struct {
	mock.Mock
}

func (m *MockCompletionProvider) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (string, error) {
	args := m.Called(ctx, prompt, opts)
	return args.String(0), args.Error(1)
}

func (m *MockCompletionProvider) CompleteStream(ctx context.Context, prompt string, opts domain.CompletionOptions) (<-chan string, error) {
	args := m.Called(ctx, prompt, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan string), args.Error(1)
}

func (m *MockCompletionProvider) ModelName() string { return "mock-model" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newFilterUsecase(provider domain.CompletionProvider) *usecase.FilterChunksUsecase {
	logger := discardLogger()
	return usecase.NewFilterChunksUsecase(usecase.NewAssessChunkUsecase(provider, logger), logger)
}

func TestFilter_IrrelevantChunkFilteredOut(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("0.1", nil)

	opts := usecase.DefaultFilterOptions()
	opts.MinRelevanceScore = 0.7

	results, err := newFilterUsecase(provider).Execute(context.Background(),
		[]domain.Chunk{{ID: "t1", Content: "The weather is sunny."}},
		"machine learning", opts)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFilter_RelevantChunkPasses(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("0.9", nil)

	opts := usecase.DefaultFilterOptions()
	opts.MinRelevanceScore = 0.5

	results, err := newFilterUsecase(provider).Execute(context.Background(),
		[]domain.Chunk{{ID: "t1", Content: "Machine learning is a subset of AI."}},
		"machine learning", opts)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Equal(t, "t1", results[0].Chunk.ID)
	assert.GreaterOrEqual(t, results[0].CombinedScore, 0.5)
	assert.Contains(t, results[0].Reason, "meets threshold")
}

func TestFilter_ScoreFieldsStayInUnitRange(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("0.7", nil)

	chunks := []domain.Chunk{
		{ID: "a", Content: "Short."},
		{ID: "b", Content: "# Heading\nA structured chunk with a | table | marker and several sentences. It keeps going for a while."},
		{ID: "c", Content: "1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16 17 18 19 20 21 22 23"},
		{ID: "d", Content: ""},
	}

	opts := usecase.DefaultFilterOptions()
	opts.MinRelevanceScore = 0 // keep everything so we can inspect scores
	opts.Criteria = []domain.FilterCriterion{
		{Type: domain.CriterionInformationDensity, Weight: 3.0},
	}

	results, err := newFilterUsecase(provider).Execute(context.Background(), chunks, "numbers", opts)
	require.NoError(t, err)
	require.Len(t, results, len(chunks))

	for _, r := range results {
		assert.GreaterOrEqual(t, r.RelevanceScore, 0.0)
		assert.LessOrEqual(t, r.RelevanceScore, 1.0)
		assert.GreaterOrEqual(t, r.QualityScore, 0.0)
		assert.LessOrEqual(t, r.QualityScore, 1.0)
		assert.GreaterOrEqual(t, r.CombinedScore, 0.0)
		assert.LessOrEqual(t, r.CombinedScore, 1.0)

		a := r.Assessment
		assert.GreaterOrEqual(t, a.InitialScore, 0.0)
		assert.LessOrEqual(t, a.InitialScore, 1.0)
		require.NotNil(t, a.ReflectionScore)
		assert.GreaterOrEqual(t, *a.ReflectionScore, 0.0)
		assert.LessOrEqual(t, *a.ReflectionScore, 1.0)
		require.NotNil(t, a.CriticScore)
		assert.GreaterOrEqual(t, *a.CriticScore, 0.0)
		assert.LessOrEqual(t, *a.CriticScore, 1.0)
		assert.GreaterOrEqual(t, a.FinalScore, 0.0)
		assert.LessOrEqual(t, a.FinalScore, 1.0)
		assert.GreaterOrEqual(t, a.Confidence, 0.0)
		assert.LessOrEqual(t, a.Confidence, 1.0)
	}
}

func TestFilter_ThresholdMonotonicity(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("0.6", nil)

	chunks := []domain.Chunk{
		{ID: "a", Content: "Machine learning models require training data to generalize well."},
		{ID: "b", Content: "The weather is sunny."},
		{ID: "c", Content: "Deep learning is one family of machine learning methods in wide use."},
	}

	counts := make([]int, 0, 3)
	for _, threshold := range []float64{0.3, 0.6, 0.9} {
		opts := usecase.DefaultFilterOptions()
		opts.MinRelevanceScore = threshold

		results, err := newFilterUsecase(provider).Execute(context.Background(), chunks, "machine learning", opts)
		require.NoError(t, err)
		counts = append(counts, len(results))
	}

	assert.GreaterOrEqual(t, counts[0], counts[1])
	assert.GreaterOrEqual(t, counts[1], counts[2])
}

func TestFilter_MaxChunksKeepsHighestCombinedScores(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("0.8", nil)

	chunks := []domain.Chunk{
		{ID: "a", Content: "Machine learning is used here briefly."},
		{ID: "b", Content: "Machine learning pipelines include feature extraction, model training, and careful evaluation. Each step affects final accuracy."},
		{ID: "c", Content: "Machine learning systems degrade without monitoring. Retraining schedules keep models aligned with fresh data distributions."},
	}

	opts := usecase.DefaultFilterOptions()
	opts.MinRelevanceScore = 0
	opts.MaxChunks = 2

	results, err := newFilterUsecase(provider).Execute(context.Background(), chunks, "machine learning", opts)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.GreaterOrEqual(t, results[0].CombinedScore, results[1].CombinedScore)
}

func TestFilter_PreserveOrderSortsByMetadataIndex(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("0.9", nil)

	chunks := []domain.Chunk{
		{ID: "1", Content: "Machine learning introduction with enough text to score reasonably well here.",
			Metadata: map[string]domain.MetaValue{domain.MetaKeyIndex: domain.MetaInt(0)}},
		{ID: "2", Content: "Machine learning methods section, also carrying enough prose to pass the gate.",
			Metadata: map[string]domain.MetaValue{domain.MetaKeyIndex: domain.MetaInt(1)}},
		{ID: "3", Content: "Machine learning conclusions paragraph with a comparable amount of detail included.",
			Metadata: map[string]domain.MetaValue{domain.MetaKeyIndex: domain.MetaInt(2)}},
	}

	opts := usecase.DefaultFilterOptions()
	opts.MinRelevanceScore = 0.1
	opts.PreserveOrder = true

	results, err := newFilterUsecase(provider).Execute(context.Background(), chunks, "machine learning", opts)
	require.NoError(t, err)
	require.Len(t, results, 3)

	ids := []string{results[0].Chunk.ID, results[1].Chunk.ID, results[2].Chunk.ID}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestFilter_PreserveOrderPutsUnindexedChunksLast(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("0.9", nil)

	chunks := []domain.Chunk{
		{ID: "no-index", Content: "Machine learning chunk that lost its metadata somewhere along the way."},
		{ID: "indexed", Content: "Machine learning chunk that kept its position metadata through the pipeline.",
			Metadata: map[string]domain.MetaValue{domain.MetaKeyIndex: domain.MetaInt(5)}},
	}

	opts := usecase.DefaultFilterOptions()
	opts.MinRelevanceScore = 0.1
	opts.PreserveOrder = true

	results, err := newFilterUsecase(provider).Execute(context.Background(), chunks, "machine learning", opts)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "indexed", results[0].Chunk.ID)
	assert.Equal(t, "no-index", results[1].Chunk.ID)
}

func TestFilter_ProviderAlwaysFailing_StillReturnsEveryChunk(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("provider down"))

	chunks := []domain.Chunk{
		{ID: "a", Content: "Machine learning content that matches the query terms directly."},
		{ID: "b", Content: "Unrelated content about gardening in the early spring months."},
	}

	opts := usecase.DefaultFilterOptions()
	opts.MinRelevanceScore = 0

	results, err := newFilterUsecase(provider).Execute(context.Background(), chunks, "machine learning", opts)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFilter_EmptyInput_NeverCallsProvider(t *testing.T) {
	provider := new(MockCompletionProvider)

	results, err := newFilterUsecase(provider).Execute(context.Background(),
		nil, "machine learning", usecase.DefaultFilterOptions())

	require.NoError(t, err)
	assert.Empty(t, results)
	provider.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestFilter_InvalidBatchSize(t *testing.T) {
	opts := usecase.DefaultFilterOptions()
	opts.BatchSize = 0

	_, err := newFilterUsecase(nil).Execute(context.Background(),
		[]domain.Chunk{{ID: "a", Content: "anything"}}, "", opts)

	require.Error(t, err)
	assert.ErrorIs(t, err, usecase.ErrInvalidBatchSize)
}

func TestFilter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newFilterUsecase(nil).Execute(ctx,
		[]domain.Chunk{{ID: "a", Content: "anything"}}, "", usecase.DefaultFilterOptions())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilter_BatchesProcessEveryChunk(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("0.9", nil)

	var chunks []domain.Chunk
	for i := 0; i < 7; i++ {
		chunks = append(chunks, domain.Chunk{
			ID:      string(rune('a' + i)),
			Content: "Machine learning content repeated across batches with distinct chunk identifiers.",
		})
	}

	opts := usecase.DefaultFilterOptions()
	opts.MinRelevanceScore = 0
	opts.BatchSize = 3 // 3 batches: 3 + 3 + 1

	results, err := newFilterUsecase(provider).Execute(context.Background(), chunks, "machine learning", opts)
	require.NoError(t, err)
	assert.Len(t, results, 7)
}
