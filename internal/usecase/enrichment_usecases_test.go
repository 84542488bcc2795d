package usecase_test

import (
	"context"
	"errors"
	"testing"

	"chunk-gate/internal/domain"
	"chunk-gate/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGenerateQA_ParsesPairsAndDropsBlanks(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`[{"question":"What is ML?","answer":"A field of AI."},{"question":"","answer":"orphan"}]`, nil)

	uc := usecase.NewGenerateQAUsecase(provider, usecase.NewGatePromptBuilder(), discardLogger())
	pairs, err := uc.Execute(context.Background(), domain.Chunk{ID: "c1", Content: "ML text."}, 2)

	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "What is ML?", pairs[0].Question)
	assert.Equal(t, "A field of AI.", pairs[0].Answer)
}

func TestGenerateQA_ProviderErrorSurfaces(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("timeout"))

	uc := usecase.NewGenerateQAUsecase(provider, usecase.NewGatePromptBuilder(), discardLogger())
	_, err := uc.Execute(context.Background(), domain.Chunk{ID: "c1", Content: "text"}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qa generation failed")
}

func TestGenerateQA_MalformedJSONRejected(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("not json", nil)

	uc := usecase.NewGenerateQAUsecase(provider, usecase.NewGatePromptBuilder(), discardLogger())
	_, err := uc.Execute(context.Background(), domain.Chunk{ID: "c1", Content: "text"}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed output")
}

func TestGenerateQA_NilProvider(t *testing.T) {
	uc := usecase.NewGenerateQAUsecase(nil, usecase.NewGatePromptBuilder(), discardLogger())
	_, err := uc.Execute(context.Background(), domain.Chunk{ID: "c1", Content: "text"}, 2)
	assert.Error(t, err)
}

func TestExtractKeywords_NormalizesAndDeduplicates(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`["Machine Learning", "machine learning", "  Evaluation ", ""]`, nil)

	uc := usecase.NewExtractKeywordsUsecase(provider, usecase.NewGatePromptBuilder(), discardLogger())
	keywords, err := uc.Execute(context.Background(), domain.Chunk{ID: "c1", Content: "text"}, 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"machine learning", "evaluation"}, keywords)
}

func TestExtractKeywords_LimitApplied(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(`["one","two","three","four"]`, nil)

	uc := usecase.NewExtractKeywordsUsecase(provider, usecase.NewGatePromptBuilder(), discardLogger())
	keywords, err := uc.Execute(context.Background(), domain.Chunk{ID: "c1", Content: "text"}, 2)

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, keywords)
}

func TestSummarize_TrimsResponse(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("  A short summary.\n", nil)

	uc := usecase.NewSummarizeChunkUsecase(provider, usecase.NewGatePromptBuilder(), discardLogger())
	summary, err := uc.Execute(context.Background(), domain.Chunk{ID: "c1", Content: "long text"}, 30)

	require.NoError(t, err)
	assert.Equal(t, "A short summary.", summary)
}

func TestSummarize_EmptyResponseRejected(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("   ", nil)

	uc := usecase.NewSummarizeChunkUsecase(provider, usecase.NewGatePromptBuilder(), discardLogger())
	_, err := uc.Execute(context.Background(), domain.Chunk{ID: "c1", Content: "long text"}, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty output")
}

func TestEnrichChunk_PrependsContextAndKeepsMetadata(t *testing.T) {
	provider := new(MockCompletionProvider)
	provider.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("This chunk covers model evaluation.", nil)

	original := domain.Chunk{
		ID:      "c1",
		Content: "Precision and recall trade off against each other.",
		Metadata: map[string]domain.MetaValue{
			domain.MetaKeySource: domain.MetaString("handbook"),
		},
	}

	uc := usecase.NewEnrichChunkUsecase(provider, usecase.NewGatePromptBuilder(), discardLogger())
	enriched, err := uc.Execute(context.Background(), original, "ML Handbook")

	require.NoError(t, err)
	assert.Equal(t, "This chunk covers model evaluation.\n\nPrecision and recall trade off against each other.", enriched.Content)
	assert.Equal(t, "c1", enriched.ID)

	source, ok := enriched.Metadata[domain.MetaKeySource].String()
	require.True(t, ok)
	assert.Equal(t, "handbook", source)

	// source chunk untouched
	assert.Equal(t, "Precision and recall trade off against each other.", original.Content)
}
