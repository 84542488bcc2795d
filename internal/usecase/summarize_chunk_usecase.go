package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chunk-gate/internal/domain"
)

const defaultSummaryWords = 60

// SummarizeChunkUsecase produces a bounded-length summary of a chunk.
type SummarizeChunkUsecase struct {
	provider domain.CompletionProvider
	builder  GatePromptBuilder
	logger   *slog.Logger
}

// NewSummarizeChunkUsecase wires the summarizer.
func NewSummarizeChunkUsecase(provider domain.CompletionProvider, builder GatePromptBuilder, logger *slog.Logger) *SummarizeChunkUsecase {
	return &SummarizeChunkUsecase{provider: provider, builder: builder, logger: logger}
}

// Execute summarizes the chunk in at most maxWords words (0 uses the
// default).
func (u *SummarizeChunkUsecase) Execute(ctx context.Context, chunk domain.Chunk, maxWords int) (string, error) {
	if u.provider == nil {
		return "", errors.New("summarization requires a completion provider")
	}
	if maxWords <= 0 {
		maxWords = defaultSummaryWords
	}

	start := time.Now()
	raw, err := u.provider.Complete(ctx, u.builder.SummaryPrompt(chunk.Content, maxWords), domain.CompletionOptions{
		Temperature: 0.2,
		MaxTokens:   maxWords * 3,
	})
	if err != nil {
		return "", fmt.Errorf("summarization failed for chunk %s: %w", chunk.ID, err)
	}

	summary := strings.TrimSpace(raw)
	if summary == "" {
		return "", fmt.Errorf("summarization returned empty output for chunk %s", chunk.ID)
	}

	u.logger.Info("chunk_summarized",
		slog.String("chunk_id", chunk.ID),
		slog.Int("summary_length", len(summary)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return summary, nil
}
