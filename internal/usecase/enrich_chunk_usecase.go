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

// EnrichChunkUsecase prepends a one-sentence situating context to a chunk to
// improve downstream retrieval. The caller's chunk is never mutated; a new
// chunk value is returned.
type EnrichChunkUsecase struct {
	provider domain.CompletionProvider
	builder  GatePromptBuilder
	logger   *slog.Logger
}

// NewEnrichChunkUsecase wires the contextual enricher.
func NewEnrichChunkUsecase(provider domain.CompletionProvider, builder GatePromptBuilder, logger *slog.Logger) *EnrichChunkUsecase {
	return &EnrichChunkUsecase{provider: provider, builder: builder, logger: logger}
}

// Execute returns a copy of the chunk with the situating sentence prepended.
// documentTitle may be empty.
func (u *EnrichChunkUsecase) Execute(ctx context.Context, chunk domain.Chunk, documentTitle string) (domain.Chunk, error) {
	if u.provider == nil {
		return domain.Chunk{}, errors.New("contextual enrichment requires a completion provider")
	}

	start := time.Now()
	raw, err := u.provider.Complete(ctx, u.builder.EnrichmentPrompt(chunk.Content, documentTitle), domain.CompletionOptions{
		Temperature: 0.2,
		MaxTokens:   96,
	})
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("enrichment failed for chunk %s: %w", chunk.ID, err)
	}

	sentence := strings.TrimSpace(raw)
	if sentence == "" {
		return domain.Chunk{}, fmt.Errorf("enrichment returned empty output for chunk %s", chunk.ID)
	}

	enriched := chunk.WithContent(sentence + "\n\n" + chunk.Content)

	u.logger.Info("chunk_enriched",
		slog.String("chunk_id", chunk.ID),
		slog.Int("context_length", len(sentence)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return enriched, nil
}
