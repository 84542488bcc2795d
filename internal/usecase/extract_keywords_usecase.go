package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chunk-gate/internal/domain"
)

const defaultMaxKeywords = 10

// ExtractKeywordsUsecase pulls descriptive keywords out of a chunk.
type ExtractKeywordsUsecase struct {
	provider domain.CompletionProvider
	builder  GatePromptBuilder
	logger   *slog.Logger
}

// NewExtractKeywordsUsecase wires the keyword extractor.
func NewExtractKeywordsUsecase(provider domain.CompletionProvider, builder GatePromptBuilder, logger *slog.Logger) *ExtractKeywordsUsecase {
	return &ExtractKeywordsUsecase{provider: provider, builder: builder, logger: logger}
}

// Execute returns up to maxKeywords lower-cased, deduplicated keywords
// (0 uses the default).
func (u *ExtractKeywordsUsecase) Execute(ctx context.Context, chunk domain.Chunk, maxKeywords int) ([]string, error) {
	if u.provider == nil {
		return nil, errors.New("keyword extraction requires a completion provider")
	}
	if maxKeywords <= 0 {
		maxKeywords = defaultMaxKeywords
	}

	start := time.Now()
	raw, err := u.provider.Complete(ctx, u.builder.KeywordsPrompt(chunk.Content, maxKeywords), domain.CompletionOptions{
		Temperature: 0.0,
		MaxTokens:   256,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword extraction failed for chunk %s: %w", chunk.ID, err)
	}

	keywords, err := parseKeywords(raw, maxKeywords)
	if err != nil {
		return nil, fmt.Errorf("keyword extraction returned malformed output for chunk %s: %w", chunk.ID, err)
	}

	u.logger.Info("keywords_extracted",
		slog.String("chunk_id", chunk.ID),
		slog.Int("keyword_count", len(keywords)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return keywords, nil
}

func parseKeywords(raw string, limit int) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("empty response")
	}

	var parsed []string
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(parsed))
	keywords := make([]string, 0, len(parsed))
	for _, kw := range parsed {
		normalized := strings.ToLower(strings.TrimSpace(kw))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		keywords = append(keywords, normalized)
		if len(keywords) == limit {
			break
		}
	}
	if len(keywords) == 0 {
		return nil, errors.New("no usable keywords in response")
	}
	return keywords, nil
}
