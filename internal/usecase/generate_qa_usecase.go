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

const defaultQAPairs = 3

// QAPair is one generated question with its grounded answer.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// GenerateQAUsecase produces question/answer pairs for a chunk. Unlike the
// relevance probe, these wrappers do not silently degrade: a provider failure
// or malformed response is returned to the caller.
type GenerateQAUsecase struct {
	provider domain.CompletionProvider
	builder  GatePromptBuilder
	logger   *slog.Logger
}

// NewGenerateQAUsecase wires the QA generator.
func NewGenerateQAUsecase(provider domain.CompletionProvider, builder GatePromptBuilder, logger *slog.Logger) *GenerateQAUsecase {
	return &GenerateQAUsecase{provider: provider, builder: builder, logger: logger}
}

// Execute asks for count QA pairs about the chunk. count <= 0 uses the
// default.
func (u *GenerateQAUsecase) Execute(ctx context.Context, chunk domain.Chunk, count int) ([]QAPair, error) {
	if u.provider == nil {
		return nil, errors.New("qa generation requires a completion provider")
	}
	if count <= 0 {
		count = defaultQAPairs
	}

	start := time.Now()
	raw, err := u.provider.Complete(ctx, u.builder.QAPrompt(chunk.Content, count), domain.CompletionOptions{
		Temperature: 0.2,
		MaxTokens:   512,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("qa generation failed for chunk %s: %w", chunk.ID, err)
	}

	pairs, err := parseQAPairs(raw)
	if err != nil {
		return nil, fmt.Errorf("qa generation returned malformed output for chunk %s: %w", chunk.ID, err)
	}

	u.logger.Info("qa_pairs_generated",
		slog.String("chunk_id", chunk.ID),
		slog.Int("pair_count", len(pairs)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return pairs, nil
}

func parseQAPairs(raw string) ([]QAPair, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("empty response")
	}

	var pairs []QAPair
	if err := json.Unmarshal([]byte(trimmed), &pairs); err != nil {
		return nil, err
	}

	valid := pairs[:0]
	for _, p := range pairs {
		if strings.TrimSpace(p.Question) != "" && strings.TrimSpace(p.Answer) != "" {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return nil, errors.New("no usable qa pairs in response")
	}
	return valid, nil
}
