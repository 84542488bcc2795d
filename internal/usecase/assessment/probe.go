package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"chunk-gate/internal/domain"
)

const probeMaxTokens = 8

// ProbeResult is the outcome of one relevance probe. Fallback is true when
// the provider failed or returned something that does not parse as a number,
// in which case Score is the heuristic content-relevance score.
type ProbeResult struct {
	Score    float64
	Fallback bool
	Source   string
}

// ProbeRelevance asks the completion provider for a bare 0-1 relevance rating
// of the chunk against the query. It never returns an error: any provider
// failure degrades to the heuristic score.
func ProbeRelevance(
	ctx context.Context,
	provider domain.CompletionProvider,
	chunk domain.Chunk,
	query string,
	logger *slog.Logger,
) ProbeResult {
	heuristic := domain.ContentRelevance(chunk.Content, query)
	if provider == nil {
		return ProbeResult{Score: heuristic, Fallback: true, Source: "heuristic"}
	}

	probeStart := time.Now()
	raw, err := provider.Complete(ctx, buildProbePrompt(query, chunk.Content), domain.CompletionOptions{
		SystemPrompt: "You rate how relevant a text passage is to a query.",
		Temperature:  0.0,
		MaxTokens:    probeMaxTokens,
	})
	probeDuration := time.Since(probeStart)

	if err != nil {
		logger.Warn("relevance_probe_failed_using_heuristic",
			slog.String("chunk_id", chunk.ID),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", probeDuration.Milliseconds()))
		return ProbeResult{Score: heuristic, Fallback: true, Source: "heuristic"}
	}

	score, perr := parseProbeScore(raw)
	if perr != nil {
		logger.Warn("relevance_probe_unparseable_using_heuristic",
			slog.String("chunk_id", chunk.ID),
			slog.String("response", truncateForLog(raw)),
			slog.Int64("duration_ms", probeDuration.Milliseconds()))
		return ProbeResult{Score: heuristic, Fallback: true, Source: "heuristic"}
	}

	return ProbeResult{Score: domain.Clamp01(score), Source: provider.ModelName()}
}

func buildProbePrompt(query, content string) string {
	return fmt.Sprintf(
		"Rate the relevance of the following text to the query on a scale from 0 to 1.\n"+
			"Respond with only the number.\n\nQuery: %s\n\nText: %s",
		query, content)
}

func parseProbeScore(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("empty probe response")
	}
	score, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("probe response %q is not a number: %w", trimmed, err)
	}
	return score, nil
}

func truncateForLog(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
