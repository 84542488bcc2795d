package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"chunk-gate/internal/domain"
)

// InitialAssess computes the stage-1 score from the built-in heuristics, the
// caller's weighted criteria, and (when a query is present) one LLM relevance
// probe. Every contributing score is also recorded as a named factor.
func InitialAssess(
	ctx context.Context,
	sc *StageContext,
	provider domain.CompletionProvider,
	criteria []domain.FilterCriterion,
	logger *slog.Logger,
) {
	var scores []float64

	relevance := domain.ContentRelevance(sc.Chunk.Content, sc.Query)
	scores = append(scores, relevance)
	sc.Factors = append(sc.Factors, domain.AssessmentFactor{
		Name:         domain.FactorContentRelevance,
		Contribution: relevance,
		Explanation:  fmt.Sprintf("query term overlap scored %.2f", relevance),
	})

	density := domain.InformationDensity(sc.Chunk.Content)
	scores = append(scores, density)
	sc.Factors = append(sc.Factors, domain.AssessmentFactor{
		Name:         domain.FactorInformationDensity,
		Contribution: density,
		Explanation:  fmt.Sprintf("lexical diversity scored %.2f", density),
	})

	structural := domain.StructuralImportance(sc.Chunk)
	scores = append(scores, structural)
	sc.Factors = append(sc.Factors, domain.AssessmentFactor{
		Name:         domain.FactorStructuralImportance,
		Contribution: structural,
		Explanation:  fmt.Sprintf("structural markers scored %.2f", structural),
	})

	for _, c := range criteria {
		raw := domain.EvaluateCriterion(sc.Chunk, sc.Query, c, sc.Now)
		weighted := raw * c.Weight
		scores = append(scores, weighted)
		sc.Factors = append(sc.Factors, domain.AssessmentFactor{
			Name:         criterionFactorName(c.Type),
			Contribution: weighted,
			Explanation:  fmt.Sprintf("criterion %s scored %.2f at weight %.2f", c.Type, raw, c.Weight),
		})
	}

	if sc.Query != "" {
		probe := ProbeRelevance(ctx, provider, sc.Chunk, sc.Query, logger)
		scores = append(scores, probe.Score)
		explanation := fmt.Sprintf("model rated relevance %.2f", probe.Score)
		if probe.Fallback {
			explanation = fmt.Sprintf("probe unavailable, heuristic relevance %.2f", probe.Score)
		}
		sc.Factors = append(sc.Factors, domain.AssessmentFactor{
			Name:         domain.FactorLLMRelevance,
			Contribution: probe.Score,
			Explanation:  explanation,
		})
	}

	if len(scores) == 0 {
		sc.InitialScore = 0.5
	} else {
		// Criterion weights above 1 can push the mean out of range.
		sc.InitialScore = domain.Clamp01(mean(scores))
	}
	sc.Reasoning[domain.StageInitial] = initialReasoning(sc.Factors, sc.InitialScore)
}

func criterionFactorName(t domain.CriterionType) string {
	return fmt.Sprintf("Criterion: %s", t)
}

// initialReasoning names the factor with the largest absolute contribution.
func initialReasoning(factors []domain.AssessmentFactor, score float64) string {
	if len(factors) == 0 {
		return fmt.Sprintf("no factors evaluated, defaulted to %.2f", score)
	}
	dominant := factors[0]
	for _, f := range factors[1:] {
		if math.Abs(f.Contribution) > math.Abs(dominant.Contribution) {
			dominant = f
		}
	}
	return fmt.Sprintf("initial score %.2f across %d factors, driven by %s (%.2f)",
		score, len(factors), dominant.Name, dominant.Contribution)
}
