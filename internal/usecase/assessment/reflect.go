package assessment

import (
	"fmt"
	"log/slog"
	"math"

	"chunk-gate/internal/domain"
)

// SelfReflect reconsiders the initial score (stage 2): it penalizes factor
// concentration bias, adjusts for incomplete text, and tests an alternative
// relevance reading. Each check emits a factor only when it triggers.
func SelfReflect(sc *StageContext, logger *slog.Logger) {
	var adjustments []domain.AssessmentFactor

	if f, ok := biasCorrection(sc.Factors); ok {
		adjustments = append(adjustments, f)
	}
	if f, ok := completenessAdjustment(sc.Chunk.Content); ok {
		adjustments = append(adjustments, f)
	}
	if f, ok := alternativePerspective(sc.Chunk.Content, sc.Query, sc.InitialScore); ok {
		adjustments = append(adjustments, f)
	}

	reflected := sc.InitialScore
	for _, f := range adjustments {
		reflected += f.Contribution
	}
	reflected = domain.Clamp01(reflected)

	sc.Factors = append(sc.Factors, adjustments...)
	sc.ReflectionScore = &reflected
	sc.Reasoning[domain.StageReflection] = fmt.Sprintf(
		"applied %d adjustments, score %.2f -> %.2f",
		len(adjustments), sc.InitialScore, reflected)

	logger.Debug("self_reflection_completed",
		slog.String("assessment_id", sc.AssessmentID),
		slog.Int("adjustments", len(adjustments)),
		slog.Float64("reflected_score", reflected))
}

// biasCorrection penalizes assessments dominated by a single factor. The
// concentration is the largest absolute contribution over the sum of absolute
// contributions.
func biasCorrection(factors []domain.AssessmentFactor) (domain.AssessmentFactor, bool) {
	var maxAbs, sumAbs float64
	for _, f := range factors {
		abs := math.Abs(f.Contribution)
		sumAbs += abs
		if abs > maxAbs {
			maxAbs = abs
		}
	}
	if sumAbs == 0 {
		return domain.AssessmentFactor{}, false
	}
	concentration := maxAbs / sumAbs
	if concentration <= 0.7 {
		return domain.AssessmentFactor{}, false
	}
	return domain.AssessmentFactor{
		Name:         domain.FactorBiasCorrection,
		Contribution: -(concentration - 0.7) * 0.5,
		Explanation:  fmt.Sprintf("one factor carries %.0f%% of the signal", concentration*100),
	}, true
}

func completenessAdjustment(content string) (domain.AssessmentFactor, bool) {
	completeness := domain.Completeness(content)
	if completeness >= 0.7 {
		return domain.AssessmentFactor{}, false
	}
	return domain.AssessmentFactor{
		Name:         domain.FactorCompletenessAdjustment,
		Contribution: (completeness - 0.7) * 0.5,
		Explanation:  fmt.Sprintf("chunk looks truncated (completeness %.2f)", completeness),
	}, true
}

// alternativePerspective recomputes content relevance and nudges the score
// toward it when the two readings disagree strongly. Extreme recomputed
// values are tempered: above 0.8 stands as-is, below 0.2 is floored at 0.3.
func alternativePerspective(content, query string, initialScore float64) (domain.AssessmentFactor, bool) {
	recomputed := domain.ContentRelevance(content, query)

	alternative := recomputed
	if recomputed < 0.2 {
		alternative = 0.3
	}

	if math.Abs(alternative-initialScore) <= 0.2 {
		return domain.AssessmentFactor{}, false
	}
	return domain.AssessmentFactor{
		Name:         domain.FactorAlternativePerspective,
		Contribution: (alternative - initialScore) * 0.3,
		Explanation:  fmt.Sprintf("alternative relevance reading %.2f vs initial %.2f", alternative, initialScore),
	}, true
}
