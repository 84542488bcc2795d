package assessment

import (
	"fmt"
	"log/slog"

	"chunk-gate/internal/domain"
)

// CriticValidate challenges the score carried out of the prior stages
// (stage 3): it checks the internal consistency of the accumulated factors,
// validates the content against well-formed text patterns, and penalizes
// degenerate edge cases.
func CriticValidate(sc *StageContext, logger *slog.Logger) {
	previous := sc.latestScore()
	var checks []domain.AssessmentFactor

	if f, ok := consistencyCheck(sc.Factors); ok {
		checks = append(checks, f)
	}

	validation := domain.PatternValidation(sc.Chunk.Content)
	checks = append(checks, domain.AssessmentFactor{
		Name:         domain.FactorPatternValidation,
		Contribution: (validation - 0.5) * 0.5,
		Explanation:  fmt.Sprintf("pattern validation scored %.2f", validation),
	})

	if penalty := domain.EdgeCasePenalty(sc.Chunk.Content); penalty != 0 {
		checks = append(checks, domain.AssessmentFactor{
			Name:         domain.FactorEdgeCaseDetection,
			Contribution: penalty,
			Explanation:  fmt.Sprintf("edge case penalty %.2f", penalty),
		})
	}

	critic := previous
	for _, f := range checks {
		critic += f.Contribution
	}
	critic = domain.Clamp01(critic)

	sc.Factors = append(sc.Factors, checks...)
	sc.CriticScore = &critic
	sc.Reasoning[domain.StageCritic] = fmt.Sprintf(
		"ran %d checks, score %.2f -> %.2f",
		len(checks), previous, critic)

	logger.Debug("critic_validation_completed",
		slog.String("assessment_id", sc.AssessmentID),
		slog.Int("checks", len(checks)),
		slog.Float64("critic_score", critic))
}

// consistencyCheck measures the variance of all prior factor contributions.
// High variance implies the factors disagree, which lowers the implied
// consistency (1 - 2*variance, floored at 0).
func consistencyCheck(factors []domain.AssessmentFactor) (domain.AssessmentFactor, bool) {
	consistency := 1 - 2*variance(contributions(factors))
	if consistency < 0 {
		consistency = 0
	}
	if consistency >= 0.8 {
		return domain.AssessmentFactor{}, false
	}
	return domain.AssessmentFactor{
		Name:         domain.FactorConsistencyCheck,
		Contribution: (consistency - 1) * 0.3,
		Explanation:  fmt.Sprintf("factor contributions disagree (consistency %.2f)", consistency),
	}, true
}
