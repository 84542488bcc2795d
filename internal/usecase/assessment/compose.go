package assessment

import (
	"math"

	"chunk-gate/internal/domain"
)

// Composition is the final scoring bundle derived from a completed stage
// context.
type Composition struct {
	FinalScore   float64
	Confidence   float64
	QualityScore float64
	Suggestions  []string
}

// Compose combines whichever stage scores are present into the final score,
// estimates confidence, derives the separate quality score, and collects
// improvement suggestions. Pure function over the stage context.
func Compose(sc *StageContext) Composition {
	merged := domain.MergeFactors(sc.Factors)

	final := composeFinalScore(sc)
	return Composition{
		FinalScore:   final,
		Confidence:   composeConfidence(sc.stageScores(), len(merged)),
		QualityScore: QualityFromFactors(merged),
		Suggestions:  composeSuggestions(final, merged),
	}
}

// composeFinalScore takes the weighted mean of the stage scores that are
// present, renormalized by the weights actually used.
func composeFinalScore(sc *StageContext) float64 {
	sum := sc.InitialScore * initialWeight
	weights := initialWeight
	if sc.ReflectionScore != nil {
		sum += *sc.ReflectionScore * reflectionWeight
		weights += reflectionWeight
	}
	if sc.CriticScore != nil {
		sum += *sc.CriticScore * criticWeight
		weights += criticWeight
	}
	return domain.Clamp01(sum / weights)
}

// composeConfidence blends stage agreement, factor coverage, and decisiveness
// (distance of the mean stage score from the neutral 0.5).
func composeConfidence(stageScores []float64, factorCount int) float64 {
	agreement := 1 - 2*variance(stageScores)
	if agreement < 0 {
		agreement = 0
	}
	coverage := math.Min(1, float64(factorCount)/10)
	decisiveness := math.Abs(mean(stageScores)-0.5) * 2

	return domain.Clamp01(0.5*agreement + 0.3*coverage + 0.2*decisiveness)
}

// QualityFromFactors derives the standalone quality reading from merged
// factors: raised by information density, shifted by any completeness
// adjustment.
func QualityFromFactors(factors []domain.AssessmentFactor) float64 {
	quality := 0.5
	if density, ok := domain.FindFactor(factors, domain.FactorInformationDensity); ok {
		quality = math.Max(quality, density.Contribution+0.5)
	}
	if completeness, ok := domain.FindFactor(factors, domain.FactorCompletenessAdjustment); ok {
		quality += completeness.Contribution * 0.5
	}
	return domain.Clamp01(quality)
}

func composeSuggestions(finalScore float64, factors []domain.AssessmentFactor) []string {
	var suggestions []string
	if finalScore < 0.5 {
		suggestions = append(suggestions, "consider refining chunk boundaries")
	}
	if density, ok := domain.FindFactor(factors, domain.FactorInformationDensity); ok && density.Contribution < 0.3 {
		suggestions = append(suggestions, "low information density - consider merging with adjacent chunks")
	}
	if edge, ok := domain.FindFactor(factors, domain.FactorEdgeCaseDetection); ok && edge.Contribution < -0.1 {
		suggestions = append(suggestions, "edge case detected - review chunk extraction")
	}
	return suggestions
}

// CombineScores blends relevance and quality into the score used for the
// pass/fail decision.
func CombineScores(relevance, quality, qualityWeight float64) float64 {
	return domain.Clamp01(relevance*(1-qualityWeight) + quality*qualityWeight)
}
