package domain

// Factor names shared between stages and score composition.
const (
	FactorContentRelevance       = "Content Relevance"
	FactorInformationDensity     = "Information Density"
	FactorStructuralImportance   = "Structural Importance"
	FactorLLMRelevance           = "LLM Relevance"
	FactorBiasCorrection         = "Bias Correction"
	FactorCompletenessAdjustment = "Completeness Adjustment"
	FactorAlternativePerspective = "Alternative Perspective"
	FactorConsistencyCheck       = "Consistency Check"
	FactorPatternValidation      = "Pattern Validation"
	FactorEdgeCaseDetection      = "Edge Case Detection"
)

// Stage keys used in ChunkAssessment.Reasoning. A key is present only if the
// stage ran.
const (
	StageInitial    = "initial"
	StageReflection = "reflection"
	StageCritic     = "critic"
)

// AssessmentFactor is a single named, signed contribution to a score.
// Contributions are not bounded to [0, 1]; negative values are penalties.
type AssessmentFactor struct {
	Name         string
	Contribution float64
	Explanation  string
}

// ChunkAssessment is the structured output of the three-stage scoring
// pipeline for one chunk. ReflectionScore and CriticScore are present iff the
// corresponding stage was enabled for the run.
type ChunkAssessment struct {
	InitialScore    float64
	ReflectionScore *float64
	CriticScore     *float64
	FinalScore      float64
	Confidence      float64
	Factors         []AssessmentFactor
	Suggestions     []string
	Reasoning       map[string]string
}

// FilteredChunk wraps a chunk with its filtering verdict.
type FilteredChunk struct {
	Chunk          Chunk
	RelevanceScore float64
	QualityScore   float64
	CombinedScore  float64
	Passed         bool
	Assessment     ChunkAssessment
	Reason         string
}

// MergeFactors collapses duplicate factor names into one entry each,
// averaging contributions and joining explanations with "; ". First-seen
// name order is preserved so merged output is reproducible.
func MergeFactors(factors []AssessmentFactor) []AssessmentFactor {
	type bucket struct {
		sum          float64
		count        int
		explanations []string
	}
	order := make([]string, 0, len(factors))
	buckets := make(map[string]*bucket, len(factors))

	for _, f := range factors {
		b, ok := buckets[f.Name]
		if !ok {
			b = &bucket{}
			buckets[f.Name] = b
			order = append(order, f.Name)
		}
		b.sum += f.Contribution
		b.count++
		if f.Explanation != "" {
			b.explanations = append(b.explanations, f.Explanation)
		}
	}

	merged := make([]AssessmentFactor, 0, len(order))
	for _, name := range order {
		b := buckets[name]
		merged = append(merged, AssessmentFactor{
			Name:         name,
			Contribution: b.sum / float64(b.count),
			Explanation:  joinExplanations(b.explanations),
		})
	}
	return merged
}

func joinExplanations(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "; " + p
	}
	return out
}

// FindFactor returns the first factor with the given name.
func FindFactor(factors []AssessmentFactor, name string) (AssessmentFactor, bool) {
	for _, f := range factors {
		if f.Name == name {
			return f, true
		}
	}
	return AssessmentFactor{}, false
}
