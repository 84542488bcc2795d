package usecase

import "chunk-gate/internal/domain"

const (
	DefaultMinRelevanceScore = 0.6
	DefaultQualityWeight     = 0.3
	DefaultBatchSize         = 10
)

// FilterOptions control one filtering run. Zero is meaningful for some fields
// (MaxChunks = unlimited), so callers should start from DefaultFilterOptions
// and override.
type FilterOptions struct {
	// MinRelevanceScore is the combined-score threshold a chunk must reach
	// to pass.
	MinRelevanceScore float64
	// MaxChunks caps the result to the N highest combined scores. 0 means
	// unlimited.
	MaxChunks int
	// PreserveOrder re-sorts passing chunks by their index metadata instead
	// of by score.
	PreserveOrder bool
	// QualityWeight sets the quality share of the combined score.
	QualityWeight float64
	// UseSelfReflection enables assessment stage 2.
	UseSelfReflection bool
	// UseCriticValidation enables assessment stage 3.
	UseCriticValidation bool
	// BatchSize bounds how many chunks are assessed concurrently.
	BatchSize int
	// Criteria are caller-supplied weighted scoring rules.
	Criteria []domain.FilterCriterion
}

// DefaultFilterOptions returns the documented defaults.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		MinRelevanceScore:   DefaultMinRelevanceScore,
		QualityWeight:       DefaultQualityWeight,
		UseSelfReflection:   true,
		UseCriticValidation: true,
		BatchSize:           DefaultBatchSize,
	}
}

// AssessOptions control a single-chunk assessment.
type AssessOptions struct {
	UseSelfReflection   bool
	UseCriticValidation bool
	Criteria            []domain.FilterCriterion
}

// DefaultAssessOptions returns the documented defaults.
func DefaultAssessOptions() AssessOptions {
	return AssessOptions{
		UseSelfReflection:   true,
		UseCriticValidation: true,
	}
}

// Assess extracts the per-chunk assessment options from a filter run.
func (o FilterOptions) Assess() AssessOptions {
	return AssessOptions{
		UseSelfReflection:   o.UseSelfReflection,
		UseCriticValidation: o.UseCriticValidation,
		Criteria:            o.Criteria,
	}
}
