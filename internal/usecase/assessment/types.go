package assessment

import (
	"time"

	"chunk-gate/internal/domain"
)

// Stage weights used when composing the final score. Weights for stages that
// did not run are dropped and the rest renormalized.
const (
	initialWeight    = 0.4
	reflectionWeight = 0.3
	criticWeight     = 0.3
)

// StageContext carries one chunk's state through the pipeline stages. Each
// stage appends factors and records its score; nothing is shared between
// concurrent assessments.
type StageContext struct {
	AssessmentID string
	Chunk        domain.Chunk
	Query        string
	Now          time.Time

	Factors         []domain.AssessmentFactor
	InitialScore    float64
	ReflectionScore *float64
	CriticScore     *float64
	Reasoning       map[string]string
}

// NewStageContext prepares an empty context for one chunk.
func NewStageContext(id string, chunk domain.Chunk, query string, now time.Time) *StageContext {
	return &StageContext{
		AssessmentID: id,
		Chunk:        chunk,
		Query:        query,
		Now:          now,
		Reasoning:    make(map[string]string),
	}
}

// latestScore returns the score produced by the most recent stage that ran.
func (sc *StageContext) latestScore() float64 {
	if sc.CriticScore != nil {
		return *sc.CriticScore
	}
	if sc.ReflectionScore != nil {
		return *sc.ReflectionScore
	}
	return sc.InitialScore
}

// stageScores lists the scores of the stages that ran, in pipeline order.
func (sc *StageContext) stageScores() []float64 {
	scores := []float64{sc.InitialScore}
	if sc.ReflectionScore != nil {
		scores = append(scores, *sc.ReflectionScore)
	}
	if sc.CriticScore != nil {
		scores = append(scores, *sc.CriticScore)
	}
	return scores
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

func contributions(factors []domain.AssessmentFactor) []float64 {
	out := make([]float64, len(factors))
	for i, f := range factors {
		out[i] = f.Contribution
	}
	return out
}
