package usecase

import (
	"context"
	"log/slog"
	"time"

	"chunk-gate/internal/domain"
	"chunk-gate/internal/infra/logger"
	"chunk-gate/internal/usecase/assessment"

	"github.com/google/uuid"
)

// AssessChunkUsecase runs the three-stage scoring pipeline for one chunk:
// initial assessment, optional self-reflection, optional critic validation.
type AssessChunkUsecase struct {
	provider domain.CompletionProvider
	logger   *slog.Logger
	now      func() time.Time
}

// NewAssessChunkUsecase wires the pipeline. The provider may be nil, in which
// case the relevance probe always falls back to heuristics.
func NewAssessChunkUsecase(provider domain.CompletionProvider, logger *slog.Logger) *AssessChunkUsecase {
	return &AssessChunkUsecase{
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// Execute assesses one chunk against the query. Completion-provider failures
// never surface here; the only caller-visible errors are precondition
// violations.
func (u *AssessChunkUsecase) Execute(ctx context.Context, chunk domain.Chunk, query string, opts AssessOptions) (domain.ChunkAssessment, error) {
	if chunk.ID == "" && chunk.Content == "" {
		return domain.ChunkAssessment{}, ErrEmptyChunk
	}

	sc := assessment.NewStageContext(uuid.NewString(), chunk, query, u.now())

	assessment.InitialAssess(logger.WithStage(ctx, domain.StageInitial), sc, u.provider, opts.Criteria, u.logger)
	if opts.UseSelfReflection {
		assessment.SelfReflect(sc, u.logger)
	}
	if opts.UseCriticValidation {
		assessment.CriticValidate(sc, u.logger)
	}

	composed := assessment.Compose(sc)

	result := domain.ChunkAssessment{
		InitialScore:    sc.InitialScore,
		ReflectionScore: sc.ReflectionScore,
		CriticScore:     sc.CriticScore,
		FinalScore:      composed.FinalScore,
		Confidence:      composed.Confidence,
		Factors:         domain.MergeFactors(sc.Factors),
		Suggestions:     composed.Suggestions,
		Reasoning:       sc.Reasoning,
	}

	u.logger.Debug("chunk_assessed",
		slog.String("assessment_id", sc.AssessmentID),
		slog.String("chunk_id", chunk.ID),
		slog.Float64("final_score", result.FinalScore),
		slog.Float64("confidence", result.Confidence))

	return result, nil
}
