package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"chunk-gate/internal/domain"
	"chunk-gate/internal/infra/logger"
	"chunk-gate/internal/usecase/assessment"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidBatchSize reports a batch size below 1.
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")
	// ErrEmptyChunk reports a chunk with neither ID nor content.
	ErrEmptyChunk = errors.New("chunk has no id and no content")
)

// FilterChunksUsecase drives the three-stage assessor over a collection of
// chunks in fixed-size batches. Batches run strictly sequentially; within a
// batch each chunk is assessed concurrently. Cancellation is observed only at
// batch boundaries, so work already dispatched in the current batch is not
// interrupted.
type FilterChunksUsecase struct {
	assessor *AssessChunkUsecase
	logger   *slog.Logger
}

// NewFilterChunksUsecase builds the batch filter on top of the assessor.
func NewFilterChunksUsecase(assessor *AssessChunkUsecase, logger *slog.Logger) *FilterChunksUsecase {
	return &FilterChunksUsecase{
		assessor: assessor,
		logger:   logger,
	}
}

// Execute assesses and filters the chunks. Completion-provider failures never
// surface; the returned error is non-nil only for invalid options or caller
// cancellation.
func (u *FilterChunksUsecase) Execute(ctx context.Context, chunks []domain.Chunk, query string, opts FilterOptions) ([]domain.FilteredChunk, error) {
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, opts.BatchSize)
	}
	if len(chunks) == 0 {
		return []domain.FilteredChunk{}, nil
	}

	filterID := uuid.NewString()
	filterStart := time.Now()
	assessOpts := opts.Assess()
	ctx = logger.WithFilterID(ctx, filterID)

	results := make([]domain.FilteredChunk, len(chunks))
	for batchStart := 0; batchStart < len(chunks); batchStart += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("filtering cancelled before batch %d: %w", batchStart/opts.BatchSize, err)
		}

		batchEnd := batchStart + opts.BatchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := batchStart; i < batchEnd; i++ {
			g.Go(func() error {
				scored, err := u.scoreChunk(gctx, chunks[i], query, assessOpts, opts)
				if err != nil {
					return err
				}
				results[i] = scored
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	passed := make([]domain.FilteredChunk, 0, len(results))
	for _, r := range results {
		if r.Passed {
			passed = append(passed, r)
		}
	}

	if opts.MaxChunks > 0 {
		sort.SliceStable(passed, func(i, j int) bool {
			return passed[i].CombinedScore > passed[j].CombinedScore
		})
		if len(passed) > opts.MaxChunks {
			passed = passed[:opts.MaxChunks]
		}
	}

	if opts.PreserveOrder {
		// Chunks without an index sort last under a maximal sentinel; ties
		// among them keep their pre-sort order (stable sort). That tie-break
		// is this implementation's choice, not a contract.
		sort.SliceStable(passed, func(i, j int) bool {
			return orderKey(passed[i].Chunk) < orderKey(passed[j].Chunk)
		})
	}

	u.logger.Info("chunks_filtered",
		slog.String("filter_id", filterID),
		slog.Int("input_count", len(chunks)),
		slog.Int("passed_count", len(passed)),
		slog.Float64("min_relevance_score", opts.MinRelevanceScore),
		slog.Int64("duration_ms", time.Since(filterStart).Milliseconds()))

	return passed, nil
}

func (u *FilterChunksUsecase) scoreChunk(ctx context.Context, chunk domain.Chunk, query string, assessOpts AssessOptions, opts FilterOptions) (domain.FilteredChunk, error) {
	result, err := u.assessor.Execute(logger.WithChunkID(ctx, chunk.ID), chunk, query, assessOpts)
	if err != nil {
		return domain.FilteredChunk{}, err
	}

	relevance := result.FinalScore
	quality := assessment.QualityFromFactors(result.Factors)
	combined := assessment.CombineScores(relevance, quality, opts.QualityWeight)
	passed := combined >= opts.MinRelevanceScore

	return domain.FilteredChunk{
		Chunk:          chunk,
		RelevanceScore: relevance,
		QualityScore:   quality,
		CombinedScore:  combined,
		Passed:         passed,
		Assessment:     result,
		Reason:         decisionReason(combined, opts.MinRelevanceScore, passed),
	}, nil
}

func decisionReason(combined, threshold float64, passed bool) string {
	if passed {
		return fmt.Sprintf("combined score %.2f meets threshold %.2f", combined, threshold)
	}
	return fmt.Sprintf("combined score %.2f below threshold %.2f", combined, threshold)
}

func orderKey(chunk domain.Chunk) int64 {
	if idx, ok := chunk.MetaIndex(); ok {
		return idx
	}
	return math.MaxInt64
}
