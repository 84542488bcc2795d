package gate_http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chunk-gate/internal/domain"
	"chunk-gate/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler exposes the quality gate over HTTP.
type Handler struct {
	filterUsecase *usecase.FilterChunksUsecase
	assessUsecase *usecase.AssessChunkUsecase
	defaults      usecase.FilterOptions
}

// NewHandler wires the HTTP surface. defaults seed option fields the request
// leaves unset.
func NewHandler(
	filterUsecase *usecase.FilterChunksUsecase,
	assessUsecase *usecase.AssessChunkUsecase,
	defaults usecase.FilterOptions,
) *Handler {
	return &Handler{
		filterUsecase: filterUsecase,
		assessUsecase: assessUsecase,
		defaults:      defaults,
	}
}

// Register binds the handler's routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/v1/chunks/filter", h.FilterChunks)
	e.POST("/v1/chunks/assess", h.AssessChunk)
}

type chunkPayload struct {
	ID       string                     `json:"id"`
	Content  string                     `json:"content"`
	Metadata map[string]json.RawMessage `json:"metadata,omitempty"`
}

type criterionPayload struct {
	Type   string   `json:"type"`
	Terms  []string `json:"terms,omitempty"`
	Weight float64  `json:"weight"`
}

type optionsPayload struct {
	MinRelevanceScore   *float64           `json:"min_relevance_score,omitempty"`
	MaxChunks           *int               `json:"max_chunks,omitempty"`
	PreserveOrder       *bool              `json:"preserve_order,omitempty"`
	QualityWeight       *float64           `json:"quality_weight,omitempty"`
	UseSelfReflection   *bool              `json:"use_self_reflection,omitempty"`
	UseCriticValidation *bool              `json:"use_critic_validation,omitempty"`
	BatchSize           *int               `json:"batch_size,omitempty"`
	Criteria            []criterionPayload `json:"criteria,omitempty"`
}

type filterRequest struct {
	Query   string          `json:"query"`
	Chunks  []chunkPayload  `json:"chunks"`
	Options *optionsPayload `json:"options,omitempty"`
}

type assessRequest struct {
	Query   string          `json:"query"`
	Chunk   *chunkPayload   `json:"chunk"`
	Options *optionsPayload `json:"options,omitempty"`
}

type filteredChunkResponse struct {
	ChunkID        string   `json:"chunk_id"`
	RelevanceScore float64  `json:"relevance_score"`
	QualityScore   float64  `json:"quality_score"`
	CombinedScore  float64  `json:"combined_score"`
	Passed         bool     `json:"passed"`
	Reason         string   `json:"reason"`
	Suggestions    []string `json:"suggestions,omitempty"`
}

type filterResponse struct {
	FilterID string                  `json:"filter_id"`
	Results  []filteredChunkResponse `json:"results"`
}

type factorResponse struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Explanation  string  `json:"explanation"`
}

type assessResponse struct {
	InitialScore    float64           `json:"initial_score"`
	ReflectionScore *float64          `json:"reflection_score,omitempty"`
	CriticScore     *float64          `json:"critic_score,omitempty"`
	FinalScore      float64           `json:"final_score"`
	Confidence      float64           `json:"confidence"`
	Factors         []factorResponse  `json:"factors"`
	Suggestions     []string          `json:"suggestions,omitempty"`
	Reasoning       map[string]string `json:"reasoning"`
}

// FilterChunks runs the batch filter.
// (POST /v1/chunks/filter)
func (h *Handler) FilterChunks(ctx echo.Context) error {
	var req filterRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	chunks := make([]domain.Chunk, 0, len(req.Chunks))
	for _, p := range req.Chunks {
		chunks = append(chunks, toDomainChunk(p))
	}

	opts := h.applyOptions(req.Options)
	results, err := h.filterUsecase.Execute(ctx.Request().Context(), chunks, req.Query, opts)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidBatchSize) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := filterResponse{
		FilterID: uuid.NewString(),
		Results:  make([]filteredChunkResponse, 0, len(results)),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, filteredChunkResponse{
			ChunkID:        r.Chunk.ID,
			RelevanceScore: r.RelevanceScore,
			QualityScore:   r.QualityScore,
			CombinedScore:  r.CombinedScore,
			Passed:         r.Passed,
			Reason:         r.Reason,
			Suggestions:    r.Assessment.Suggestions,
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

// AssessChunk runs the three-stage assessment for one chunk.
// (POST /v1/chunks/assess)
func (h *Handler) AssessChunk(ctx echo.Context) error {
	var req assessRequest
	if err := ctx.Bind(&req); err != nil || req.Chunk == nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	opts := h.applyOptions(req.Options)
	result, err := h.assessUsecase.Execute(ctx.Request().Context(), toDomainChunk(*req.Chunk), req.Query, opts.Assess())
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyChunk) {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := assessResponse{
		InitialScore:    result.InitialScore,
		ReflectionScore: result.ReflectionScore,
		CriticScore:     result.CriticScore,
		FinalScore:      result.FinalScore,
		Confidence:      result.Confidence,
		Factors:         make([]factorResponse, 0, len(result.Factors)),
		Suggestions:     result.Suggestions,
		Reasoning:       result.Reasoning,
	}
	for _, f := range result.Factors {
		resp.Factors = append(resp.Factors, factorResponse{
			Name:         f.Name,
			Contribution: f.Contribution,
			Explanation:  f.Explanation,
		})
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (h *Handler) applyOptions(p *optionsPayload) usecase.FilterOptions {
	opts := h.defaults
	if p == nil {
		return opts
	}
	if p.MinRelevanceScore != nil {
		opts.MinRelevanceScore = *p.MinRelevanceScore
	}
	if p.MaxChunks != nil {
		opts.MaxChunks = *p.MaxChunks
	}
	if p.PreserveOrder != nil {
		opts.PreserveOrder = *p.PreserveOrder
	}
	if p.QualityWeight != nil {
		opts.QualityWeight = *p.QualityWeight
	}
	if p.UseSelfReflection != nil {
		opts.UseSelfReflection = *p.UseSelfReflection
	}
	if p.UseCriticValidation != nil {
		opts.UseCriticValidation = *p.UseCriticValidation
	}
	if p.BatchSize != nil {
		opts.BatchSize = *p.BatchSize
	}
	for _, c := range p.Criteria {
		opts.Criteria = append(opts.Criteria, domain.FilterCriterion{
			Type:   domain.CriterionType(c.Type),
			Terms:  c.Terms,
			Weight: c.Weight,
		})
	}
	return opts
}

// toDomainChunk maps wire metadata onto the tagged union: JSON numbers become
// int or float values, RFC3339 strings become timestamps, everything else a
// plain string. Non-scalar values are dropped.
func toDomainChunk(p chunkPayload) domain.Chunk {
	chunk := domain.Chunk{ID: p.ID, Content: p.Content}
	if len(p.Metadata) == 0 {
		return chunk
	}

	chunk.Metadata = make(map[string]domain.MetaValue, len(p.Metadata))
	for key, raw := range p.Metadata {
		if value, ok := parseMetaValue(raw); ok {
			chunk.Metadata[key] = value
		}
	}
	return chunk
}

func parseMetaValue(raw json.RawMessage) (domain.MetaValue, bool) {
	var asInt int64
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return domain.MetaInt(asInt), true
	}
	var asFloat float64
	if err := json.Unmarshal(raw, &asFloat); err == nil {
		return domain.MetaFloat(asFloat), true
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if ts, terr := time.Parse(time.RFC3339, asString); terr == nil {
			return domain.MetaTime(ts), true
		}
		return domain.MetaString(asString), true
	}
	return domain.MetaValue{}, false
}
