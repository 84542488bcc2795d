package logger

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type ContextKey string

// Business context keys propagated through the assessment pipeline. These
// follow OpenTelemetry semantic conventions with a 'gate.' prefix.
const (
	FilterIDKey ContextKey = "gate.filter.id"
	ChunkIDKey  ContextKey = "gate.chunk.id"
	StageKey    ContextKey = "gate.stage"
)

// WithFilterID adds the filter-run ID to the context for observability.
func WithFilterID(ctx context.Context, filterID string) context.Context {
	return context.WithValue(ctx, FilterIDKey, filterID)
}

// WithChunkID adds the chunk ID to the context for observability.
func WithChunkID(ctx context.Context, chunkID string) context.Context {
	return context.WithValue(ctx, ChunkIDKey, chunkID)
}

// WithStage adds the pipeline stage name to the context for observability.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// TraceContextHandler decorates records with trace_id/span_id from the active
// span and with the gate business context keys, so stdout logs correlate with
// exported traces.
type TraceContextHandler struct {
	inner slog.Handler
}

// NewTraceContextHandler wraps a handler with trace and business context
// enrichment.
func NewTraceContextHandler(inner slog.Handler) *TraceContextHandler {
	return &TraceContextHandler{inner: inner}
}

func (h *TraceContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *TraceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.TraceID().String()),
			slog.String("span_id", span.SpanID().String()),
		)
	}
	for _, key := range []ContextKey{FilterIDKey, ChunkIDKey, StageKey} {
		if value := ctx.Value(key); value != nil {
			r.AddAttrs(slog.Any(string(key), value))
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *TraceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *TraceContextHandler) WithGroup(name string) slog.Handler {
	return &TraceContextHandler{inner: h.inner.WithGroup(name)}
}
