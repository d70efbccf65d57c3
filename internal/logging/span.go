package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents one outbound API call (or any other unit of work) tied to a trace.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	ended  bool
}

// StartSpan derives a child span from the provided context, enriching the logger
// with tracing metadata. It returns the derived context and the span handle.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)

	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = withTraceID(ctx, traceID)
		logger = logger.With(slog.String("trace_id", traceID))
	}

	parentSpanID := SpanIDFromContext(ctx)
	spanID := uuid.NewString()

	logger = logger.With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parentSpanID != "" {
		logger = logger.With(slog.String("parent_span_id", parentSpanID))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withSpanID(ctx, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// End finalizes the span and emits a completion log entry. Calling End more than
// once has no effect.
func (s *Span) End(attrs ...any) {
	if s == nil || s.ended {
		return
	}
	s.ended = true
	args := append([]any{slog.Duration("duration", time.Since(s.start))}, attrs...)
	s.logger.Debug("span completed", args...)
}

// Fail finalizes the span recording the error at warn level.
func (s *Span) Fail(err error, attrs ...any) {
	if s == nil || s.ended {
		return
	}
	s.ended = true
	args := append([]any{slog.Duration("duration", time.Since(s.start)), "error", err}, attrs...)
	s.logger.Warn("span failed", args...)
}
