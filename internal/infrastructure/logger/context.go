package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey  contextKey = "logger"
	batchIDKey contextKey = "batch_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithBatchID tags ctx and its logger with the batch id.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	ctx = context.WithValue(ctx, batchIDKey, batchID)
	return WithContext(ctx, FromContext(ctx).With(zap.String("batch_id", batchID)))
}

// GetBatchID retrieves the batch id from context
func GetBatchID(ctx context.Context) string {
	if id, ok := ctx.Value(batchIDKey).(string); ok {
		return id
	}
	return ""
}

// L returns the context logger enriched with the active span's trace_id
// and span_id, so every record line logged inside a span can be joined
// with its trace.
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return l.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}

// ForLine returns L(ctx) tagged with the input line number.
func ForLine(ctx context.Context, line int) *zap.Logger {
	return L(ctx).With(zap.Int("line", line))
}

// EnsureContext attaches fallback unless ctx already carries a logger.
func EnsureContext(ctx context.Context, fallback *zap.Logger) context.Context {
	if _, ok := ctx.Value(loggerKey).(*zap.Logger); ok || fallback == nil {
		return ctx
	}
	return WithContext(ctx, fallback)
}

// LOr is L(ctx), using fallback when ctx carries no logger.
func LOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	return L(EnsureContext(ctx, fallback))
}
