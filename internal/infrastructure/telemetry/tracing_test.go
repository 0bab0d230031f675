package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/bulkship/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs a TracerProvider backed by an in-memory recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "bulk.quote",
		telemetry.AttrLine, 4,
		telemetry.AttrBatchID, "b-1",
		telemetry.AttrCarrier, "USPS",
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "bulk.quote", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, int64(4), attrs[telemetry.AttrLine].AsInt64())
	assert.Equal(t, "b-1", attrs[telemetry.AttrBatchID].AsString())
	assert.Equal(t, "USPS", attrs[telemetry.AttrCarrier].AsString())
}

func TestStartClientSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := telemetry.StartSpan(context.Background(), "bulk.purchase")
	_, child := telemetry.StartClientSpan(ctx, "carrier.buy", telemetry.AttrRateID, "rate_1")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "carrier.buy", spans[0].Name())
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "op")
	telemetry.SetAttributes(span,
		"ratio", 0.5,
		"ok", true,
		"ids", []string{"a", "b"},
		"big", int64(1<<40),
		"other", struct{ N int }{3},
		42, "ignored key",
		"dangling",
	)
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, 0.5, attrs["ratio"].AsFloat64())
	assert.True(t, attrs["ok"].AsBool())
	assert.Equal(t, []string{"a", "b"}, attrs["ids"].AsStringSlice())
	assert.Equal(t, int64(1<<40), attrs["big"].AsInt64())
	assert.Equal(t, "{3}", attrs["other"].AsString())
	assert.NotContains(t, attrs, "dangling")
	assert.Len(t, attrs, 5)

	telemetry.SetAttributes(nil, "k", "v")
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "op")
	telemetry.RecordError(span, errors.New("gateway down"))
	span.End()

	s := sr.Ended()[0]
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "gateway down", s.Status().Description)
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "exception", s.Events()[0].Name)

	t.Run("nil error is ignored", func(t *testing.T) {
		_, span := telemetry.StartSpan(context.Background(), "op2")
		telemetry.RecordError(span, nil)
		telemetry.RecordError(nil, errors.New("x"))
		span.End()
		assert.Equal(t, codes.Unset, sr.Ended()[1].Status().Code)
	})
}

func TestSetOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "op")
	telemetry.SetOK(span)
	span.End()
	telemetry.SetOK(nil)

	assert.Equal(t, codes.Ok, sr.Ended()[0].Status().Code)
}
