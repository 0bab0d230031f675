package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricShipmentsQuoted = "bulkship.shipments.quoted"
	MetricLabelsPurchased = "bulkship.labels.purchased"
	MetricGatewayDuration = "bulkship.gateway.duration"
	MetricBatchDuration   = "bulkship.batch.duration"
)

// Metric attribute keys
var (
	AttrKeyStatus    = attribute.Key("status")
	AttrKeyErrorKind = attribute.Key("error_kind")
	AttrKeyOperation = attribute.Key("operation")
	AttrKeyCarrier   = attribute.Key("carrier")
	AttrKeyPhase     = attribute.Key("phase")
)

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// BatchMetrics holds the pipeline instruments. A nil *BatchMetrics is valid
// and records nothing.
type BatchMetrics struct {
	quoted          metric.Int64Counter
	purchased       metric.Int64Counter
	gatewayDuration metric.Float64Histogram
	batchDuration   metric.Float64Histogram
}

// NewBatchMetrics creates the instruments on meter.
func NewBatchMetrics(meter metric.Meter) (*BatchMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		m   BatchMetrics
		err error
	)
	if m.quoted, err = meter.Int64Counter(MetricShipmentsQuoted,
		metric.WithDescription("Shipments that went through quoting"),
		metric.WithUnit("{shipments}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", MetricShipmentsQuoted, err)
	}
	if m.purchased, err = meter.Int64Counter(MetricLabelsPurchased,
		metric.WithDescription("Label purchase attempts"),
		metric.WithUnit("{labels}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", MetricLabelsPurchased, err)
	}
	if m.gatewayDuration, err = meter.Float64Histogram(MetricGatewayDuration,
		metric.WithDescription("Carrier gateway call latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	); err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", MetricGatewayDuration, err)
	}
	if m.batchDuration, err = meter.Float64Histogram(MetricBatchDuration,
		metric.WithDescription("Wall time of a whole batch"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", MetricBatchDuration, err)
	}
	return &m, nil
}

// NewGlobalBatchMetrics builds BatchMetrics on the global meter provider.
func NewGlobalBatchMetrics() (*BatchMetrics, error) {
	return NewBatchMetrics(otel.GetMeterProvider().Meter(TracerName))
}

func statusOf(errorKind string) string {
	if errorKind == "" {
		return "success"
	}
	return "error"
}

// RecordQuote counts one quoted shipment. errorKind is empty on success.
func (m *BatchMetrics) RecordQuote(ctx context.Context, carrier, errorKind string) {
	if m == nil {
		return
	}
	m.quoted.Add(ctx, 1, metric.WithAttributes(
		AttrKeyStatus.String(statusOf(errorKind)),
		AttrKeyErrorKind.String(errorKind),
		AttrKeyCarrier.String(carrier),
	))
}

// RecordPurchase counts one label purchase attempt.
func (m *BatchMetrics) RecordPurchase(ctx context.Context, carrier, errorKind string) {
	if m == nil {
		return
	}
	m.purchased.Add(ctx, 1, metric.WithAttributes(
		AttrKeyStatus.String(statusOf(errorKind)),
		AttrKeyErrorKind.String(errorKind),
		AttrKeyCarrier.String(carrier),
	))
}

// RecordGatewayCall records the latency of one gateway operation.
func (m *BatchMetrics) RecordGatewayCall(ctx context.Context, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.gatewayDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		AttrKeyOperation.String(operation),
		AttrKeyStatus.String(status),
	))
}

// RecordBatch records the duration of a batch phase ("quote" or "purchase").
func (m *BatchMetrics) RecordBatch(ctx context.Context, phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrKeyPhase.String(phase)))
}
