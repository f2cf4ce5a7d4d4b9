package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records assessment throughput and latency through an
// OpenTelemetry meter exported in Prometheus format.
type Observability struct {
	meterProvider      *metric.MeterProvider
	meter              otelmetric.Meter
	assessmentCounter  otelmetric.Int64Counter
	assessmentDuration otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	return newWithProvider(provider, serviceName)
}

// NewWithReader builds an Observability on an explicit reader; tests pass a
// ManualReader.
func NewWithReader(reader metric.Reader, serviceName string) (*Observability, error) {
	return newWithProvider(metric.NewMeterProvider(metric.WithReader(reader)), serviceName)
}

func newWithProvider(provider *metric.MeterProvider, serviceName string) (*Observability, error) {
	meter := provider.Meter(serviceName)

	counter, err := meter.Int64Counter(
		"assessments.processed",
		otelmetric.WithDescription("Number of readiness assessments processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create assessment counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"assessments.duration",
		otelmetric.WithDescription("Readiness assessment duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create assessment histogram: %w", err)
	}

	return &Observability{
		meterProvider:      provider,
		meter:              meter,
		assessmentCounter:  counter,
		assessmentDuration: duration,
	}, nil
}

// RecordAssessment counts one assessment and its latency under status
// (ok, invalid, error) and category.
func (o *Observability) RecordAssessment(ctx context.Context, duration time.Duration, status, category string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("status", status),
		attribute.String("category", category),
	)
	o.assessmentCounter.Add(ctx, 1, attrs)
	o.assessmentDuration.Record(ctx, float64(duration.Microseconds())/1000.0, attrs)
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
