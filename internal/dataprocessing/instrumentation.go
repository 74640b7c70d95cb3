package dataprocessing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies the pipeline's tracer and meter.
const InstrumentationName = "haulpulse/dataprocessing"

// Instrumentation records pipeline metrics and spans.
type Instrumentation struct {
	tracer         trace.Tracer
	rowsIngested   metric.Int64Counter
	rowsDropped    metric.Int64Counter
	volumesCoerced metric.Int64Counter
	schemaFailures metric.Int64Counter
	duration       metric.Float64Histogram
}

// NewInstrumentation creates the pipeline instruments. A nil meter or tracer
// falls back to the global providers, which are no-ops until configured.
func NewInstrumentation(meter metric.Meter, tracer trace.Tracer) (*Instrumentation, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(InstrumentationName)
	}
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer(InstrumentationName)
	}

	inst := &Instrumentation{tracer: tracer}
	var err error

	inst.rowsIngested, err = meter.Int64Counter("haul_rows_ingested_total",
		metric.WithDescription("Rows read from uploaded shipment files"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, err
	}

	inst.rowsDropped, err = meter.Int64Counter("haul_rows_dropped_total",
		metric.WithDescription("Rows dropped because their date could not be read"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, err
	}

	inst.volumesCoerced, err = meter.Int64Counter("haul_volumes_coerced_total",
		metric.WithDescription("Volume cells counted as zero"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, err
	}

	inst.schemaFailures, err = meter.Int64Counter("haul_schema_failures_total",
		metric.WithDescription("Uploads rejected for missing required columns"))
	if err != nil {
		return nil, err
	}

	inst.duration, err = meter.Float64Histogram("haul_pipeline_duration_seconds",
		metric.WithDescription("Time to validate and normalize one upload"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return inst, nil
}

func (i *Instrumentation) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (i *Instrumentation) recordSchemaFailure(ctx context.Context, span trace.Span, err error) {
	i.schemaFailures.Add(ctx, 1)
	span.RecordError(err)
	span.SetStatus(codes.Error, "schema validation failed")
}

func (i *Instrumentation) recordBatch(ctx context.Context, span trace.Span, b *Batch, elapsed time.Duration) {
	source := attribute.String("source.format", formatOf(b.source))
	i.rowsIngested.Add(ctx, int64(b.rowsRead), metric.WithAttributes(source))
	i.rowsDropped.Add(ctx, int64(b.rowsRead-len(b.records)), metric.WithAttributes(source))
	i.volumesCoerced.Add(ctx, int64(b.volumesCoerced), metric.WithAttributes(source))
	i.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(source))

	span.SetAttributes(
		attribute.Int("rows.read", b.rowsRead),
		attribute.Int("rows.kept", len(b.records)),
		attribute.Int("volumes.coerced", b.volumesCoerced),
		attribute.Bool("regulations.tracked", b.RegulationTracking()),
	)
	span.SetStatus(codes.Ok, "")
}
