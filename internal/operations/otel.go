package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"orderprep/internal/infrastructure"
)

const (
	TracerName = "orderprep.operation"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	runtime *infrastructure.RuntimeMetrics
}

// NewOperationTracer creates a tracer on the given providers. A nil providers
// value, or one without a tracer or meter, falls back to the global providers.
func NewOperationTracer(providers *infrastructure.OTelProviders) (*OperationTracer, error) {
	tracer := otel.Tracer(TracerName)
	meter := otel.Meter(TracerName)
	if providers != nil {
		if providers.Tracer != nil {
			tracer = providers.Tracer
		}
		if providers.Meter != nil {
			meter = providers.Meter
		}
	}

	metrics, err := infrastructure.CreatePipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	rm, err := infrastructure.NewRuntimeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	return &OperationTracer{
		tracer:  tracer,
		metrics: metrics,
		runtime: rm,
	}, nil
}

// TraceRun creates a span for the whole pipeline run
func (pt *OperationTracer) TraceRun(ctx context.Context, runID string, steps int) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.steps", steps),
		),
	)
}

// TraceStep creates a span for one step execution
func (pt *OperationTracer) TraceStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.step."+stepID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepCompletion closes out a step span and records its metrics
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, runID, stepID string, duration time.Duration, rows int, err error) {
	span.SetAttributes(
		attribute.Float64("step.duration_seconds", duration.Seconds()),
		attribute.Int("step.rows", rows),
	)

	infrastructure.RecordStepMetrics(ctx, pt.metrics, runID, stepID, duration, rows, err == nil)

	if err != nil {
		infrastructure.RecordError(ctx, err,
			trace.WithAttributes(
				attribute.String("step.id", stepID),
				attribute.String("error.type", string(GetErrorType(err))),
			),
		)
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}

// RecordRunCompletion closes out the run span and records run metrics
func (pt *OperationTracer) RecordRunCompletion(ctx context.Context, span trace.Span, status OperationStatusValue, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("status", string(status)))
	pt.metrics.RunsTotal.Add(ctx, 1, attrs)
	pt.metrics.RunDuration.Record(ctx, duration.Seconds(), attrs)

	span.SetAttributes(
		attribute.String("run.status", string(status)),
		attribute.Float64("run.duration_seconds", duration.Seconds()),
	)

	if err != nil {
		pt.metrics.PipelineErrors.Add(ctx, 1,
			metric.WithAttributes(attribute.String("error.type", string(GetErrorType(err)))))
		infrastructure.RecordError(ctx, err)
		return
	}
	span.SetStatus(codes.Ok, "run completed")
}

// RecordQuality records rejected rows per issue code and repaired rows
func (pt *OperationTracer) RecordQuality(ctx context.Context, rejected map[string]int, repaired int) {
	for issue, n := range rejected {
		pt.metrics.RowsRejected.Add(ctx, int64(n),
			metric.WithAttributes(attribute.String("issue", issue)))
	}
	if repaired > 0 {
		pt.metrics.RowsRepaired.Add(ctx, int64(repaired))
	}
}

// RecordFiles records one written output file of the given kind
func (pt *OperationTracer) RecordFiles(ctx context.Context, kind string, n int) {
	if n <= 0 {
		return
	}
	pt.metrics.FilesWritten.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String("kind", kind)))
}

// CollectRuntime records and returns the runtime footprint of the run
func (pt *OperationTracer) CollectRuntime(ctx context.Context) infrastructure.RuntimeStats {
	return pt.runtime.Collect(ctx)
}
