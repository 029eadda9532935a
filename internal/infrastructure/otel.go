package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"orderprep/pkg/contracts"
)

// MeterName is the instrumentation scope used for all pipeline spans and metrics
const MeterName = "orderprep"

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	TraceExporter  string // "stdout", "file", "none"
	MetricExporter string // "prometheus", "none"
	TraceFile      string // used by the "file" exporter
	MetricsFile    string // Prometheus textfile written on shutdown
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *promclient.Registry
	Logger         *slog.Logger

	metricsFile string
	traceFile   *os.File
}

// DefaultOTelConfig returns a configuration that records metrics in memory only
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    MeterName,
		ServiceVersion: contracts.Version,
		TraceExporter:  "none",
		MetricExporter: "prometheus",
	}
}

// InitializeOTel installs global tracer and meter providers for one pipeline run
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.DebugContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger:      logger,
		metricsFile: cfg.MetricsFile,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
		f, ferr := os.Create(cfg.TraceFile)
		if ferr != nil {
			return fmt.Errorf("failed to create trace file: %w", ferr)
		}
		providers.traceFile = f
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(f),
			stdouttrace.WithPrettyPrint(),
		)
	case "none", "":
		// No exporter - spans go to the global no-op provider
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics backed by a private Prometheus registry
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.Registry = registry
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		otel.SetMeterProvider(mp)

	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.DebugContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// PipelineMetrics holds the instruments recorded by the pipeline
type PipelineMetrics struct {
	RunsTotal      metric.Int64Counter
	RunDuration    metric.Float64Histogram
	StepsTotal     metric.Int64Counter
	StepDuration   metric.Float64Histogram
	RowsProcessed  metric.Int64Counter
	RowsRejected   metric.Int64Counter
	RowsRepaired   metric.Int64Counter
	FilesWritten   metric.Int64Counter
	PipelineErrors metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on the given meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runsTotal, err := meter.Int64Counter(
		"orderprep_runs_total",
		metric.WithDescription("Total number of pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"orderprep_run_duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stepsTotal, err := meter.Int64Counter(
		"orderprep_steps_total",
		metric.WithDescription("Total number of pipeline steps executed"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"orderprep_step_duration_seconds",
		metric.WithDescription("Pipeline step duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	rowsProcessed, err := meter.Int64Counter(
		"orderprep_rows_processed_total",
		metric.WithDescription("Order rows handled per step"),
	)
	if err != nil {
		return nil, err
	}

	rowsRejected, err := meter.Int64Counter(
		"orderprep_rows_rejected_total",
		metric.WithDescription("Order rows rejected by quality code"),
	)
	if err != nil {
		return nil, err
	}

	rowsRepaired, err := meter.Int64Counter(
		"orderprep_rows_repaired_total",
		metric.WithDescription("Order rows whose timeline was repaired"),
	)
	if err != nil {
		return nil, err
	}

	filesWritten, err := meter.Int64Counter(
		"orderprep_files_written_total",
		metric.WithDescription("Output files written by kind"),
	)
	if err != nil {
		return nil, err
	}

	pipelineErrors, err := meter.Int64Counter(
		"orderprep_errors_total",
		metric.WithDescription("Total number of fatal pipeline errors"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RunsTotal:      runsTotal,
		RunDuration:    runDuration,
		StepsTotal:     stepsTotal,
		StepDuration:   stepDuration,
		RowsProcessed:  rowsProcessed,
		RowsRejected:   rowsRejected,
		RowsRepaired:   rowsRepaired,
		FilesWritten:   filesWritten,
		PipelineErrors: pipelineErrors,
	}, nil
}

// RecordStepMetrics records metrics for one step execution
func RecordStepMetrics(ctx context.Context, metrics *PipelineMetrics, runID, stepID string, duration time.Duration, rows int, success bool) {
	if metrics == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("step.id", stepID),
		attribute.String("status", status),
	)

	metrics.StepsTotal.Add(ctx, 1, attrs)
	metrics.StepDuration.Record(ctx, duration.Seconds(), attrs)
	metrics.RowsProcessed.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("step.id", stepID)))

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("step.metrics_recorded",
			trace.WithAttributes(
				attribute.String("run.id", runID),
				attribute.String("step.id", stepID),
				attribute.Int("rows", rows),
				attribute.Bool("success", success),
			),
		)
	}
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown flushes the metrics textfile and shuts down the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	// The Prometheus collector stops answering once its reader is shut down
	if p.Registry != nil && p.metricsFile != "" {
		if err := os.MkdirAll(filepath.Dir(p.metricsFile), 0755); err != nil {
			errs = append(errs, fmt.Errorf("metrics directory: %w", err))
		} else if err := promclient.WriteToTextfile(p.metricsFile, p.Registry); err != nil {
			errs = append(errs, fmt.Errorf("metrics textfile: %w", err))
		}
	}

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if p.traceFile != nil {
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		p.traceFile = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.DebugContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}
