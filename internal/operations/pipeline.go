package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"orderprep/internal/config"
	"orderprep/internal/dataprocessing"
	"orderprep/internal/exporter"
	"orderprep/internal/files"
	"orderprep/internal/infrastructure"
	"orderprep/internal/validation"
	"orderprep/pkg/contracts/domain"
)

// Output kinds recorded in the run manifest
const (
	OutputKindCleaned  = "cleaned_table"
	OutputKindRejected = "rejected_rows"
	OutputKindSummary  = "kpi_summary"
	OutputKindWorkbook = "kpi_workbook"
	OutputKindChart    = "chart"
)

// PipelineOptions wires a pipeline to its configuration and telemetry
type PipelineOptions struct {
	Config    *config.Config
	Paths     *config.Paths
	Providers *infrastructure.OTelProviders
	Logger    *slog.Logger

	// Progress receives the progress lines of every step; may be nil
	Progress ProgressFunc
}

// RunResult is the outcome of one pipeline run
type RunResult struct {
	RunID    string
	Response *OperationResponse
	Manifest *PipelineManifest
	Report   *domain.KPIReport
	Files    []string
}

// Pipeline runs the order cleaning steps from load to export
type Pipeline struct {
	cfg      *config.Config
	paths    *config.Paths
	manager  *Manager
	files    *files.Manager
	dirs     *validation.FileValidator
	tracer   *OperationTracer
	progress ProgressFunc
	logger   *slog.Logger
}

// NewPipeline builds every step from the configuration and registers it
func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	if opts.Config == nil || opts.Paths == nil {
		return nil, fmt.Errorf("pipeline requires a config and resolved paths")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tracer, err := NewOperationTracer(opts.Providers)
	if err != nil {
		return nil, err
	}

	gate, err := dataprocessing.NewQualityGate(opts.Config.Quality.OnInvalid, logger)
	if err != nil {
		return nil, err
	}

	fm := files.NewManager(logger)
	cfg := opts.Config

	manager := NewManager(NewRegistry(), NewConfig(), tracer, logger)
	steps := []Step{
		NewLoadStep(dataprocessing.NewLoader(logger, cfg.Paths.InputSheet), opts.Paths.InputFile),
		NewNormalizeDatesStep(dataprocessing.NewDateNormalizer(logger)),
		NewModelDispatchStep(dataprocessing.NewDispatchModeler(
			dataprocessing.DispatchRuleFromConfig(cfg.Dispatch), cfg.Dispatch.RepairInverted, logger)),
		NewRecalculateStep(dataprocessing.NewDurationRecalculator(logger)),
		NewQualityGateStep(gate),
		NewComputeKPIsStep(dataprocessing.NewKPIEngine(logger)),
		NewExportStep(exporter.New(exporter.OptionsFromConfig(cfg, opts.Paths), fm, logger)),
	}
	for _, step := range steps {
		if err := manager.RegisterStage(step); err != nil {
			return nil, err
		}
	}
	if err := manager.GetRegistry().ValidateDependencies(); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		paths:    opts.Paths,
		manager:  manager,
		files:    fm,
		dirs:     validation.NewFileValidator(logger),
		tracer:   tracer,
		progress: opts.Progress,
		logger:   logger.With(slog.String("component", "pipeline")),
	}, nil
}

// Manager returns the step manager
func (p *Pipeline) Manager() *Manager {
	return p.manager
}

// Run executes the pipeline once. The run ID is taken from ctx or generated.
// The run manifest is written even when a step fails.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	ctx = infrastructure.EnsureRunID(ctx)
	runID := infrastructure.GetRunID(ctx)

	if err := p.paths.EnsureDirectories(); err != nil {
		return nil, NewFatalError("failed to create output directories", err)
	}
	outputDirs := []string{p.paths.ProcessedDir}
	if p.cfg.Export.Charts {
		outputDirs = append(outputDirs, p.paths.VisualsDir)
	}
	if err := p.dirs.ValidateOutputDirectories(outputDirs...); err != nil {
		return nil, NewFatalError("output directory is not writable", err)
	}

	state := NewOperationState(runID)
	state.SetProgressFunc(func(stepID, message string) {
		p.logger.InfoContext(ctx, message, slog.String("step", stepID))
		if p.progress != nil {
			p.progress(stepID, message)
		}
	})

	manifest := NewPipelineManifest(runID)
	p.describeConfig(manifest)

	resp, runErr := p.manager.Execute(ctx, state, manifest)

	result := &RunResult{
		RunID:    runID,
		Response: resp,
		Manifest: manifest,
	}
	if report, ok := state.Report(); ok {
		result.Report = report
	}

	if stats, ok := state.GetContext(ContextKeyQualityStats); ok {
		if qs, ok := stats.(dataprocessing.QualityStats); ok {
			rejected := make(map[string]int)
			if qs.Dropped > 0 {
				for issue, n := range qs.ByIssue {
					if issue.Blocking() {
						rejected[string(issue)] = n
					}
				}
			}
			p.tracer.RecordQuality(ctx, rejected, qs.Repaired)
		}
	}

	if _, ok := state.Dataset(); ok {
		if err := manifest.RecordInput(p.files, p.paths.BaseDir, p.paths.InputFile); err != nil {
			p.logger.WarnContext(ctx, "Input checksum failed",
				slog.String("error", err.Error()))
		}
	}

	if export, ok := state.ExportResult(); ok {
		result.Files = export.Files
		if err := p.recordOutputs(ctx, manifest, export.Files); err != nil && runErr == nil {
			runErr = NewExecutionError(StepIDExport, err)
		}
	}

	manifest.SetRuntime(p.tracer.CollectRuntime(ctx))

	if p.cfg.Export.Manifest {
		if err := manifest.SaveToFile(p.files, p.paths.ManifestJSON); err != nil {
			p.logger.ErrorContext(ctx, "Failed to write run manifest",
				slog.String("path", p.paths.ManifestJSON),
				slog.String("error", err.Error()))
			if runErr == nil {
				runErr = NewFatalError("failed to write run manifest", err)
			}
		} else {
			result.Files = append(result.Files, p.paths.ManifestJSON)
			p.tracer.RecordFiles(ctx, "manifest", 1)
		}
	}

	return result, runErr
}

// describeConfig records the settings that shape the cleaned table
func (p *Pipeline) describeConfig(m *PipelineManifest) {
	m.SetConfig("quality_policy", p.cfg.Quality.OnInvalid)
	m.SetConfig("repair_inverted_timeline", p.cfg.Dispatch.RepairInverted)
	m.SetConfig("dispatch_same_day_max_cycle", p.cfg.Dispatch.SameDayMaxCycle)
	m.SetConfig("dispatch_next_day_max_cycle", p.cfg.Dispatch.NextDayMaxCycle)
	m.SetConfig("dispatch_delays", []int{p.cfg.Dispatch.SameDayDelay, p.cfg.Dispatch.NextDayDelay, p.cfg.Dispatch.LongCycleDelay})
	m.SetConfig("bom_prefix", p.cfg.Export.BOMPrefix)
	m.SetConfig("charts", p.cfg.Export.Charts)
}

// recordOutputs checksums every written file into the manifest
func (p *Pipeline) recordOutputs(ctx context.Context, m *PipelineManifest, paths []string) error {
	counts := make(map[string]int)
	for _, path := range paths {
		kind := p.outputKind(path)
		if err := m.RecordOutput(p.files, p.paths.BaseDir, path, kind); err != nil {
			return fmt.Errorf("failed to checksum %s: %w", path, err)
		}
		counts[kind]++
	}
	for _, kind := range []string{OutputKindCleaned, OutputKindRejected, OutputKindSummary, OutputKindWorkbook, OutputKindChart} {
		p.tracer.RecordFiles(ctx, kind, counts[kind])
	}
	return nil
}

func (p *Pipeline) outputKind(path string) string {
	switch path {
	case p.paths.CleanedCSV:
		return OutputKindCleaned
	case p.paths.RejectedCSV:
		return OutputKindRejected
	case p.paths.SummaryJSON:
		return OutputKindSummary
	case p.paths.SummaryXLSX:
		return OutputKindWorkbook
	}
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return OutputKindChart
	}
	return "other"
}
