package exporter

import (
	"context"
	"log/slog"

	"orderprep/internal/config"
	apperrors "orderprep/internal/errors"
	"orderprep/internal/files"
	"orderprep/pkg/contracts/domain"
)

// Options selects the artifacts of one export and where they go
type Options struct {
	CleanedCSV  string
	RejectedCSV string
	SummaryJSON string
	SummaryXLSX string
	VisualsDir  string

	BOMPrefix     bool
	Charts        bool
	WriteSummary  bool
	WriteWorkbook bool
	ChartWidth    int
	ChartHeight   int
}

// OptionsFromConfig maps the export section and the resolved paths to options
func OptionsFromConfig(cfg *config.Config, paths *config.Paths) Options {
	return Options{
		CleanedCSV:    paths.CleanedCSV,
		RejectedCSV:   paths.RejectedCSV,
		SummaryJSON:   paths.SummaryJSON,
		SummaryXLSX:   paths.SummaryXLSX,
		VisualsDir:    paths.VisualsDir,
		BOMPrefix:     cfg.Export.BOMPrefix,
		Charts:        cfg.Export.Charts,
		WriteSummary:  cfg.Export.SummaryJSON,
		WriteWorkbook: cfg.Export.SummaryWorkbook,
		ChartWidth:    cfg.Export.ChartWidth,
		ChartHeight:   cfg.Export.ChartHeight,
	}
}

// Phase names a part of the export reported to the progress callback
type Phase string

const (
	PhaseSaving  Phase = "saving"
	PhaseVisuals Phase = "visuals"
)

// Result lists the files an export produced
type Result struct {
	Files         []string
	ChartsSkipped map[string]error
}

// Exporter writes every output artifact of a run. It only reads the dataset.
type Exporter struct {
	opts     Options
	files    *files.Manager
	orders   *OrderExporter
	charts   *ChartRenderer
	workbook *WorkbookWriter
	progress func(Phase)
	logger   *slog.Logger
}

// New creates an exporter
func New(opts Options, fm *files.Manager, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	if fm == nil {
		fm = files.NewManager(logger)
	}
	return &Exporter{
		opts:     opts,
		files:    fm,
		orders:   NewOrderExporter(NewCSVWriter(fm, logger), opts.BOMPrefix, logger),
		charts:   NewChartRenderer(fm, opts.ChartWidth, opts.ChartHeight, logger),
		workbook: NewWorkbookWriter(fm, logger),
		logger:   logger,
	}
}

// OnProgress installs a callback invoked when the export enters a phase
func (e *Exporter) OnProgress(fn func(Phase)) {
	e.progress = fn
}

func (e *Exporter) enter(p Phase) {
	if e.progress != nil {
		e.progress(p)
	}
}

// Export writes the cleaned table first, then the rejection report, the
// summaries and the charts. Any write failure except a chart is fatal.
func (e *Exporter) Export(ctx context.Context, ds *domain.Dataset, report *domain.KPIReport, runID string) (*Result, error) {
	result := &Result{ChartsSkipped: map[string]error{}}

	e.enter(PhaseSaving)

	if err := e.orders.ExportCleaned(ctx, ds.Orders, e.opts.CleanedCSV); err != nil {
		return nil, apperrors.NewStorageError("failed to write cleaned dataset", err).
			WithContext("path", e.opts.CleanedCSV)
	}
	result.Files = append(result.Files, e.opts.CleanedCSV)

	if len(ds.Rejections) > 0 {
		if err := e.orders.ExportRejections(ctx, ds.Rejections, e.opts.RejectedCSV); err != nil {
			return nil, apperrors.NewStorageError("failed to write rejected rows", err).
				WithContext("path", e.opts.RejectedCSV)
		}
		result.Files = append(result.Files, e.opts.RejectedCSV)
	} else if err := e.files.RemoveIfExists(e.opts.RejectedCSV); err != nil {
		return nil, apperrors.NewStorageError("failed to remove stale rejected rows", err)
	}

	if e.opts.WriteSummary {
		summary := NewSummary(runID, ds.SourcePath, len(ds.Rejections), report)
		if err := WriteSummaryJSON(ctx, e.files, summary, e.opts.SummaryJSON, e.logger); err != nil {
			return nil, apperrors.NewStorageError("failed to write KPI summary", err).
				WithContext("path", e.opts.SummaryJSON)
		}
		result.Files = append(result.Files, e.opts.SummaryJSON)
	}

	if e.opts.WriteWorkbook {
		if err := e.workbook.Write(ctx, report, e.opts.SummaryXLSX); err != nil {
			return nil, apperrors.NewStorageError("failed to write KPI workbook", err).
				WithContext("path", e.opts.SummaryXLSX)
		}
		result.Files = append(result.Files, e.opts.SummaryXLSX)
	}

	if e.opts.Charts {
		e.enter(PhaseVisuals)
		charts := e.charts.RenderAll(ctx, report, e.opts.VisualsDir)
		result.Files = append(result.Files, charts.Written...)
		result.ChartsSkipped = charts.Skipped
	} else {
		e.logger.InfoContext(ctx, "Chart rendering disabled")
	}

	return result, nil
}
