package exporter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"orderprep/internal/files"
	"orderprep/pkg/contracts"
	"orderprep/pkg/contracts/domain"
)

// Summary is the document written to kpi_summary.json
type Summary struct {
	Version      string            `json:"version"`
	DataFormat   string            `json:"data_format"`
	RunID        string            `json:"run_id,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
	SourceFile   string            `json:"source_file"`
	RejectedRows int               `json:"rejected_rows"`
	KPIs         *domain.KPIReport `json:"kpis"`
}

// NewSummary wraps a KPI report with run metadata
func NewSummary(runID, sourceFile string, rejected int, report *domain.KPIReport) Summary {
	return Summary{
		Version:      contracts.Version,
		DataFormat:   contracts.DataFormatVersion,
		RunID:        runID,
		GeneratedAt:  time.Now().UTC(),
		SourceFile:   sourceFile,
		RejectedRows: rejected,
		KPIs:         report,
	}
}

// WriteSummaryJSON writes the summary as indented JSON
func WriteSummaryJSON(ctx context.Context, fm *files.Manager, summary Summary, path string, logger *slog.Logger) error {
	if err := fm.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}); err != nil {
		return err
	}

	logger.InfoContext(ctx, "KPI summary written",
		slog.String("path", path))
	return nil
}
