package operations

import (
	"context"
	"fmt"

	"orderprep/internal/dataprocessing"
	"orderprep/internal/exporter"
)

// LoadStep reads the raw order table into the operation state
type LoadStep struct {
	BaseStage
	loader    *dataprocessing.Loader
	inputPath string
}

// NewLoadStep creates the load step for inputPath
func NewLoadStep(loader *dataprocessing.Loader, inputPath string) *LoadStep {
	return &LoadStep{
		BaseStage: NewBaseStage(StepIDLoad, StepNameLoad, nil),
		loader:    loader,
		inputPath: inputPath,
	}
}

// Validate requires an input path
func (s *LoadStep) Validate(state *OperationState) error {
	if s.inputPath == "" {
		return fmt.Errorf("no input file configured")
	}
	return nil
}

// Execute loads the dataset
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	state.ReportProgress(s.ID(), 0, MessageLoading)

	ds, stats, err := s.loader.Load(ctx, s.inputPath)
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyInputPath, s.inputPath)
	state.SetContext(ContextKeyDataset, ds)
	state.SetContext(ContextKeyLoadStats, stats)

	step := state.GetStage(s.ID())
	step.SetRows(stats.Rows)
	step.SetMetadata("blank_rows", stats.BlankRows)
	step.SetMetadata("missing_fields", stats.MissingFields)
	step.SetMetadata("invalid_shipping_cost", stats.InvalidCost)
	return nil
}

// NormalizeDatesStep parses the date columns
type NormalizeDatesStep struct {
	BaseStage
	normalizer *dataprocessing.DateNormalizer
}

// NewNormalizeDatesStep creates the date normalization step
func NewNormalizeDatesStep(normalizer *dataprocessing.DateNormalizer) *NormalizeDatesStep {
	return &NormalizeDatesStep{
		BaseStage:  NewBaseStage(StepIDNormalizeDates, StepNameNormalizeDates, []string{StepIDLoad}),
		normalizer: normalizer,
	}
}

// Execute normalizes every order date
func (s *NormalizeDatesStep) Execute(ctx context.Context, state *OperationState) error {
	state.ReportProgress(s.ID(), 0, MessageCleaning)

	ds, _ := state.Dataset()
	stats := s.normalizer.Normalize(ctx, ds)
	state.SetContext(ContextKeyDateStats, stats)

	step := state.GetStage(s.ID())
	step.SetRows(ds.Len())
	step.SetMetadata("parsed", stats.Parsed)
	step.SetMetadata("malformed_order_date", stats.MalformedOrder)
	step.SetMetadata("malformed_delivery_date", stats.MalformedDelivery)
	step.SetMetadata("unparsed_ship_date", stats.UnparsedShip)
	return nil
}

// ModelDispatchStep reconstructs ship dates
type ModelDispatchStep struct {
	BaseStage
	modeler *dataprocessing.DispatchModeler
}

// NewModelDispatchStep creates the dispatch modeling step
func NewModelDispatchStep(modeler *dataprocessing.DispatchModeler) *ModelDispatchStep {
	return &ModelDispatchStep{
		BaseStage: NewBaseStage(StepIDModelDispatch, StepNameModelDispatch, []string{StepIDNormalizeDates}),
		modeler:   modeler,
	}
}

// Execute assigns a ship date to every usable order
func (s *ModelDispatchStep) Execute(ctx context.Context, state *OperationState) error {
	ds, _ := state.Dataset()
	stats := s.modeler.Model(ctx, ds)
	state.SetContext(ContextKeyDispatchStats, stats)

	step := state.GetStage(s.ID())
	step.SetRows(stats.Modeled)
	step.SetMetadata("repaired", stats.Repaired)
	step.SetMetadata("inverted", stats.Inverted)
	if stats.HasMedian {
		step.SetMetadata("median_cycle", stats.MedianCycle)
	}
	return nil
}

// RecalculateStep derives delivery_days from the modeled timeline
type RecalculateStep struct {
	BaseStage
	recalculator *dataprocessing.DurationRecalculator
}

// NewRecalculateStep creates the duration recalculation step
func NewRecalculateStep(recalculator *dataprocessing.DurationRecalculator) *RecalculateStep {
	return &RecalculateStep{
		BaseStage:    NewBaseStage(StepIDRecalculate, StepNameRecalculate, []string{StepIDModelDispatch}),
		recalculator: recalculator,
	}
}

// Execute recomputes delivery days
func (s *RecalculateStep) Execute(ctx context.Context, state *OperationState) error {
	ds, _ := state.Dataset()
	stats := s.recalculator.Recalculate(ctx, ds)
	state.SetContext(ContextKeyDurationStats, stats)

	step := state.GetStage(s.ID())
	step.SetRows(stats.Recomputed)
	step.SetMetadata("source_mismatch", stats.SourceMismatch)
	step.SetMetadata("source_missing", stats.SourceMissing)
	step.SetMetadata("skipped", stats.Skipped)
	return nil
}

// QualityGateStep applies the invalid-row policy
type QualityGateStep struct {
	BaseStage
	gate *dataprocessing.QualityGate
}

// NewQualityGateStep creates the quality gate step
func NewQualityGateStep(gate *dataprocessing.QualityGate) *QualityGateStep {
	return &QualityGateStep{
		BaseStage: NewBaseStage(StepIDQualityGate, StepNameQualityGate, []string{StepIDRecalculate}),
		gate:      gate,
	}
}

// Execute drops or flags rows with blocking issues
func (s *QualityGateStep) Execute(ctx context.Context, state *OperationState) error {
	ds, _ := state.Dataset()
	stats := s.gate.Apply(ctx, ds)
	state.SetContext(ContextKeyQualityStats, stats)

	step := state.GetStage(s.ID())
	step.SetRows(stats.Kept)
	step.SetMetadata("dropped", stats.Dropped)
	step.SetMetadata("flagged", stats.Flagged)
	step.SetMetadata("repaired", stats.Repaired)
	return nil
}

// ComputeKPIsStep sets the delivery flags and aggregates the KPI report
type ComputeKPIsStep struct {
	BaseStage
	engine *dataprocessing.KPIEngine
}

// NewComputeKPIsStep creates the KPI step
func NewComputeKPIsStep(engine *dataprocessing.KPIEngine) *ComputeKPIsStep {
	return &ComputeKPIsStep{
		BaseStage: NewBaseStage(StepIDComputeKPIs, StepNameComputeKPIs, []string{StepIDQualityGate}),
		engine:    engine,
	}
}

// Execute computes the KPI report
func (s *ComputeKPIsStep) Execute(ctx context.Context, state *OperationState) error {
	state.ReportProgress(s.ID(), 0, MessageComputing)

	ds, _ := state.Dataset()
	report, flags, err := s.engine.Compute(ctx, ds)
	if err != nil {
		return err
	}
	state.SetContext(ContextKeyReport, report)
	state.SetContext(ContextKeyFlagStats, flags)

	step := state.GetStage(s.ID())
	step.SetRows(report.TotalOrders)
	step.SetMetadata("on_time", flags.OnTime)
	step.SetMetadata("delayed", flags.Delayed)
	step.SetMetadata("overall_on_time_pct", report.OverallOnTimePct)
	return nil
}

// ExportStep writes the cleaned table, summaries and charts
type ExportStep struct {
	BaseStage
	exporter *exporter.Exporter
}

// NewExportStep creates the export step
func NewExportStep(exp *exporter.Exporter) *ExportStep {
	return &ExportStep{
		BaseStage: NewBaseStage(StepIDExport, StepNameExport, []string{StepIDComputeKPIs}),
		exporter:  exp,
	}
}

// Validate requires the dataset and the KPI report
func (s *ExportStep) Validate(state *OperationState) error {
	if err := s.BaseStage.Validate(state); err != nil {
		return err
	}
	if _, ok := state.Report(); !ok {
		return fmt.Errorf("no KPI report in operation state")
	}
	return nil
}

// Execute writes every output artifact
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	ds, _ := state.Dataset()
	report, _ := state.Report()

	s.exporter.OnProgress(func(p exporter.Phase) {
		switch p {
		case exporter.PhaseSaving:
			state.ReportProgress(s.ID(), 0, MessageSaving)
		case exporter.PhaseVisuals:
			state.ReportProgress(s.ID(), 60, MessageVisuals)
		}
	})
	defer s.exporter.OnProgress(nil)

	result, err := s.exporter.Export(ctx, ds, report, state.ID)
	if err != nil {
		return err
	}
	state.SetContext(ContextKeyExportResult, result)

	step := state.GetStage(s.ID())
	step.SetRows(ds.Len())
	step.SetMetadata("files", len(result.Files))
	step.SetMetadata("charts_skipped", len(result.ChartsSkipped))
	return nil
}
