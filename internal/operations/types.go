package operations

import (
	"time"
)

// Pipeline step identifiers
const (
	StepIDLoad           = "load"
	StepIDNormalizeDates = "normalize_dates"
	StepIDModelDispatch  = "model_dispatch"
	StepIDRecalculate    = "recalculate"
	StepIDQualityGate    = "quality_gate"
	StepIDComputeKPIs    = "compute_kpis"
	StepIDExport         = "export"
)

// Pipeline step names
const (
	StepNameLoad           = "Load Orders"
	StepNameNormalizeDates = "Normalize Dates"
	StepNameModelDispatch  = "Model Dispatch"
	StepNameRecalculate    = "Recalculate Durations"
	StepNameQualityGate    = "Quality Gate"
	StepNameComputeKPIs    = "Compute KPIs"
	StepNameExport         = "Export"
)

// Progress messages printed while the pipeline runs
const (
	MessageLoading   = "Loading orders dataset..."
	MessageCleaning  = "Cleaning orders dataset..."
	MessageSaving    = "Saving cleaned dataset..."
	MessageComputing = "Computing KPIs..."
	MessageVisuals   = "Creating visuals..."
)

// Context keys for operation state
const (
	ContextKeyInputPath     = "input_path"
	ContextKeyDataset       = "dataset"
	ContextKeyReport        = "kpi_report"
	ContextKeyExportResult  = "export_result"
	ContextKeyLoadStats     = "load_stats"
	ContextKeyDateStats     = "date_stats"
	ContextKeyDispatchStats = "dispatch_stats"
	ContextKeyDurationStats = "duration_stats"
	ContextKeyQualityStats  = "quality_stats"
	ContextKeyFlagStats     = "flag_stats"
)

// Default timeouts
const (
	DefaultStepTimeout   = 10 * time.Minute
	DefaultLoadTimeout   = 15 * time.Minute
	DefaultExportTimeout = 15 * time.Minute
)

// OperationResponse represents the response from a pipeline execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`
}

// ProgressFunc receives a progress line from a running step
type ProgressFunc func(stepID, message string)
