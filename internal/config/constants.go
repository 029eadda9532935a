package config

// Application constants
const (
	AppName   = "orderprep"
	EnvPrefix = "ORDERPREP"

	// File Paths (relative to the base directory)
	DefaultInputFile    = "data/raw/E-Commerce Order Fulfillment Dataset (50K Records).csv"
	DefaultProcessedDir = "data/processed"
	DefaultVisualsDir   = "visuals"
	DefaultLogsDir      = "logs"

	// Output artifacts
	DefaultCleanedFileName = "cleaned_merged_data.csv"
	RejectedRowsFileName   = "rejected_rows.csv"
	SummaryJSONFileName    = "kpi_summary.json"
	SummaryXLSXFileName    = "kpi_summary.xlsx"
	ManifestFileName       = "run_manifest.json"
	MetricsFileName        = "orderprep.prom"
	TraceFileName          = "orderprep-trace.json"

	// Quality policies
	PolicyDrop = "drop"
	PolicyFlag = "flag"
)
