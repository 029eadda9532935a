// Package config provides centralized configuration management for orderprep.
// It handles loading configuration from multiple sources, validation, and
// resolution of every file path the pipeline reads or writes.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file (optional)
//  3. Default values (lowest priority)
//
// The defaults reproduce a plain run of the cleaning job, so no configuration
// is needed at all for the standard dataset layout.
//
// # Environment Variables
//
// All environment variables follow the pattern ORDERPREP_<SECTION>_<KEY>:
//
//	ORDERPREP_LOGGING_LEVEL=debug
//	ORDERPREP_PATHS_INPUT_FILE=data/raw/orders.csv
//	ORDERPREP_QUALITY_ON_INVALID=flag
//	ORDERPREP_DISPATCH_LONG_CYCLE_DELAY=2
//	ORDERPREP_EXPORT_CHARTS=false
//
// # Path Management
//
// GetPaths resolves every configured path against the base directory:
//
//	paths, err := config.GetPaths(cfg)
//	if err != nil {
//		return err
//	}
//	if err := paths.EnsureDirectories(); err != nil {
//		return err
//	}
//
// Output files live at well-known locations, for example paths.CleanedCSV
// (data/processed/cleaned_merged_data.csv) and paths.VisualsDir (visuals/).
package config
