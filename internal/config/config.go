package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Dispatch  DispatchConfig  `yaml:"dispatch" envconfig:"DISPATCH"`
	Quality   QualityConfig   `yaml:"quality" envconfig:"QUALITY"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
// Relative entries are resolved against BaseDir, which defaults to the working directory.
type PathsConfig struct {
	BaseDir      string `yaml:"base_dir" envconfig:"BASE_DIR"`
	InputFile    string `yaml:"input_file" envconfig:"INPUT_FILE"`
	InputSheet   string `yaml:"input_sheet" envconfig:"INPUT_SHEET"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR"`
	VisualsDir   string `yaml:"visuals_dir" envconfig:"VISUALS_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// DispatchConfig holds the threshold rule that maps a total order cycle to a dispatch delay.
type DispatchConfig struct {
	SameDayMaxCycle int  `yaml:"same_day_max_cycle" envconfig:"SAME_DAY_MAX_CYCLE"`
	NextDayMaxCycle int  `yaml:"next_day_max_cycle" envconfig:"NEXT_DAY_MAX_CYCLE"`
	SameDayDelay    int  `yaml:"same_day_delay" envconfig:"SAME_DAY_DELAY"`
	NextDayDelay    int  `yaml:"next_day_delay" envconfig:"NEXT_DAY_DELAY"`
	LongCycleDelay  int  `yaml:"long_cycle_delay" envconfig:"LONG_CYCLE_DELAY"`
	RepairInverted  bool `yaml:"repair_inverted_timeline" envconfig:"REPAIR_INVERTED_TIMELINE"`
}

// QualityConfig controls what happens to rows that cannot be cleaned.
type QualityConfig struct {
	OnInvalid string `yaml:"on_invalid" envconfig:"ON_INVALID"`
}

// ExportConfig controls which artifacts the exporter produces.
type ExportConfig struct {
	CleanedFileName string `yaml:"cleaned_file_name" envconfig:"CLEANED_FILE_NAME"`
	BOMPrefix       bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
	Charts          bool   `yaml:"charts" envconfig:"CHARTS"`
	ChartWidth      int    `yaml:"chart_width" envconfig:"CHART_WIDTH"`
	ChartHeight     int    `yaml:"chart_height" envconfig:"CHART_HEIGHT"`
	SummaryJSON     bool   `yaml:"summary_json" envconfig:"SUMMARY_JSON"`
	SummaryWorkbook bool   `yaml:"summary_workbook" envconfig:"SUMMARY_WORKBOOK"`
	Manifest        bool   `yaml:"manifest" envconfig:"MANIFEST"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	MetricsExporter string `yaml:"metrics_exporter" envconfig:"METRICS_EXPORTER"`
	TraceExporter   string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
}

// Load builds the configuration from defaults, an optional YAML file and
// ORDERPREP_* environment variables, in increasing order of precedence.
// An empty configFile triggers the search in the usual locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Only variables that are actually set override the file
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	d := c.Dispatch
	if d.SameDayMaxCycle < 0 || d.NextDayMaxCycle < 0 {
		return fmt.Errorf("dispatch cycle thresholds must be non-negative")
	}
	if d.SameDayMaxCycle > d.NextDayMaxCycle {
		return fmt.Errorf("same-day threshold %d exceeds next-day threshold %d", d.SameDayMaxCycle, d.NextDayMaxCycle)
	}
	if d.SameDayDelay < 0 || d.NextDayDelay < 0 || d.LongCycleDelay < 0 {
		return fmt.Errorf("dispatch delays must be non-negative")
	}

	c.Quality.OnInvalid = strings.ToLower(strings.TrimSpace(c.Quality.OnInvalid))
	switch c.Quality.OnInvalid {
	case PolicyDrop, PolicyFlag:
	default:
		return fmt.Errorf("unknown quality policy %q (want %q or %q)", c.Quality.OnInvalid, PolicyDrop, PolicyFlag)
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %s", c.Logging.Output)
	}

	if c.Paths.InputFile == "" {
		return fmt.Errorf("input file must be specified")
	}
	if c.Export.CleanedFileName == "" {
		c.Export.CleanedFileName = DefaultCleanedFileName
	}
	if c.Export.ChartWidth <= 0 || c.Export.ChartHeight <= 0 {
		return fmt.Errorf("chart dimensions must be positive")
	}

	switch c.Telemetry.MetricsExporter {
	case "none", "prometheus":
	default:
		return fmt.Errorf("invalid metrics exporter: %s", c.Telemetry.MetricsExporter)
	}
	switch c.Telemetry.TraceExporter {
	case "none", "stdout", "file":
	default:
		return fmt.Errorf("invalid trace exporter: %s", c.Telemetry.TraceExporter)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"orderprep.yaml",
		"config.yaml",
		"configs/orderprep.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/orderprep.log",
		},
		Paths: PathsConfig{
			InputFile:    DefaultInputFile,
			ProcessedDir: DefaultProcessedDir,
			VisualsDir:   DefaultVisualsDir,
			LogsDir:      DefaultLogsDir,
		},
		Dispatch: DispatchConfig{
			SameDayMaxCycle: 4,
			NextDayMaxCycle: 8,
			SameDayDelay:    0,
			NextDayDelay:    1,
			LongCycleDelay:  3,
			RepairInverted:  true,
		},
		Quality: QualityConfig{
			OnInvalid: PolicyDrop,
		},
		Export: ExportConfig{
			CleanedFileName: DefaultCleanedFileName,
			Charts:          true,
			ChartWidth:      1024,
			ChartHeight:     576,
			SummaryJSON:     true,
			SummaryWorkbook: true,
			Manifest:        true,
		},
		Telemetry: TelemetryConfig{
			Enabled:         true,
			ServiceName:     AppName,
			MetricsExporter: "prometheus",
			TraceExporter:   "none",
		},
	}
}
