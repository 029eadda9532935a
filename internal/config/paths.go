package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the resolved paths of one pipeline run.
// This is the single source of truth for file locations.
type Paths struct {
	BaseDir      string
	InputFile    string
	ProcessedDir string
	VisualsDir   string
	LogsDir      string

	// Well-known output files
	CleanedCSV   string
	RejectedCSV  string
	SummaryJSON  string
	SummaryXLSX  string
	ManifestJSON string
	MetricsFile  string
	TraceFile    string
}

// GetPaths resolves the configured paths. Relative entries are joined to the
// base directory, which defaults to the current working directory.
func GetPaths(cfg *Config) (*Paths, error) {
	base := cfg.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %v", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %v", err)
	}

	processed := resolve(base, cfg.Paths.ProcessedDir)
	logs := resolve(base, cfg.Paths.LogsDir)

	return &Paths{
		BaseDir:      base,
		InputFile:    resolve(base, cfg.Paths.InputFile),
		ProcessedDir: processed,
		VisualsDir:   resolve(base, cfg.Paths.VisualsDir),
		LogsDir:      logs,

		CleanedCSV:   filepath.Join(processed, cfg.Export.CleanedFileName),
		RejectedCSV:  filepath.Join(processed, RejectedRowsFileName),
		SummaryJSON:  filepath.Join(processed, SummaryJSONFileName),
		SummaryXLSX:  filepath.Join(processed, SummaryXLSXFileName),
		ManifestJSON: filepath.Join(processed, ManifestFileName),
		MetricsFile:  filepath.Join(logs, MetricsFileName),
		TraceFile:    filepath.Join(logs, TraceFileName),
	}, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// EnsureDirectories creates all output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ProcessedDir,
		p.VisualsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		logger.Debug("Ensured directory exists",
			slog.String("directory", dir))
	}

	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution() {
	slog.Default().Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("processed", p.ProcessedDir),
			slog.String("visuals", p.VisualsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("input", p.InputFile),
			slog.String("cleaned_csv", p.CleanedCSV),
		))
}
