package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"orderprep/internal/config"
	apperrors "orderprep/internal/errors"
	"orderprep/internal/files"
	"orderprep/internal/infrastructure"
	"orderprep/internal/operations"
	"orderprep/pkg/contracts"
)

const shutdownTimeout = 5 * time.Second

// cliOptions holds the command line overrides of the loaded configuration
type cliOptions struct {
	configFile string
	input      string
	baseDir    string
	noCharts   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Clean an e-commerce order export and compute delivery KPIs",
		Long: `orderprep loads the raw order fulfillment export, normalizes its dates,
models dispatch dates, recalculates delivery durations and writes the cleaned
table, a KPI summary and charts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       contracts.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), opts, stdout, stderr)
		},
	}

	cmd.SetVersionTemplate(contracts.CurrentBuild().String() + "\n")

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file (default: orderprep.yaml or configs/orderprep.yaml when present)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input CSV or XLSX file, or a directory holding one")
	cmd.Flags().StringVar(&opts.baseDir, "base-dir", "", "directory the relative data paths are resolved against (default: working directory)")
	cmd.Flags().BoolVar(&opts.noCharts, "no-charts", false, "skip PNG chart rendering")

	return cmd
}

// loadConfig reads the configuration and applies the command line overrides
func loadConfig(opts *cliOptions) (*config.Config, *config.Paths, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	if opts.baseDir != "" {
		cfg.Paths.BaseDir = opts.baseDir
	}
	if opts.input != "" {
		cfg.Paths.InputFile = opts.input
	}
	if opts.noCharts {
		cfg.Export.Charts = false
	}

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, nil, apperrors.NewConfigError("failed to resolve paths", err)
	}
	if cfg.Logging.FilePath != "" && !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = filepath.Join(paths.BaseDir, cfg.Logging.FilePath)
	}

	// A directory input picks the most recent dataset in it
	if info, err := os.Stat(paths.InputFile); err == nil && info.IsDir() {
		resolved, err := files.NewDiscovery(paths.BaseDir).ResolveInput(paths.InputFile)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperrors.NewNotFoundError("dataset in " + paths.InputFile)
		}
		if err != nil {
			return nil, nil, err
		}
		paths.InputFile = resolved
	}

	return cfg, paths, nil
}

func runPipeline(ctx context.Context, opts *cliOptions, stdout, stderr io.Writer) error {
	cfg, paths, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx = infrastructure.EnsureRunID(ctx)
	logger.InfoContext(ctx, "Starting orderprep",
		slog.String("version", contracts.Version),
		slog.String("input", paths.InputFile),
		slog.Bool("charts", cfg.Export.Charts),
		slog.String("quality_policy", cfg.Quality.OnInvalid))
	paths.LogPathResolution()

	var providers *infrastructure.OTelProviders
	if cfg.Telemetry.Enabled {
		providers, err = infrastructure.InitializeOTel(&infrastructure.OTelConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: contracts.Version,
			TraceExporter:  cfg.Telemetry.TraceExporter,
			MetricExporter: cfg.Telemetry.MetricsExporter,
			TraceFile:      paths.TraceFile,
			MetricsFile:    paths.MetricsFile,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	pipeline, err := operations.NewPipeline(operations.PipelineOptions{
		Config:    cfg,
		Paths:     paths,
		Providers: providers,
		Logger:    logger,
		Progress: func(_, message string) {
			fmt.Fprintln(stdout, message)
		},
	})
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Cleaned dataset saved to %s\n", paths.CleanedCSV)
	if result.Report != nil {
		fmt.Fprintf(stdout, "Orders: %d, on time: %.1f%%, average delivery days: %.2f\n",
			result.Report.TotalOrders, result.Report.OverallOnTimePct, result.Report.AvgDeliveryDays)
	}
	fmt.Fprintf(stdout, "%d files written, run %s\n", len(result.Files), result.RunID)
	return nil
}
