package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderprep/internal/config"
	"orderprep/internal/infrastructure"
	"orderprep/internal/operations"
	"orderprep/internal/shared/testutil"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		extraArgs  []string
		wantCode   int
		wantStdout []string
		wantStderr string
		wantFiles  []string
		wantAbsent []string
	}{
		{
			name:  "sample dataset",
			input: "data/raw/orders.csv",
			wantStdout: []string{
				operations.MessageLoading,
				operations.MessageCleaning,
				operations.MessageComputing,
				operations.MessageSaving,
				"Cleaned dataset saved to",
			},
			wantFiles: []string{
				"data/processed/" + config.DefaultCleanedFileName,
				"data/processed/" + config.RejectedRowsFileName,
				"data/processed/" + config.SummaryJSONFileName,
				"data/processed/" + config.SummaryXLSXFileName,
				"data/processed/" + config.ManifestFileName,
				"logs/" + config.MetricsFileName,
			},
		},
		{
			name:       "directory input picks the dataset inside",
			input:      "data/raw",
			wantStdout: []string{operations.MessageLoading, "Cleaned dataset saved to"},
			wantFiles:  []string{"data/processed/" + config.DefaultCleanedFileName},
		},
		{
			name:       "missing input",
			input:      "data/raw/missing.csv",
			wantCode:   1,
			wantStdout: []string{operations.MessageLoading},
			wantStderr: "failed to open input",
			wantFiles:  []string{"data/processed/" + config.ManifestFileName},
			wantAbsent: []string{"data/processed/" + config.DefaultCleanedFileName},
		},
		{
			name:       "directory without a dataset",
			input:      "data",
			wantCode:   1,
			wantStderr: "[NOT_FOUND] dataset in",
			wantAbsent: []string{"data/processed/" + config.ManifestFileName},
		},
		{
			name:       "unexpected argument",
			input:      "data/raw/orders.csv",
			extraArgs:  []string{"extra"},
			wantCode:   1,
			wantStderr: "unknown command",
			wantAbsent: []string{"data/processed/" + config.ManifestFileName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			testutil.WriteSampleOrders(t, filepath.Join(base, "data", "raw"))

			args := append([]string{"--base-dir", base, "--input", tt.input, "--no-charts"}, tt.extraArgs...)
			code, stdout, stderr := runCLI(t, args...)

			assert.Equal(t, tt.wantCode, code, "stderr: %s", stderr)
			last := -1
			for _, want := range tt.wantStdout {
				idx := strings.Index(stdout, want)
				require.GreaterOrEqual(t, idx, 0, "missing %q in stdout:\n%s", want, stdout)
				assert.Greater(t, idx, last, "%q printed out of order", want)
				last = idx
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr, tt.wantStderr)
			}
			for _, f := range tt.wantFiles {
				assert.FileExists(t, filepath.Join(base, f))
			}
			for _, f := range tt.wantAbsent {
				assert.NoFileExists(t, filepath.Join(base, f))
			}
			assert.NotContains(t, stdout, operations.MessageVisuals)
		})
	}
}

func TestRun_ConfigFile(t *testing.T) {
	base := t.TempDir()
	testutil.WriteSampleOrders(t, filepath.Join(base, "data", "raw"))

	configPath := filepath.Join(base, "orderprep.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`paths:
  input_file: data/raw/orders.csv
quality:
  on_invalid: flag
export:
  summary_workbook: false
  charts: false
telemetry:
  enabled: false
`), 0644))

	code, stdout, stderr := runCLI(t, "--config", configPath, "--base-dir", base)
	require.Equal(t, 0, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Orders: 5")

	processed := filepath.Join(base, "data", "processed")
	assert.FileExists(t, filepath.Join(processed, config.DefaultCleanedFileName))
	assert.NoFileExists(t, filepath.Join(processed, config.RejectedRowsFileName))
	assert.NoFileExists(t, filepath.Join(processed, config.SummaryXLSXFileName))
	assert.NoFileExists(t, filepath.Join(base, "logs", config.MetricsFileName))
}

func TestRun_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("quality:\n  on_invalid: quarantine\n"), 0644))

	code, stdout, stderr := runCLI(t, "--config", configPath)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "[CONFIG] failed to load configuration")
	assert.Contains(t, stderr, "unknown quality policy")
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "orderprep v")
}

func TestNewRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})

	for _, name := range []string{"config", "input", "base-dir", "no-charts"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "c", cmd.Flags().Lookup("config").Shorthand)
	assert.Equal(t, "false", cmd.Flags().Lookup("no-charts").DefValue)
}
