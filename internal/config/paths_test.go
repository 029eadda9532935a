package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetPaths tests the GetPaths function with various scenarios
func TestGetPaths(t *testing.T) {
	t.Run("relative paths resolve against base dir", func(t *testing.T) {
		base := t.TempDir()
		cfg := Default()
		cfg.Paths.BaseDir = base

		paths, err := GetPaths(cfg)
		require.NoError(t, err)

		assert.Equal(t, base, paths.BaseDir)
		assert.Equal(t, filepath.Join(base, DefaultInputFile), paths.InputFile)
		assert.Equal(t, filepath.Join(base, "data", "processed"), paths.ProcessedDir)
		assert.Equal(t, filepath.Join(base, "visuals"), paths.VisualsDir)
		assert.Equal(t, filepath.Join(base, "data", "processed", "cleaned_merged_data.csv"), paths.CleanedCSV)
		assert.Equal(t, filepath.Join(base, "data", "processed", ManifestFileName), paths.ManifestJSON)
		assert.Equal(t, filepath.Join(base, "logs", MetricsFileName), paths.MetricsFile)
	})

	t.Run("absolute paths are kept", func(t *testing.T) {
		base := t.TempDir()
		abs := filepath.Join(t.TempDir(), "orders.csv")
		cfg := Default()
		cfg.Paths.BaseDir = base
		cfg.Paths.InputFile = abs

		paths, err := GetPaths(cfg)
		require.NoError(t, err)
		assert.Equal(t, abs, paths.InputFile)
	})

	t.Run("empty base dir uses working directory", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)

		paths, err := GetPaths(Default())
		require.NoError(t, err)

		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, wd, paths.BaseDir)
	})
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.Paths.BaseDir = t.TempDir()

	paths, err := GetPaths(cfg)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.ProcessedDir, paths.VisualsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}

	// idempotent
	assert.NoError(t, paths.EnsureDirectories())
}
