package infrastructure

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRuntimeStats(t *testing.T) {
	runtime.GC()
	stats := ReadRuntimeStats()

	assert.Positive(t, stats.SysBytes)
	assert.Positive(t, stats.TotalAllocBytes)
	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.NumGC)
	assert.Equal(t, runtime.NumCPU(), stats.CPUs)
	assert.Equal(t, runtime.Version(), stats.GoVersion)
}

func TestRuntimeMetricsCollect(t *testing.T) {
	t.Run("nil receiver only reads", func(t *testing.T) {
		var rm *RuntimeMetrics
		stats := rm.Collect(context.Background())
		assert.Positive(t, stats.Goroutines)
	})

	t.Run("records into the metrics textfile", func(t *testing.T) {
		cfg := DefaultOTelConfig()
		cfg.MetricsFile = filepath.Join(t.TempDir(), "orderprep.prom")

		providers, err := InitializeOTel(cfg, NewLogger(&bytes.Buffer{}, "info"))
		require.NoError(t, err)

		rm, err := NewRuntimeMetrics(providers.Meter)
		require.NoError(t, err)
		rm.Collect(context.Background())

		require.NoError(t, providers.Shutdown(context.Background()))

		content, err := os.ReadFile(cfg.MetricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "orderprep_runtime_goroutines")
		assert.Contains(t, string(content), "orderprep_runtime_heap_alloc_bytes")
	})
}
