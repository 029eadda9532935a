package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler_Records(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Debug("debug msg")
	logger.Info("Loading orders", slog.String("path", "orders.csv"))
	logger.Warn("Blank row skipped", slog.Int("row", 3))
	logger.Error("Export failed", slog.String("error", "disk full"))

	assert.Equal(t, 4, handler.Count())
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	assert.True(t, handler.ContainsMessage("Loading"))
	assert.False(t, handler.ContainsMessage("Saving"))

	handler.Clear()
	assert.Zero(t, handler.Count())
	assert.Empty(t, handler.GetRecords())
}

func TestBufferedSlogHandler_ContainsAttr(t *testing.T) {
	logger, handler := NewTestLogger(t)
	logger.Info("KPIs computed",
		slog.Int("orders", 3),
		slog.Float64("on_time_pct", 50),
		slog.Bool("charts", false))

	tests := []struct {
		name  string
		key   string
		value any
		want  bool
	}{
		{"int matches int", "orders", 3, true},
		{"int matches printed form", "orders", "3", true},
		{"float", "on_time_pct", 50.0, true},
		{"bool", "charts", false, true},
		{"wrong value", "orders", 4, false},
		{"missing key", "rows", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, handler.ContainsAttr(tt.key, tt.value))
		})
	}
}

func TestBufferedSlogHandler_DerivedHandlersShareStore(t *testing.T) {
	logger, handler := NewTestLogger(t)

	loader := logger.With(slog.String("component", "loader"))
	gate := logger.With(slog.String("component", "quality_gate")).WithGroup("stats")

	loader.Info("Loaded", slog.Int("rows", 5))
	gate.Info("Applied", slog.Int("dropped", 1))
	logger.Info("Done")

	records := handler.GetRecords()
	require.Len(t, records, 3)

	assert.Equal(t, "loader", records[0].Attrs["component"])
	assert.EqualValues(t, 5, records[0].Attrs["rows"])

	assert.Equal(t, "quality_gate", records[1].Attrs["component"], "With attrs stay outside the group")
	assert.EqualValues(t, 1, records[1].Attrs["stats.dropped"])
	assert.NotContains(t, records[1].Attrs, "dropped")

	assert.NotContains(t, records[2].Attrs, "component", "parent logger is unchanged")
}

func TestBufferedSlogHandler_NestedGroups(t *testing.T) {
	logger, handler := NewTestLogger(t)
	logger.WithGroup("run").WithGroup("step").Info("Step completed", slog.String("id", "load"))

	require.Equal(t, 1, handler.Count())
	assert.Equal(t, "load", handler.GetRecords()[0].Attrs["run.step.id"])
	AssertLogAttr(t, handler, "run.step.id", "load")
}

func TestBufferedSlogHandler_WithAttrsDoesNotAlias(t *testing.T) {
	logger, handler := NewTestLogger(t)
	base := logger.With(slog.String("a", "1"))

	// both children append to the same parent slice
	left := base.With(slog.String("side", "left"))
	right := base.With(slog.String("side", "right"))
	left.Info("left")
	right.Info("right")

	records := handler.GetRecords()
	require.Len(t, records, 2)
	assert.Equal(t, "left", records[0].Attrs["side"])
	assert.Equal(t, "right", records[1].Attrs["side"])
}

func TestAssertHelpers(t *testing.T) {
	logger, handler := NewTestLogger(t)
	logger.Info("Pipeline completed", slog.String("run_id", "r1"))

	AssertLogContains(t, handler, slog.LevelInfo, "Pipeline completed")
	AssertLogAttr(t, handler, "run_id", "r1")
	AssertNoErrors(t, handler)
}

func TestWriteSampleOrders(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "raw")
	path := WriteSampleOrders(t, dir)

	assert.Equal(t, filepath.Join(dir, "orders.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, SampleTotalRows+1)
	assert.Equal(t, SourceHeader, lines[0])
	assert.Equal(t, SampleCleanedRows+SampleRejectedRows, SampleTotalRows)
}
