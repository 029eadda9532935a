package operations

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderprep/internal/files"
	"orderprep/internal/shared/testutil"
	"orderprep/pkg/contracts"
)

func TestPipelineManifest_StageLifecycle(t *testing.T) {
	m := NewPipelineManifest("run-42")
	assert.Equal(t, contracts.Version, m.Version)
	assert.Equal(t, contracts.DataFormatVersion, m.DataFormat)
	assert.Equal(t, contracts.Version, m.Build.Version)
	assert.NotEmpty(t, m.Build.GoVersion)

	m.RecordStageStart(StepIDLoad, StepNameLoad)
	assert.Equal(t, ManifestStatusRunning, m.Status)
	m.RecordStageCompletion(StepIDLoad, 10, map[string]interface{}{"blank_rows": 1})

	m.RecordStageStart(StepIDNormalizeDates, StepNameNormalizeDates)
	m.RecordStageFailure(StepIDNormalizeDates, errors.New("bad layout"))
	m.RecordStageSkipped(StepIDModelDispatch, StepNameModelDispatch, "dependency normalize_dates failed")
	m.Finish(OperationStatusFailed, errors.New("ignored, first failure wins"))

	steps := m.GetSteps()
	require.Len(t, steps, 3)

	assert.Equal(t, ManifestStatusCompleted, steps[0].Status)
	assert.Equal(t, 10, steps[0].Rows)
	assert.True(t, m.IsStageCompleted(StepIDLoad))

	assert.Equal(t, ManifestStatusFailed, steps[1].Status)
	assert.Equal(t, "bad layout", steps[1].Error)
	assert.False(t, m.IsStageCompleted(StepIDNormalizeDates))

	assert.Equal(t, ManifestStatusSkipped, steps[2].Status)
	assert.Contains(t, steps[2].Error, "normalize_dates")

	assert.Equal(t, string(OperationStatusFailed), m.Status)
	assert.Equal(t, "step normalize_dates failed: bad layout", m.Error)
	assert.False(t, m.EndTime.IsZero())
}

func TestPipelineManifest_RecordFiles(t *testing.T) {
	base := t.TempDir()
	fm := files.NewManager(testutil.Logger(t))

	input := testutil.WriteSampleOrders(t, filepath.Join(base, "data", "raw"))
	output := filepath.Join(base, "data", "processed", "cleaned_merged_data.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(output), 0755))
	require.NoError(t, os.WriteFile(output, []byte("order_id\nORD-001\n"), 0644))
	outside := filepath.Join(t.TempDir(), "elsewhere.csv")
	require.NoError(t, os.WriteFile(outside, []byte("x\n"), 0644))

	m := NewPipelineManifest("run-files")
	require.NoError(t, m.RecordInput(fm, base, input))
	require.NoError(t, m.RecordOutput(fm, base, output, OutputKindCleaned))
	require.NoError(t, m.RecordOutput(fm, base, outside, "other"))

	require.NotNil(t, m.Input)
	assert.Equal(t, "data/raw/orders.csv", m.Input.Path)
	assert.Equal(t, int64(len(testutil.SampleOrdersCSV())), m.Input.Size)
	assert.Len(t, m.Input.Checksum, 64)

	outputs := m.GetOutputs()
	require.Len(t, outputs, 2)
	assert.Equal(t, "data/processed/cleaned_merged_data.csv", outputs[0].Path)
	assert.Equal(t, OutputKindCleaned, outputs[0].Kind)
	assert.Equal(t, outside, outputs[1].Path, "files outside the base dir keep their absolute path")

	err := m.RecordOutput(fm, base, filepath.Join(base, "missing.csv"), OutputKindChart)
	assert.Error(t, err)
	assert.Len(t, m.GetOutputs(), 2)
}

func TestPipelineManifest_SaveToFile(t *testing.T) {
	dir := t.TempDir()
	fm := files.NewManager(testutil.Logger(t))
	path := filepath.Join(dir, "run_manifest.json")

	m := NewPipelineManifest("run-save")
	m.SetConfig("quality_policy", "drop")
	m.RecordStageStart(StepIDLoad, StepNameLoad)
	m.RecordStageCompletion(StepIDLoad, 5, nil)
	m.Finish(OperationStatusCompleted, nil)

	require.NoError(t, m.SaveToFile(fm, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-save", decoded["run_id"])
	assert.Equal(t, "completed", decoded["status"])
	assert.Equal(t, "drop", decoded["config"].(map[string]interface{})["quality_policy"])
	assert.Len(t, decoded["steps"], 1)
	assert.NotContains(t, decoded, "error")
	assert.Equal(t, []interface{}{}, decoded["outputs"])
}
