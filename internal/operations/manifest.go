package operations

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"orderprep/internal/files"
	"orderprep/internal/infrastructure"
	"orderprep/pkg/contracts"
)

// Manifest step status values
const (
	ManifestStatusRunning   = "running"
	ManifestStatusCompleted = "completed"
	ManifestStatusFailed    = "failed"
	ManifestStatusSkipped   = "skipped"
)

// PipelineManifest describes one pipeline run: what ran, what it read and
// what it wrote. It is saved as run_manifest.json next to the cleaned table.
type PipelineManifest struct {
	mu sync.RWMutex

	RunID      string              `json:"run_id"`
	Version    string              `json:"version"`
	DataFormat string              `json:"data_format"`
	Build      contracts.BuildInfo `json:"build"`
	StartTime  time.Time           `json:"start_time"`
	EndTime    time.Time           `json:"end_time,omitempty"`
	Status     string              `json:"status"`
	Error      string              `json:"error,omitempty"`

	Config map[string]interface{} `json:"config,omitempty"`

	Input   *FileInfo        `json:"input,omitempty"`
	Steps   []StageExecution `json:"steps"`
	Outputs []FileInfo       `json:"outputs"`

	Runtime *infrastructure.RuntimeStats `json:"runtime,omitempty"`
}

// FileInfo identifies a file read or written by the run
type FileInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	Size     int64  `json:"size"`
	Checksum string `json:"blake2b_256"`
}

// StageExecution tracks the execution of a single step
type StageExecution struct {
	StepID    string                 `json:"step_id"`
	StepName  string                 `json:"step_name"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time,omitempty"`
	Duration  string                 `json:"duration,omitempty"`
	Status    string                 `json:"status"`
	Rows      int                    `json:"rows"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewPipelineManifest creates a new manifest for runID
func NewPipelineManifest(runID string) *PipelineManifest {
	return &PipelineManifest{
		RunID:      runID,
		Version:    contracts.Version,
		DataFormat: contracts.DataFormatVersion,
		Build:      contracts.CurrentBuild(),
		StartTime:  time.Now(),
		Status:     "pending",
		Config:     make(map[string]interface{}),
		Steps:      []StageExecution{},
		Outputs:    []FileInfo{},
	}
}

// SetConfig records a configuration value that influenced the output
func (m *PipelineManifest) SetConfig(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Config[key] = value
}

// RecordStageStart records the start of a step execution
func (m *PipelineManifest) RecordStageStart(stepID, stepName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Status = ManifestStatusRunning
	m.Steps = append(m.Steps, StageExecution{
		StepID:    stepID,
		StepName:  stepName,
		StartTime: time.Now(),
		Status:    ManifestStatusRunning,
	})
}

// RecordStageCompletion records the completion of a step
func (m *PipelineManifest) RecordStageCompletion(stepID string, rows int, metadata map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exec := m.findStep(stepID); exec != nil {
		exec.EndTime = time.Now()
		exec.Duration = exec.EndTime.Sub(exec.StartTime).String()
		exec.Status = ManifestStatusCompleted
		exec.Rows = rows
		exec.Metadata = metadata
	}
}

// RecordStageFailure records a step failure
func (m *PipelineManifest) RecordStageFailure(stepID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exec := m.findStep(stepID); exec != nil {
		exec.EndTime = time.Now()
		exec.Duration = exec.EndTime.Sub(exec.StartTime).String()
		exec.Status = ManifestStatusFailed
		exec.Error = err.Error()
	}
	m.Status = ManifestStatusFailed
	m.Error = fmt.Sprintf("step %s failed: %v", stepID, err)
}

// RecordStageSkipped records a step that never ran
func (m *PipelineManifest) RecordStageSkipped(stepID, stepName, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Steps = append(m.Steps, StageExecution{
		StepID:   stepID,
		StepName: stepName,
		Status:   ManifestStatusSkipped,
		Error:    reason,
	})
}

// findStep returns the last execution of stepID; callers hold the lock
func (m *PipelineManifest) findStep(stepID string) *StageExecution {
	for i := len(m.Steps) - 1; i >= 0; i-- {
		if m.Steps[i].StepID == stepID {
			return &m.Steps[i]
		}
	}
	return nil
}

// IsStageCompleted checks if a step has been completed
func (m *PipelineManifest) IsStageCompleted(stepID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, exec := range m.Steps {
		if exec.StepID == stepID && exec.Status == ManifestStatusCompleted {
			return true
		}
	}
	return false
}

// Finish sets the final run status
func (m *PipelineManifest) Finish(status OperationStatusValue, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EndTime = time.Now()
	m.Status = string(status)
	if err != nil && m.Error == "" {
		m.Error = err.Error()
	}
}

// SetRuntime records the runtime snapshot taken at the end of the run
func (m *PipelineManifest) SetRuntime(stats infrastructure.RuntimeStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runtime = &stats
}

// RecordInput checksums the input file
func (m *PipelineManifest) RecordInput(fm *files.Manager, baseDir, path string) error {
	info, err := describeFile(fm, baseDir, path, "input")
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Input = &info
	return nil
}

// RecordOutput checksums a file written by the run
func (m *PipelineManifest) RecordOutput(fm *files.Manager, baseDir, path, kind string) error {
	info, err := describeFile(fm, baseDir, path, kind)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outputs = append(m.Outputs, info)
	return nil
}

// GetOutputs returns a copy of the recorded output files
func (m *PipelineManifest) GetOutputs() []FileInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FileInfo, len(m.Outputs))
	copy(out, m.Outputs)
	return out
}

// GetSteps returns a copy of the recorded step executions
func (m *PipelineManifest) GetSteps() []StageExecution {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]StageExecution, len(m.Steps))
	copy(out, m.Steps)
	return out
}

// SaveToFile writes the manifest as indented JSON through the file manager
func (m *PipelineManifest) SaveToFile(fm *files.Manager, path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return fm.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(append(data, '\n'))
		return err
	})
}

// describeFile builds a FileInfo with a path relative to baseDir when possible
func describeFile(fm *files.Manager, baseDir, path, kind string) (FileInfo, error) {
	sum, size, err := fm.Checksum(path)
	if err != nil {
		return FileInfo{}, err
	}

	display := path
	if baseDir != "" {
		if rel, err := filepath.Rel(baseDir, path); err == nil && !filepath.IsAbs(rel) && rel != ".." && !startsWithParent(rel) {
			display = filepath.ToSlash(rel)
		}
	}

	return FileInfo{
		Path:     display,
		Kind:     kind,
		Size:     size,
		Checksum: sum,
	}, nil
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
