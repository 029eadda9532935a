package operations

import (
	"sync"
	"time"

	"orderprep/internal/exporter"
	"orderprep/pkg/contracts/domain"
)

// OperationStatusValue represents the overall operation status enum
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState represents the complete state of one pipeline run
type OperationState struct {
	mu sync.RWMutex

	// ID is the run ID shared by logs, traces and the run manifest
	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Steps map[string]*StepState `json:"steps"`

	// Context passes the dataset and step results between steps
	Context map[string]interface{} `json:"-"`

	Error error `json:"-"`

	progress ProgressFunc
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Context:   make(map[string]interface{}),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStatus returns the current operation status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stepID]
}

// SetStage updates the state of a specific Step
func (p *OperationState) SetStage(stepID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stepID] = state
}

// GetContext retrieves a value from the operation context
func (p *OperationState) GetContext(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Context[key]
	return val, ok
}

// SetContext sets a value in the operation context
func (p *OperationState) SetContext(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Context[key] = value
}

// Dataset returns the dataset loaded by the load step
func (p *OperationState) Dataset() (*domain.Dataset, bool) {
	v, ok := p.GetContext(ContextKeyDataset)
	if !ok {
		return nil, false
	}
	ds, ok := v.(*domain.Dataset)
	return ds, ok && ds != nil
}

// Report returns the KPI report computed by the compute_kpis step
func (p *OperationState) Report() (*domain.KPIReport, bool) {
	v, ok := p.GetContext(ContextKeyReport)
	if !ok {
		return nil, false
	}
	report, ok := v.(*domain.KPIReport)
	return report, ok && report != nil
}

// ExportResult returns the files written by the export step
func (p *OperationState) ExportResult() (*exporter.Result, bool) {
	v, ok := p.GetContext(ContextKeyExportResult)
	if !ok {
		return nil, false
	}
	result, ok := v.(*exporter.Result)
	return result, ok && result != nil
}

// SetProgressFunc installs the receiver of step progress lines
func (p *OperationState) SetProgressFunc(fn ProgressFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = fn
}

// ReportProgress updates the step state and forwards the message
func (p *OperationState) ReportProgress(stepID string, progress float64, message string) {
	if step := p.GetStage(stepID); step != nil {
		step.UpdateProgress(progress, message)
	}

	p.mu.RLock()
	fn := p.progress
	p.mu.RUnlock()
	if fn != nil {
		fn(stepID, message)
	}
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// GetFailedStages returns all failed steps
func (p *OperationState) GetFailedStages() []*StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var failed []*StepState
	for _, step := range p.Steps {
		if step.GetStatus() == StepStatusFailed {
			failed = append(failed, step)
		}
	}
	return failed
}

// HasFailures returns true if any Step has failed
func (p *OperationState) HasFailures() bool {
	return len(p.GetFailedStages()) > 0
}
