package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Manager orchestrates pipeline execution
type Manager struct {
	registry *Registry
	config   *Config
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewManager creates a new pipeline manager. tracer may be nil.
func NewManager(registry *Registry, config *Config, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry: registry,
		config:   config,
		tracer:   tracer,
		logger:   logger.With(slog.String("component", "operation_manager")),
	}
}

// RegisterStage registers a Step with the pipeline
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs every registered step in dependency order against state.
// The first failing step stops the run; its dependents are marked skipped.
func (m *Manager) Execute(ctx context.Context, state *OperationState, manifest *PipelineManifest) (*OperationResponse, error) {
	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		err = NewFatalError("invalid step graph", err)
		state.Fail(err)
		return m.createResponse(state), err
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	span := trace.SpanFromContext(ctx)
	if m.tracer != nil {
		ctx, span = m.tracer.TraceRun(ctx, state.ID, len(steps))
		defer span.End()
	}

	m.logger.InfoContext(ctx, "Pipeline started",
		slog.Int("step_count", len(steps)))

	state.Start()
	err = m.executeSequential(ctx, state, steps, manifest)

	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}

	if manifest != nil {
		manifest.Finish(state.GetStatus(), err)
	}
	if m.tracer != nil {
		m.tracer.RecordRunCompletion(ctx, span, state.GetStatus(), state.Duration(), err)
	}

	if err != nil {
		m.logger.ErrorContext(ctx, "Pipeline failed",
			slog.String("status", string(state.GetStatus())),
			slog.Duration("duration", state.Duration()),
			slog.String("error", err.Error()))
	} else {
		m.logger.InfoContext(ctx, "Pipeline completed",
			slog.Duration("duration", state.Duration()))
	}

	return m.createResponse(state), err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step, manifest *PipelineManifest) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.WarnContext(ctx, "Pipeline cancelled",
				slog.String("step", step.ID()))
			m.skipRemaining(state, steps[i:], manifest, "operation cancelled")
			return NewCancellationError(step.ID(), err)
		}

		stepState := state.GetStage(step.ID())
		if stepState.GetStatus() == StepStatusSkipped {
			continue
		}

		m.logger.DebugContext(ctx, "Executing step",
			slog.String("step", step.ID()),
			slog.Int("step_number", i+1),
			slog.Int("total_steps", len(steps)))

		if err := m.executeStage(ctx, state, step, manifest); err != nil {
			m.skipDependentStages(state, steps, step.ID(), manifest)
			m.skipRemaining(state, steps[i+1:], manifest, fmt.Sprintf("step %s failed", step.ID()))
			return err
		}
	}
	return nil
}

// executeStage validates and runs a single Step
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step, manifest *PipelineManifest) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError(fmt.Sprintf("state for step %s not found", step.ID()), nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(err.Error())
		if manifest != nil {
			manifest.RecordStageSkipped(step.ID(), step.Name(), err.Error())
		}
		return err
	}

	if err := step.Validate(state); err != nil {
		opErr := NewValidationError(step.ID(), err.Error())
		stepState.Fail(opErr)
		if manifest != nil {
			manifest.RecordStageStart(step.ID(), step.Name())
			manifest.RecordStageFailure(step.ID(), opErr)
		}
		m.logger.ErrorContext(ctx, "Step validation failed",
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		return opErr
	}

	timeout := m.config.GetStepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	span := trace.SpanFromContext(stepCtx)
	if m.tracer != nil {
		stepCtx, span = m.tracer.TraceStep(stepCtx, state.ID, step.ID())
		defer span.End()
	}

	stepState.Start()
	if manifest != nil {
		manifest.RecordStageStart(step.ID(), step.Name())
	}
	m.logger.InfoContext(stepCtx, "Step started",
		slog.String("step", step.ID()),
		slog.String("name", step.Name()))

	startTime := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(startTime)

	if err == nil && stepCtx.Err() != nil {
		err = stepCtx.Err()
	}

	if err != nil {
		opErr := m.classify(ctx, step.ID(), timeout, err)
		stepState.Fail(opErr)
		if manifest != nil {
			manifest.RecordStageFailure(step.ID(), opErr)
		}
		if m.tracer != nil {
			m.tracer.RecordStepCompletion(stepCtx, span, state.ID, step.ID(), duration, stepState.GetRows(), opErr)
		}
		m.logger.ErrorContext(stepCtx, "Step failed",
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", opErr.Error()))
		return opErr
	}

	stepState.Complete()
	if manifest != nil {
		manifest.RecordStageCompletion(step.ID(), stepState.GetRows(), copyMetadata(stepState))
	}
	if m.tracer != nil {
		m.tracer.RecordStepCompletion(stepCtx, span, state.ID, step.ID(), duration, stepState.GetRows(), nil)
	}
	m.logger.InfoContext(stepCtx, "Step completed",
		slog.String("step", step.ID()),
		slog.Int("rows", stepState.GetRows()),
		slog.Duration("duration", duration))

	return nil
}

// classify turns a step error into an OperationError
func (m *Manager) classify(parent context.Context, stepID string, timeout time.Duration, err error) *OperationError {
	switch {
	case parent.Err() != nil:
		return NewCancellationError(stepID, err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(stepID, timeout.String())
	default:
		return WrapError(err, stepID, "step execution failed")
	}
}

// skipDependentStages marks all pending steps that depend on the failed Step as skipped
func (m *Manager) skipDependentStages(state *OperationState, steps []Step, failedStepID string, manifest *PipelineManifest) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep != failedStepID {
				continue
			}
			stepState := state.GetStage(step.ID())
			if stepState != nil && stepState.GetStatus() == StepStatusPending {
				reason := fmt.Sprintf("dependency %s failed", failedStepID)
				stepState.Skip(reason)
				if manifest != nil {
					manifest.RecordStageSkipped(step.ID(), step.Name(), reason)
				}
				m.skipDependentStages(state, steps, step.ID(), manifest)
			}
			break
		}
	}
}

// skipRemaining marks every still pending step as skipped
func (m *Manager) skipRemaining(state *OperationState, steps []Step, manifest *PipelineManifest, reason string) {
	for _, step := range steps {
		stepState := state.GetStage(step.ID())
		if stepState == nil || stepState.GetStatus() != StepStatusPending {
			continue
		}
		stepState.Skip(reason)
		if manifest != nil {
			manifest.RecordStageSkipped(step.ID(), step.Name(), reason)
		}
	}
}

// checkDependencies verifies that all dependencies are satisfied
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not found", dep))
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Steps,
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}

func copyMetadata(s *StepState) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.Metadata) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(s.Metadata))
	for k, v := range s.Metadata {
		out[k] = v
	}
	return out
}
