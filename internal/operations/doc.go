// Package operations runs the order cleaning pipeline as a sequence of steps.
//
// Core Components:
//
// Step: A single unit of work (load, normalize_dates, model_dispatch,
// recalculate, quality_gate, compute_kpis, export). Steps share an
// OperationState that carries the dataset and the KPI report.
//
// Registry: Keeps steps in registration order and sorts them by dependency.
//
// Manager: Validates and executes the steps one at a time. The first failure
// stops the run and becomes an OperationError; every step gets a span and
// step metrics through OperationTracer.
//
// PipelineManifest: The record of one run saved as run_manifest.json, with
// per-step counters and BLAKE2b checksums of the input and every output.
//
// Pipeline: Builds all steps from config.Config and runs them.
//
// Example usage:
//
//	pipeline, err := operations.NewPipeline(operations.PipelineOptions{
//		Config:    cfg,
//		Paths:     paths,
//		Providers: providers,
//		Logger:    logger,
//	})
//	if err != nil {
//		return err
//	}
//	result, err := pipeline.Run(ctx)
package operations
