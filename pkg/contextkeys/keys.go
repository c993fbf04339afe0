// Package contextkeys provides centralized context key definitions
//
// All context keys used across plugkit are defined here, so a value set by
// one package can be read by another without importing it.
//
// USAGE PATTERN:
//
//	ctx = contextkeys.WithRunID(ctx, id)
//	id := contextkeys.GetRunID(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RunIDKey contains the pipeline run ID string (UUID)
	// Set by: pipeline.Pipeline.Run (pkg/pipeline/executor.go)
	// Used by: Trace interceptor, stage failure logs
	// Type: string
	RunIDKey Key = "run_id"

	// StageKey contains the zero-based index of the running stage
	// Set by: pipeline.Pipeline.Run
	// Used by: Trace interceptor
	// Type: int
	StageKey Key = "stage"
)

// WithRunID adds the pipeline run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithStage adds the running stage index to the context
func WithStage(ctx context.Context, stage int) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// GetRunID retrieves the pipeline run ID from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// GetStage retrieves the running stage index from context. ok is false
// outside a pipeline run.
func GetStage(ctx context.Context) (stage int, ok bool) {
	stage, ok = ctx.Value(StageKey).(int)
	return stage, ok
}
