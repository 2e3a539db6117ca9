package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	fileKey  contextKey = "file"
	stageKey contextKey = "stage"
	indexKey contextKey = "file_index"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFile annotates context with the file being processed and its scan position.
func WithFile(ctx context.Context, path string, index int) context.Context {
	if path == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, fileKey, path)
	return context.WithValue(ctx, indexKey, index)
}

// FileFromContext returns the file path and scan index if present.
func FileFromContext(ctx context.Context) (string, int, bool) {
	path, ok := ctx.Value(fileKey).(string)
	if !ok || path == "" {
		return "", 0, false
	}
	index, _ := ctx.Value(indexKey).(int)
	return path, index, true
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
