package logging

import (
	"context"
	"log/slog"

	"cinematch/internal/services"
)

// Structured field names shared by every component.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldFile      = "file"
	// FieldFileIndex is the 0-based scan position of the file.
	FieldFileIndex = "file_index"
	FieldStage     = "stage"
	// FieldEventType classifies warnings for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact   = "impact"
	FieldDecision = "decision"
)

// WithContext returns logger tagged with the run, file and stage carried by
// ctx. A nil logger yields a no-op logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	attrs := make([]Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		attrs = append(attrs, String(FieldRunID, id))
	}
	if path, index, ok := services.FileFromContext(ctx); ok {
		attrs = append(attrs, String(FieldFile, path), Int(FieldFileIndex, index))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		attrs = append(attrs, String(FieldStage, stage))
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(Args(attrs...)...)
}
