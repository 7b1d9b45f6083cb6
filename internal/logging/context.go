package logging

import (
	"context"
	"log/slog"

	"reelsync/internal/services"
)

// Standard field keys. Console output hoists FieldRun and FieldComponent into
// the line prefix.
const (
	FieldComponent      = "component"
	FieldRun            = "run"
	FieldRunID          = "run_id"
	FieldRequestID      = "request_id"
	FieldMovie          = "movie"
	FieldEventType      = "event_type"
	FieldErrorHint      = "error_hint"
	FieldImpact         = "impact"
	FieldDecisionType   = "decision_type"
	FieldDecisionResult = "decision_result"
	FieldDecisionReason = "decision_reason"
)

// WithContext adds the run and request identifiers stored on ctx to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := services.RunIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRunID, id))
	}
	if name, ok := services.RunNameFromContext(ctx); ok {
		args = append(args, slog.String(FieldRun, name))
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		args = append(args, slog.String(FieldRequestID, id))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
