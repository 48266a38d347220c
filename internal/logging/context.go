package logging

import (
	"context"
	"log/slog"
)

const (
	FieldComponent = "component"
	// FieldRunID identifies one scan run.
	FieldRunID = "run_id"
	// FieldRatingKey is the catalog identifier of the item being processed.
	FieldRatingKey = "rating_key"
	FieldTitle     = "title"
)

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	ratingKeyKey contextKey = "rating_key"
)

// WithRunID annotates context with the scan run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// WithRatingKey annotates context with the catalog item identifier.
func WithRatingKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, ratingKeyKey, key)
}

// WithContext adds the run id and rating key carried by ctx to logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var args []any
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		args = append(args, slog.String(FieldRunID, id))
	}
	if key, ok := ctx.Value(ratingKeyKey).(string); ok && key != "" {
		args = append(args, slog.String(FieldRatingKey, key))
	}
	if len(args) == 0 {
		return logger
	}
	return logger.With(args...)
}
