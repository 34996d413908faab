package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldPassID identifies one sync pass so every line it emits can be grouped.
	FieldPassID = "pass_id"
	// FieldSource is the upstream data source name (primary, fallback).
	FieldSource = "source"
	// FieldGroup is the group code a schedule operation concerns.
	FieldGroup = "group"
	// FieldFaculty is the faculty code a catalog operation concerns.
	FieldFaculty = "faculty"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering (sync_failed, fallback_used, ...).
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

type contextKey int

const (
	passIDKey contextKey = iota
	sourceKey
	requestIDKey
)

// WithPassID tags ctx with the sync pass identifier.
func WithPassID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, passIDKey, id)
}

// PassIDFromContext returns the sync pass identifier, if any.
func PassIDFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(passIDKey).(uint64)
	return id, ok
}

// WithSource tags ctx with the upstream source currently being queried.
func WithSource(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, sourceKey, name)
}

// SourceFromContext returns the upstream source name, if any.
func SourceFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(sourceKey).(string)
	return name, ok && name != ""
}

// WithRequestID tags ctx with an API request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the API request identifier, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := PassIDFromContext(ctx); ok {
		fields = append(fields, slog.Uint64(FieldPassID, id))
	}
	if name, ok := SourceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSource, name))
	}
	if rid, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
