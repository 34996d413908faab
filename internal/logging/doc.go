// Package logging assembles structured slog loggers and formatting helpers used
// across timetable.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so sync code can automatically
// tag log lines with the pass identifier, upstream source, and API request ID.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
