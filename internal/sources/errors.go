package sources

import (
	"errors"
	"fmt"
	"strings"

	"timetable/internal/result"
)

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSourceEmpty       = errors.New("source returned no data")
	ErrParseFailure      = errors.New("parse failure")
	ErrValidation        = errors.New("validation failure")
)

// Envelope error codes.
const (
	CodeSourceUnavailable = "source_unavailable"
	CodeSourceEmpty       = "source_empty"
	CodeParseFailure      = "parse_failure"
	CodeValidation        = "validation_failure"
)

// Wrap builds an error message that includes the source and operation while
// tagging it with marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, source, operation, message string, err error) error {
	detail := buildDetail(source, operation, message)
	if marker == nil {
		marker = ErrSourceUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Code maps an error to its envelope code. Anything unclassified, including
// context cancellation, counts as the source being unavailable.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSourceEmpty):
		return CodeSourceEmpty
	case errors.Is(err, ErrParseFailure):
		return CodeParseFailure
	case errors.Is(err, ErrValidation):
		return CodeValidation
	default:
		return CodeSourceUnavailable
	}
}

// Fail converts err into an error envelope carrying its classified code.
func Fail[T any](err error) result.Envelope[T] {
	if err == nil {
		err = ErrSourceUnavailable
	}
	return result.Error[T](err.Error(), Code(err))
}

// Capture runs fetch and converts its outcome into an envelope. A panic inside
// fetch becomes a parse failure so no implementation leaks one to callers.
// When nonEmpty is provided and reports false for a successful value, the
// envelope carries CodeSourceEmpty.
func Capture[T any](source, operation string, fetch func() (T, error), nonEmpty func(T) bool) (env result.Envelope[T]) {
	defer func() {
		if r := recover(); r != nil {
			env = Fail[T](Wrap(ErrParseFailure, source, operation, fmt.Sprintf("panic: %v", r), nil))
		}
	}()
	value, err := fetch()
	if err != nil {
		return Fail[T](err)
	}
	if nonEmpty != nil && !nonEmpty(value) {
		return Fail[T](Wrap(ErrSourceEmpty, source, operation, "", nil))
	}
	return result.Success(value)
}

// NonEmpty reports whether a slice has at least one element; it is the usual
// emptiness check passed to Capture for list fetches.
func NonEmpty[T any](items []T) bool {
	return len(items) > 0
}

func buildDetail(source, operation, message string) string {
	parts := make([]string, 0, 3)
	if source = strings.TrimSpace(source); source != "" {
		parts = append(parts, source)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "source failure"
	}
	return strings.Join(parts, ": ")
}
