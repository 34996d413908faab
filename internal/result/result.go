// Package result defines the tri-state envelope returned by every operation
// that crosses a component boundary: a value, a classified error, or a
// loading marker. Callers never receive a panic or a raw error from the engine.
package result

import "fmt"

// State identifies which arm of an Envelope is populated.
type State int

const (
	StateLoading State = iota
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "loading"
	}
}

// MarshalText renders the state as its lowercase name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "success":
		*s = StateSuccess
	case "error":
		*s = StateError
	case "loading", "":
		*s = StateLoading
	default:
		return fmt.Errorf("unknown envelope state %q", text)
	}
	return nil
}

// Envelope carries either a value, an error message with an optional code,
// or nothing while data is being fetched. The zero value is Loading.
type Envelope[T any] struct {
	State   State  `json:"state"`
	Value   T      `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Success wraps value.
func Success[T any](value T) Envelope[T] {
	return Envelope[T]{State: StateSuccess, Value: value}
}

// Error builds an error envelope. code may be empty.
func Error[T any](message, code string) Envelope[T] {
	return Envelope[T]{State: StateError, Message: message, Code: code}
}

// Loading builds a loading envelope.
func Loading[T any]() Envelope[T] {
	return Envelope[T]{State: StateLoading}
}

// IsSuccess reports whether the envelope carries a value.
func (e Envelope[T]) IsSuccess() bool { return e.State == StateSuccess }

// IsError reports whether the envelope carries an error.
func (e Envelope[T]) IsError() bool { return e.State == StateError }

// IsLoading reports whether the envelope is a loading marker.
func (e Envelope[T]) IsLoading() bool { return e.State == StateLoading }

// Get returns the value and true when the envelope is a success.
func (e Envelope[T]) Get() (T, bool) {
	return e.Value, e.State == StateSuccess
}

// Err converts an error envelope into a Go error. Success and Loading return nil.
func (e Envelope[T]) Err() error {
	if e.State != StateError {
		return nil
	}
	return &EnvelopeError{Message: e.Message, Code: e.Code}
}

// EnvelopeError is the error form of an Error envelope.
type EnvelopeError struct {
	Message string
	Code    string
}

func (e *EnvelopeError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Map transforms the value of a success envelope and passes other states
// through unchanged.
func Map[T, U any](e Envelope[T], fn func(T) U) Envelope[U] {
	switch e.State {
	case StateSuccess:
		return Success(fn(e.Value))
	case StateError:
		return Error[U](e.Message, e.Code)
	default:
		return Loading[U]()
	}
}
