package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies the failure modes the engine can report.
type Kind string

const (
	KindInsufficientHistory Kind = "INSUFFICIENT_HISTORY"
	KindInvalidVolatility   Kind = "INVALID_VOLATILITY"
	KindInvalidParameter    Kind = "INVALID_PARAMETER"
	KindEmptyPriceSeries    Kind = "EMPTY_PRICE_SERIES"
	KindHoldingMismatch     Kind = "HOLDING_MISMATCH"
	KindInvalidWeights      Kind = "INVALID_WEIGHTS"
	KindDateMisalignment    Kind = "DATE_MISALIGNMENT"
)

// EngineError is a categorized error with the component and operation that
// detected it. All engine failures are reported through this type so callers
// can branch on Kind without string matching.
type EngineError struct {
	Kind       Kind
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Kind, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Kind, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// New creates a new categorized engine error
func New(kind Kind, component, operation, message string) *EngineError {
	return &EngineError{
		Kind:      kind,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// Newf creates a new categorized engine error with a formatted message
func Newf(kind Kind, component, operation, format string, args ...interface{}) *EngineError {
	return New(kind, component, operation, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with engine error context
func Wrap(err error, kind Kind, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Kind:       kind,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsKind reports whether err (or any error it wraps) is an EngineError of
// the given kind.
func IsKind(err error, kind Kind) bool {
	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err if it is an EngineError, or "" otherwise.
func KindOf(err error) Kind {
	var engineErr *EngineError
	if stderrors.As(err, &engineErr) {
		return engineErr.Kind
	}
	return ""
}
