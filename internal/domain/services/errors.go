package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies analysis failures so callers can distinguish
// "content rejected" from "try again".
type ErrorKind string

const (
	ErrInvalidInput           ErrorKind = "invalid_input"
	ErrExtractionFailure      ErrorKind = "extraction_failure"
	ErrExplanationUnavailable ErrorKind = "explanation_unavailable"
	ErrAdaptationConflict     ErrorKind = "adaptation_conflict"
	ErrTimeout                ErrorKind = "timeout"
)

// Error carries a kind alongside the wrapped cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error.
func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
