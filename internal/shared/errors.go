package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a unique constraint hit.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict indicates the request conflicts with current state.
	ErrConflict = errors.New("conflict")
)

// CodedError pairs a sentinel with a stable machine-readable code and a
// message safe to show to the caller.
type CodedError struct {
	Kind    error
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

// Unwrap exposes the sentinel for errors.Is.
func (e *CodedError) Unwrap() error { return e.Kind }

// NewError builds a CodedError.
func NewError(kind error, code, format string, args ...any) *CodedError {
	return &CodedError{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code carried by err, or "" when err has none.
func CodeOf(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}
