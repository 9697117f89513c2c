package httpx

import (
	"errors"
	"net/http"

	"github.com/stallbook/stallbook/internal/shared"
)

// Default codes used when an error carries none.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeDuplicate    = "DUPLICATE_ENTRY"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
)

// RespondError maps domain errors to envelope responses. fallbackCode is used
// for errors that do not match a known sentinel.
func RespondError(w http.ResponseWriter, err error, fallbackCode string) {
	status, code, message := Classify(err, fallbackCode)
	Error(w, status, code, message)
}

// Classify returns the status, code and caller-safe message for err.
func Classify(err error, fallbackCode string) (int, string, string) {
	var coded *shared.CodedError
	hasCode := errors.As(err, &coded)

	status, code, message := http.StatusInternalServerError, fallbackCode, "internal server error"
	switch {
	case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidPeriod):
		status, code, message = http.StatusBadRequest, CodeValidation, "invalid request"
	case errors.Is(err, shared.ErrNotFound):
		status, code, message = http.StatusNotFound, CodeNotFound, "resource not found"
	case errors.Is(err, shared.ErrDuplicate):
		status, code, message = http.StatusBadRequest, CodeDuplicate, "duplicate entry"
	case errors.Is(err, shared.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, CodeUnauthorized, "unauthorized"
	case errors.Is(err, shared.ErrConflict):
		status, code, message = http.StatusConflict, CodeConflict, "conflict"
	}
	if code == "" {
		code = CodeInternal
	}
	if hasCode {
		if coded.Code != "" {
			code = coded.Code
		}
		if coded.Message != "" {
			message = coded.Message
		}
	}
	return status, code, message
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusNotFound, CodeNotFound, "route "+r.Method+" "+r.URL.Path+" not found")
}

// MethodNotAllowed answers known routes hit with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method "+r.Method+" not allowed")
}
