// Package errors defines the sentinel errors shared by the parsing core and
// the services around it, plus an AppError wrapper that carries an HTTP
// status for the parse API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConfigMismatch means a tag or flush referenced a field that is not
	// in the field table, or the table itself is inconsistent.
	ErrConfigMismatch = errors.New("configuration mismatch")
	// ErrMalformedInput is reported by event sources for markup that is not
	// well-formed. Parsing continues with whatever was accumulated.
	ErrMalformedInput = errors.New("malformed input")
	// ErrScanOverrun means a UTF-8 sequence ran past the end of its buffer.
	ErrScanOverrun = errors.New("scan overrun")
	// ErrResourceExhausted means a document exceeded a configured size limit.
	ErrResourceExhausted = errors.New("resource exhausted")

	ErrUnknownParser = errors.New("unknown parser type")
	ErrEmptyDocument = errors.New("empty document")
	ErrInvalidHeader = errors.New("invalid document header")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternal      = errors.New("internal error")
	ErrTimeout       = errors.New("operation timed out")
	ErrNotFound      = errors.New("not found")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// IsFatal reports whether err aborts the document it was raised for.
// Malformed input is the only recoverable class.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrMalformedInput)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidHeader),
		errors.Is(err, ErrEmptyDocument),
		errors.Is(err, ErrUnknownParser):
		return http.StatusBadRequest
	case errors.Is(err, ErrMalformedInput), errors.Is(err, ErrScanOverrun):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrResourceExhausted):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
