// Package errors defines the failure classes shared by the indexer, the
// searcher and the CLI. Callers match them with errors.Is; the HTTP layer
// turns them into status codes with HTTPStatusCode.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrMissingInput  = errors.New("missing input directory")
	ErrEmptyCorpus   = errors.New("empty corpus")
	ErrMalformedLine = errors.New("malformed line")
	ErrQuerySyntax   = errors.New("query syntax error")
	ErrIndexNotReady = errors.New("index not loaded")
	ErrInternal      = errors.New("internal error")
	ErrTimeout       = errors.New("operation timed out")
)

// AppError attaches a detail message, and optionally a fixed HTTP status, to
// one of the sentinels above. StatusCode 0 defers to the sentinel's status.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New classifies message under sentinel.
func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

// Newf is New with a formatted message. %w verbs are not unwrapped; the
// sentinel is the only error the result matches.
func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return New(sentinel, statusCode, fmt.Sprintf(format, args...))
}

// HTTPStatusCode maps an error to the status the HTTP layer should return.
// An AppError with a zero StatusCode falls through to the sentinel mapping.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrQuerySyntax):
		return http.StatusBadRequest
	case errors.Is(err, ErrIndexNotReady), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
