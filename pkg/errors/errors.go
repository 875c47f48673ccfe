// Package errors defines Marian's wire-stable error sentinels (§6/§7) and
// an AppError carrying the HTTP status each maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Wire-stable error strings consumed by the HTTP front-end to pick status
// codes (§6). Their Error() text is the literal wire string.
var (
	ErrStillIndexing     = errors.New("still-indexing")
	ErrBacklogExceeded   = errors.New("backlog-exceeded")
	ErrPoolUnavailable   = errors.New("pool-unavailable")
	ErrQueryTooLong      = errors.New("query-too-long")
	ErrAlreadyIndexing   = errors.New("already-indexing")
	ErrEmptyQuery        = errors.New("empty-query")
	ErrInvalidManifest   = errors.New("invalid-manifest-source")
	ErrWorkerNotRunning  = errors.New("worker not running")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrInternal          = errors.New("internal error")
)

// AppError pairs a sentinel with the HTTP status it maps to and a
// human-readable message.
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
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{Err: sentinel, Message: fmt.Sprintf(format, args...), StatusCode: statusCode}
}

// HTTPStatusCode maps err to the HTTP status the front-end should return,
// per §6's wire-stable error table. already-indexing maps to 200 (the
// refresh request is accepted as already scheduled, not rejected).
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrStillIndexing), errors.Is(err, ErrBacklogExceeded), errors.Is(err, ErrPoolUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrQueryTooLong), errors.Is(err, ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyIndexing):
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrWorkerNotRunning):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
