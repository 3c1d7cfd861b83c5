package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels every AppError wraps, so callers can test with errors.Is
// without caring about the message.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrUpstream       = errors.New("upstream failure")
)

// AppError is an error with a stable code and an HTTP status. Message is
// safe to show to clients; Err is for logs only.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`

	cause error
}

// Error renders code and message, followed by the underlying cause when
// there is one. A bare sentinel adds nothing beyond the code.
func (e *AppError) Error() string {
	cause := e.cause
	if cause == nil && !isSentinel(e.Err) {
		cause = e.Err
	}
	if cause == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, cause)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

type kind struct {
	sentinel error
	code     string
	status   int
	message  string
}

// kinds is ordered by precedence for errors joining several sentinels.
var kinds = []kind{
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, ""},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "a session is required"},
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrConflict, "CONFLICT", http.StatusConflict, "resource was modified concurrently"},
	{ErrUpstream, "UPSTREAM_ERROR", http.StatusBadGateway, "upstream service failed"},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service temporarily unavailable"},
}

func isSentinel(err error) bool {
	if err == nil {
		return true
	}
	for _, k := range kinds {
		if err == k.sentinel {
			return true
		}
	}
	return false
}

func build(sentinel error, message string, cause error) *AppError {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			err := sentinel
			if cause != nil {
				err = errors.Join(sentinel, cause)
			}
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: err, cause: cause}
		}
	}
	panic("errors: unknown sentinel " + sentinel.Error())
}

// NotFound reports a missing resource of the given kind.
func NotFound(resource, id string) *AppError {
	return build(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id), nil)
}

func InvalidInput(message string) *AppError {
	return build(ErrInvalidInput, message, nil)
}

func Unauthorized(message string) *AppError {
	return build(ErrUnauthorized, message, nil)
}

// Conflict reports a write that lost a race with another writer.
func Conflict(message string) *AppError {
	return build(ErrConflict, message, nil)
}

// ServiceUnavailable reports a dependency that is known to be down, such as
// an open circuit breaker.
func ServiceUnavailable(message string) *AppError {
	return build(ErrServiceUnavail, message, nil)
}

// Upstream reports a failed call to an external dependency. The cause is
// kept for logs and errors.Is but never rendered to clients.
func Upstream(message string, cause error) *AppError {
	return build(ErrUpstream, message, cause)
}

// From returns err as an AppError. Bare sentinels get their default code
// and message; anything else becomes a 500 with a generic message.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			message := k.message
			if message == "" {
				message = err.Error()
			}
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: err}
		}
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	return From(err).Status
}
