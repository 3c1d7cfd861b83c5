package catalog

import (
	"errors"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Status is the phase of a catalog fetch.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

// State is what a page renders for one fetch: loading, an error message
// with a retry, an empty result, or the data.
type State[T any] struct {
	Status  Status `json:"status"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Loading is the state of a fetch in flight.
func Loading[T any]() State[T] {
	return State[T]{Status: StatusLoading}
}

// Failed is the state of a fetch that errored.
func Failed[T any](message string) State[T] {
	return State[T]{Status: StatusError, Message: message}
}

// Empty is the state of a fetch that found nothing.
func Empty[T any](message string) State[T] {
	return State[T]{Status: StatusEmpty, Message: message}
}

// Ready is the state of a fetch that returned data.
func Ready[T any](data T) State[T] {
	return State[T]{Status: StatusReady, Data: data}
}

// Messages are the user-facing texts attached to error and empty states.
type Messages struct {
	NotFound string
	Failure  string
	Empty    string
}

// Message texts used by the storefront pages.
var (
	ListMessages = Messages{
		NotFound: "No products found.",
		Failure:  "Failed to load data.",
		Empty:    "No products found.",
	}
	ProductMessages = Messages{
		NotFound: "Product not found.",
		Failure:  "Failed to load product details.",
		Empty:    "We couldn't find the product you're looking for.",
	}
)

// ErrorMessage picks the user-facing message for a fetch error. Missing
// records are told apart from every other failure.
func (m Messages) ErrorMessage(err error) string {
	if errors.Is(err, apperrors.ErrNotFound) {
		return m.NotFound
	}
	return m.Failure
}

// Settle turns a fetch result into a State. isEmpty may be nil when the
// type has no empty form.
func Settle[T any](data T, err error, isEmpty func(T) bool, msgs Messages) State[T] {
	switch {
	case err != nil:
		return Failed[T](msgs.ErrorMessage(err))
	case isEmpty != nil && isEmpty(data):
		return Empty[T](msgs.Empty)
	default:
		return Ready(data)
	}
}

// EmptySlice reports whether a slice result has no elements.
func EmptySlice[E any](s []E) bool {
	return len(s) == 0
}
