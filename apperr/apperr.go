// Package apperr defines the error taxonomy shared by services and
// handlers. Services return (wrapped) sentinel errors; handlers map them
// to HTTP statuses with Status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream failure")
)

// InvalidTransitionError reports an illegal complaint status transition.
// It is a Conflict: the request was well-formed but the entity state
// does not admit it.
type InvalidTransitionError struct {
	OldStatus string
	NewStatus string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from '%s' to '%s'", e.OldStatus, e.NewStatus)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrConflict }

// Validation returns a validation error with a caller-facing message.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// NotFound returns a not-found error naming the missing resource.
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// Forbidden returns a forbidden error with a caller-facing message.
func Forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// Conflict returns a conflict error with a caller-facing message.
func Conflict(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}

// Upstream wraps a collaborator failure (media store, push gateway).
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}

// Status maps an error to its HTTP status code. Unrecognized errors are
// internal server errors.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
