package service

import (
	"errors"
	"fmt"
)

// Sentinel kinds handlers map to HTTP statuses with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrExternal     = errors.New("upstream service failed")
)

// Error pairs a sentinel kind with a message that is safe to show the caller.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

func notFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

func conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

// external wraps a collaborator failure. The cause is kept for logs, not shown.
func external(msg string, cause error) error {
	return fmt.Errorf("%w: %w", &Error{Kind: ErrExternal, Message: msg}, cause)
}

// Message returns the caller-facing text of err, or fallback when it has none.
func Message(err error, fallback string) string {
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	return fallback
}
