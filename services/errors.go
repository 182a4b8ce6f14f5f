package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable marks an optional collaborator (LLM, mail) that is not configured.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError is a client mistake; its message is safe to return as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// notFound wraps ErrNotFound with a client facing message.
func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// PublicMessage returns the message of an error that may be shown to the
// client. ok is false for unexpected errors, whose details stay server side.
func PublicMessage(err error) (msg string, ok bool) {
	var v *ValidationError
	switch {
	case errors.As(err, &v):
		return v.Message, true
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized), errors.Is(err, ErrUnavailable):
		msg = err.Error()
		for _, sentinel := range []error{ErrNotFound, ErrUnauthorized, ErrUnavailable} {
			msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
		}
		return msg, true
	}
	return "", false
}
