package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")

	ErrAlreadyRegistered = fmt.Errorf("%w: you are already registered to attend this event", ErrConflict)
	ErrEmailTaken        = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrRSVPClosed        = fmt.Errorf("%w: RSVPs are closed for this event", ErrConflict)
)

// ValidationError reports missing or malformed input. Nothing is written when it is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Invalid builds a ValidationError.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
