package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id does not match any stored entity.
	ErrNotFound = errors.New("not found")
	// ErrNoOpenInterval is returned by check-out when the child has no open
	// record on the given date. It matches ErrNotFound with errors.Is.
	ErrNoOpenInterval = &notFoundError{msg: "no open interval"}
	// ErrOpenIntervalConflict is returned when a write would leave two open
	// records for the same child and date.
	ErrOpenIntervalConflict = errors.New("an open interval already exists for this child and date")
	// ErrStoreUnavailable wraps failures of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid returns a *ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Unavailable wraps err so that it matches ErrStoreUnavailable.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
