package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrEmptyWords      = fmt.Errorf("no words have been found")
	ErrSinkClosed      = fmt.Errorf("sink is closed")
	ErrDeliveryTimeout = fmt.Errorf("delivery attempt timed out")
)

type ValidationKind string

const (
	EmptyContent ValidationKind = "EMPTY_CONTENT"
	TooLong      ValidationKind = "TOO_LONG"
	MissingField ValidationKind = "MISSING_FIELD"
)

// ValidationError reports a rejected message creation request.
// It is always recoverable by the caller and never retried internally.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

type StorageKind string

const (
	Unavailable StorageKind = "UNAVAILABLE"
	Conflict    StorageKind = "CONFLICT"
	NotFound    StorageKind = "NOT_FOUND"
)

// StorageError wraps a persistence failure with its taxonomy kind.
type StorageError struct {
	Kind StorageKind
	Err  error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Kind, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}

func AsValidation(err error) (ValidationError, bool) {
	var v ValidationError
	ok := stderrors.As(err, &v)
	return v, ok
}

func AsStorage(err error) (StorageError, bool) {
	var s StorageError
	ok := stderrors.As(err, &s)
	return s, ok
}
