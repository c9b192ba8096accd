package transit

import (
	"errors"
	"fmt"
)

// ValidationError marks a malformed or out-of-range submission. Rejected
// synchronously at the boundary before anything is written.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) ValidationError {
	return ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var validationError ValidationError
	return errors.As(err, &validationError)
}

// NotFoundError marks a reference to a vehicle, driver or route that the
// registry does not recognise.
type NotFoundError struct {
	Resource   string
	Identifier string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("could not find %s matching identifier %s", e.Resource, e.Identifier)
}

func IsNotFoundError(err error) bool {
	var notFoundError NotFoundError
	return errors.As(err, &notFoundError)
}

// TransientStoreError marks a temporarily unavailable store so that drivers
// know the submission can be retried.
type TransientStoreError struct {
	Operation string
	Err       error
}

func (e TransientStoreError) Error() string {
	return fmt.Sprintf("store temporarily unavailable during %s: %s", e.Operation, e.Err)
}

func (e TransientStoreError) Unwrap() error {
	return e.Err
}

func IsTransientStoreError(err error) bool {
	var transientStoreError TransientStoreError
	return errors.As(err, &transientStoreError)
}
