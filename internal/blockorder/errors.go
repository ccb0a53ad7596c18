// Package blockorder holds the errors the cli reports for block orders.
package blockorder

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNoMessage is returned by New when called without a message
var ErrNoMessage = errors.New("blockorder: error message is required")

// Error is a block order failure with an optional cause
type Error struct {
	Message string
	Cause   error
}

// New returns a block order error. An empty message is a programming
// mistake and yields ErrNoMessage instead.
func New(message string, cause error) error {
	if message == "" {
		return ErrNoMessage
	}
	return &Error{Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// NotFoundError reports an unknown block order id
type NotFoundError struct {
	ID    string
	Cause error
}

// NewNotFound returns a NotFoundError for id
func NewNotFound(id string, cause error) *NotFoundError {
	return &NotFoundError{ID: id, Cause: cause}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Block Order with ID %s was not found.", e.ID)
}

// Unwrap returns the cause
func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// NotFound is always true
func (e *NotFoundError) NotFound() bool {
	return true
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// FromStatus converts a daemon response error for block order id. A
// NotFound status becomes a NotFoundError, other errors get wrapped in
// Error with the status message. nil stays nil.
func FromStatus(id string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return &Error{Message: err.Error(), Cause: err}
	}
	if st.Code() == codes.NotFound {
		return NewNotFound(id, err)
	}
	return &Error{Message: st.Message(), Cause: err}
}
