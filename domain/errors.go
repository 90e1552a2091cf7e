package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorConflict         ErrorCode = "CONFLICT"
	ErrorInvalidState     ErrorCode = "INVALID_STATE"
	ErrorValidation       ErrorCode = "VALIDATION"
	ErrorInvalidChoice    ErrorCode = "INVALID_CHOICE"
	ErrorRejected         ErrorCode = "REJECTED"
	ErrorTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	ErrorDeliveryFailure  ErrorCode = "DELIVERY_FAILURE"
)

// Error carries the relay's error taxonomy: a stable code for callers to
// branch on, a human reason, and the wrapped cause if any.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf extracts the taxonomy code from err, or "" when err is not ours.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
