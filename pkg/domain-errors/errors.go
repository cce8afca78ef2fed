// Package domainerrors defines coded errors shared by services and transports.
//
// Services return coded errors so callers can branch on the failure class
// (validation, authorization, transient, conflict) without string matching.
// Transports translate codes to status codes in one place.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a failure class.
type Code string

const (
	// CodeValidation marks malformed or incomplete data received from a peer.
	CodeValidation Code = "validation_error"
	// CodeBadRequest marks invalid caller input.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks a credential the backend explicitly rejected.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks a caller without permission for the operation.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a missing record.
	CodeNotFound Code = "not_found"
	// CodeConflict marks an operation that collides with one already running.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks a transient failure that is safe to retry.
	CodeUnavailable Code = "unavailable"
	// CodeInvariantViolation marks a state that would break a model invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost code in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}
