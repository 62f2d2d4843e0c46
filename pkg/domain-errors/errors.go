// Package domainerrors carries coded domain errors across service boundaries.
//
// Services return *Error values built with New or Wrap; transports translate
// the Code into a status (see pkg/platform/httputil). Infrastructure facts use
// pkg/platform/sentinel instead and are translated by the service layer.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Values double as wire error codes.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"

	// Identity minting outcomes.
	CodeInvalidHandle     Code = "invalid_handle"
	CodeWeakPassword      Code = "weak_password"
	CodeDuplicatePassword Code = "duplicate_password"
	CodeInvalidTransition Code = "invalid_transition"
	CodeMintBusy          Code = "mint_busy"
	CodeMintFailed        Code = "mint_failed"
	CodeStaleResult       Code = "stale_result"
)

// Error is a coded domain error with an optional cause. Fields carries
// per-field messages for validation failures so clients can render them
// next to the offending input.
type Error struct {
	Code      Code
	Message   string
	Fields    map[string]string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewWithFields returns a coded validation error with per-field messages.
func NewWithFields(code Code, message string, fields map[string]string) *Error {
	return &Error{Code: code, Message: message, Fields: fields}
}

// FieldsOf returns the field messages of the outermost coded error, if any.
func FieldsOf(err error) map[string]string {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

// Wrap attaches a code and message to err. A nil err yields a plain New.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WrapRetryable is Wrap for failures the caller may retry unchanged.
func WrapRetryable(err error, code Code, message string, retryable bool) *Error {
	return &Error{Code: code, Message: message, Retryable: retryable, Err: err}
}

// IsRetryable reports whether the outermost coded error is marked retryable.
func IsRetryable(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal when none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any coded error in err's chain carries code.
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

// MessageOf returns the message of the outermost coded error in err's chain.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
