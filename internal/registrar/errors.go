package registrar

import (
	"errors"
	"fmt"
)

// Category normalizes registrar failures.
type Category string

const (
	CategoryTimeout     Category = "timeout"
	CategoryUnavailable Category = "unavailable"
	CategoryRateLimited Category = "rate_limited"
	CategoryRejected    Category = "rejected"
	CategoryHandleTaken Category = "handle_taken"
	CategoryBadResponse Category = "bad_response"
	CategoryCanceled    Category = "canceled"
	CategoryInternal    Category = "internal"
)

// Error is a categorized registrar failure. Retryable tells the caller
// whether submitting the same request again may succeed.
type Error struct {
	Category   Category
	Message    string
	Retryable  bool
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("registrar [%s]: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("registrar [%s]: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

// NewError builds an Error with the default retryability of category.
func NewError(category Category, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Message:    message,
		Retryable:  DefaultRetryable(category),
		Underlying: underlying,
	}
}

// DefaultRetryable reports whether failures of category are transient.
func DefaultRetryable(category Category) bool {
	switch category {
	case CategoryTimeout, CategoryUnavailable, CategoryRateLimited, CategoryCanceled:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err carries a retryable registrar failure.
func IsRetryable(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// CategoryOf extracts the category, defaulting to CategoryInternal.
func CategoryOf(err error) Category {
	var re *Error
	if errors.As(err, &re) {
		return re.Category
	}
	return CategoryInternal
}

// ErrCircuitOpen is returned while the client refuses calls to protect an
// unhealthy registrar.
var ErrCircuitOpen = errors.New("registrar circuit open")
