package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidArgument   = "INVALID_ARGUMENT"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConsistency       = "CONSISTENCY_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

func NewInvalidArgumentError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidArgument,
		Message: message,
	}
}

func NewInvalidTransitionError(from, to PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewNotFoundError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NewConsistencyError flags a replay that could not locate the payment row it
// just observed. This indicates corruption, not a caller mistake.
func NewConsistencyError(message string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConsistency,
		Message: message,
	}
}

func NewInternalError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "internal error",
		Err:     err,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
