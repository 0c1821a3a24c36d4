package types

import "fmt"

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Caller errors
	ErrUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrNotFound        ErrorCode = "NOT_FOUND"
	ErrInvalidInput    ErrorCode = "INVALID_INPUT"

	// Economy errors
	ErrInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrAlreadyClaimed      ErrorCode = "ALREADY_CLAIMED"
	ErrNotEligible         ErrorCode = "NOT_ELIGIBLE"

	// System errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
)

// PlatformError represents a core operation failure
type PlatformError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewPlatformError creates a new PlatformError
func NewPlatformError(code ErrorCode, message string) *PlatformError {
	return &PlatformError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a PlatformError
func WrapError(code ErrorCode, message string, err error) *PlatformError {
	return &PlatformError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsPlatformError checks if an error is a PlatformError with a specific code
func IsPlatformError(err error, code ErrorCode) bool {
	var platformErr *PlatformError
	if err == nil {
		return false
	}
	if ok := As(err, &platformErr); !ok {
		return false
	}
	return platformErr.Code == code
}

// As is a helper function to safely type assert an error to a PlatformError
func As(err error, target **PlatformError) bool {
	if target == nil {
		return false
	}
	if platformErr, ok := err.(*PlatformError); ok {
		*target = platformErr
		return true
	}
	return false
}
