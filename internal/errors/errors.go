package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of pipeline error.
type ErrorCode string

const (
	// ErrCodeStore indicates a persistence I/O failure.
	ErrCodeStore ErrorCode = "store"
	// ErrCodeVerification indicates an address verification call failed.
	ErrCodeVerification ErrorCode = "verification"
	// ErrCodeFulfillment indicates a postcard order submission failed.
	ErrCodeFulfillment ErrorCode = "fulfillment"
	// ErrCodeUndeliverable indicates the verification service rejected the
	// address on deliverability grounds. A policy rejection, not a system fault.
	ErrCodeUndeliverable ErrorCode = "undeliverable_address"
	// ErrCodeNotification indicates a post-send notification could not be
	// delivered. Never fatal to the job.
	ErrCodeNotification ErrorCode = "notification"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing state (e.g., an
	// overlapping fulfillment run holding the run lock).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError is a structured pipeline error with a code, message, optional
// cause, and a retry classification. Transient marks failures that a caller
// policy may retry (network faults, 5xx responses); permanent failures
// (malformed input, 4xx responses, policy rejections) must not be retried.
// It supports error wrapping and unwrapping for use with errors.Is/As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error (optional)
	Cause error
	// Transient marks the error as retryable by caller policy
	Transient bool
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Store creates a new store error.
func Store(message string) *AppError {
	return &AppError{Code: ErrCodeStore, Message: message}
}

// Storef creates a new store error with formatted message.
func Storef(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeStore, Message: fmt.Sprintf(format, args...)}
}

// Verification creates a permanent verification error.
func Verification(message string) *AppError {
	return &AppError{Code: ErrCodeVerification, Message: message}
}

// Verificationf creates a permanent verification error with formatted message.
func Verificationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeVerification, Message: fmt.Sprintf(format, args...)}
}

// Fulfillment creates a permanent fulfillment error.
func Fulfillment(message string) *AppError {
	return &AppError{Code: ErrCodeFulfillment, Message: message}
}

// Fulfillmentf creates a permanent fulfillment error with formatted message.
func Fulfillmentf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeFulfillment, Message: fmt.Sprintf(format, args...)}
}

// Undeliverablef creates an undeliverable-address policy rejection.
func Undeliverablef(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeUndeliverable, Message: fmt.Sprintf(format, args...)}
}

// Notificationf creates a notification delivery error.
func Notificationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotification, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// TransientWrap wraps an existing error as a transient (retryable) AppError.
func TransientWrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err, Transient: true}
}

// TransientWrapf wraps an existing error as a transient AppError with a
// formatted message.
func TransientWrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err, Transient: true}
}

// Transientf creates a transient AppError with no cause.
func Transientf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Transient: true}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsStore checks if an error is a store error.
func IsStore(err error) bool {
	return isCode(err, ErrCodeStore)
}

// IsVerification checks if an error is a verification error.
func IsVerification(err error) bool {
	return isCode(err, ErrCodeVerification)
}

// IsFulfillment checks if an error is a fulfillment error.
func IsFulfillment(err error) bool {
	return isCode(err, ErrCodeFulfillment)
}

// IsUndeliverable checks if an error is an undeliverable-address rejection.
func IsUndeliverable(err error) bool {
	return isCode(err, ErrCodeUndeliverable)
}

// IsNotification checks if an error is a notification error.
func IsNotification(err error) bool {
	return isCode(err, ErrCodeNotification)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsTransient checks if an error is marked retryable by caller policy.
func IsTransient(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Transient
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
