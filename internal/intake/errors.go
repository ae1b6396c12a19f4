package intake

import (
	"errors"
	"fmt"
)

// SessionError represents an error that ends or prevents a scan session.
//
// Per-scan problems (unknown badge, duplicate, rejected write) are NOT
// session errors; they surface as Outcomes and the session keeps running.
// SessionError is reserved for conditions where continuing makes no sense.
type SessionError struct {
	// Code identifies the error category.
	Code SessionErrorCode

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// SessionErrorCode categorizes session errors.
type SessionErrorCode string

const (
	// ErrCodeConfiguration indicates the session was constructed with
	// missing or invalid dependencies.
	ErrCodeConfiguration SessionErrorCode = "CONFIGURATION_ERROR"

	// ErrCodeSourceFailed indicates the decode source failed
	// unrecoverably mid-session.
	ErrCodeSourceFailed SessionErrorCode = "SOURCE_FAILED"
)

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *SessionError) Unwrap() error {
	return e.Cause
}

// IsConfigurationError returns true if the error is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code == ErrCodeConfiguration
	}
	return false
}

// IsSourceError returns true if the error is a decode source failure.
// Uses errors.As to handle wrapped errors.
func IsSourceError(err error) bool {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code == ErrCodeSourceFailed
	}
	return false
}

func newConfigurationError(msg string) *SessionError {
	return &SessionError{Code: ErrCodeConfiguration, Message: msg}
}

func newSourceError(msg string, cause error) *SessionError {
	return &SessionError{Code: ErrCodeSourceFailed, Message: msg, Cause: cause}
}
