package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RegistrationInvalid indicates a structurally invalid technique
	// registration. This is the only class of fault that aborts a run.
	RegistrationInvalid ErrorCode = "REGISTRATION_INVALID"
	// RegistrySealed indicates a registration attempt after execution started
	RegistrySealed ErrorCode = "REGISTRY_SEALED"
	// StoreUnavailable indicates the incremental store could not be opened
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ConfigInvalid indicates a malformed or unsupported configuration
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ExportFailed indicates a snapshot export could not be written
	ExportFailed ErrorCode = "EXPORT_FAILED"
	// Timeout indicates an operation exceeded its budget
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// SiftError represents a sift error with code, message, and cause
type SiftError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// NewSiftError creates a new SiftError
func NewSiftError(code ErrorCode, message string, cause error) *SiftError {
	return &SiftError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *SiftError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SiftError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *SiftError) WithDetails(details interface{}) *SiftError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, walking the wrap chain.
// Non-sift errors map to InternalError.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if se, ok := err.(*SiftError); ok {
			return se.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return InternalError
}
