package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeDataUnreadable  ErrorType = "DATA_UNREADABLE"
	ErrTypeSchemaViolation ErrorType = "SCHEMA_VIOLATION"
	ErrTypeValidation      ErrorType = "VALIDATION"
	ErrTypeStorage         ErrorType = "STORAGE"
	ErrTypeConfig          ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewDataUnreadableError reports a source that could not be opened or decoded
// with any of the attempted encodings.
func NewDataUnreadableError(path string, encodings []string, cause error) *AppError {
	msg := fmt.Sprintf("cannot read %s", path)
	if len(encodings) > 0 {
		msg = fmt.Sprintf("cannot read %s (tried %s)", path, strings.Join(encodings, ", "))
	}
	return NewAppError(ErrTypeDataUnreadable, msg, cause).
		WithContext("path", path).
		WithContext("encodings", encodings)
}

// NewSchemaViolationError reports decoded content that does not fit the expected row schema.
func NewSchemaViolationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSchemaViolation, message, cause)
}

// NewAppValidationError reports a query or request that fails domain checks.
func NewAppValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewStorageError reports a failure writing to local storage, such as an export file.
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError reports settings that fail validation at startup.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsDataUnreadable reports whether err is a DATA_UNREADABLE error.
func IsDataUnreadable(err error) bool {
	return IsType(err, ErrTypeDataUnreadable)
}

// IsSchemaViolation reports whether err is a SCHEMA_VIOLATION error.
func IsSchemaViolation(err error) bool {
	return IsType(err, ErrTypeSchemaViolation)
}
