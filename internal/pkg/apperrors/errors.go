package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrBadRequest       = errors.New("bad request")

	// Downstream errors
	ErrDownstreamUnavailable = errors.New("downstream service unavailable")
)

// Domain errors
var (
	ErrStudentNotFound      = fmt.Errorf("student %w", ErrResourceNotFound)
	ErrStudentImageNotFound = fmt.Errorf("student image %w", ErrResourceNotFound)
	ErrEmailAlreadyExists   = fmt.Errorf("email: %w", ErrResourceAlreadyExists)
	ErrInvalidImage         = fmt.Errorf("%w: file is not a readable image", ErrValidationFailed)
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewInvalidArgumentError reports a caller supplied value outside its allowed range.
func NewInvalidArgumentError(format string, args ...interface{}) error {
	return &CustomError{
		Err:     ErrInvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// FieldError is a single constraint violation on an input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidationFailed.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap implements errors.Unwrap interface
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// DownstreamError is returned when a call to another service fails.
// StatusCode is zero when no HTTP response was received.
type DownstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *DownstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s responded with status %d: %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s unreachable: %v", e.Service, e.Err)
}

// Unwrap exposes both the availability sentinel and the underlying cause.
// A downstream 404 therefore also matches ErrResourceNotFound.
func (e *DownstreamError) Unwrap() []error {
	return []error{ErrDownstreamUnavailable, e.Err}
}
