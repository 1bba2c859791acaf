package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeDecode      ErrorType = "decode"
	ErrorTypeInvalidCrop ErrorType = "invalid_crop"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeProcessing  ErrorType = "processing"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServer      ErrorType = "server"
	ErrorTypeConflict    ErrorType = "conflict"
	ErrorTypeInternal    ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails returns a copy of the error carrying extra detail text.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewDecodeError reports an upload that is not a decodable image
func NewDecodeError(message string, cause error) *AppError {
	return newError(ErrorTypeDecode, http.StatusBadRequest, message, cause)
}

// NewInvalidCropError reports a manual crop below the minimum size
func NewInvalidCropError(message string, cause error) *AppError {
	return newError(ErrorTypeInvalidCrop, http.StatusUnprocessableEntity, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return newError(ErrorTypeProcessing, http.StatusUnprocessableEntity, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewServerError reports a failure on the records backend
func NewServerError(message string, cause error) *AppError {
	return newError(ErrorTypeServer, http.StatusBadGateway, message, cause)
}

// NewConflictError reports an operation that does not fit the current state
func NewConflictError(message string, cause error) *AppError {
	return newError(ErrorTypeConflict, http.StatusConflict, message, cause)
}

// As extracts an *AppError from anywhere in the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := As(err); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
