package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeIngestion   ErrorType = "INGESTION"
	ErrTypeFilter      ErrorType = "FILTER_VALIDATION"
	ErrTypeAggregation ErrorType = "AGGREGATION_INVARIANT"
	ErrTypeNormalizer  ErrorType = "NORMALIZER_TYPE"
	ErrTypeUpload      ErrorType = "UPLOAD"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeConfig      ErrorType = "CONFIG"
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

// Field returns the offending field recorded on the error, if any.
func (e *AppError) Field() string {
	if f, ok := e.Context["field"].(string); ok {
		return f
	}
	return ""
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

// NewIngestionError reports malformed source data. Nothing of the upload is salvageable.
func NewIngestionError(message string, cause error) *AppError {
	return NewAppError(ErrTypeIngestion, message, cause)
}

// NewFilterValidationError reports a bad filter argument, naming the field.
func NewFilterValidationError(field, message string, cause error) *AppError {
	return NewAppError(ErrTypeFilter, message, cause).WithContext("field", field)
}

// NewAggregationError reports a violated aggregation invariant such as a zero denominator.
func NewAggregationError(message string) *AppError {
	return NewAppError(ErrTypeAggregation, message, nil)
}

// NewNormalizerTypeError reports a value the normalizer does not know how to convert.
// It always indicates a bug in the aggregation code.
func NewNormalizerTypeError(value interface{}) *AppError {
	return NewAppError(ErrTypeNormalizer, fmt.Sprintf("unsupported value type %T", value), nil)
}

// NewUploadError reports an unusable upload (missing part, wrong extension, too large).
func NewUploadError(message string, cause error) *AppError {
	return NewAppError(ErrTypeUpload, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err is, or wraps, an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
