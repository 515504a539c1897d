package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried by APIError. The handler maps each to a problem type.
const (
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeUploadRejected     = "UPLOAD_REJECTED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// PayloadTooLarge reports a body or file over maxBytes. A negative size
// means the size was not known up front and is left out of the details.
func PayloadTooLarge(message string, maxBytes, size int64) *APIError {
	details := map[string]interface{}{"max_size": maxBytes}
	if size >= 0 {
		details["size"] = size
	}
	return NewWithDetails(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message, details)
}

// RateLimitExceeded is the 429 returned by the limiter; the caller sets
// the Retry-After header
func RateLimitExceeded(retryAfter int) *APIError {
	return NewWithDetails(
		http.StatusTooManyRequests,
		CodeRateLimitExceeded,
		"Rate limit exceeded. Please retry later",
		map[string]interface{}{"retry_after": retryAfter},
	)
}

// UploadTooLargeMessage is the user-facing text for an oversize file
func UploadTooLargeMessage(maxBytes int64) string {
	return fmt.Sprintf("Uploaded file exceeds the maximum allowed size of %d bytes", maxBytes)
}
