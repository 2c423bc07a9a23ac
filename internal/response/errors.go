package response

import "fmt"

// Error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeBlockingIssues  = "BLOCKING_ISSUES"
	ErrCodeReviewRequired  = "REVIEW_REQUIRED"
	ErrCodeUpstream        = "UPSTREAM_ERROR"
	ErrCodeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// AppError is an error carrying a stable code for the HTTP layer.
type AppError struct {
	Code    string
	Message string
	Details string
	// Payload is attached to the error response, e.g. validation issues.
	Payload interface{}
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAppError creates a new AppError
func NewAppError(code, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// NewValidationError creates a validation error
func NewValidationError(message, details string) *AppError {
	return NewAppError(ErrCodeValidation, message, details)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message, details string) *AppError {
	return NewAppError(ErrCodeNotFound, message, details)
}

// NewUpstreamError creates an error for a failed workflow engine call
func NewUpstreamError(message, details string) *AppError {
	return NewAppError(ErrCodeUpstream, message, details)
}

// WithPayload attaches data that is sent along with the error response.
func (e *AppError) WithPayload(payload interface{}) *AppError {
	e.Payload = payload
	return e
}
