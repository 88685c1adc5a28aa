package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// ErrorEnvelope is the body returned by the remote document endpoint on failure.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

// FileErrorEnvelope is the body returned by the local document endpoint on failure.
// Path names the file the server tried to read.
type FileErrorEnvelope struct {
	Error string `json:"error"`
	Path  string `json:"path"`
}

// WriteEnvelope renders v as JSON with the given status.
func WriteEnvelope(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

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

// Predefined error types for common scenarios
var (
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
	// ErrPanic answers a recovered panic. The panic value is logged, never returned.
	ErrPanic = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred")
)

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// Problem renders the error as RFC 7807 problem details for instance.
func (e *APIError) Problem(instance string) *ProblemDetails {
	problemType := TypeInternal
	switch e.ErrorCode {
	case "VALIDATION_FAILED":
		problemType = TypeValidation
	case "NOT_FOUND":
		problemType = TypeNotFound
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	case "SERVICE_UNAVAILABLE":
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(
		e.StatusCode,
		problemType,
		http.StatusText(e.StatusCode),
		e.Message,
		instance,
	).WithExtension("error_code", e.ErrorCode)

	if e.Details != nil {
		problem.WithExtension("details", e.Details)
	}
	return problem
}
