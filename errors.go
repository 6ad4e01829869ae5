package ucb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Error codes used across the dispatch and remote-call paths. Remote
// passthrough codes are derived at call time (REMOTE_CLIENT_ERROR_<code>,
// REMOTE_SERVER_ERROR_<code>).
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeAuthentication     = "AUTHENTICATION_ERROR"
	CodeAuthRequired       = "AUTHENTICATION_REQUIRED"
	CodeAuthorization      = "AUTHORIZATION_ERROR"
	CodeResourceNotFound   = "RESOURCE_NOT_FOUND"
	CodeEndpointNotFound   = "ENDPOINT_NOT_FOUND"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeCircuitOpen        = "CIRCUIT_OPEN"
	CodeConnection         = "CONNECTION_ERROR"
	CodeTimeout            = "TIMEOUT_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
	CodeMaxRetriesExceeded = "MAX_RETRIES_EXCEEDED"
)

// Error is the typed failure carried by every dispatch and remote-call path.
// Each instance gets a fresh request ID and timestamp for traceability.
type Error struct {
	Code       string           `json:"errorCode"`
	Message    string           `json:"message"`
	Details    []map[string]any `json:"details"`
	RequestID  string           `json:"requestId"`
	Timestamp  time.Time        `json:"timestamp"`
	StatusCode int              `json:"-"`
	Cause      error            `json:"-"`
}

// NewError constructs a typed error with a fresh request ID and timestamp.
func NewError(code, message string, details []map[string]any, statusCode int) *Error {
	if details == nil {
		details = []map[string]any{}
	}
	return &Error{
		Code:       code,
		Message:    message,
		Details:    details,
		RequestID:  uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		StatusCode: statusCode,
	}
}

// NewValidationError reports bad or missing input (HTTP 400).
func NewValidationError(message string, details []map[string]any) *Error {
	return NewError(CodeValidation, message, details, 400)
}

// NewAuthenticationError reports a failed authentication (HTTP 401).
func NewAuthenticationError(message string) *Error {
	return NewError(CodeAuthentication, message, nil, 401)
}

// NewAuthorizationError reports an authorization failure (HTTP 403).
func NewAuthorizationError(message string) *Error {
	return NewError(CodeAuthorization, message, nil, 403)
}

// NewResourceNotFoundError reports a missing resource (HTTP 404).
func NewResourceNotFoundError(message string) *Error {
	return NewError(CodeResourceNotFound, message, nil, 404)
}

// NewRateLimitExceededError reports an exhausted rate limit (HTTP 429).
func NewRateLimitExceededError(message string) *Error {
	return NewError(CodeRateLimitExceeded, message, nil, 429)
}

// NewConnectionError reports a connection-level outbound failure (HTTP 503).
func NewConnectionError(message string, cause error) *Error {
	e := NewError(CodeConnection, message, nil, 503)
	e.Cause = cause
	return e
}

// NewTimeoutError reports a timed-out request (HTTP 504). The remote-call
// path classifies its own timeouts as connection errors; this constructor is
// for host layers that distinguish them.
func NewTimeoutError(message string, cause error) *Error {
	e := NewError(CodeTimeout, message, nil, 504)
	e.Cause = cause
	return e
}

// WrapInternal wraps an unexpected failure as INTERNAL_ERROR (HTTP 500),
// preserving the original message text. Typed *Error values pass through
// unchanged.
func WrapInternal(err error) *Error {
	if err == nil {
		return nil
	}
	if ue, ok := err.(*Error); ok {
		return ue
	}
	e := NewError(CodeInternal, "internal error: "+err.Error(), nil, 500)
	e.Cause = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error codes for errors.Is.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// errorWire is the stable JSON shape of a typed error. The HTTP status is
// out of band.
type errorWire struct {
	ErrorCode string           `json:"errorCode"`
	Message   string           `json:"message"`
	Details   []map[string]any `json:"details"`
	RequestID string           `json:"requestId"`
	Timestamp string           `json:"timestamp"`
}

// ToJSON renders the wire representation of the error.
func (e *Error) ToJSON() (string, error) {
	w := errorWire{
		ErrorCode: e.Code,
		Message:   e.Message,
		Details:   e.Details,
		RequestID: e.RequestID,
		Timestamp: e.Timestamp.Format(time.RFC3339Nano),
	}
	out, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
