// Package errors provides the typed error taxonomy shared by the broker
// client and the HTTP facade.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for the broker error taxonomy.
var (
	// ErrNoData indicates a response carried no usable payload.
	ErrNoData = errors.New("no data in response")

	// ErrTransport indicates an HTTP-level or network-level failure.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedBody indicates a response body that is not valid JSON.
	ErrMalformedBody = errors.New("malformed response body")

	// ErrMissingField indicates a structurally valid body lacking a required key.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidField indicates a present but semantically invalid field.
	ErrInvalidField = errors.New("invalid field value")

	// ErrCredential wraps a token manager failure.
	ErrCredential = errors.New("credential error")

	// ErrInvalidParameter indicates a caller-supplied argument rejected by a
	// protocol-specific rule.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Sentinel errors used by the HTTP facade.
var (
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates a missing or invalid API key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimit indicates too many requests.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrInternal indicates an internal error.
	ErrInternal = errors.New("internal error")
)

// AppError is a structured application error.
type AppError struct {
	// Type is the error kind (sentinel error).
	Type error
	// Message is the human-readable error message.
	Message string
	// Details contains structured context, e.g. the offending raw JSON
	// fragment under "raw" or the HTTP status under "status".
	Details map[string]any
	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error type.
func (e *AppError) Unwrap() error {
	return e.Type
}

// Is checks if this error matches the target.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Type, target)
}

// WithDetails adds details to an AppError.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// Raw returns the offending JSON fragment attached to the error, if any.
func (e *AppError) Raw() json.RawMessage {
	raw, _ := e.Details["raw"].(json.RawMessage)
	return raw
}

// New creates a new AppError.
func New(errType error, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(errType error, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// NoData creates a no-data error for an endpoint.
func NoData(endpoint string) *AppError {
	return &AppError{
		Type:    ErrNoData,
		Message: fmt.Sprintf("%s returned no data", endpoint),
	}
}

// Transport creates a transport error. status is zero for network-level
// failures that never produced a response.
func Transport(status int, message string, cause error) *AppError {
	e := &AppError{
		Type:    ErrTransport,
		Message: message,
		Cause:   cause,
	}
	if status != 0 {
		e.Details = map[string]any{"status": status}
	}
	return e
}

// MalformedBody creates a malformed-body error carrying the raw payload.
func MalformedBody(message string, raw []byte, cause error) *AppError {
	return &AppError{
		Type:    ErrMalformedBody,
		Message: message,
		Cause:   cause,
		Details: map[string]any{"raw": json.RawMessage(raw)},
	}
}

// MissingField creates a missing-field error referencing the payload the
// field was expected in.
func MissingField(field string, raw []byte) *AppError {
	return &AppError{
		Type:    ErrMissingField,
		Message: fmt.Sprintf("missing required field %q", field),
		Details: map[string]any{"field": field, "raw": json.RawMessage(raw)},
	}
}

// InvalidField creates an invalid-field error referencing the payload the
// field came from.
func InvalidField(field, message string, raw []byte) *AppError {
	return &AppError{
		Type:    ErrInvalidField,
		Message: message,
		Details: map[string]any{"field": field, "raw": json.RawMessage(raw)},
	}
}

// Credential wraps a token manager failure.
func Credential(message string, cause error) *AppError {
	if message == "" {
		message = "authentication failed"
	}
	return &AppError{
		Type:    ErrCredential,
		Message: message,
		Cause:   cause,
	}
}

// InvalidParameter creates an invalid-parameter error for a caller argument.
func InvalidParameter(param, message string) *AppError {
	return &AppError{
		Type:    ErrInvalidParameter,
		Message: message,
		Details: map[string]any{"parameter": param},
	}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return &AppError{
		Type:    ErrUnauthorized,
		Message: message,
	}
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Type:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Internal creates an internal error.
func Internal(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrInternal,
		Message: message,
		Cause:   cause,
	}
}

// IsNoData checks if an error is a no-data error.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsMalformedBody checks if an error is a malformed-body error.
func IsMalformedBody(err error) bool {
	return errors.Is(err, ErrMalformedBody)
}

// IsMissingField checks if an error is a missing-field error.
func IsMissingField(err error) bool {
	return errors.Is(err, ErrMissingField)
}

// IsInvalidField checks if an error is an invalid-field error.
func IsInvalidField(err error) bool {
	return errors.Is(err, ErrInvalidField)
}

// IsCredential checks if an error is a credential error.
func IsCredential(err error) bool {
	return errors.Is(err, ErrCredential)
}

// IsInvalidParameter checks if an error is an invalid-parameter error.
func IsInvalidParameter(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoData):
		return 404
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrCredential):
		return 401
	case errors.Is(err, ErrInvalidParameter):
		return 400
	case errors.Is(err, ErrRateLimit):
		return 429
	case errors.Is(err, ErrTransport), errors.Is(err, ErrMalformedBody),
		errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidField):
		return 502
	default:
		return 500
	}
}
