package httpx

import (
	"fmt"
	"net/http"
)

// Error code constants used in JSON error bodies.
const (
	CodeValidation      = "validation_error"
	CodeConflict        = "conflict"
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeUpstream        = "upstream_error"
	CodeServerError     = "server_error"
	CodeRateLimited     = "rate_limit_exceeded"
)

// Error is the structured error body every endpoint returns on failure:
// {"error": <code>, "message": <detail>}. It implements the error interface
// so handlers can both return and write it.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes this error to the response writer as JSON.
func (e *Error) WriteError(w http.ResponseWriter) {
	NoCache(w)
	WriteJSON(w, e.StatusCode, e)
}

// ValidationError reports malformed input or a failed business rule (400).
func ValidationError(msg string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: CodeValidation, Message: msg}
}

// ConflictError reports a uniqueness collision such as a duplicate email (400).
// The original API surfaced these as 400, not 409, and clients depend on it.
func ConflictError(msg string) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: CodeConflict, Message: msg}
}

// AuthenticationError reports missing, invalid or expired credentials (401).
func AuthenticationError(msg string) *Error {
	return &Error{StatusCode: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: msg}
}

// AuthorizationError reports an authenticated but not permitted action (403).
func AuthorizationError(msg string) *Error {
	return &Error{StatusCode: http.StatusForbidden, Code: CodeForbidden, Message: msg}
}

// NotFoundError reports a missing resource (404).
func NotFoundError(msg string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

// UpstreamError reports a failed call to the identity provider or object
// store (502). Detail stays in the logs, never in the body.
func UpstreamError() *Error {
	return &Error{StatusCode: http.StatusBadGateway, Code: CodeUpstream, Message: "upstream dependency failed"}
}

// ServerError reports an unexpected internal failure (500) with a generic
// message; the original error is logged at the endpoint boundary.
func ServerError() *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Code: CodeServerError, Message: "internal server error"}
}
