package api

import (
	"fmt"
	"io"
	"net/http"
)

// APIError reports a failed controller request: either a non-2xx response
// (StatusCode and Body set) or a transport failure (Err set).
// It supports errors.Is matching by status code and errors.As extraction.
type APIError struct {
	// Op names the request that failed, e.g. "trigger delay" or "fetch proxies".
	Op string
	// Group is the proxy group the request was about, if any.
	Group      string
	StatusCode int
	Body       string
	Err        error
}

// Error returns the formatted error string.
func (e *APIError) Error() string {
	prefix := "api: " + e.Op
	if e.Group != "" {
		prefix += fmt.Sprintf(" (group %q)", e.Group)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", prefix, e.StatusCode, e.Body)
}

// Unwrap returns the underlying transport error, if any.
func (e *APIError) Unwrap() error { return e.Err }

// Is supports errors.Is matching by status code.
// ErrServer (500) matches any 5xx status code.
// All other sentinels require an exact status code match.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok || e.StatusCode == 0 {
		return false
	}
	if t.StatusCode == 500 && e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	return e.StatusCode == t.StatusCode
}

// Sentinel errors for common HTTP error status codes.
var (
	ErrBadRequest   = &APIError{StatusCode: 400, Body: "bad request"}
	ErrUnauthorized = &APIError{StatusCode: 401, Body: "unauthorized"}
	ErrForbidden    = &APIError{StatusCode: 403, Body: "forbidden"}
	ErrNotFound     = &APIError{StatusCode: 404, Body: "not found"}
	ErrTimeout      = &APIError{StatusCode: 408, Body: "timeout"}
	ErrServer       = &APIError{StatusCode: 500, Body: "server error"}
)

// DecodeError reports a 2xx response whose body could not be parsed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("api: %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// maxErrorBody is the maximum number of bytes read from an error response body.
const maxErrorBody = 4096

// errorFromResponse creates an *APIError from a non-2xx HTTP response.
// It reads up to 4KB of the response body.
func errorFromResponse(op, group string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Op:         op,
		Group:      group,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
