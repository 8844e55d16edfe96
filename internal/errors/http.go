package errors

import (
	"errors"
	"fmt"
)

// HTTPError is the only error type that crosses the gateway boundary.
// It carries the HTTP status and response body for a non-2xx reply, or
// wraps the transport error when the request never produced a response
// (StatusCode == 0).
type HTTPError struct {
	Op         string // short operation name, e.g. "list bookmarks"
	StatusCode int    // 0 for transport-level failures
	Body       string // response body, truncated by the gateway
	Err        error  // underlying transport error, if any
}

func (e *HTTPError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// Category maps the error onto a retry policy. Transport failures are
// treated as retryable since they are usually transient.
func (e *HTTPError) Category() Category {
	switch {
	case e.StatusCode == 0:
		return Retryable
	case e.StatusCode == 408, e.StatusCode == 429:
		return Retryable
	case e.StatusCode >= 400 && e.StatusCode < 500:
		return Permanent
	default:
		return Retryable
	}
}

// NewHTTP builds an HTTPError for a non-2xx response.
func NewHTTP(op string, statusCode int, body string) *HTTPError {
	return &HTTPError{Op: op, StatusCode: statusCode, Body: body}
}

// NewTransport wraps a transport-level failure (DNS, connect, TLS, ...)
// so raw net/http errors never leak past the gateway.
func NewTransport(op string, err error) *HTTPError {
	return &HTTPError{Op: op, Err: err}
}

// IsPermanent reports whether err should not be retried. Sentinel
// validation errors are always permanent; unclassified errors are assumed
// transient, matching the conservative default of the task queue.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrLoginRequired) || errors.Is(err, ErrPlaceIDRequired) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Category() == Permanent
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// HTTPError.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
