// Package errors defines the failure taxonomy for the OpenNow SDK and the
// retry classification consumed by the background task queue.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to SDK callers before any network I/O happens.
var (
	// ErrLoginRequired is returned by bookmark mutations when no session
	// token is held.
	ErrLoginRequired = errors.New("login required")

	// ErrPlaceIDRequired is returned when a place identifier is empty
	// after trimming.
	ErrPlaceIDRequired = errors.New("place id required")

	// ErrNotFound is returned when the backend reports a missing resource.
	ErrNotFound = errors.New("not found")
)

// Category determines how a failed remote call should be handled by retry
// logic.
type Category int

const (
	// Retryable failures may succeed on a later attempt: 5xx responses,
	// request timeouts, rate limits, and transport-level errors.
	Retryable Category = iota

	// Permanent failures will not improve with retries: 400, 401, 403,
	// 404 and the other non-retryable 4xx responses.
	Permanent
)

func (c Category) String() string {
	switch c {
	case Retryable:
		return "retryable"
	case Permanent:
		return "permanent"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}
