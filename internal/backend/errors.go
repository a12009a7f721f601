package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMessage is returned when Chat is called with a blank message.
	ErrEmptyMessage = errors.New("empty chat message")

	// ErrNoFiles is returned when Ingest is called without files.
	ErrNoFiles = errors.New("no files to ingest")

	// ErrMissingResponse is returned when a 2xx chat reply has no "response" field.
	ErrMissingResponse = errors.New("chat reply has no response field")
)

// HTTPError represents a non-2xx response from the backend.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// NetworkError represents a transport-level failure (connection, timeout, etc.)
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is, or wraps, a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
