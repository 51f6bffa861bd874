package feed

import (
	"errors"
	"fmt"
)

// ErrEmptyBody is returned when a fetch succeeds but the response body is empty.
var ErrEmptyBody = errors.New("feed response body is empty")

// NetworkError wraps connect, DNS and timeout failures. Transient; never
// retried in-process, left to the next scheduled refresh.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx response from the remote endpoint.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error fetching %s: status %d", e.URL, e.StatusCode)
}

// ParseError denotes a whole-document parse failure: the payload is not valid
// in the format the source's platform expects. Entry-level malformations are
// dropped silently instead.
type ParseError struct {
	Platform string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s document: %v", e.Platform, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
