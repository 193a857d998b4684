// Package apperr defines the error kinds surfaced by memoirs.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConfigMissing = errors.New("remote server configuration missing")
	ErrInvalidQuery  = errors.New("invalid query")
	ErrFetch         = errors.New("fetch failed")
	ErrCycle         = errors.New("relation cycle detected")
	ErrDepthExceeded = errors.New("relation depth exceeded")
)

// FetchError describes a failed call to the remote server. It matches
// ErrFetch and, when set, the wrapped cause.
type FetchError struct {
	URL     string
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s", e.URL)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}
