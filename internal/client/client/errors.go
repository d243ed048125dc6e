package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the request never got an HTTP response.
	ErrUnavailable = errors.New("endpoint unavailable")

	// ErrMalformedResponse means a 2xx response body could not be decoded.
	ErrMalformedResponse = errors.New("malformed endpoint response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned status %d", e.Code)
	}
	return fmt.Sprintf("endpoint returned status %d: %s", e.Code, e.Body)
}
