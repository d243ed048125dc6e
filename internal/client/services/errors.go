// Package services implements the device's application logic on top of the
// local store and the remote endpoint: recording attendance, pushing and
// pulling attendance, merging master tables, exporting reports, archiving
// photos and guarding settings.
package services

import (
	"errors"
	"fmt"
)

// Sync outcomes. Every network-facing operation fails with one of these,
// wrapped together with the underlying cause.
var (
	ErrMissingOrInvalidURL = errors.New("missing_or_invalid_url")
	ErrOffline             = errors.New("offline")
	ErrFailedFetch         = errors.New("failed_fetch")
)

// Reason is the machine readable tag of a failed sync.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonMissingOrInvalidURL Reason = "missing_or_invalid_url"
	ReasonOffline             Reason = "offline"
	ReasonFailedFetch         Reason = "failed_fetch"
)

// ReasonOf maps err to its sync reason, or ReasonNone for nil and for
// errors that are not sync outcomes (store failures, validation).
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrMissingOrInvalidURL):
		return ReasonMissingOrInvalidURL
	case errors.Is(err, ErrOffline):
		return ReasonOffline
	case errors.Is(err, ErrFailedFetch):
		return ReasonFailedFetch
	}
	return ReasonNone
}

// fetchFailed tags a remote error as failed_fetch. The cause stays
// reachable, so callers can still match client.ErrUnavailable or
// *client.StatusError.
func fetchFailed(op string, err error) error {
	if errors.Is(err, ErrFailedFetch) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrFailedFetch, op, err)
}
