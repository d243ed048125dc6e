package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/absensi/internal/client/services"
	"github.com/dmitrijs2005/absensi/internal/common"
)

// explain turns an error into the line shown to the user.
func explain(err error) string {
	switch services.ReasonOf(err) {
	case services.ReasonMissingOrInvalidURL:
		return "Endpoint URL is missing or invalid. Set it with: settings url <URL>"
	case services.ReasonOffline:
		return "Offline. Records are kept on this device and sync when the endpoint is back."
	case services.ReasonFailedFetch:
		return fmt.Sprintf("Sync failed, nothing was lost: %v", err)
	}

	switch {
	case errors.Is(err, errUsage):
		return "Usage: " + trimSentinel(err, errUsage)
	case errors.Is(err, common.ErrorValidation):
		return "Invalid input: " + trimSentinel(err, common.ErrorValidation)
	case errors.Is(err, common.ErrorLocked):
		return "Settings are locked: wrong PIN."
	case errors.Is(err, common.ErrorNotFound):
		return "Not found."
	}
	return "Error: " + err.Error()
}

// trimSentinel drops the "<sentinel>: " prefix added by %w wrapping.
func trimSentinel(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
