// Package metadata stores device settings as key/value pairs: the endpoint
// URL, the timezone preset, the device id and the settings PIN.
package metadata

import "context"

// Well-known keys.
const (
	KeyEndpointURL  = "GAS_WEB_APP_URL"
	KeyTimezone     = "TZ"
	KeyTimeFormat   = "TIME_FORMAT"
	KeyLockSettings = "LOCK_SETTINGS"
	KeyPIN          = "PIN"
	KeyDeviceID     = "DEVICE_ID"
	KeyKiosk        = "KIOSK"
)

type Repository interface {
	// Get returns "", false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
