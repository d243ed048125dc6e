package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/absensi/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/cryptox"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

const (
	TimeFormat24h = "24h"
	TimeFormat12h = "12h"

	minPINLength = 4
)

// Settings is the user-facing view of the device settings. The PIN hash
// never leaves the store.
type Settings struct {
	EndpointURL  string
	Timezone     timex.Zone
	TimeFormat   string
	LockSettings bool
	HasPIN       bool
	DeviceID     string
	Kiosk        bool
}

type SettingsService interface {
	Get(ctx context.Context) (Settings, error)

	// Clock returns a clock in the configured timezone.
	Clock(ctx context.Context) (timex.Clock, error)

	// DeviceID returns the persisted device id, creating one on first use.
	DeviceID(ctx context.Context) (string, error)

	// Every setter below needs the PIN while settings are locked and fails
	// with common.ErrorLocked otherwise.
	SetEndpointURL(ctx context.Context, u, pin string) error
	SetTimezone(ctx context.Context, zone, pin string) error
	SetTimeFormat(ctx context.Context, format, pin string) error
	SetKiosk(ctx context.Context, on bool, pin string) error
	SetLock(ctx context.Context, on bool, pin string) error

	// SetPIN replaces the PIN; current is required once a PIN exists.
	SetPIN(ctx context.Context, current, next string) error

	// Unlock checks pin without changing anything.
	Unlock(ctx context.Context, pin string) error
}

type settingsService struct {
	repo metadata.Repository
	log  logging.Logger
}

func NewSettingsService(repo metadata.Repository, log logging.Logger) SettingsService {
	return &settingsService{repo: repo, log: log.With("component", "settings")}
}

func (s *settingsService) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.repo.Get(ctx, key)
	return v, err
}

func (s *settingsService) Get(ctx context.Context) (Settings, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return Settings{}, err
	}

	zone, err := timex.ParseZone(all[metadata.KeyTimezone])
	if err != nil {
		zone = timex.ZoneLocal
	}
	format := all[metadata.KeyTimeFormat]
	if format != TimeFormat12h {
		format = TimeFormat24h
	}

	return Settings{
		EndpointURL:  all[metadata.KeyEndpointURL],
		Timezone:     zone,
		TimeFormat:   format,
		LockSettings: all[metadata.KeyLockSettings] == "1",
		HasPIN:       all[metadata.KeyPIN] != "",
		DeviceID:     all[metadata.KeyDeviceID],
		Kiosk:        all[metadata.KeyKiosk] == "1",
	}, nil
}

func (s *settingsService) Clock(ctx context.Context) (timex.Clock, error) {
	v, err := s.get(ctx, metadata.KeyTimezone)
	if err != nil {
		return timex.Clock{}, err
	}
	zone, err := timex.ParseZone(v)
	if err != nil {
		s.log.Warn(ctx, "stored timezone is invalid, using local", "value", v)
		zone = timex.ZoneLocal
	}
	return timex.NewClock(zone), nil
}

func (s *settingsService) DeviceID(ctx context.Context) (string, error) {
	v, err := s.get(ctx, metadata.KeyDeviceID)
	if err != nil {
		return "", err
	}
	if v != "" {
		return v, nil
	}

	id := uuid.NewString()
	if err := s.repo.Set(ctx, metadata.KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("store device id: %w", err)
	}
	s.log.Info(ctx, "device id created", "device_id", id)
	return id, nil
}

func (s *settingsService) checkPIN(ctx context.Context, pin string) error {
	hash, err := s.get(ctx, metadata.KeyPIN)
	if err != nil {
		return err
	}
	if hash == "" {
		return nil
	}
	ok, err := cryptox.VerifyPIN(pin, hash)
	if err != nil {
		return fmt.Errorf("verify pin: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: wrong pin", common.ErrorLocked)
	}
	return nil
}

// authorize passes when settings are unlocked or pin matches.
func (s *settingsService) authorize(ctx context.Context, pin string) error {
	locked, err := s.get(ctx, metadata.KeyLockSettings)
	if err != nil {
		return err
	}
	if locked != "1" {
		return nil
	}
	return s.checkPIN(ctx, pin)
}

func (s *settingsService) Unlock(ctx context.Context, pin string) error {
	return s.checkPIN(ctx, pin)
}

func (s *settingsService) SetEndpointURL(ctx context.Context, u, pin string) error {
	if err := s.authorize(ctx, pin); err != nil {
		return err
	}
	u = strings.TrimSpace(u)
	if u == "" {
		return s.repo.Delete(ctx, metadata.KeyEndpointURL)
	}
	if !IsValidEndpointURL(u) {
		return fmt.Errorf("%w: endpoint url must be an absolute http(s) url", common.ErrorValidation)
	}
	return s.repo.Set(ctx, metadata.KeyEndpointURL, u)
}

func (s *settingsService) SetTimezone(ctx context.Context, zone, pin string) error {
	if err := s.authorize(ctx, pin); err != nil {
		return err
	}
	z, err := timex.ParseZone(zone)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return s.repo.Set(ctx, metadata.KeyTimezone, string(z))
}

func (s *settingsService) SetTimeFormat(ctx context.Context, format, pin string) error {
	if err := s.authorize(ctx, pin); err != nil {
		return err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != TimeFormat12h && format != TimeFormat24h {
		return fmt.Errorf("%w: time format must be 12h or 24h", common.ErrorValidation)
	}
	return s.repo.Set(ctx, metadata.KeyTimeFormat, format)
}

func flag(on bool) string {
	if on {
		return "1"
	}
	return "0"
}

func (s *settingsService) SetKiosk(ctx context.Context, on bool, pin string) error {
	if err := s.authorize(ctx, pin); err != nil {
		return err
	}
	return s.repo.Set(ctx, metadata.KeyKiosk, flag(on))
}

func (s *settingsService) SetLock(ctx context.Context, on bool, pin string) error {
	if err := s.authorize(ctx, pin); err != nil {
		return err
	}
	if on {
		hash, err := s.get(ctx, metadata.KeyPIN)
		if err != nil {
			return err
		}
		if hash == "" {
			return fmt.Errorf("%w: set a pin before locking settings", common.ErrorValidation)
		}
	}
	return s.repo.Set(ctx, metadata.KeyLockSettings, flag(on))
}

func (s *settingsService) SetPIN(ctx context.Context, current, next string) error {
	if err := s.checkPIN(ctx, current); err != nil {
		return err
	}

	next = strings.TrimSpace(next)
	if next == "" {
		if err := s.repo.Delete(ctx, metadata.KeyPIN); err != nil {
			return err
		}
		return s.repo.Set(ctx, metadata.KeyLockSettings, flag(false))
	}
	if len(next) < minPINLength {
		return fmt.Errorf("%w: pin needs at least %d characters", common.ErrorValidation, minPINLength)
	}

	hash, err := cryptox.HashPIN(next)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	return s.repo.Set(ctx, metadata.KeyPIN, hash)
}
