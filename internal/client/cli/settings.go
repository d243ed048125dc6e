package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/absensi/internal/common"
)

// pinIfLocked asks for the settings PIN only while settings are locked.
func (a *App) pinIfLocked(ctx context.Context) (string, error) {
	s, err := a.services().Settings.Get(ctx)
	if err != nil {
		return "", err
	}
	if !s.LockSettings {
		return "", nil
	}
	return GetPIN("Settings PIN", a.out)
}

func parseOnOff(args []string, use string) (bool, error) {
	if len(args) != 1 {
		return false, usage(use)
	}
	switch args[0] {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, usage(use)
}

// Settings shows or changes device settings:
// settings [show] | url [URL] | tz ZONE | format 12h|24h | kiosk on|off | lock on|off | pin
func (a *App) Settings(ctx context.Context, args []string) error {
	const use = "settings [show] | url [URL] | tz local|WIB|WITA|WIT | format 12h|24h | kiosk on|off | lock on|off | pin"
	svc := a.services().Settings

	if len(args) == 0 || args[0] == "show" {
		s, err := svc.Get(ctx)
		if err != nil {
			return err
		}
		url := s.EndpointURL
		if url == "" {
			url = "(not set)"
			if a.config.EndpointURL != "" {
				url = a.config.EndpointURL + " (from config)"
			}
		}
		a.printf("Endpoint URL: %s\nTimezone: %s\nTime format: %s\nKiosk: %t\nLocked: %t (PIN set: %t)\nDevice id: %s\n",
			url, s.Timezone, s.TimeFormat, s.Kiosk, s.LockSettings, s.HasPIN, s.DeviceID)
		return nil
	}

	if args[0] == "pin" {
		return a.changePIN(ctx)
	}

	rest := args[1:]
	switch args[0] {
	case "url", "tz", "format", "kiosk", "lock":
	default:
		return usage(use)
	}

	var on bool
	var err error
	switch args[0] {
	case "tz", "format":
		if len(rest) != 1 {
			return usage(use)
		}
	case "kiosk", "lock":
		if on, err = parseOnOff(rest, use); err != nil {
			return err
		}
	}

	pin, err := a.pinIfLocked(ctx)
	if err != nil {
		return err
	}

	switch args[0] {
	case "url":
		var u string
		if len(rest) > 0 {
			u = rest[0]
		}
		err = svc.SetEndpointURL(ctx, u, pin)
	case "tz":
		if err = svc.SetTimezone(ctx, rest[0], pin); err == nil {
			err = a.wire(ctx)
		}
	case "format":
		err = svc.SetTimeFormat(ctx, rest[0], pin)
	case "kiosk":
		err = svc.SetKiosk(ctx, on, pin)
	case "lock":
		err = svc.SetLock(ctx, on, pin)
	}
	if err != nil {
		return err
	}
	a.printf("Saved.\n")
	return nil
}

func (a *App) changePIN(ctx context.Context) error {
	svc := a.services().Settings
	s, err := svc.Get(ctx)
	if err != nil {
		return err
	}

	var current string
	if s.HasPIN {
		if current, err = GetPIN("Current PIN", a.out); err != nil {
			return err
		}
	}
	next, err := GetPIN("New PIN (empty to remove)", a.out)
	if err != nil {
		return err
	}
	if next != "" {
		again, err := GetPIN("Repeat new PIN", a.out)
		if err != nil {
			return err
		}
		if again != next {
			return fmt.Errorf("%w: PINs do not match", common.ErrorValidation)
		}
	}

	if err := svc.SetPIN(ctx, current, next); err != nil {
		return err
	}
	if next == "" {
		a.printf("PIN removed, settings unlocked.\n")
	} else {
		a.printf("PIN saved.\n")
	}
	return nil
}
