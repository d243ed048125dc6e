package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/absensi/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/absensi/internal/common"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

func TestDeviceID_CreatedOnce(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()

	id, err := h.Settings.DeviceID(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	again, err := h.Settings.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestSettings_Defaults(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()

	s, err := h.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.ep.srv.URL, s.EndpointURL)
	assert.Equal(t, timex.ZoneLocal, s.Timezone)
	assert.Equal(t, TimeFormat24h, s.TimeFormat)
	assert.False(t, s.LockSettings)
	assert.False(t, s.HasPIN)
}

func TestSettings_Setters(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()

	require.NoError(t, h.Settings.SetTimezone(ctx, "wita", ""))
	require.NoError(t, h.Settings.SetTimeFormat(ctx, "12H", ""))
	require.NoError(t, h.Settings.SetKiosk(ctx, true, ""))
	require.NoError(t, h.Settings.SetEndpointURL(ctx, " https://script.example/exec ", ""))

	s, err := h.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, timex.ZoneWITA, s.Timezone)
	assert.Equal(t, TimeFormat12h, s.TimeFormat)
	assert.True(t, s.Kiosk)
	assert.Equal(t, "https://script.example/exec", s.EndpointURL)

	clock, err := h.Settings.Clock(ctx)
	require.NoError(t, err)
	assert.Equal(t, timex.ZoneWITA, clock.Zone)

	assert.ErrorIs(t, h.Settings.SetTimezone(ctx, "PST", ""), common.ErrorValidation)
	assert.ErrorIs(t, h.Settings.SetTimeFormat(ctx, "13h", ""), common.ErrorValidation)
	assert.ErrorIs(t, h.Settings.SetEndpointURL(ctx, "script.example/exec", ""), common.ErrorValidation)

	require.NoError(t, h.Settings.SetEndpointURL(ctx, "", ""))
	_, ok, err := h.repos.Settings.Get(ctx, metadata.KeyEndpointURL)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettings_PINLock(t *testing.T) {
	h := newHarness(t, SyncOptions{})
	ctx := context.Background()

	assert.ErrorIs(t, h.Settings.SetLock(ctx, true, ""), common.ErrorValidation, "no pin yet")
	assert.ErrorIs(t, h.Settings.SetPIN(ctx, "", "12"), common.ErrorValidation, "too short")

	require.NoError(t, h.Settings.SetPIN(ctx, "", "1234"))
	require.NoError(t, h.Settings.SetLock(ctx, true, ""))

	stored, _, err := h.repos.Settings.Get(ctx, metadata.KeyPIN)
	require.NoError(t, err)
	assert.NotContains(t, stored, "1234")

	assert.ErrorIs(t, h.Settings.SetTimezone(ctx, "WIB", ""), common.ErrorLocked)
	assert.ErrorIs(t, h.Settings.SetTimezone(ctx, "WIB", "0000"), common.ErrorLocked)
	require.NoError(t, h.Settings.SetTimezone(ctx, "WIB", "1234"))

	assert.ErrorIs(t, h.Settings.Unlock(ctx, "4321"), common.ErrorLocked)
	require.NoError(t, h.Settings.Unlock(ctx, "1234"))

	assert.ErrorIs(t, h.Settings.SetPIN(ctx, "0000", "5678"), common.ErrorLocked)
	require.NoError(t, h.Settings.SetPIN(ctx, "1234", "5678"))
	require.NoError(t, h.Settings.SetTimeFormat(ctx, "12h", "5678"))

	// Clearing the pin also unlocks.
	require.NoError(t, h.Settings.SetPIN(ctx, "5678", ""))
	s, err := h.Settings.Get(ctx)
	require.NoError(t, err)
	assert.False(t, s.HasPIN)
	assert.False(t, s.LockSettings)
	require.NoError(t, h.Settings.SetTimezone(ctx, "WIT", ""))
}
