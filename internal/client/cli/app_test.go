package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/absensi/internal/client/config"
	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/services"
	"github.com/dmitrijs2005/absensi/internal/common"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	var c config.Config
	c.LoadDefaults()
	c.DatabasePath = filepath.Join(t.TempDir(), "absensi.db")
	c.LogFile = ""
	c.OnlineCheckInterval = time.Hour

	a, err := NewApp(context.Background(), &c, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestApp_SyncEnabledUntilMonitorStarts(t *testing.T) {
	a := newTestApp(t)
	assert.True(t, a.syncEnabled(), "one-shot commands assume online")
	assert.True(t, a.Online())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.StartMonitor(ctx)

	assert.False(t, a.syncEnabled())
	assert.False(t, a.Online())
	assert.Contains(t, a.status(), "offline")
}

func TestApp_TemplateSaveAndUse(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	require.NoError(t, a.Slot(ctx, []string{"mode=kegiatan", "activity=Pramuka", "by=Pak_Budi", "hour=2"}))
	require.NoError(t, a.Template(ctx, []string{"save", "Jumat", "pagi"}))

	require.NoError(t, a.Slot(ctx, []string{"mode=mapel", "subject=IPA", "hour=5", "location=Lab"}))
	require.NoError(t, a.Template(ctx, []string{"use", "Jumat", "pagi"}))
	assert.Equal(t, services.Slot{
		Mode: models.ModeActivity, Subject: "IPA", Activity: "Pramuka", HourSlot: 2,
		Responsible: "Pak Budi", Location: "Lab",
	}, a.slot)

	assert.ErrorIs(t, a.Template(ctx, []string{"use", "nope"}), common.ErrorNotFound)
	assert.ErrorIs(t, a.Template(ctx, []string{"save"}), errUsage)
	assert.ErrorIs(t, a.Template(ctx, []string{"rename", "x"}), errUsage)
}
