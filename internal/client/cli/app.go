package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/dmitrijs2005/absensi/internal/client/client"
	"github.com/dmitrijs2005/absensi/internal/client/config"
	"github.com/dmitrijs2005/absensi/internal/client/connectivity"
	"github.com/dmitrijs2005/absensi/internal/client/models"
	"github.com/dmitrijs2005/absensi/internal/client/services"
	"github.com/dmitrijs2005/absensi/internal/logging"
	"github.com/dmitrijs2005/absensi/internal/timex"

	_ "modernc.org/sqlite"
)

const userAgent = "absensi-cli"

// App is the device: one store, one set of services, and the terminal it
// talks to.
type App struct {
	config *config.Config
	repos  *client.Repositories
	log    logging.Logger
	closer io.Closer

	svc     atomic.Pointer[services.Services]
	monitor *connectivity.Monitor

	syncOn  atomic.Bool
	pending atomic.Int64

	slot   services.Slot
	reader *bufio.Reader
	out    io.Writer
}

func newLogger(cfg *config.Config) (logging.Logger, io.Closer) {
	switch cfg.LogFile {
	case "-":
		return logging.NewJSONLogger(os.Stderr, cfg.LogLevel), io.NopCloser(nil)
	default:
		return logging.NewFileLogger(logging.FileOptions{Path: cfg.LogFile}, cfg.LogLevel)
	}
}

// NewApp opens the store and wires the services. Until a REPL starts the
// connectivity monitor, the network is assumed reachable and each request
// decides for itself.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	log, closer := newLogger(c)

	repos, err := client.InitDatabase(ctx, c.DatabasePath, timex.NewClock(timex.ZoneLocal).Stamp)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config: c,
		repos:  repos,
		log:    log,
		closer: closer,
		reader: bufio.NewReader(in),
		out:    out,
		slot:   services.Slot{Mode: models.ModeSubject, HourSlot: 1},
	}
	a.syncOn.Store(true)

	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// wire (re)builds the services from the current settings. It runs again
// after the timezone changes.
func (a *App) wire(ctx context.Context) error {
	settings := services.NewSettingsService(a.repos.Settings, a.log)

	deviceID, err := settings.DeviceID(ctx)
	if err != nil {
		return err
	}
	clock, err := settings.Clock(ctx)
	if err != nil {
		return err
	}

	remote := client.NewHTTPClient(a.config.RequestTimeout, deviceID, userAgent)
	a.svc.Store(services.New(services.Deps{
		Repos:       a.repos,
		Remote:      remote,
		HTTP:        &http.Client{Timeout: a.config.RequestTimeout},
		FallbackURL: a.config.EndpointURL,
		Online:      a,
		Clock:       clock,
		Log:         a.log,
		Sync: services.SyncOptions{
			StrictAck: a.config.StrictAck,
			Notify:    a.onUnsynced,
		},
	}))
	return nil
}

func (a *App) services() *services.Services {
	return a.svc.Load()
}

func (a *App) Close() error {
	err := a.repos.Close()
	if cerr := a.closer.Close(); err == nil {
		err = cerr
	}
	return err
}

// Online implements services.OnlineChecker.
func (a *App) Online() bool {
	if a.monitor == nil {
		return true
	}
	return a.monitor.Online()
}

// SetSyncEnabled implements connectivity.Affordance.
func (a *App) SetSyncEnabled(on bool) {
	a.syncOn.Store(on)
}

func (a *App) syncEnabled() bool {
	return a.syncOn.Load()
}

func (a *App) onUnsynced(_ context.Context, n int) {
	a.pending.Store(int64(n))
}

// Ping implements connectivity.Pinger.
func (a *App) Ping(ctx context.Context) error {
	return a.services().Sync.Ping(ctx)
}

// appSyncer resolves the current services on every call, so a rewire is
// picked up by the monitor too.
type appSyncer struct{ a *App }

func (s appSyncer) Push(ctx context.Context) (services.PushResult, error) {
	return s.a.services().Sync.Push(ctx)
}

func (s appSyncer) PullAttendance(ctx context.Context, date string) (services.PullResult, error) {
	return s.a.services().Sync.PullAttendance(ctx, date)
}

func (a *App) today(ctx context.Context) string {
	clock, err := a.services().Settings.Clock(ctx)
	if err != nil {
		return timex.NewClock(timex.ZoneLocal).Today()
	}
	return clock.Today()
}

func (a *App) status() string {
	state := "online"
	if a.monitor != nil {
		state = string(a.monitor.State())
	}
	return fmt.Sprintf("(%s, %d pending)", state, a.pending.Load())
}

func (a *App) refreshPending(ctx context.Context) {
	n, err := a.services().Sync.UnsyncedCount(ctx)
	if err != nil {
		a.log.Warn(ctx, "count unsynced failed", "error", err)
		return
	}
	a.pending.Store(int64(n))
}

// StartMonitor pings the endpoint in the background and feeds the
// connectivity monitor until ctx is done.
func (a *App) StartMonitor(ctx context.Context) {
	// Sync stays off until the monitor reports Online.
	a.SetSyncEnabled(false)
	a.monitor = connectivity.NewMonitor(appSyncer{a}, func() string { return a.today(ctx) }, a, a.log)
	watcher := connectivity.NewWatcher(a, a.config.OnlineCheckInterval, a.config.RequestTimeout, a.log)
	go a.monitor.Run(ctx, watcher.Start(ctx))
}

// RunREPL starts the monitor and blocks in the REPL until the user exits.
func (a *App) RunREPL(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.StartMonitor(ctx)
	a.refreshPending(ctx)

	printlnFn("Welcome to absensi (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}
