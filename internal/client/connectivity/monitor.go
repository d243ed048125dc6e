// Package connectivity tracks whether the endpoint is reachable and reacts
// to changes: coming online drains pending rows and refreshes today's
// attendance, going offline disables manual sync.
package connectivity

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/absensi/internal/client/services"
	"github.com/dmitrijs2005/absensi/internal/logging"
)

type State string

const (
	Offline State = "offline"
	Online  State = "online"
)

// Syncer is the part of services.SyncService the monitor drives.
type Syncer interface {
	Push(ctx context.Context) (services.PushResult, error)
	PullAttendance(ctx context.Context, date string) (services.PullResult, error)
}

// Affordance is whatever lets the user start a sync by hand.
type Affordance interface {
	SetSyncEnabled(enabled bool)
}

type noAffordance struct{}

func (noAffordance) SetSyncEnabled(bool) {}

// Monitor is a two-state machine fed by reachability events. It starts
// Offline and implements services.OnlineChecker, so the sync gate sees the
// same state the monitor acts on.
type Monitor struct {
	sync  Syncer
	today func() string
	aff   Affordance
	log   logging.Logger

	mu    sync.RWMutex
	state State
}

func NewMonitor(s Syncer, today func() string, aff Affordance, log logging.Logger) *Monitor {
	if aff == nil {
		aff = noAffordance{}
	}
	return &Monitor{
		sync:  s,
		today: today,
		aff:   aff,
		log:   log.With("component", "connectivity"),
		state: Offline,
	}
}

func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Monitor) Online() bool {
	return m.State() == Online
}

// transition records the new state and reports whether it changed.
func (m *Monitor) transition(to State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == to {
		return false
	}
	m.state = to
	return true
}

// Handle applies one reachability event. Repeated events for the current
// state do nothing.
func (m *Monitor) Handle(ctx context.Context, online bool) {
	to := Offline
	if online {
		to = Online
	}
	if !m.transition(to) {
		return
	}
	m.log.Info(ctx, "connectivity changed", "state", to)

	if to == Offline {
		m.aff.SetSyncEnabled(false)
		return
	}

	m.aff.SetSyncEnabled(true)
	m.catchUp(ctx)
}

// catchUp pushes pending rows and then pulls today. Failures are logged;
// the next transition or a manual sync retries.
func (m *Monitor) catchUp(ctx context.Context) {
	if res, err := m.sync.Push(ctx); err != nil {
		m.log.Warn(ctx, "auto push failed", "reason", services.ReasonOf(err), "error", err)
	} else if res.Sent > 0 {
		m.log.Info(ctx, "auto push", "sent", res.Sent, "acknowledged", res.Acknowledged)
	}

	date := m.today()
	if _, err := m.sync.PullAttendance(ctx, date); err != nil {
		m.log.Warn(ctx, "auto pull failed", "date", date, "reason", services.ReasonOf(err), "error", err)
	}
}

// Run consumes events until ctx is done or the channel is closed.
func (m *Monitor) Run(ctx context.Context, events <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-events:
			if !ok {
				return
			}
			m.Handle(ctx, online)
		}
	}
}
