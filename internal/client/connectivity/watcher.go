package connectivity

import (
	"context"
	"time"

	"github.com/dmitrijs2005/absensi/internal/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher turns periodic pings into reachability events. Only changes are
// emitted; the first result always is.
type Watcher struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger
}

func NewWatcher(p Pinger, interval, timeout time.Duration, log logging.Logger) *Watcher {
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &Watcher{pinger: p, interval: interval, timeout: timeout, log: log.With("component", "watcher")}
}

func (p *Watcher) check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.pinger.Ping(ctx)
	if err != nil {
		p.log.Debug(ctx, "ping failed", "error", err)
	}
	return err == nil
}

// Start pings immediately and then every interval. The returned channel
// is closed when ctx is done.
func (p *Watcher) Start(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var last, sent bool
		for {
			up := p.check(ctx)
			if !sent || up != last {
				select {
				case out <- up:
				case <-ctx.Done():
					return
				}
				last, sent = up, true
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
