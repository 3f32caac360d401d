// Package connectivity tracks whether the backend is reachable. The monitor
// is a two-state machine (online/offline) fed by an internal reachability
// probe and by external signals; subscribers are notified on transitions
// only, so duplicate signals can never double-trigger downstream work.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/querygate/offline/internal/logging"
)

// Prober checks backend reachability. Satisfied by remote.Client.
type Prober interface {
	Ping(ctx context.Context) error
}

// Handler is invoked after every state transition with the new state.
type Handler func(online bool)

// Monitor observes connectivity and notifies subscribers of transitions.
type Monitor struct {
	prober   Prober
	log      logging.Logger
	interval time.Duration

	mu       sync.Mutex
	online   bool
	seeded   bool
	handlers []Handler
}

// NewMonitor returns a Monitor probing with p every interval. The state is
// seeded by the first probe (or the first external signal, whichever comes
// first); until then the monitor reports offline.
func NewMonitor(p Prober, interval time.Duration, log logging.Logger) *Monitor {
	return &Monitor{
		prober:   p,
		log:      log.With("component", "connectivity"),
		interval: interval,
	}
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers h to run on every transition. Handlers run
// synchronously on the goroutine that caused the transition and must not
// block for long.
//
// The very first signal after construction always fires, even when it only
// confirms the initial offline state: it seeds the state machine, and
// subscribers get to observe the seeding. Only signals after that are
// suppressed as duplicates.
func (m *Monitor) Subscribe(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// SetOnline feeds an external connectivity signal into the state machine.
// Duplicate signals are no-ops: handlers fire only when the state actually
// changes.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.seeded && m.online == online {
		m.mu.Unlock()
		return
	}
	m.seeded = true
	m.online = online
	handlers := make([]Handler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	if online {
		m.log.Info(context.Background(), "connectivity restored")
	} else {
		m.log.Warn(context.Background(), "connectivity lost")
	}

	for _, h := range handlers {
		h(online)
	}
}

// Run probes reachability until ctx is cancelled. The first probe seeds the
// state; later probes feed SetOnline, so transitions and their notifications
// follow the same idempotent path as external signals.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := m.prober.Ping(probeCtx)
	cancel()

	if ctx.Err() != nil {
		return
	}
	m.SetOnline(err == nil)
}
