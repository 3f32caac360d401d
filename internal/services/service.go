// Package services implements the offline engine: optimistic local writes,
// the synchronization passes that drain the queue against the backend, and
// the cache expiry sweeper.
package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/querygate/offline/internal/connectivity"
	"github.com/querygate/offline/internal/logging"
	"github.com/querygate/offline/internal/remote"
	"github.com/querygate/offline/internal/store"
)

// Options tune the engine.
type Options struct {
	// SyncInterval is the cadence of periodic sync passes and cache sweeps
	// while online.
	SyncInterval time.Duration

	// MaxSyncAttempts bounds per-item retries: items that have failed this
	// many times are skipped by passes and only surface in storage stats.
	MaxSyncAttempts int

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

// DefaultOptions returns the production configuration.
func DefaultOptions() Options {
	return Options{
		SyncInterval:    5 * time.Minute,
		MaxSyncAttempts: 10,
		Now:             time.Now,
	}
}

// OfflineService is the engine: a single instance owns the store handle, the
// remote client and the scheduling state. Construct one per application (or
// per test) and pass it by reference; there is no package-level instance.
type OfflineService struct {
	store   *store.Store
	remote  remote.Client
	monitor *connectivity.Monitor
	log     logging.Logger

	now          func() time.Time
	syncInterval time.Duration
	maxAttempts  int

	// syncing guarantees at most one pass in flight.
	syncing atomic.Bool

	// mu guards the ticker lifecycle and the stopped flag; once stopped is
	// set, no new background work may register with wg.
	mu         sync.Mutex
	tickerStop chan struct{}
	stopped    bool

	runCtx context.Context
	wg     sync.WaitGroup
}

// New wires an engine from its collaborators.
func New(st *store.Store, rc remote.Client, mon *connectivity.Monitor, log logging.Logger, opts Options) *OfflineService {
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = DefaultOptions().SyncInterval
	}
	if opts.MaxSyncAttempts <= 0 {
		opts.MaxSyncAttempts = DefaultOptions().MaxSyncAttempts
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &OfflineService{
		store:        st,
		remote:       rc,
		monitor:      mon,
		log:          log.With("component", "engine"),
		now:          opts.Now,
		syncInterval: opts.SyncInterval,
		maxAttempts:  opts.MaxSyncAttempts,
	}
}

// Start hooks the engine into the connectivity monitor: regaining the signal
// triggers an immediate pass and (re)starts the periodic timer, losing it
// stops the timer. If the monitor is already online and sync-on-startup is
// configured, a pass runs right away.
//
// ctx bounds all background work started here; Stop waits for it to finish.
func (s *OfflineService) Start(ctx context.Context) error {
	s.runCtx = ctx

	s.monitor.Subscribe(func(online bool) {
		if online {
			s.startTicker()
			if !s.beginWork() {
				return
			}
			go func() {
				defer s.wg.Done()
				if err := s.runSync(s.runCtx, false); err != nil {
					s.log.Warn(s.runCtx, "sync after reconnect failed", "error", err)
				}
			}()
			return
		}
		s.stopTicker()
	})

	if s.monitor.Online() {
		s.startTicker()

		cfg, err := s.store.Settings.Get(ctx)
		if err != nil {
			return err
		}
		if cfg.SyncOnStartup {
			if err := s.runSync(ctx, false); err != nil {
				s.log.Warn(ctx, "startup sync failed", "error", err)
			}
		}
	}

	return nil
}

// Stop cancels the periodic timer, refuses any further background work and
// waits for what is already in flight. Monitor transitions delivered after
// Stop are ignored; the engine does not restart.
func (s *OfflineService) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.stopTickerLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

// beginWork registers a background goroutine with the engine's wait group.
// It refuses once Stop has begun, so a late monitor transition cannot race
// the final Wait.
func (s *OfflineService) beginWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	return true
}

// startTicker launches the periodic loop. Idempotent: a running ticker is
// left alone, so duplicate online signals cannot double-start it. No-op after
// Stop.
func (s *OfflineService) startTicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.tickerStop != nil {
		return
	}
	stop := make(chan struct{})
	s.tickerStop = stop
	s.wg.Add(1)
	go s.tickLoop(stop)
}

// stopTicker cancels the periodic loop synchronously. Idempotent.
func (s *OfflineService) stopTicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
}

func (s *OfflineService) stopTickerLocked() {
	if s.tickerStop == nil {
		return
	}
	close(s.tickerStop)
	s.tickerStop = nil
}

func (s *OfflineService) tickLoop(stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	ctx := s.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a tick racing the stop signal must not fire a pass
			select {
			case <-stop:
				return
			default:
			}

			if err := s.runSync(ctx, false); err != nil {
				s.log.Warn(ctx, "periodic sync failed", "error", err)
			}
			if _, err := s.CleanupExpiredCache(ctx); err != nil {
				s.log.Warn(ctx, "cache sweep failed", "error", err)
			}
		}
	}
}
