package session

import (
	"context"
	"log/slog"
	"time"
)

// Default reaper timings.
const (
	DefaultTimeout       = 30 * time.Minute
	DefaultSweepInterval = 15 * time.Minute
)

// Reaper periodically evicts sessions idle for longer than the timeout.
type Reaper struct {
	store    *Store
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewReaper creates a reaper for store. Non-positive durations fall back to
// the defaults.
func NewReaper(store *Store, interval, timeout time.Duration, logger *slog.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		store:    store,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// Run sweeps every interval until ctx is cancelled. It always returns nil so
// it can run under an errgroup without cancelling its siblings.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("session reaper started",
		slog.Duration("interval", r.interval),
		slog.Duration("timeout", r.timeout),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("session reaper stopped")
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep evicts every session whose last activity predates now - timeout.
func (r *Reaper) Sweep() int {
	cutoff := r.now().Add(-r.timeout)
	evicted := r.store.EvictIdle(cutoff)
	reaperSweeps.Inc()

	if evicted > 0 {
		r.logger.Info("evicted idle sessions",
			slog.Int("evicted", evicted),
			slog.Int("active_sessions", r.store.Len()),
		)
	} else {
		r.logger.Debug("reaper sweep found no idle sessions",
			slog.Int("active_sessions", r.store.Len()),
		)
	}
	return evicted
}
