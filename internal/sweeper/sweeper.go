// Package sweeper removes expired session and captcha keys on a cron
// schedule.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"golang.org/x/time/rate"

	"forumdb/pkg/logger"
	"forumdb/pkg/metrics"
	"forumdb/pkg/store/db"
	"forumdb/pkg/store/keys"
)

const defaultBatchSize = 1000

var ErrRunning = errors.New("sweep already running")

type Options struct {
	Namespaces []string
	Cron       string
	BatchSize  int
	RatePerSec float64 // committed batches per second; 0 is unthrottled
}

type Sweeper struct {
	store   *db.Store
	opts    Options
	limiter *rate.Limiter
	now     func() time.Time

	mu      sync.Mutex
	running bool
}

func New(store *db.Store, opts Options) (*Sweeper, error) {
	if len(opts.Namespaces) == 0 {
		return nil, fmt.Errorf("sweeper: no namespaces")
	}
	if !gronx.IsValid(opts.Cron) {
		return nil, fmt.Errorf("sweeper: invalid cron expression %q", opts.Cron)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	s := &Sweeper{store: store, opts: opts, now: time.Now}
	if opts.RatePerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return s, nil
}

// Run sweeps on every cron tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	logger.Info("sweeper_started", "cron", s.opts.Cron, "namespaces", s.opts.Namespaces)
	for {
		next, err := gronx.NextTickAfter(s.opts.Cron, s.now(), false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "cron", s.opts.Cron, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrRunning) && ctx.Err() == nil {
				logger.Error("sweeper_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("sweeper_stopped")
			return
		}
	}
}

// RunOnce sweeps at the current time unless another sweep is in progress.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return 0, ErrRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()
	return s.Sweep(ctx, s.now())
}

// Sweep deletes every expiring key whose expiry is before now. Keys that do
// not parse as expiring keys are left alone.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	total := 0
	for _, name := range s.opts.Namespaces {
		n, err := s.sweepNamespace(ctx, name, now)
		total += n
		if err != nil {
			return total, fmt.Errorf("sweep %s: %w", name, err)
		}
	}
	metrics.SweeperRuns.Inc()
	logger.Info("sweeper_run_done", "removed", total, "took", time.Since(start))
	return total, nil
}

func (s *Sweeper) sweepNamespace(ctx context.Context, name string, now time.Time) (int, error) {
	ns, err := s.store.Namespace(name)
	if err != nil {
		return 0, err
	}
	it, err := ns.Iterate(false)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	removed := 0
	b := s.store.NewBatch()
	defer func() { _ = b.Close() }()
	flush := func() error {
		n := b.Len()
		if n == 0 {
			return nil
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := b.Commit(); err != nil {
			return err
		}
		removed += n
		metrics.SweeperRemoved.WithLabelValues(name).Add(float64(n))
		b = s.store.NewBatch()
		return nil
	}

	// hex expiries are not padded, so key order is not expiry order and the
	// scan cannot stop early
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		parts, err := keys.ParseExpiring(it.Key())
		if err != nil {
			continue
		}
		if !parts.Expired(now) {
			continue
		}
		logger.Debug("sweeper_remove", "namespace", name, "id", parts.ID, "expired_at", parts.ExpiresAt)
		if err := b.Delete(ns, it.Key()); err != nil {
			return removed, err
		}
		if b.Len() >= s.opts.BatchSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := it.Err(); err != nil {
		return removed, err
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}
