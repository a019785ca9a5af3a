// Package sweeper deletes photo objects that were uploaded through a
// presigned URL but never attached to an account.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/creciendojuntos/backoffice/internal/observability"
)

type PendingUploads interface {
	Expired(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	Confirm(ctx context.Context, key string) error
	Postpone(ctx context.Context, key string) error
}

// PhotoReferences answers whether any account in one collection points at key.
type PhotoReferences interface {
	HasPhotoKey(ctx context.Context, key string) (bool, error)
}

type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Interval  time.Duration
	Grace     time.Duration
	BatchSize int
}

type Sweeper struct {
	cfg     Config
	pending PendingUploads
	refs    []PhotoReferences
	objects ObjectDeleter

	log   *slog.Logger
	prom  *observability.Prom
	stats *observability.SweepStats
	now   func() time.Time

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, pending PendingUploads, objects ObjectDeleter, log *slog.Logger, prom *observability.Prom, refs ...PhotoReferences) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Grace <= 0 {
		cfg.Grace = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if log == nil {
		log = slog.Default()
	}

	return &Sweeper{
		cfg:     cfg,
		pending: pending,
		refs:    refs,
		objects: objects,
		log:     log,
		prom:    prom,
		stats:   observability.NewSweepStats(),
		now:     time.Now,
	}
}

func (s *Sweeper) Stats() observability.SweepStatsSnapshot {
	return s.stats.Snapshot()
}

func (s *Sweeper) setReady(v bool) {
	s.readyMu.Lock()
	s.ready = v
	s.readyMu.Unlock()
}

func (s *Sweeper) isReady() bool {
	s.readyMu.RLock()
	defer s.readyMu.RUnlock()
	return s.ready
}

// Run sweeps once per interval until ctx is cancelled. A sweep that fails as
// a whole delays the next attempt with exponential backoff.
func (s *Sweeper) Run(ctx context.Context) error {
	s.setReady(true)
	defer s.setReady(false)

	s.log.Info("sweeper started", "interval", s.cfg.Interval.String(), "grace", s.cfg.Grace.String())

	failures := 0
	wait := time.Duration(0)

	for {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("sweeper received shutdown signal")
			return nil
		case <-timer.C:
		}

		_, err := s.SweepOnce(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			wait = ExponentialBackoff(failures)
			failures++
			s.log.Error("sweep failed", "err", err, "retry_in", wait.String())
			continue
		}

		failures = 0
		wait = s.cfg.Interval
	}
}

type Result struct {
	Deleted int
	Kept    int
	Failed  int
}

// SweepOnce handles one batch of expired pending keys. Referenced keys are
// only dropped from the registry; unreferenced ones are deleted from the
// bucket first. A key whose check or delete fails stays pending but is
// postponed, so it cannot hold the head of the queue.
func (s *Sweeper) SweepOnce(ctx context.Context) (Result, error) {
	start := s.now()
	var res Result

	keys, err := s.pending.Expired(ctx, start.Add(-s.cfg.Grace), s.cfg.BatchSize)
	if err != nil {
		s.prom.ObserveSweep("error", 0, 0, 0)
		return res, err
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		referenced, err := s.referenced(ctx, key)
		if err != nil {
			res.Failed++
			s.log.WarnContext(ctx, "photo reference check failed", "key", key, "err", err)
			s.postpone(ctx, key)
			continue
		}

		if !referenced {
			if err := s.objects.Delete(ctx, key); err != nil {
				res.Failed++
				s.log.WarnContext(ctx, "orphan delete failed", "key", key, "err", err)
				s.postpone(ctx, key)
				continue
			}
		}

		if err := s.pending.Confirm(ctx, key); err != nil {
			res.Failed++
			s.log.WarnContext(ctx, "registry cleanup failed", "key", key, "err", err)
			continue
		}

		if referenced {
			res.Kept++
		} else {
			res.Deleted++
			s.log.InfoContext(ctx, "orphan photo deleted", "key", key)
		}
	}

	s.stats.Record(res.Deleted, res.Kept, res.Failed, s.now().Sub(start))
	s.prom.ObserveSweep("ok", res.Deleted, res.Kept, res.Failed)
	return res, nil
}

func (s *Sweeper) postpone(ctx context.Context, key string) {
	if err := s.pending.Postpone(ctx, key); err != nil {
		s.log.WarnContext(ctx, "registry postpone failed", "key", key, "err", err)
	}
}

func (s *Sweeper) referenced(ctx context.Context, key string) (bool, error) {
	for _, r := range s.refs {
		ok, err := r.HasPhotoKey(ctx, key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
