package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"news_syncer/internal/domain"
)

// Syncer runs one content type.
type Syncer interface {
	Name() string
	Collection() string
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

// Locker guards a collection against overlapping runs from other processes.
type Locker interface {
	Acquire(ctx context.Context, name string) (func(context.Context) error, error)
}

type Scheduler struct {
	syncers    []Syncer
	interval   time.Duration
	runTimeout time.Duration
	locker     Locker
	logger     *slog.Logger
}

// NewScheduler creates a scheduler. locker may be nil.
func NewScheduler(syncers []Syncer, interval, runTimeout time.Duration, locker Locker, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncers:    syncers,
		interval:   interval,
		runTimeout: runTimeout,
		locker:     locker,
		logger:     logger,
	}
}

// RunOnce syncs every content type one after another. A failing content type
// does not stop the rest; failures are joined into the returned error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error
	for _, syncer := range s.syncers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", syncer.Name(), err))
			break
		}
		if err := s.runSync(ctx, syncer); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", syncer.Name(), err))
		}
	}

	return errors.Join(errs...)
}

// Start runs immediately and then on every tick until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "content_types", len(s.syncers))

	s.runPass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("sync pass failed", "error", err)
	}
}

// runSync bounds a single content type by runTimeout.
func (s *Scheduler) runSync(ctx context.Context, syncer Syncer) error {
	logger := s.logger.With("content_type", syncer.Name())

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, syncer.Collection())
		if err != nil {
			logger.Warn("skipping sync, run lock not acquired", "error", err)
			return fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			// ctx may already be done; the lock still has to go.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				logger.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	stats, err := syncer.Sync(ctx)
	if err != nil {
		logger.Error("sync failed", "error", err)
		return err
	}

	logger.Info("content type done",
		"gated", stats.Gated,
		"published", stats.Published,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)
	return nil
}
