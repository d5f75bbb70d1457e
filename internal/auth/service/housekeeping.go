package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oncreesaas/oncree/internal/auth/store"
)

// DefaultChallengeRetention is how long retired challenges are kept so a
// replayed code is still recognised as used or replaced.
const DefaultChallengeRetention = 24 * time.Hour

// HousekeepingService periodically expires overdue challenges and purges
// retired ones past the retention window.
type HousekeepingService struct {
	Store     store.Store
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given
// interval and retention. Non-positive values fall back to 1 hour and
// DefaultChallengeRetention.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = DefaultChallengeRetention
	}

	return &HousekeepingService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		Retention: retention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background(), time.Now())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background(), time.Now())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. The two steps are independent, a failure in one
// does not skip the other.
func (s *HousekeepingService) Cleanup(ctx context.Context, now time.Time) (expired, deleted int64) {
	var err error

	expired, err = s.Store.Challenges().ExpireOverdue(ctx, now)
	if err != nil {
		s.Logger.Error("failed to expire overdue challenges", "error", err)
	}

	deleted, err = s.Store.Challenges().DeleteRetired(ctx, now.Add(-s.Retention))
	if err != nil {
		s.Logger.Error("failed to delete retired challenges", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed", "expired", expired, "deleted", deleted)
	return expired, deleted
}
