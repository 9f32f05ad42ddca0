package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/daybook/internal/auth/metrics"
	"github.com/aussiebroadwan/daybook/internal/auth/store"
)

// HousekeepingService periodically removes expired sessions and clears
// expired reset tokens. It only ever touches rows that can no longer
// authorize anything.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval means one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to end it.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent; a failure in one does not
// stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := s.Now()

	sessions, err := s.Store.Sessions().DeleteExpired(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	} else {
		metrics.HousekeepingDeleted.WithLabelValues("sessions").Add(float64(sessions))
	}

	resets, err := s.Store.Users().ClearExpiredResetTokens(ctx, now)
	if err != nil {
		s.Logger.Error("failed to clear expired reset tokens", "error", err)
	} else {
		metrics.HousekeepingDeleted.WithLabelValues("reset_tokens").Add(float64(resets))
	}

	s.Logger.Info("housekeeping cleanup completed",
		"sessions_deleted", sessions,
		"reset_tokens_cleared", resets,
	)
}
