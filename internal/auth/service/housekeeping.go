package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/worklog/internal/auth/store"
)

// sweepTimeout bounds a single cleanup so a stuck database cannot hold
// up shutdown.
const sweepTimeout = 30 * time.Second

// HousekeepingService clears expired password reset tokens on a timer.
// Expired tokens are already refused on use; sweeping them keeps dead
// token hashes out of the users table.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Metrics  *Metrics
	Now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour.
func NewHousekeepingService(s store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HousekeepingService{Store: s, Logger: logger, Interval: interval}
}

// Start sweeps once immediately and then every Interval until Stop.
// Calling Start on a running service does nothing.
func (s *HousekeepingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop waits for an in-flight sweep to finish. It is safe to call on a
// service that was never started.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *HousekeepingService) sweep(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, sweepTimeout)
	defer cancel()
	s.Cleanup(ctx)
}

// Cleanup clears reset tokens that expired at or before now and returns
// how many it cleared.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	n, err := s.Store.Users().DeleteExpiredPasswordResetTokens(ctx, now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.Logger.Error("failed to clear expired reset tokens", "error", err)
		}
		return 0
	}

	s.Metrics.expiredCleared(n)
	if n > 0 {
		s.Logger.Info("cleared expired reset tokens", "count", n)
	}
	return n
}
