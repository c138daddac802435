package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sqlscribe/sqlscribe/internal/domain"
)

// minCleanupInterval keeps a frequently ticking scheduler from sweeping the
// stores more than once a day.
const minCleanupInterval = 24 * time.Hour

// Cleaner evicts sessions and history entries older than the retention
// window. It runs on its own schedule from the composition root; the query
// pipeline never triggers or observes eviction.
type Cleaner struct {
	historyRepo domain.HistoryRepository
	sessionRepo domain.SessionRepository
	maxAge      time.Duration

	mu      sync.Mutex
	lastRun time.Time
}

// NewCleaner creates a retention cleaner with the given maximum entry age.
func NewCleaner(historyRepo domain.HistoryRepository, sessionRepo domain.SessionRepository, maxAge time.Duration) *Cleaner {
	return &Cleaner{
		historyRepo: historyRepo,
		sessionRepo: sessionRepo,
		maxAge:      maxAge,
	}
}

// Run performs one sweep if a day has passed since the previous one.
// Eviction is idempotent, so running again after a restart is harmless.
func (c *Cleaner) Run(ctx context.Context) {
	c.mu.Lock()
	if time.Since(c.lastRun) < minCleanupInterval {
		c.mu.Unlock()
		return
	}
	c.lastRun = time.Now()
	c.mu.Unlock()

	cutoff := time.Now().Add(-c.maxAge)

	historyDeleted, err := c.historyRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to evict old history entries")
	}
	sessionsDeleted, err := c.sessionRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to evict old sessions")
	}

	if historyDeleted > 0 || sessionsDeleted > 0 {
		log.Info().
			Int64("history_deleted", historyDeleted).
			Int64("sessions_deleted", sessionsDeleted).
			Time("cutoff", cutoff).
			Msg("retention sweep complete")
	}
}

// Start runs sweeps on the given interval until the context is cancelled.
// One sweep runs immediately on startup.
func (c *Cleaner) Start(ctx context.Context, interval time.Duration) {
	c.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Run(ctx)
		}
	}
}
