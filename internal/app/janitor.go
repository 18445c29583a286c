package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/gi8lino/ricefwboard/internal/cache"
	"github.com/gi8lino/ricefwboard/internal/middleware"
	"github.com/gi8lino/ricefwboard/internal/models"
)

// sessionPurger removes expired session tokens.
type sessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// janitor periodically drops expired sessions, cache entries and idle rate limit buckets.
type janitor struct {
	sessions sessionPurger
	pages    *cache.MemCache[models.ProjectPage]
	limiter  *middleware.IPRateLimiter // may be nil
	idle     time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// run sweeps once immediately and then every interval until ctx is canceled.
func (j *janitor) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *janitor) sweep(ctx context.Context) {
	now := time.Now
	if j.now != nil {
		now = j.now
	}

	n, err := j.sessions.PurgeExpiredSessions(ctx, now())
	if err != nil && ctx.Err() == nil {
		j.logger.Warn("purge expired sessions", "error", err)
	}

	var cached, buckets int
	if j.pages != nil {
		cached = j.pages.Purge()
	}
	if j.limiter != nil {
		buckets = j.limiter.Purge(j.idle)
	}

	if n > 0 || cached > 0 || buckets > 0 {
		j.logger.Debug("janitor sweep", "sessions", n, "cacheEntries", cached, "rateLimitBuckets", buckets)
	}
}
