// Package ratelimit provides a Redis-backed fixed-window request limiter.
// It guards the chat endpoint: every chat turn costs an AI completion, so an
// unthrottled scraper translates directly into provider spend.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key in fixed windows. A nil *Limiter allows
// everything, so callers don't need to branch on whether Redis is configured.
type Limiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	logger *slog.Logger
}

// New returns a Limiter allowing limit requests per window per key.
func New(rdb *redis.Client, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Allow reports whether the request identified by key may proceed. The
// limiter fails open: if Redis is unreachable the request is allowed and the
// error is logged, because dropping chat traffic on a cache outage is worse
// than briefly losing the throttle.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.rdb == nil {
		return true
	}

	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(l.window.Seconds()))

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Error("ratelimit: redis error, failing open", "error", err)
		return true
	}

	return incr.Val() <= int64(l.limit)
}
