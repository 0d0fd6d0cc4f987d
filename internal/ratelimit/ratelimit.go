// Package ratelimit implements a fixed-window request counter on
// Redis. One INCR per call; the first hit in a window sets the expiry.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

type Limiter struct {
	client *redisv9.Client
	limit  int
	window time.Duration
}

func NewLimiter(client *redisv9.Client, limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow reports whether the caller identified by id may proceed in the
// current window.
func (l *Limiter) Allow(ctx context.Context, id string) (bool, error) {
	key := l.windowKey(id)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr rate counter failed: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("redis expire rate counter failed: %w", err)
		}
	}
	return count <= int64(l.limit), nil
}

func (l *Limiter) windowKey(id string) string {
	bucket := time.Now().Unix() / int64(l.window.Seconds())
	return fmt.Sprintf("ratelimit:generate:%s:%d", id, bucket)
}
