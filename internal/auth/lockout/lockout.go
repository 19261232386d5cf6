// Package lockout throttles repeated failed logins per account using a
// fixed-window counter in Redis. It is advisory protection: when Redis is
// not configured the auth service runs without it.
package lockout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "porter:auth:lockout:"

// Limiter is the failed-login throttle consumed by the orchestrator.
type Limiter interface {
	// Allowed reports whether the account may attempt a login now.
	Allowed(ctx context.Context, email string) (bool, error)
	// RecordFailure counts one failed attempt in the current window.
	RecordFailure(ctx context.Context, email string) error
	// Clear resets the counter after a successful login.
	Clear(ctx context.Context, email string) error
}

// RedisLimiter counts failures in Redis with a TTL-bounded window.
type RedisLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
}

func NewRedis(rdb redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *RedisLimiter) Allowed(ctx context.Context, email string) (bool, error) {
	count, err := l.rdb.Get(ctx, keyFor(email)).Int()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return false, fmt.Errorf("read lockout counter: %w", err)
	}
	return count < l.limit, nil
}

func (l *RedisLimiter) RecordFailure(ctx context.Context, email string) error {
	key := keyFor(email)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("increment lockout counter: %w", err)
	}
	// First failure opens the window; later failures do not extend it.
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("set lockout window: %w", err)
		}
	}
	return nil
}

func (l *RedisLimiter) Clear(ctx context.Context, email string) error {
	if err := l.rdb.Del(ctx, keyFor(email)).Err(); err != nil {
		return fmt.Errorf("clear lockout counter: %w", err)
	}
	return nil
}

// keyFor hashes the email so raw addresses never land in Redis.
func keyFor(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return keyPrefix + hex.EncodeToString(sum[:])
}
