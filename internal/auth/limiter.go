package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts failed logins per email in Redis and locks the address once
// the count reaches max within the window. A nil Limiter never locks.
type Limiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func NewLimiter(rdb *redis.Client, max int, window time.Duration) *Limiter {
	if rdb == nil || max <= 0 || window <= 0 {
		return nil
	}
	return &Limiter{rdb: rdb, max: max, window: window}
}

func failureKey(email string) string {
	return "login:fail:" + email
}

func (l *Limiter) Locked(ctx context.Context, email string) (bool, error) {
	if l == nil {
		return false, nil
	}
	count, err := l.rdb.Get(ctx, failureKey(email)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= l.max, nil
}

// Fail records one failed attempt. The window starts at the first failure.
func (l *Limiter) Fail(ctx context.Context, email string) error {
	if l == nil {
		return nil
	}
	key := failureKey(email)
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return l.rdb.Expire(ctx, key, l.window).Err()
	}
	return nil
}

func (l *Limiter) Reset(ctx context.Context, email string) error {
	if l == nil {
		return nil
	}
	return l.rdb.Del(ctx, failureKey(email)).Err()
}
