package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed logins per username in a fixed window.
type LoginLimiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

func NewLoginLimiter(rdb *redis.Client, max int64, window time.Duration) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, max: max, window: window}
}

func failKey(username string) string {
	return fmt.Sprintf("app:login_fail:%s", strings.ToLower(strings.TrimSpace(username)))
}

// Blocked reports whether username used up its failures for the window.
func (l *LoginLimiter) Blocked(ctx context.Context, username string) (bool, error) {
	n, err := l.rdb.Get(ctx, failKey(username)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= l.max, nil
}

// Fail records one failed attempt. The window starts at the first failure.
func (l *LoginLimiter) Fail(ctx context.Context, username string) error {
	k := failKey(username)
	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return l.rdb.Expire(ctx, k, l.window).Err()
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, username string) error {
	return l.rdb.Del(ctx, failKey(username)).Err()
}
