package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottle limits failed login attempts per email.
type LoginThrottle interface {
	// Hit records a failed attempt and returns the count inside the
	// current window.
	Hit(ctx context.Context, email string) (int, error)
	// Count reads the current window's counter without recording an
	// attempt.
	Count(ctx context.Context, email string) (int, error)
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, email string) error
}

type redisThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewRedisLoginThrottle builds a Redis-backed throttle using an
// INCR+EXPIRE counter per email.
func NewRedisLoginThrottle(client *redis.Client, window time.Duration) LoginThrottle {
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &redisThrottle{client: client, window: window}
}

func (t *redisThrottle) key(email string) string {
	return fmt.Sprintf("login_attempts:%s", strings.ToLower(email))
}

func (t *redisThrottle) Hit(ctx context.Context, email string) (int, error) {
	key := t.key(email)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		// first failure starts the window
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return int(count), err
		}
	}
	return int(count), nil
}

func (t *redisThrottle) Count(ctx context.Context, email string) (int, error) {
	count, err := t.client.Get(ctx, t.key(email)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (t *redisThrottle) Reset(ctx context.Context, email string) error {
	return t.client.Del(ctx, t.key(email)).Err()
}

// noopThrottle disables throttling when Redis is not configured.
type noopThrottle struct{}

// NewNoopLoginThrottle returns a throttle that never blocks.
func NewNoopLoginThrottle() LoginThrottle {
	return noopThrottle{}
}

func (noopThrottle) Hit(context.Context, string) (int, error)   { return 0, nil }
func (noopThrottle) Count(context.Context, string) (int, error) { return 0, nil }
func (noopThrottle) Reset(context.Context, string) error        { return nil }
