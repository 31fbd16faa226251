// Package ratelimit throttles repeated login attempts per client.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTooManyAttempts = errors.New("too many attempts, please try again later")

// Limiter counts attempts per key inside a fixed window.
type Limiter interface {
	// Check records an attempt and returns ErrTooManyAttempts once the
	// key has exceeded its allowance for the current window.
	Check(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type RedisLimiter struct {
	redis       *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewRedisLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		redis:       client,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// incrWithWindow counts an attempt and arms the window in one round trip,
// so a key can never be left without a TTL.
var incrWithWindow = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

func (r *RedisLimiter) Check(ctx context.Context, key string) error {
	count, err := incrWithWindow.Run(ctx, r.redis, []string{attemptsKey(key)}, r.window.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("failed to count login attempt: %w", err)
	}

	if count > int64(r.maxAttempts) {
		return ErrTooManyAttempts
	}

	return nil
}

func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.redis.Del(ctx, attemptsKey(key)).Err()
}

func attemptsKey(key string) string {
	return fmt.Sprintf("admindash:login_attempts:%s", key)
}

// MemoryLimiter is the single-process fallback used when no Redis URL is configured.
type MemoryLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	windows map[string]*attemptWindow
}

type attemptWindow struct {
	count   int
	expires time.Time
}

func NewMemoryLimiter(maxAttempts int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		windows:     make(map[string]*attemptWindow),
	}
}

func (m *MemoryLimiter) Check(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.expires) {
		w = &attemptWindow{expires: now.Add(m.window)}
		m.windows[key] = w
	}

	w.count++
	if w.count > m.maxAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

func (m *MemoryLimiter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.windows, key)
	return nil
}

// Sweep drops expired windows.
func (m *MemoryLimiter) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, w := range m.windows {
		if !now.Before(w.expires) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// Noop never limits. Used when rate limiting is disabled.
type Noop struct{}

func (Noop) Check(context.Context, string) error { return nil }
func (Noop) Reset(context.Context, string) error { return nil }

// New picks the Redis limiter when a URL is given, the in-memory one otherwise.
func New(redisURL string, maxAttempts int, window time.Duration) (Limiter, *redis.Client, error) {
	if redisURL == "" {
		return NewMemoryLimiter(maxAttempts, window), nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	return NewRedisLimiter(client, maxAttempts, window), client, nil
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*MemoryLimiter)(nil)
	_ Limiter = Noop{}
)
