// README: Rate limiters for the public prediction endpoint.
package infra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const rateLimitWindow = time.Minute

// RedisLimiter counts requests per key in fixed one-minute windows shared by
// every replica.
type RedisLimiter struct {
	redis *redis.Client
	limit int
	now   func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, requestsPerMinute int) *RedisLimiter {
	return &RedisLimiter{redis: rdb, limit: requestsPerMinute, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := l.now().Unix() / int64(rateLimitWindow/time.Second)
	redisKey := fmt.Sprintf("farcal:ratelimit:%s:%d", key, window)

	pipe := l.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*rateLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.limit), nil
}

// LocalLimiter keeps one token bucket per key in process memory. Buckets idle
// long enough to have refilled are dropped, since a fresh bucket behaves the
// same.
type LocalLimiter struct {
	mu        sync.Mutex
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	buckets   map[string]*bucket
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(requestsPerMinute, burst int) *LocalLimiter {
	if burst < 1 {
		burst = 1
	}
	every := rate.Limit(float64(requestsPerMinute) / rateLimitWindow.Seconds())
	idleTTL := rateLimitWindow
	if every > 0 {
		if refill := time.Duration(float64(burst) / float64(every) * float64(time.Second)); refill > idleTTL {
			idleTTL = refill
		}
	}
	return &LocalLimiter{
		every:     every,
		burst:     burst,
		idleTTL:   idleTTL,
		lastSweep: time.Now(),
		buckets:   make(map[string]*bucket),
		now:       time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// sweep drops buckets not seen for idleTTL. Callers hold l.mu.
func (l *LocalLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= l.idleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}
