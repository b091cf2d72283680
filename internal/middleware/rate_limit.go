// internal/middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/javajoker/marketplace-backend/internal/utils"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a token bucket per key, held in process.
type MemoryLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
	ttl      time.Duration
}

func NewMemoryLimiter(perMinute, burst int) *MemoryLimiter {
	if burst < 1 {
		burst = 1
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		ttl:      3 * time.Minute,
	}
}

func (rl *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return rl.getVisitor(key).Allow(), nil
}

func (rl *MemoryLimiter) getVisitor(key string) *rate.Limiter {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	now := time.Now()
	v, exists := rl.visitors[key]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[key] = &visitor{limiter, now}
		return limiter
	}

	v.lastSeen = now
	return v.limiter
}

// Cleanup drops idle visitors every minute until ctx is done.
func (rl *MemoryLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle(time.Now())
		}
	}
}

func (rl *MemoryLimiter) evictIdle(now time.Time) {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, key)
		}
	}
}

// RedisLimiter is a fixed one-minute window shared by every instance.
type RedisLimiter struct {
	client    *redis.Client
	prefix    string
	perMinute int
	now       func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, perMinute int) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		prefix:    prefix,
		perMinute: perMinute,
		now:       time.Now,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := rl.now().Unix() / 60
	redisKey := fmt.Sprintf("%s:%s:%s", rl.prefix, key, strconv.FormatInt(window, 10))

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}

	return incr.Val() <= int64(rl.perMinute), nil
}

// RateLimit rejects callers over the limit with 429. Keys are the client IP
// within scope. A failing limiter lets traffic through.
func RateLimit(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			logrus.WithError(err).WithField("scope", scope).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		if !allowed {
			utils.TooManyRequestsResponse(c)
			return
		}

		c.Next()
	}
}
