// Package ratelimit provides a fixed-window request limiter shared across
// server instances through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Counter increments the hit count of key within the current window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

type RedisCounter struct {
	rdb redis.Scripter
}

func NewRedisCounter(rdb redis.Scripter) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	ms := window.Milliseconds()
	if ms <= 0 {
		ms = time.Minute.Milliseconds()
	}
	res, err := fixedWindowScript.Run(ctx, c.rdb, []string{key}, ms).Result()
	if err != nil {
		return 0, err
	}
	switch v := res.(type) {
	case int64:
		return v, nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected redis script result type %T", res)
	}
}

type Limiter struct {
	counter Counter
	limit   int
	window  time.Duration
	prefix  string
}

func New(counter Counter, limit int, window time.Duration, prefix string) *Limiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &Limiter{counter: counter, limit: limit, window: window, prefix: prefix}
}

// Middleware rejects a client with 429 once it exceeds the limit within the
// window. Limiter backend errors let the request through.
func (l *Limiter) Middleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.prefix + ":" + c.ClientIP()
		count, err := l.counter.Incr(c.Request.Context(), key, l.window)
		if err != nil {
			if log != nil {
				log.WarnContext(c.Request.Context(), "rate limiter error", slog.Any("err", err))
			}
			c.Next()
			return
		}
		if count > int64(l.limit) {
			c.Header("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
