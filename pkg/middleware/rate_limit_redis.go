package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/pkg/logger"
	"github.com/karunyatrust/cms/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "cms:rl:"

// RedisRateLimitMiddleware counts requests per client in fixed windows stored
// in Redis, so every instance behind one Redis shares the budget. A window
// admits rps*window+burst requests. Without a client it falls back to
// RateLimitMiddleware.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(rps, burst)
	}
	if window < time.Second {
		window = time.Second
	}
	window = window.Truncate(time.Second)
	budget := int64(rps*window.Seconds()) + int64(burst)

	return func(c *gin.Context) {
		now := time.Now()
		start := now.Truncate(window)
		key := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, subject(c), start.Unix())

		ctx := c.Request.Context()
		var incr *redis.IntCmd
		_, err := client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			incr = p.Incr(ctx, key)
			p.Expire(ctx, key, window+time.Second)
			return nil
		})
		if err != nil {
			logger.Errorf("rate limit: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			return
		}
		if incr.Val() > budget {
			tooManyRequests(c, "redis", start.Add(window).Sub(now))
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
