package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/pkg/metrics"
	"golang.org/x/time/rate"
)

// limiterSet hands out one token bucket per client key.
type limiterSet struct {
	rps   rate.Limit
	burst int
	m     sync.Map // key -> *rate.Limiter
}

func (s *limiterSet) get(key string) *rate.Limiter {
	if v, ok := s.m.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := s.m.LoadOrStore(key, rate.NewLimiter(s.rps, s.burst))
	return v.(*rate.Limiter)
}

// RateLimitMiddleware limits each client to rps requests per second with
// bursts of up to burst. Clients are keyed by IP unless the middleware is
// mounted after AuthMiddleware, in which case the token subject is used.
// Limiters are not shared between calls.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	set := &limiterSet{rps: rate.Limit(rps), burst: burst}

	return func(c *gin.Context) {
		res := set.get(subject(c)).Reserve()
		if !res.OK() {
			tooManyRequests(c, "memory", time.Second)
			return
		}
		if wait := res.Delay(); wait > 0 {
			res.Cancel()
			tooManyRequests(c, "memory", wait)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

// tooManyRequests rejects with 429 and a whole-second Retry-After.
func tooManyRequests(c *gin.Context, limiter string, retry time.Duration) {
	secs := int(math.Ceil(retry.Seconds()))
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
	metrics.RateLimitRejected.WithLabelValues(limiter).Inc()
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later"})
}
