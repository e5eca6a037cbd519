package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func hit(r *gin.Engine, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w.Code
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2))
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/ok"))
	require.Equal(t, http.StatusOK, hit(r, "/ok"))
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/limited"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/limited"))

	// one token is back after 0.5s
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, hit(r, "/limited"))
}

func TestRateLimitMiddleware_UsesSubjectWhenPresent(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ClaimsKey, map[string]interface{}{"sub": c.Query("sub")})
		c.Next()
	})
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, hit(r, "/u?sub=user-123"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/u?sub=user-123"))
	// a different subject from the same address has its own bucket
	require.Equal(t, http.StatusOK, hit(r, "/u?sub=user-456"))
}

func TestRateLimitMiddleware_InstancesAreIndependent(t *testing.T) {
	r := gin.New()
	r.GET("/a", RateLimitMiddleware(0.5, 1), func(c *gin.Context) { c.Status(200) })
	r.GET("/b", RateLimitMiddleware(0.5, 1), func(c *gin.Context) { c.Status(200) })

	require.Equal(t, http.StatusOK, hit(r, "/a"))
	require.Equal(t, http.StatusOK, hit(r, "/b"))
	require.Equal(t, http.StatusTooManyRequests, hit(r, "/a"))
}

func TestRateLimitMiddleware_RetryAfter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(0.25, 1))
	r.GET("/slow", func(c *gin.Context) { c.Status(200) })

	require.Equal(t, http.StatusOK, hit(r, "/slow"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/slow", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	// next token arrives in about 4s
	require.Contains(t, []string{"3", "4"}, w.Header().Get("Retry-After"))
	require.JSONEq(t, `{"error":"Too many requests, please try again later"}`, w.Body.String())
}
