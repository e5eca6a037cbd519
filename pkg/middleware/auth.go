package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/karunyatrust/cms/internal/sessions"
	"github.com/karunyatrust/cms/pkg/logger"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey = "claims"
	TokenKey  = "token"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

type chain []Verifier

// Chain returns a Verifier that accepts a token when any of vs accepts it.
// Nil verifiers are skipped.
func Chain(vs ...Verifier) Verifier {
	var c chain
	for _, v := range vs {
		if v != nil {
			c = append(c, v)
		}
	}
	if len(c) == 1 {
		return c[0]
	}
	return c
}

func (c chain) Verify(ctx context.Context, raw string) (Token, error) {
	if len(c) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	var errs []error
	for _, v := range c {
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using
// the provided verifier and rejects revoked tokens.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
			return
		}
		token, ok := BearerToken(auth)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, token failed", "details": err.Error()})
			return
		}

		revoked, err := sessions.IsAccessTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			logger.Errorf("revocation check failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token revocation check failed"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, token revoked"})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// Claims returns the claims stored by AuthMiddleware.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	cm, _ := v.(map[string]interface{})
	return cm
}

// subject picks the rate limit identity: the client IP, or the authenticated
// subject when the limiter runs after AuthMiddleware.
func subject(c *gin.Context) string {
	if sub, ok := Claims(c)["sub"].(string); ok && sub != "" {
		return "sub:" + sub
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
