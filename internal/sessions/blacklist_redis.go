// Package sessions tracks revoked session tokens in Redis.
package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cms:revoked:"

// package-level Redis client used for revocation; nil disables it
var blacklistClient *redis.Client

// SetBlacklistClient configures the Redis client used for revocation.
// Passing nil turns revocation into a no-op.
func SetBlacklistClient(c *redis.Client) {
	blacklistClient = c
}

// Enabled reports whether a Redis client is configured.
func Enabled() bool { return blacklistClient != nil }

// tokens are stored by digest so raw credentials never land in Redis
func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// BlacklistAccessToken revokes token for ttl.
func BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if blacklistClient == nil || ttl <= 0 {
		return nil
	}
	return blacklistClient.Set(ctx, key(token), "1", ttl).Err()
}

// RevokeUntil revokes token until its expiry; already expired tokens are skipped.
func RevokeUntil(ctx context.Context, token string, expiresAt time.Time) error {
	return BlacklistAccessToken(ctx, token, time.Until(expiresAt))
}

// IsAccessTokenBlacklisted reports whether token has been revoked.
func IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if blacklistClient == nil {
		return false, nil
	}
	exists, err := blacklistClient.Exists(ctx, key(token)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
