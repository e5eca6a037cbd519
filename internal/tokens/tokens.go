package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/karunyatrust/cms/internal/models"
	"github.com/karunyatrust/cms/pkg/middleware"
)

// DefaultTTL is the lifetime of an admin session token.
const DefaultTTL = 30 * 24 * time.Hour

// Issuer signs and verifies HS256 session tokens with a key fixed at startup.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A non-positive ttl selects DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("tokens: signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Generate creates a signed token for the user.
func (i *Issuer) Generate(u *models.User) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"id":       u.ID,
		"sub":      u.ID,
		"username": u.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(i.ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString(i.secret)
}

// Verify checks signature, algorithm and expiry of raw.
func (i *Issuer) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("tokens: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("tokens: unexpected claims type")
	}
	return &verified{claims: claims}, nil
}

type verified struct {
	claims jwt.MapClaims
}

func (v *verified) Claims(out interface{}) error {
	b, err := json.Marshal(v.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
