// Package oidc verifies admin tokens issued by an external OpenID Connect
// provider (Keycloak) as an alternative to locally issued session tokens.
package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/karunyatrust/cms/pkg/middleware"
)

// Verifier wraps the OIDC provider and token verifier
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// IssuerURL returns the Keycloak realm issuer for baseURL and realm.
func IssuerURL(baseURL, realm string) string {
	return strings.TrimSuffix(baseURL, "/") + "/realms/" + realm
}

// NewVerifier discovers the provider at issuer and verifies tokens for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func newStaticVerifier(issuer, clientID string, keys oidc.KeySet) *Verifier {
	return &Verifier{verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID})}
}

// Verify checks raw against the provider keys and returns its claims with
// preferred_username exposed as username.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	if _, ok := claims["username"]; !ok {
		if pu, ok := claims["preferred_username"]; ok {
			claims["username"] = pu
		}
	}
	if _, ok := claims["id"]; !ok {
		claims["id"] = idToken.Subject
	}
	return claimsToken(claims), nil
}

type claimsToken map[string]interface{}

func (t claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(map[string]interface{}(t))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
