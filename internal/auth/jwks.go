package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const jwksCacheTTL = 5 * time.Minute

// JWKS is a JSON Web Key Set as served by the identity provider.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is a single Ed25519 public key entry.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Crv string `json:"crv"`
	X   string `json:"x"`
}

// JWKSClient fetches and caches the identity provider's key set and verifies
// bearer tokens against it.
type JWKSClient struct {
	jwksURL    string
	issuer     string
	audience   string
	httpClient *http.Client

	mu        sync.RWMutex
	jwks      *JWKS
	expiresAt time.Time
}

// NewJWKSClient builds a verifier for tokens issued by the given issuer for
// the given audience.
func NewJWKSClient(jwksURL, issuer, audience string) *JWKSClient {
	return &JWKSClient{
		jwksURL:  jwksURL,
		issuer:   issuer,
		audience: audience,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *JWKSClient) fetchJWKS(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create jwks request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks fetch failed with status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	return &jwks, nil
}

func (c *JWKSClient) getJWKS(ctx context.Context) (*JWKS, error) {
	c.mu.RLock()
	if c.jwks != nil && time.Now().Before(c.expiresAt) {
		jwks := c.jwks
		c.mu.RUnlock()
		return jwks, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.jwks != nil && time.Now().Before(c.expiresAt) {
		return c.jwks, nil
	}

	jwks, err := c.fetchJWKS(ctx)
	if err != nil {
		return nil, err
	}

	c.jwks = jwks
	c.expiresAt = time.Now().Add(jwksCacheTTL)

	return jwks, nil
}

func (c *JWKSClient) publicKey(ctx context.Context, kid string) (ed25519.PublicKey, error) {
	jwks, err := c.getJWKS(ctx)
	if err != nil {
		return nil, err
	}

	for _, key := range jwks.Keys {
		if key.Kid != kid {
			continue
		}
		if key.Kty != "OKP" || key.Crv != "Ed25519" {
			return nil, fmt.Errorf("key %s has unsupported type", kid)
		}
		raw, err := base64.RawURLEncoding.DecodeString(key.X)
		if err != nil {
			return nil, fmt.Errorf("decode public key %s: %w", kid, err)
		}
		return ed25519.PublicKey(raw), nil
	}

	return nil, fmt.Errorf("key with kid %s not found", kid)
}

// VerifyToken checks the signature, issuer, audience, and expiry of a bearer
// token and returns its subject.
func (c *JWKSClient) VerifyToken(ctx context.Context, tokenString string) (string, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("missing kid in token header")
		}
		return c.publicKey(ctx, kid)
	}

	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, keyFunc,
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}

	return subject, nil
}
