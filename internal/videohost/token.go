package videohost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultTokenEndpoint is Google's OAuth2 token endpoint used by the YouTube
// Data API. Tests override it via NewTokenManager.
const DefaultTokenEndpoint = "https://oauth2.googleapis.com/token"

// tokenExpiryMargin is subtracted from the provider-reported lifetime so the
// token is rotated before the host actually rejects it.
const tokenExpiryMargin = 60 * time.Second

// Credentials holds the three long-lived secrets required to mint access
// tokens for the video host.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// TokenManager maintains exactly one valid OAuth2 access token derived from a
// long-lived refresh token. It performs no retries of its own; callers decide
// whether to retry after a refresh failure.
type TokenManager struct {
	creds    Credentials
	endpoint string
	client   *http.Client
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenManager constructs a manager against the given token endpoint. An
// empty endpoint selects the default.
func NewTokenManager(creds Credentials, endpoint string) *TokenManager {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultTokenEndpoint
	}
	return &TokenManager{
		creds:    creds,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		now:      time.Now,
	}
}

// Configured reports whether all three secrets are present.
func (m *TokenManager) Configured() bool {
	return m.missing() == nil
}

func (m *TokenManager) missing() []string {
	var missing []string
	if strings.TrimSpace(m.creds.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(m.creds.ClientSecret) == "" {
		missing = append(missing, "client_secret")
	}
	if strings.TrimSpace(m.creds.RefreshToken) == "" {
		missing = append(missing, "refresh_token")
	}
	return missing
}

// IsTokenValid reports whether the current token exists and has not reached
// its (margin-adjusted) expiry. At exactly expiresAt the token is invalid.
func (m *TokenManager) IsTokenValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != "" && m.now().Before(m.expiresAt)
}

// AccessToken returns the current token without validating freshness. Call
// EnsureValidToken first.
func (m *TokenManager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// EnsureValidToken refreshes the access token only when none exists or the
// stored one has expired. Safe to call before every authenticated request.
func (m *TokenManager) EnsureValidToken(ctx context.Context) error {
	if m.IsTokenValid() {
		return nil
	}
	return m.Refresh(ctx)
}

// Refresh exchanges the refresh token for a fresh access token and records
// its expiry with a safety margin.
func (m *TokenManager) Refresh(ctx context.Context) error {
	if missing := m.missing(); missing != nil {
		return &ConfigError{Missing: missing}
	}

	form := url.Values{
		"client_id":     {m.creds.ClientID},
		"client_secret": {m.creds.ClientSecret},
		"refresh_token": {m.creds.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}

	var payload struct {
		AccessToken      string `json:"access_token"`
		ExpiresIn        int64  `json:"expires_in"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = json.Unmarshal(body, &payload)
		desc := payload.ErrorDescription
		if desc == "" {
			desc = payload.Error
		}
		if desc == "" {
			desc = strings.TrimSpace(string(body))
		}
		return &AuthError{Status: resp.StatusCode, Description: desc}
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return &AuthError{Status: resp.StatusCode, Description: "token endpoint returned no access_token"}
	}

	lifetime := time.Duration(payload.ExpiresIn)*time.Second - tokenExpiryMargin

	m.mu.Lock()
	m.token = payload.AccessToken
	m.expiresAt = m.now().Add(lifetime)
	m.mu.Unlock()

	return nil
}

// WithNowFunc overrides the time source for tests.
func (m *TokenManager) WithNowFunc(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// WithHTTPClient overrides the transport for tests.
func (m *TokenManager) WithHTTPClient(client *http.Client) {
	m.client = client
}
