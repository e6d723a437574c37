// Package auth verifies the two credential types accepted by the API:
// bearer tokens issued by the identity provider and long-lived API keys used
// by CI integrations.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned when no acceptable credential accompanies a
// request.
var ErrUnauthorized = errors.New("auth: unauthorized")

type contextKey string

const subjectKey contextKey = "auth.subject"

// WithSubject stores the authenticated user ID on the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// SubjectFrom returns the authenticated user ID, if any.
func SubjectFrom(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok && subject != ""
}

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// Authenticator resolves the authenticated user from an incoming request,
// preferring a bearer token and falling back to an API key.
type Authenticator struct {
	tokens TokenVerifier
	keys   *APIKeyVerifier
}

// NewAuthenticator wires the authenticator to its verifiers. Either may be
// nil when that credential type is disabled.
func NewAuthenticator(tokens TokenVerifier, keys *APIKeyVerifier) *Authenticator {
	return &Authenticator{tokens: tokens, keys: keys}
}

// Authenticate extracts and verifies the request's credential, returning the
// user ID it belongs to.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" && a.tokens != nil {
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return "", ErrUnauthorized
		}
		subject, err := a.tokens.VerifyToken(r.Context(), token)
		if err != nil {
			return "", ErrUnauthorized
		}
		return subject, nil
	}

	if raw := r.Header.Get("X-API-Key"); raw != "" && a.keys != nil {
		return a.keys.Verify(r.Context(), raw)
	}

	return "", ErrUnauthorized
}
