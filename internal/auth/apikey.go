package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/qareel/backend/internal/models"
	"github.com/qareel/backend/internal/repositories"
)

// APIKeyStore looks up stored API keys by their public identifier.
type APIKeyStore interface {
	FindByKeyID(ctx context.Context, keyID string) (models.APIKey, error)
}

// APIKeyVerifier checks "keyID.secret" credentials presented in the
// X-API-Key header against bcrypt hashes in the store.
type APIKeyVerifier struct {
	store APIKeyStore
}

// NewAPIKeyVerifier wires a verifier to its key store.
func NewAPIKeyVerifier(store APIKeyStore) *APIKeyVerifier {
	return &APIKeyVerifier{store: store}
}

// Verify validates a raw API key and returns the owning user ID.
func (v *APIKeyVerifier) Verify(ctx context.Context, raw string) (string, error) {
	keyID, secret, found := strings.Cut(raw, ".")
	if !found || keyID == "" || secret == "" {
		return "", ErrUnauthorized
	}

	key, err := v.store.FindByKeyID(ctx, keyID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("look up api key: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(secret)); err != nil {
		return "", ErrUnauthorized
	}

	return key.UserID, nil
}

// HashSecret produces the bcrypt hash stored alongside a newly issued key.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key secret: %w", err)
	}
	return string(hash), nil
}
