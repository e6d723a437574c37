package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/qareel/backend/internal/auth"
	"github.com/qareel/backend/internal/entitlements"
	"github.com/qareel/backend/internal/logging"
	"github.com/qareel/backend/internal/repositories"
)

// EntitlementsHandler reports the authenticated user's effective plan,
// limits, and feature flags.
type EntitlementsHandler struct {
	profiles ProfileStore
	now      func() time.Time
}

// NewEntitlementsHandler wires the handler to its profile store.
func NewEntitlementsHandler(profiles ProfileStore) *EntitlementsHandler {
	return &EntitlementsHandler{profiles: profiles, now: time.Now}
}

// Handle implements GET /api/v1/entitlements.
func (h *EntitlementsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondError(ctx, w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	subject, ok := auth.SubjectFrom(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid credentials")
		return
	}

	profile, err := h.profiles.FindByUserID(ctx, subject)
	if err != nil {
		// Users without a stored profile get the signed-out defaults.
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusOK, entitlements.DefaultCapabilities())
			return
		}
		logging.FromContext(ctx).Error("load user profile", "userId", subject, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "STORAGE_FAILED", "could not load subscription profile")
		return
	}

	respondJSON(ctx, w, http.StatusOK, entitlements.Resolve(&profile, h.now()))
}
