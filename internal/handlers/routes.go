package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qareel/backend/internal/middleware"
)

// RegisterRoutes mounts all HTTP endpoints on the provided mux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	recordings := NewRecordingsHandler(deps)
	entitlements := NewEntitlementsHandler(deps.Profiles)

	requireAuth := middleware.RequireAuth(deps.Authenticator)

	var recordingsHandler http.Handler = http.HandlerFunc(recordings.Handle)
	if deps.UploadLimiter != nil {
		recordingsHandler = middleware.RateLimit(deps.UploadLimiter)(recordingsHandler)
	}

	mux.Handle("/api/v1/recordings", requireAuth(recordingsHandler))
	mux.Handle("/api/v1/recordings/list", requireAuth(http.HandlerFunc(recordings.HandleList)))
	mux.Handle("/api/v1/entitlements", requireAuth(http.HandlerFunc(entitlements.Handle)))

	mux.HandleFunc("/healthz", HealthHandler{}.Handle)

	if deps.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
}
