package app

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/qareel/backend/internal/auth"
	"github.com/qareel/backend/internal/config"
	"github.com/qareel/backend/internal/db"
	"github.com/qareel/backend/internal/event"
	"github.com/qareel/backend/internal/handlers"
	"github.com/qareel/backend/internal/metrics"
	"github.com/qareel/backend/internal/middleware"
	"github.com/qareel/backend/internal/repositories"
	"github.com/qareel/backend/internal/storage"
	"github.com/qareel/backend/internal/videohost"
)

// buildDependencies wires the upload pipeline, stores, and integrations into
// the handler dependency set. The returned cleanup releases the event
// publisher connection.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(), error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	tokens := videohost.NewTokenManager(videohost.Credentials{
		ClientID:     cfg.VideoHost.ClientID,
		ClientSecret: cfg.VideoHost.ClientSecret,
		RefreshToken: cfg.VideoHost.RefreshToken,
	}, cfg.VideoHost.TokenEndpoint)

	provider := videohost.NewYouTubeProvider(tokens)
	catalog := videohost.NewPlaylistCatalog(provider, tokens, logger)
	uploader := videohost.NewChunkedUploader(provider, tokens, logger)
	orchestrator := videohost.NewUploadOrchestrator(tokens, catalog, uploader, cfg.VideoHost.UploadTimeout, logger)
	// The uploader reports once per acknowledged chunk, plus an initial
	// zero-byte report at session start that must not be counted.
	orchestrator.Progress = func(uploaded, total int64) {
		if uploaded > 0 {
			m.UploadChunks.Inc()
		}
	}

	recordingRepo := repositories.NewPostgresRecordingRepository(pool)
	profileRepo := repositories.NewPostgresProfileRepository(pool)
	apiKeyRepo := repositories.NewPostgresAPIKeyRepository(pool)

	var tokenVerifier auth.TokenVerifier
	if cfg.Auth.JWKSURL != "" {
		tokenVerifier = auth.NewJWKSClient(cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience)
	} else {
		logger.Warn("no jwks url configured, bearer tokens disabled")
	}
	authenticator := auth.NewAuthenticator(tokenVerifier, auth.NewAPIKeyVerifier(apiKeyRepo))

	var archive handlers.ArchiveStore
	if cfg.Archive.Bucket != "" {
		store, err := storage.NewS3Archive(ctx, cfg.Archive)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		archive = store
	} else {
		logger.Warn("no archive bucket configured, recordings will not be archived")
	}

	publisher := event.NewPublisher(cfg.NATSURL, logger)
	cleanup := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("event publisher close failed", "error", err)
		}
	}

	limiter := middleware.NewIPRateLimiter(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
		cfg.RateLimit.Burst,
		cfg.RateLimit.ClientTTL,
	)

	return handlers.Dependencies{
		Uploader:       orchestrator,
		Recordings:     recordingRepo,
		Profiles:       profileRepo,
		Archive:        archive,
		Events:         publisher,
		Authenticator:  authenticator,
		UploadLimiter:  limiter,
		Metrics:        m,
		Registry:       registry,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, cleanup, nil
}
