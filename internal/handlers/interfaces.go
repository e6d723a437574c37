package handlers

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/qareel/backend/internal/auth"
	"github.com/qareel/backend/internal/entitlements"
	"github.com/qareel/backend/internal/metrics"
	"github.com/qareel/backend/internal/middleware"
	"github.com/qareel/backend/internal/models"
	"github.com/qareel/backend/internal/videohost"
)

// RecordingUploader drives the upload pipeline and reports its readiness.
type RecordingUploader interface {
	UploadRecording(ctx context.Context, payload []byte, contentType string, meta videohost.RecordingMetadata) (videohost.UploadResult, error)
	Status() videohost.ServiceStatus
}

// RecordingStore persists upload outcomes.
type RecordingStore interface {
	Create(ctx context.Context, recording models.Recording) error
	ListBySuite(ctx context.Context, suiteID string) ([]models.Recording, error)
}

// ProfileStore loads subscription profiles for entitlement resolution.
type ProfileStore interface {
	FindByUserID(ctx context.Context, userID string) (entitlements.UserProfile, error)
}

// ArchiveStore keeps a raw copy of each recording.
type ArchiveStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// EventPublisher announces finished uploads to downstream consumers.
type EventPublisher interface {
	PublishRecordingUploaded(ctx context.Context, recording models.Recording) error
}

// Dependencies bundles everything the route handlers need.
type Dependencies struct {
	Uploader       RecordingUploader
	Recordings     RecordingStore
	Profiles       ProfileStore
	Archive        ArchiveStore
	Events         EventPublisher
	Authenticator  *auth.Authenticator
	UploadLimiter  middleware.RateLimiter
	Metrics        *metrics.Metrics
	Registry       *prometheus.Registry
	MaxUploadBytes int64
}
