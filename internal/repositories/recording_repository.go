package repositories

import (
	"context"

	"github.com/qareel/backend/internal/models"
)

// RecordingRepository exposes data access for uploaded recordings.
type RecordingRepository interface {
	Create(ctx context.Context, recording models.Recording) error
	ListBySuite(ctx context.Context, suiteID string) ([]models.Recording, error)
}
