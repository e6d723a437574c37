package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qareel/backend/internal/db"
	"github.com/qareel/backend/internal/entitlements"
	"github.com/qareel/backend/internal/models"
)

// PostgresRecordingRepository provides PostgreSQL-backed persistence for
// uploaded recordings.
type PostgresRecordingRepository struct {
	pool db.Pool
}

// NewPostgresRecordingRepository constructs a recording repository backed by PostgreSQL.
func NewPostgresRecordingRepository(pool db.Pool) *PostgresRecordingRepository {
	return &PostgresRecordingRepository{pool: pool}
}

// Create persists a new recording row.
func (r *PostgresRecordingRepository) Create(ctx context.Context, recording models.Recording) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO recordings (
                id, suite_id, video_id, url, embed_url, title, description,
                thumbnail_url, privacy_status, playlist_id, playlist_url,
                size_bytes, archive_location, uploaded_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, recording.ID, recording.SuiteID, recording.VideoID, recording.URL,
		recording.EmbedURL, recording.Title, recording.Description,
		recording.ThumbnailURL, recording.PrivacyStatus, recording.PlaylistID,
		recording.PlaylistURL, recording.SizeBytes, recording.ArchiveLocation,
		recording.UploadedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert recording: %w", err)
	}

	return nil
}

// ListBySuite fetches recordings for a suite, newest first.
func (r *PostgresRecordingRepository) ListBySuite(ctx context.Context, suiteID string) ([]models.Recording, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, suite_id, video_id, url, embed_url, title, description,
               thumbnail_url, privacy_status, playlist_id, playlist_url,
               size_bytes, archive_location, uploaded_at
        FROM recordings
        WHERE suite_id = $1
        ORDER BY uploaded_at DESC
    `, suiteID)
	if err != nil {
		return nil, fmt.Errorf("select recordings by suite: %w", err)
	}
	defer rows.Close()

	var recordings []models.Recording
	for rows.Next() {
		var rec models.Recording
		if err := rows.Scan(&rec.ID, &rec.SuiteID, &rec.VideoID, &rec.URL,
			&rec.EmbedURL, &rec.Title, &rec.Description, &rec.ThumbnailURL,
			&rec.PrivacyStatus, &rec.PlaylistID, &rec.PlaylistURL,
			&rec.SizeBytes, &rec.ArchiveLocation, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}

	return recordings, nil
}

// PostgresProfileRepository loads entitlement inputs for users.
type PostgresProfileRepository struct {
	pool db.Pool
}

// NewPostgresProfileRepository constructs a profile repository backed by PostgreSQL.
func NewPostgresProfileRepository(pool db.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// FindByUserID fetches the entitlement profile for a user.
func (r *PostgresProfileRepository) FindByUserID(ctx context.Context, userID string) (entitlements.UserProfile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return entitlements.UserProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT user_id, account_type, user_type, organization_id,
               subscription_plan, subscription_status,
               subscription_start_date, subscription_end_date, created_at
        FROM user_profiles
        WHERE user_id = $1
    `, userID)

	var profile entitlements.UserProfile
	if err := row.Scan(&profile.UserID, &profile.AccountType, &profile.UserType,
		&profile.OrganizationID, &profile.SubscriptionPlan,
		&profile.SubscriptionStatus, &profile.SubscriptionStartDate,
		&profile.SubscriptionEndDate, &profile.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entitlements.UserProfile{}, ErrNotFound
		}
		return entitlements.UserProfile{}, fmt.Errorf("select profile by user: %w", err)
	}

	memberships, err := r.findMemberships(ctx, conn, userID)
	if err != nil {
		return entitlements.UserProfile{}, err
	}
	profile.Memberships = memberships

	return profile, nil
}

func (r *PostgresProfileRepository) findMemberships(ctx context.Context, conn *pgxpool.Conn, userID string) ([]entitlements.Membership, error) {
	rows, err := conn.Query(ctx, `
        SELECT organization_id, role
        FROM account_memberships
        WHERE user_id = $1
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("select memberships: %w", err)
	}
	defer rows.Close()

	var memberships []entitlements.Membership
	for rows.Next() {
		var m entitlements.Membership
		if err := rows.Scan(&m.OrganizationID, &m.Role); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}

	return memberships, nil
}

// PostgresAPIKeyRepository stores hashed API keys for CI callers.
type PostgresAPIKeyRepository struct {
	pool db.Pool
}

// NewPostgresAPIKeyRepository constructs an API key repository backed by PostgreSQL.
func NewPostgresAPIKeyRepository(pool db.Pool) *PostgresAPIKeyRepository {
	return &PostgresAPIKeyRepository{pool: pool}
}

// Create persists a new API key record.
func (r *PostgresAPIKeyRepository) Create(ctx context.Context, key models.APIKey) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO api_keys (key_id, secret_hash, label, user_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, key.KeyID, key.SecretHash, key.Label, key.UserID, key.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert api key: %w", err)
	}

	return nil
}

// FindByKeyID fetches an API key record by its public identifier.
func (r *PostgresAPIKeyRepository) FindByKeyID(ctx context.Context, keyID string) (models.APIKey, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.APIKey{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT key_id, secret_hash, label, user_id, created_at
        FROM api_keys
        WHERE key_id = $1
    `, keyID)

	var key models.APIKey
	if err := row.Scan(&key.KeyID, &key.SecretHash, &key.Label, &key.UserID, &key.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.APIKey{}, ErrNotFound
		}
		return models.APIKey{}, fmt.Errorf("select api key: %w", err)
	}

	return key, nil
}
