package videohost

import (
	"context"
	"time"
)

// UploadMetadata describes a recording prior to transfer.
type UploadMetadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
}

// UploadResult is produced once per successful upload and returned to the
// caller for persistence. It is never mutated after creation.
type UploadResult struct {
	VideoID       string    `json:"videoId"`
	URL           string    `json:"url"`
	EmbedURL      string    `json:"embedUrl"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	PrivacyStatus string    `json:"privacyStatus"`
	UploadedAt    time.Time `json:"uploadedAt"`
	PlaylistID    string    `json:"playlistId,omitempty"`
	PlaylistURL   string    `json:"playlistUrl,omitempty"`
}

// Collection is a remote grouping of uploaded recordings, e.g. a playlist.
type Collection struct {
	ExternalID  string
	Title       string
	Description string
	URL         string
}

// ChunkOutcome reports the host's acknowledgement of a single chunk PUT.
// Complete is false while the host expects further chunks; when true, Result
// carries the finished resource metadata.
type ChunkOutcome struct {
	Complete bool
	Result   *UploadResult
}

// Provider is the narrow surface a remote video host must expose. Keeping the
// host-specific request and response shapes behind this interface lets the
// catalog and uploader logic run against any resumable-upload host.
type Provider interface {
	// CreateSession initiates a resumable upload and returns the session URL
	// that accepts sequential byte-range PUTs.
	CreateSession(ctx context.Context, meta UploadMetadata, totalBytes int64, contentType string) (string, error)

	// UploadChunk transfers the byte range [offset, offset+len(chunk)) of a
	// payload of totalBytes to the session.
	UploadChunk(ctx context.Context, sessionURL string, chunk []byte, offset, totalBytes int64) (ChunkOutcome, error)

	// CreateCollection creates a private collection with the given title.
	CreateCollection(ctx context.Context, title, description string) (Collection, error)

	// VerifyCollection reports whether the collection still exists remotely.
	VerifyCollection(ctx context.Context, externalID string) (bool, error)

	// AddToCollection attaches an uploaded item to a collection.
	AddToCollection(ctx context.Context, itemID, collectionID string) error
}
