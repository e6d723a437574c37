package models

import "time"

// Recording stores the persisted outcome of a successful upload: the remote
// video identity plus the archive copy location.
type Recording struct {
	ID              string    `json:"id"`
	SuiteID         string    `json:"suiteId,omitempty"`
	VideoID         string    `json:"videoId"`
	URL             string    `json:"url"`
	EmbedURL        string    `json:"embedUrl"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	PrivacyStatus   string    `json:"privacyStatus"`
	PlaylistID      string    `json:"playlistId,omitempty"`
	PlaylistURL     string    `json:"playlistUrl,omitempty"`
	SizeBytes       int64     `json:"sizeBytes"`
	ArchiveLocation string    `json:"archiveLocation,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// APIKey authenticates CI and automation callers. Only the bcrypt hash of the
// secret half is stored.
type APIKey struct {
	KeyID      string    `json:"keyId"`
	SecretHash string    `json:"-"`
	Label      string    `json:"label"`
	UserID     string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}
