package videohost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Defaults applied when the caller omits recording metadata fields.
const (
	DefaultCategoryID    = "28"
	DefaultPrivacy       = "private"
	DefaultUploadTimeout = 5 * time.Minute
)

var defaultTags = []string{"qa", "testing", "screen-recording"}

// RecordingMetadata is the caller-supplied description of a recording.
// SuiteID and SuiteName, when both present, select the playlist the upload is
// linked to.
type RecordingMetadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	PrivacyStatus string
	SuiteID       string
	SuiteName     string
}

// ServiceStatus summarizes upload-service readiness for health reporting.
type ServiceStatus struct {
	Initialized        bool `json:"initialized"`
	HasValidToken      bool `json:"hasValidToken"`
	HasCredentials     bool `json:"hasCredentials"`
	PlaylistsSupported bool `json:"playlistsSupported"`
}

// UploadOrchestrator composes the token manager, playlist catalog and chunked
// uploader into the single UploadRecording entry point.
type UploadOrchestrator struct {
	tokens   *TokenManager
	catalog  *PlaylistCatalog
	uploader *ChunkedUploader
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time

	// Progress, when set, observes chunk transfer progress.
	Progress ProgressFunc
}

// NewUploadOrchestrator wires the upload pipeline. A non-positive timeout
// selects the default overall deadline.
func NewUploadOrchestrator(tokens *TokenManager, catalog *PlaylistCatalog, uploader *ChunkedUploader, timeout time.Duration, logger *slog.Logger) *UploadOrchestrator {
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadOrchestrator{
		tokens:   tokens,
		catalog:  catalog,
		uploader: uploader,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Status reports service readiness for the GET side of the upload endpoint.
func (o *UploadOrchestrator) Status() ServiceStatus {
	return ServiceStatus{
		Initialized:        o.tokens != nil && o.uploader != nil,
		HasValidToken:      o.tokens != nil && o.tokens.IsTokenValid(),
		HasCredentials:     o.tokens != nil && o.tokens.Configured(),
		PlaylistsSupported: o.catalog != nil,
	}
}

// UploadRecording performs one complete upload: token check, optional
// playlist resolution (soft), chunked transfer (fatal on failure, restarted
// once after a mid-transfer token expiry), and optional playlist linkage
// (soft). Playlist failures never flip the overall result; a failed transfer
// always does.
func (o *UploadOrchestrator) UploadRecording(ctx context.Context, payload []byte, contentType string, meta RecordingMetadata) (UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.tokens.EnsureValidToken(ctx); err != nil {
		return UploadResult{}, err
	}

	var (
		playlist     PlaylistRecord
		havePlaylist bool
	)
	if meta.SuiteID != "" && meta.SuiteName != "" {
		record, err := o.catalog.GetOrCreate(ctx, meta.SuiteID,
			fmt.Sprintf("QA Recordings - %s", meta.SuiteName),
			fmt.Sprintf("Screen recordings captured for test suite %q", meta.SuiteName))
		if err != nil {
			o.logger.Warn("proceeding without playlist", "suiteId", meta.SuiteID, "error", err)
		} else {
			playlist = record
			havePlaylist = true
		}
	}

	upload := o.finalMetadata(meta)

	result, err := o.uploader.Upload(ctx, payload, contentType, upload, o.Progress)
	if errors.Is(err, ErrTokenExpiredDuringUpload) {
		// Token already refreshed by the uploader; restart from initiation,
		// at most once per call.
		o.logger.Info("restarting upload with refreshed token", "title", upload.Title)
		result, err = o.uploader.Upload(ctx, payload, contentType, upload, o.Progress)
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return UploadResult{}, &TimeoutError{Deadline: o.timeout}
		}
		return UploadResult{}, err
	}

	if havePlaylist {
		if err := o.catalog.AddItem(ctx, result.VideoID, playlist.ExternalID); err != nil {
			// The video is already stored; linkage failure stays soft.
			o.logger.Warn("playlist linkage failed", "videoId", result.VideoID, "playlistId", playlist.ExternalID, "error", err)
		}
		result.PlaylistID = playlist.ExternalID
		result.PlaylistURL = playlist.URL
	}

	return result, nil
}

func (o *UploadOrchestrator) finalMetadata(meta RecordingMetadata) UploadMetadata {
	upload := UploadMetadata{
		Title:         meta.Title,
		Description:   meta.Description,
		Tags:          meta.Tags,
		CategoryID:    meta.CategoryID,
		PrivacyStatus: meta.PrivacyStatus,
	}
	if upload.Title == "" {
		upload.Title = "QA Recording - " + o.now().Format("Jan 2, 2006 3:04 PM")
	}
	if upload.Description == "" {
		upload.Description = "Screen recording captured during a QA test session."
	}
	if len(upload.Tags) == 0 {
		upload.Tags = append([]string(nil), defaultTags...)
	}
	if upload.CategoryID == "" {
		upload.CategoryID = DefaultCategoryID
	}
	if upload.PrivacyStatus == "" {
		upload.PrivacyStatus = DefaultPrivacy
	}
	return upload
}

// WithNowFunc overrides the time source for tests.
func (o *UploadOrchestrator) WithNowFunc(now func() time.Time) {
	o.now = now
}
