package videohost

import (
	"context"
	"fmt"
	"log/slog"
)

// ChunkSize is the fixed transfer unit: 256 KiB, the smallest granularity the
// resumable protocol accepts.
const ChunkSize = 256 * 1024

// ProgressFunc observes transfer progress. uploaded is monotonically
// non-decreasing and equals total only on success.
type ProgressFunc func(uploaded, total int64)

// ChunkedUploader transfers a large binary to a resumable-upload session in
// strictly sequential chunks. Chunks are never sent in parallel: each PUT
// depends on the acknowledged offset of the previous one.
type ChunkedUploader struct {
	provider Provider
	tokens   *TokenManager
	logger   *slog.Logger
}

// NewChunkedUploader constructs an uploader over the given provider.
func NewChunkedUploader(provider Provider, tokens *TokenManager, logger *slog.Logger) *ChunkedUploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChunkedUploader{provider: provider, tokens: tokens, logger: logger}
}

// Upload initiates a session and streams the payload in ChunkSize ranges.
//
// Per-chunk responses: 308 advances the offset, 200/201 completes the
// transfer, 401 refreshes the token and fails with
// ErrTokenExpiredDuringUpload so the caller can restart from initiation.
// Anything else is a fatal UploadError carrying the offset reached.
func (u *ChunkedUploader) Upload(ctx context.Context, payload []byte, contentType string, meta UploadMetadata, progress ProgressFunc) (UploadResult, error) {
	total := int64(len(payload))
	if total == 0 {
		return UploadResult{}, &UploadError{Offset: 0, Message: "empty payload"}
	}

	sessionURL, err := u.provider.CreateSession(ctx, meta, total, contentType)
	if err != nil {
		return UploadResult{}, err
	}

	var uploaded int64
	report(progress, uploaded, total)

	for uploaded < total {
		end := uploaded + ChunkSize
		if end > total {
			end = total
		}

		outcome, err := u.provider.UploadChunk(ctx, sessionURL, payload[uploaded:end], uploaded, total)
		if err != nil {
			if isUnauthorized(err) {
				u.logger.Warn("token expired mid-upload, refreshing", "offset", uploaded, "total", total)
				if rerr := u.tokens.Refresh(ctx); rerr != nil {
					return UploadResult{}, rerr
				}
				return UploadResult{}, fmt.Errorf("at byte %d of %d: %w", uploaded, total, ErrTokenExpiredDuringUpload)
			}
			return UploadResult{}, err
		}

		if outcome.Complete {
			uploaded = total
			report(progress, uploaded, total)
			if outcome.Result == nil {
				return UploadResult{}, &UploadError{Offset: uploaded, Message: "host reported completion without resource metadata"}
			}
			u.logger.Info("upload complete", "videoId", outcome.Result.VideoID, "bytes", total)
			return *outcome.Result, nil
		}

		uploaded = end
		report(progress, uploaded, total)
	}

	// All bytes acknowledged with 308 but the host never confirmed the
	// finished resource.
	return UploadResult{}, &UploadError{Offset: uploaded, Message: "transfer ended without completion response"}
}

func report(progress ProgressFunc, uploaded, total int64) {
	if progress != nil {
		progress(uploaded, total)
	}
}
