package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/qareel/backend/internal/logging"
	"github.com/qareel/backend/internal/metrics"
	"github.com/qareel/backend/internal/models"
	"github.com/qareel/backend/internal/videohost"
)

// multipartMemoryLimit bounds how much of an upload stays in memory during
// form parsing; the remainder spills to temp files.
const multipartMemoryLimit = 32 << 20

// RecordingsHandler serves the recording upload endpoint and the per-suite
// listing.
type RecordingsHandler struct {
	uploader   RecordingUploader
	recordings RecordingStore
	archive    ArchiveStore
	events     EventPublisher
	metrics    *metrics.Metrics
	maxBytes   int64
	now        func() time.Time
}

// NewRecordingsHandler wires the handler to the upload pipeline and its
// supporting stores. Archive and events may be nil when those integrations
// are disabled.
func NewRecordingsHandler(deps Dependencies) *RecordingsHandler {
	return &RecordingsHandler{
		uploader:   deps.Uploader,
		recordings: deps.Recordings,
		archive:    deps.Archive,
		events:     deps.Events,
		metrics:    deps.Metrics,
		maxBytes:   deps.MaxUploadBytes,
		now:        time.Now,
	}
}

// Handle implements POST and GET /api/v1/recordings.
func (h *RecordingsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleUpload(w, r)
	case http.MethodGet:
		// Status is a bare object, not the data envelope: it describes the
		// service itself rather than the outcome of an operation.
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h.uploader.Status()); err != nil {
			logging.FromContext(r.Context()).Error("write status response", "error", err)
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		respondError(r.Context(), w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (h *RecordingsHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "recording_upload")
	defer span.End()
	logger := logging.FromContext(ctx)

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "VALIDATION_FAILED", "expected multipart form with a video file")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "VALIDATION_FAILED", "missing video file")
		return
	}
	defer file.Close()

	meta, err := parseRecordingMetadata([]byte(r.FormValue("metadata")))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "VALIDATION_FAILED", "could not read video file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	recordingID := uuid.NewString()
	archiveLocation := h.archiveRecording(r, meta.SuiteID, recordingID, header.Filename, payload)

	start := h.now()
	result, err := h.uploader.UploadRecording(ctx, payload, contentType, videohost.RecordingMetadata{
		Title:         meta.Title,
		Description:   meta.Description,
		Tags:          meta.Tags,
		CategoryID:    meta.CategoryID,
		PrivacyStatus: meta.Privacy,
		SuiteID:       meta.SuiteID,
		SuiteName:     meta.SuiteName,
	})
	if err != nil {
		code := videohost.ErrorCode(err)
		if h.metrics != nil {
			h.metrics.UploadsTotal.WithLabelValues(code).Inc()
		}
		logger.Error("recording upload failed", "code", code, "error", err)
		respondError(ctx, w, uploadErrorStatus(code), code, err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.UploadsTotal.WithLabelValues("OK").Inc()
		h.metrics.UploadDuration.Observe(h.now().Sub(start).Seconds())
		h.metrics.UploadBytes.Add(float64(len(payload)))
	}

	recording := models.Recording{
		ID:              recordingID,
		SuiteID:         meta.SuiteID,
		VideoID:         result.VideoID,
		URL:             result.URL,
		EmbedURL:        result.EmbedURL,
		Title:           result.Title,
		Description:     result.Description,
		ThumbnailURL:    result.ThumbnailURL,
		PrivacyStatus:   result.PrivacyStatus,
		PlaylistID:      result.PlaylistID,
		PlaylistURL:     result.PlaylistURL,
		SizeBytes:       int64(len(payload)),
		ArchiveLocation: archiveLocation,
		UploadedAt:      result.UploadedAt,
	}

	// The video is already live on the host; persistence and event failures
	// stay soft so the caller still receives the upload result.
	if h.recordings != nil {
		if err := h.recordings.Create(ctx, recording); err != nil {
			logger.Warn("recording not persisted", "recordingId", recording.ID, "error", err)
		}
	}
	h.publishUploaded(r, recording)

	respondJSON(ctx, w, http.StatusOK, result)
}

func (h *RecordingsHandler) archiveRecording(r *http.Request, suiteID, recordingID, filename string, payload []byte) string {
	if h.archive == nil {
		return ""
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".webm"
	}
	prefix := suiteID
	if prefix == "" {
		prefix = "recordings"
	}
	key := fmt.Sprintf("%s/%s%s", prefix, recordingID, ext)

	location, err := h.archive.Save(r.Context(), key, bytes.NewReader(payload))
	if err != nil {
		logging.FromContext(r.Context()).Warn("recording archive failed", "key", key, "error", err)
		if h.metrics != nil {
			h.metrics.ArchiveFailures.Inc()
		}
		return ""
	}
	return location
}

func (h *RecordingsHandler) publishUploaded(r *http.Request, recording models.Recording) {
	if h.events == nil {
		return
	}

	status := "ok"
	if err := h.events.PublishRecordingUploaded(r.Context(), recording); err != nil {
		status = "error"
		logging.FromContext(r.Context()).Warn("recording event not published", "recordingId", recording.ID, "error", err)
	}
	if h.metrics != nil {
		h.metrics.EventPublishTotal.WithLabelValues("recording.uploaded", status).Inc()
	}
}

// HandleList implements GET /api/v1/recordings/list.
func (h *RecordingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondError(ctx, w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	suiteID := r.URL.Query().Get("suiteId")
	if suiteID == "" {
		respondError(ctx, w, http.StatusBadRequest, "VALIDATION_FAILED", "suiteId query parameter is required")
		return
	}

	recordings, err := h.recordings.ListBySuite(ctx, suiteID)
	if err != nil {
		logging.FromContext(ctx).Error("list recordings", "suiteId", suiteID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "STORAGE_FAILED", "could not list recordings")
		return
	}
	if recordings == nil {
		recordings = []models.Recording{}
	}

	respondJSON(ctx, w, http.StatusOK, recordings)
}

func uploadErrorStatus(code string) int {
	switch code {
	case videohost.CodeMissingCredentials:
		return http.StatusInternalServerError
	case videohost.CodeAuthFailed:
		return http.StatusBadGateway
	case videohost.CodeUploadTimeout:
		return http.StatusGatewayTimeout
	case videohost.CodeUploadFailed, videohost.CodePlaylistFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
