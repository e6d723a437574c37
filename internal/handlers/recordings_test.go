package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/qareel/backend/internal/models"
	"github.com/qareel/backend/internal/videohost"
)

type stubUploader struct {
	result   videohost.UploadResult
	err      error
	status   videohost.ServiceStatus
	lastMeta videohost.RecordingMetadata
	payloads [][]byte
}

func (s *stubUploader) UploadRecording(_ context.Context, payload []byte, _ string, meta videohost.RecordingMetadata) (videohost.UploadResult, error) {
	s.lastMeta = meta
	s.payloads = append(s.payloads, payload)
	if s.err != nil {
		return videohost.UploadResult{}, s.err
	}
	return s.result, nil
}

func (s *stubUploader) Status() videohost.ServiceStatus { return s.status }

type stubRecordingStore struct {
	created   []models.Recording
	createErr error
	listed    map[string][]models.Recording
	listErr   error
}

func (s *stubRecordingStore) Create(_ context.Context, recording models.Recording) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, recording)
	return nil
}

func (s *stubRecordingStore) ListBySuite(_ context.Context, suiteID string) ([]models.Recording, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listed[suiteID], nil
}

type stubArchive struct {
	err  error
	keys []string
}

func (s *stubArchive) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.keys = append(s.keys, name)
	return "archive/" + name, nil
}

type stubEvents struct {
	err       error
	published []models.Recording
}

func (s *stubEvents) PublishRecordingUploaded(_ context.Context, recording models.Recording) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, recording)
	return nil
}

type recordingsFixture struct {
	handler  *RecordingsHandler
	uploader *stubUploader
	store    *stubRecordingStore
	archive  *stubArchive
	events   *stubEvents
}

func newRecordingsFixture() *recordingsFixture {
	uploader := &stubUploader{
		result: videohost.UploadResult{
			VideoID:       "vid-1",
			URL:           "https://www.youtube.com/watch?v=vid-1",
			EmbedURL:      "https://www.youtube.com/embed/vid-1",
			Title:         "Login regression",
			PrivacyStatus: "private",
			UploadedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		status: videohost.ServiceStatus{
			Initialized:        true,
			HasValidToken:      true,
			HasCredentials:     true,
			PlaylistsSupported: true,
		},
	}
	store := &stubRecordingStore{listed: map[string][]models.Recording{}}
	archive := &stubArchive{}
	events := &stubEvents{}

	return &recordingsFixture{
		handler: NewRecordingsHandler(Dependencies{
			Uploader:       uploader,
			Recordings:     store,
			Archive:        archive,
			Events:         events,
			MaxUploadBytes: 10 << 20,
		}),
		uploader: uploader,
		store:    store,
		archive:  archive,
		events:   events,
	}
}

func multipartUpload(t *testing.T, filename, metadata string, payload []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if filename != "" {
		part, err := writer.CreateFormFile("video", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(payload); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if metadata != "" {
		if err := writer.WriteField("metadata", metadata); err != nil {
			t.Fatalf("write metadata field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recordings", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response envelope: %v", err)
	}
	return envelope
}

func TestRecordingsHandlerUploadSuccess(t *testing.T) {
	fixture := newRecordingsFixture()

	metadata := `{"title":"Login regression","suiteId":"suite-9","suiteName":"Login Suite","privacy":"private"}`
	req := multipartUpload(t, "run.webm", metadata, []byte("recording-bytes"))
	rec := httptest.NewRecorder()

	fixture.handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body.String())
	}

	envelope := decodeEnvelope(t, rec)
	if string(envelope["success"]) != "true" {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}

	var result videohost.UploadResult
	if err := json.Unmarshal(envelope["data"], &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.VideoID != "vid-1" {
		t.Fatalf("expected videoId vid-1, got %q", result.VideoID)
	}

	if fixture.uploader.lastMeta.SuiteID != "suite-9" || fixture.uploader.lastMeta.SuiteName != "Login Suite" {
		t.Fatalf("suite metadata not forwarded: %+v", fixture.uploader.lastMeta)
	}

	if len(fixture.store.created) != 1 {
		t.Fatalf("expected 1 persisted recording, got %d", len(fixture.store.created))
	}
	persisted := fixture.store.created[0]
	if persisted.SuiteID != "suite-9" || persisted.VideoID != "vid-1" {
		t.Fatalf("unexpected persisted recording: %+v", persisted)
	}
	if persisted.SizeBytes != int64(len("recording-bytes")) {
		t.Fatalf("expected size %d, got %d", len("recording-bytes"), persisted.SizeBytes)
	}
	if !strings.HasPrefix(persisted.ArchiveLocation, "archive/suite-9/") || !strings.HasSuffix(persisted.ArchiveLocation, ".webm") {
		t.Fatalf("unexpected archive location %q", persisted.ArchiveLocation)
	}

	if len(fixture.events.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(fixture.events.published))
	}
}

func TestRecordingsHandlerUploadMissingVideo(t *testing.T) {
	fixture := newRecordingsFixture()

	req := multipartUpload(t, "", `{"title":"no file"}`, nil)
	rec := httptest.NewRecorder()

	fixture.handler.Handle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %s", rec.Body.String())
	}
	if len(fixture.uploader.payloads) != 0 {
		t.Fatal("uploader should not be called without a video file")
	}
}

func TestRecordingsHandlerUploadRejectsInvalidMetadata(t *testing.T) {
	fixture := newRecordingsFixture()

	cases := []struct {
		name     string
		metadata string
	}{
		{name: "bad privacy value", metadata: `{"privacy":"secret"}`},
		{name: "unknown field", metadata: `{"visibility":"public"}`},
		{name: "wrong type", metadata: `{"tags":"smoke"}`},
		{name: "not json", metadata: `title=broken`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := multipartUpload(t, "run.webm", tc.metadata, []byte("data"))
			rec := httptest.NewRecorder()

			fixture.handler.Handle(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400 got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRecordingsHandlerUploadErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "missing credentials",
			err:        &videohost.ConfigError{Missing: []string{"clientId"}},
			wantCode:   videohost.CodeMissingCredentials,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "auth failure",
			err:        &videohost.AuthError{Status: 400, Description: "invalid_grant"},
			wantCode:   videohost.CodeAuthFailed,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "transfer failure",
			err:        &videohost.UploadError{Offset: 262144, Status: 500, Message: "backend error"},
			wantCode:   videohost.CodeUploadFailed,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "timeout",
			err:        &videohost.TimeoutError{Deadline: 5 * time.Minute},
			wantCode:   videohost.CodeUploadTimeout,
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fixture := newRecordingsFixture()
			fixture.uploader.err = tc.err

			req := multipartUpload(t, "run.webm", "", []byte("data"))
			rec := httptest.NewRecorder()

			fixture.handler.Handle(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d got %d", tc.wantStatus, rec.Code)
			}

			var envelope struct {
				Success bool `json:"success"`
				Error   struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode error envelope: %v", err)
			}
			if envelope.Success {
				t.Fatal("expected success=false")
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("expected code %s got %s", tc.wantCode, envelope.Error.Code)
			}

			if len(fixture.store.created) != 0 {
				t.Fatal("failed uploads must not be persisted")
			}
			if len(fixture.events.published) != 0 {
				t.Fatal("failed uploads must not be published")
			}
		})
	}
}

func TestRecordingsHandlerUploadToleratesSoftFailures(t *testing.T) {
	fixture := newRecordingsFixture()
	fixture.archive.err = errors.New("bucket offline")
	fixture.store.createErr = errors.New("db offline")
	fixture.events.err = errors.New("broker offline")

	req := multipartUpload(t, "run.webm", "", []byte("data"))
	rec := httptest.NewRecorder()

	fixture.handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 despite soft failures, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRecordingsHandlerStatus(t *testing.T) {
	fixture := newRecordingsFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recordings", nil)
	rec := httptest.NewRecorder()

	fixture.handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	// The status contract is the bare readiness object, without the
	// success/data envelope.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode status body: %v", err)
	}
	if _, ok := raw["data"]; ok {
		t.Fatalf("status must not be wrapped in an envelope: %s", rec.Body.String())
	}

	var status videohost.ServiceStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Initialized || !status.HasValidToken || !status.HasCredentials || !status.PlaylistsSupported {
		t.Fatalf("unexpected status payload: %+v", status)
	}
}

func TestRecordingsHandlerMethodNotAllowed(t *testing.T) {
	fixture := newRecordingsFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/recordings", nil)
	rec := httptest.NewRecorder()

	fixture.handler.Handle(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405 got %d", rec.Code)
	}
}

func TestRecordingsHandlerList(t *testing.T) {
	fixture := newRecordingsFixture()
	fixture.store.listed["suite-9"] = []models.Recording{
		{ID: "rec-1", SuiteID: "suite-9", VideoID: "vid-1"},
		{ID: "rec-2", SuiteID: "suite-9", VideoID: "vid-2"},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recordings/list?suiteId=suite-9", nil)
	rec := httptest.NewRecorder()

	fixture.handler.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	envelope := decodeEnvelope(t, rec)
	var recordings []models.Recording
	if err := json.Unmarshal(envelope["data"], &recordings); err != nil {
		t.Fatalf("decode recordings: %v", err)
	}
	if len(recordings) != 2 {
		t.Fatalf("expected 2 recordings, got %d", len(recordings))
	}
}

func TestRecordingsHandlerListRequiresSuiteID(t *testing.T) {
	fixture := newRecordingsFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recordings/list", nil)
	rec := httptest.NewRecorder()

	fixture.handler.HandleList(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestRecordingsHandlerListEmptySuite(t *testing.T) {
	fixture := newRecordingsFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recordings/list?suiteId=suite-empty", nil)
	rec := httptest.NewRecorder()

	fixture.handler.HandleList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	envelope := decodeEnvelope(t, rec)
	if got := strings.TrimSpace(string(envelope["data"])); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}
