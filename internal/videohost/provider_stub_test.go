package videohost

import (
	"context"
	"testing"
	"time"
)

// stubProvider scripts Provider responses for catalog, uploader and
// orchestrator tests.
type stubProvider struct {
	sessionURL string
	sessionErr error

	// chunkErrs maps chunk index (0-based PUT order) to a forced error.
	chunkErrs map[int]error
	// chunkWait makes every chunk PUT block until the context expires.
	chunkWait bool
	result    UploadResult

	createCalls  int
	createErrs   []error // consumed in order; nil entry means success
	collection   Collection
	verifyExists bool
	verifyErr    error
	verifyCalls  int

	addErr   error
	addCalls int
	addedIDs []string

	chunkCalls   int
	chunkOffsets []int64
}

func (s *stubProvider) CreateSession(ctx context.Context, meta UploadMetadata, totalBytes int64, contentType string) (string, error) {
	if s.sessionErr != nil {
		return "", s.sessionErr
	}
	if s.sessionURL == "" {
		return "https://upload.test/session", nil
	}
	return s.sessionURL, nil
}

func (s *stubProvider) UploadChunk(ctx context.Context, sessionURL string, chunk []byte, offset, totalBytes int64) (ChunkOutcome, error) {
	idx := s.chunkCalls
	s.chunkCalls++
	s.chunkOffsets = append(s.chunkOffsets, offset)
	if s.chunkWait {
		<-ctx.Done()
		return ChunkOutcome{}, ctx.Err()
	}
	if err, ok := s.chunkErrs[idx]; ok {
		return ChunkOutcome{}, err
	}
	if offset+int64(len(chunk)) >= totalBytes {
		result := s.result
		if result.VideoID == "" {
			result.VideoID = "vid-1"
		}
		return ChunkOutcome{Complete: true, Result: &result}, nil
	}
	return ChunkOutcome{}, nil
}

func (s *stubProvider) CreateCollection(ctx context.Context, title, description string) (Collection, error) {
	idx := s.createCalls
	s.createCalls++
	if idx < len(s.createErrs) && s.createErrs[idx] != nil {
		return Collection{}, s.createErrs[idx]
	}
	if s.collection.ExternalID == "" {
		return Collection{ExternalID: "pl-1", Title: title, URL: "https://host.test/playlist/pl-1"}, nil
	}
	return s.collection, nil
}

func (s *stubProvider) VerifyCollection(ctx context.Context, externalID string) (bool, error) {
	s.verifyCalls++
	return s.verifyExists, s.verifyErr
}

func (s *stubProvider) AddToCollection(ctx context.Context, itemID, collectionID string) error {
	s.addCalls++
	s.addedIDs = append(s.addedIDs, itemID)
	return s.addErr
}

// newTestTokenManager returns a manager backed by a local token endpoint and
// the number of refreshes observed through the provided counter.
func newTestTokenManager(t *testing.T, refreshes *int) *TokenManager {
	t.Helper()
	server := newTokenServer(t, refreshes, 3600)
	t.Cleanup(server.Close)
	m := NewTokenManager(testCredentials(), server.URL)
	m.WithNowFunc(func() time.Time { return time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC) })
	return m
}
