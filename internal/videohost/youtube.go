package videohost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL    = "https://www.googleapis.com/youtube/v3"
	defaultUploadBaseURL = "https://www.googleapis.com/upload/youtube/v3"
)

// YouTubeProvider implements Provider against the YouTube Data API v3:
// resumable uploads with X-Upload-Content-* initiation headers and
// Content-Range chunk PUTs, plus the playlists and playlistItems resources.
type YouTubeProvider struct {
	tokens        *TokenManager
	client        *http.Client
	apiBaseURL    string
	uploadBaseURL string
	now           func() time.Time
}

// NewYouTubeProvider constructs a provider authenticated by the given token
// manager.
func NewYouTubeProvider(tokens *TokenManager) *YouTubeProvider {
	return &YouTubeProvider{
		tokens:        tokens,
		client:        &http.Client{Timeout: 2 * time.Minute},
		apiBaseURL:    defaultAPIBaseURL,
		uploadBaseURL: defaultUploadBaseURL,
		now:           time.Now,
	}
}

// WithBaseURLs points the provider at test servers.
func (p *YouTubeProvider) WithBaseURLs(apiBaseURL, uploadBaseURL string) *YouTubeProvider {
	p.apiBaseURL = strings.TrimSuffix(apiBaseURL, "/")
	p.uploadBaseURL = strings.TrimSuffix(uploadBaseURL, "/")
	return p
}

// CreateSession implements Provider. The session URL arrives in the Location
// header of the initiation response; its absence is fatal.
func (p *YouTubeProvider) CreateSession(ctx context.Context, meta UploadMetadata, totalBytes int64, contentType string) (string, error) {
	body := map[string]any{
		"snippet": map[string]any{
			"title":       meta.Title,
			"description": meta.Description,
			"tags":        meta.Tags,
			"categoryId":  meta.CategoryID,
		},
		"status": map[string]any{
			"privacyStatus": meta.PrivacyStatus,
		},
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode session metadata: %w", err)
	}

	url := p.uploadBaseURL + "/videos?uploadType=resumable&part=snippet,status"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.tokens.AccessToken())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Upload-Content-Length", fmt.Sprintf("%d", totalBytes))
	req.Header.Set("X-Upload-Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("initiate upload session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("initiate upload session: %w", ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UploadError{Offset: 0, Status: resp.StatusCode, Message: "initiate session: " + readAPIError(resp.Body)}
	}

	sessionURL := resp.Header.Get("Location")
	if sessionURL == "" {
		return "", &UploadError{Offset: 0, Status: resp.StatusCode, Message: ErrNoUploadURL.Error()}
	}
	return sessionURL, nil
}

// UploadChunk implements Provider. 308 acknowledges the range, 200/201 ends
// the transfer with the finished video resource in the body.
func (p *YouTubeProvider) UploadChunk(ctx context.Context, sessionURL string, chunk []byte, offset, totalBytes int64) (ChunkOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, bytes.NewReader(chunk))
	if err != nil {
		return ChunkOutcome{}, fmt.Errorf("build chunk request: %w", err)
	}
	end := offset + int64(len(chunk)) - 1
	req.Header.Set("Authorization", "Bearer "+p.tokens.AccessToken())
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, end, totalBytes))
	req.ContentLength = int64(len(chunk))

	resp, err := p.client.Do(req)
	if err != nil {
		return ChunkOutcome{}, fmt.Errorf("put chunk at byte %d: %w", offset, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPermanentRedirect: // 308 Resume Incomplete
		return ChunkOutcome{}, nil
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		result, err := p.parseVideoResource(resp.Body)
		if err != nil {
			return ChunkOutcome{}, &UploadError{Offset: offset, Status: resp.StatusCode, Message: err.Error()}
		}
		return ChunkOutcome{Complete: true, Result: &result}, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ChunkOutcome{}, ErrUnauthorized
	default:
		return ChunkOutcome{}, &UploadError{Offset: offset, Status: resp.StatusCode, Message: readAPIError(resp.Body)}
	}
}

// CreateCollection implements Provider: creates a private playlist.
func (p *YouTubeProvider) CreateCollection(ctx context.Context, title, description string) (Collection, error) {
	body := map[string]any{
		"snippet": map[string]any{
			"title":       title,
			"description": description,
		},
		"status": map[string]any{
			"privacyStatus": "private",
		},
	}
	var resource struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
	}
	err := p.postJSON(ctx, p.apiBaseURL+"/playlists?part=snippet,status", body, &resource, func(status int, msg string) error {
		return &PlaylistError{Status: status, Message: msg}
	})
	if err != nil {
		return Collection{}, err
	}
	return Collection{
		ExternalID:  resource.ID,
		Title:       resource.Snippet.Title,
		Description: description,
		URL:         "https://www.youtube.com/playlist?list=" + resource.ID,
	}, nil
}

// VerifyCollection implements Provider: a playlists.list lookup by ID.
func (p *YouTubeProvider) VerifyCollection(ctx context.Context, externalID string) (bool, error) {
	url := p.apiBaseURL + "/playlists?part=id&id=" + externalID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build playlist lookup: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.tokens.AccessToken())

	resp, err := p.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("playlist lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &PlaylistError{Status: resp.StatusCode, Message: readAPIError(resp.Body)}
	}

	var payload struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("parse playlist lookup: %w", err)
	}
	return len(payload.Items) > 0, nil
}

// AddToCollection implements Provider: playlistItems.insert.
func (p *YouTubeProvider) AddToCollection(ctx context.Context, itemID, collectionID string) error {
	body := map[string]any{
		"snippet": map[string]any{
			"playlistId": collectionID,
			"resourceId": map[string]any{
				"kind":    "youtube#video",
				"videoId": itemID,
			},
		},
	}
	return p.postJSON(ctx, p.apiBaseURL+"/playlistItems?part=snippet", body, nil, func(status int, msg string) error {
		return &PlaylistError{Status: status, Message: msg}
	})
}

func (p *YouTubeProvider) postJSON(ctx context.Context, url string, body any, out any, onError func(status int, msg string) error) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.tokens.AccessToken())
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return onError(resp.StatusCode, readAPIError(resp.Body))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func (p *YouTubeProvider) parseVideoResource(r io.Reader) (UploadResult, error) {
	var resource struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Thumbnails  struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Status struct {
			PrivacyStatus string `json:"privacyStatus"`
		} `json:"status"`
	}
	if err := json.NewDecoder(r).Decode(&resource); err != nil {
		return UploadResult{}, fmt.Errorf("parse video resource: %w", err)
	}
	if resource.ID == "" {
		return UploadResult{}, fmt.Errorf("video resource missing id")
	}
	return UploadResult{
		VideoID:       resource.ID,
		URL:           "https://www.youtube.com/watch?v=" + resource.ID,
		EmbedURL:      "https://www.youtube.com/embed/" + resource.ID,
		Title:         resource.Snippet.Title,
		Description:   resource.Snippet.Description,
		ThumbnailURL:  resource.Snippet.Thumbnails.Medium.URL,
		PrivacyStatus: resource.Status.PrivacyStatus,
		UploadedAt:    p.now().UTC(),
	}, nil
}

// readAPIError extracts the message from a YouTube error body, falling back
// to the raw text.
func readAPIError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return "unreadable error response"
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = "no error detail provided"
	}
	return msg
}
