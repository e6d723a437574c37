package videohost

import (
	"errors"
	"fmt"
	"time"
)

// Machine-checkable codes surfaced alongside fatal upload failures.
const (
	CodeMissingCredentials = "MISSING_CREDENTIALS"
	CodeAuthFailed         = "AUTH_FAILED"
	CodePlaylistFailed     = "PLAYLIST_FAILED"
	CodeUploadFailed       = "UPLOAD_FAILED"
	CodeUploadTimeout      = "UPLOAD_TIMEOUT"
)

var (
	// ErrUnauthorized is returned by a Provider when the host rejects the
	// current access token. Callers refresh and decide whether to retry.
	ErrUnauthorized = errors.New("video host rejected access token")

	// ErrTokenExpiredDuringUpload marks a transfer that failed mid-stream on
	// an expired token. The token has already been refreshed when this is
	// returned; the whole upload must restart from session initiation because
	// session URLs are tied to the auth context that created them.
	ErrTokenExpiredDuringUpload = errors.New("access token expired during upload")

	// ErrNoUploadURL indicates session initiation returned no session URL.
	ErrNoUploadURL = errors.New("no upload URL received")
)

// ConfigError reports missing credentials. It is raised before any network
// call is attempted and is never retried.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("video host credentials not configured: missing %v", e.Missing)
}

// AuthError reports a failed token refresh, carrying the provider's error
// description. Fatal for the current attempt.
type AuthError struct {
	Status      int
	Description string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("token refresh failed (status %d): %s", e.Status, e.Description)
}

// PlaylistError reports a failed collection operation. Soft: the orchestrator
// tolerates it, since playlist linkage is optional.
type PlaylistError struct {
	Status  int
	Message string
}

func (e *PlaylistError) Error() string {
	return fmt.Sprintf("playlist operation failed (status %d): %s", e.Status, e.Message)
}

// UploadError reports a fatal transfer failure with the byte offset reached
// and the HTTP status returned by the host.
type UploadError struct {
	Offset  int64
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed at byte %d (status %d): %s", e.Offset, e.Status, e.Message)
}

// TimeoutError reports an upload that exceeded the overall deadline.
type TimeoutError struct {
	Deadline time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upload timed out after %s; try a smaller file", e.Deadline)
}

// ErrorCode maps a pipeline error to its machine code. Unknown errors fall
// back to the generic upload-failure code.
func ErrorCode(err error) string {
	var (
		cfgErr      *ConfigError
		authErr     *AuthError
		playlistErr *PlaylistError
		timeoutErr  *TimeoutError
	)
	switch {
	case errors.As(err, &cfgErr):
		return CodeMissingCredentials
	case errors.As(err, &authErr):
		return CodeAuthFailed
	case errors.As(err, &playlistErr):
		return CodePlaylistFailed
	case errors.As(err, &timeoutErr):
		return CodeUploadTimeout
	default:
		return CodeUploadFailed
	}
}
