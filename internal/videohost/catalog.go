package videohost

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// PlaylistRecord associates a logical owner (a test suite) with its remote
// collection. One record per owner: created on first upload for that owner,
// reused thereafter, evicted if remote verification shows the collection is
// gone, then recreated lazily.
type PlaylistRecord struct {
	OwnerID     string
	ExternalID  string
	Title       string
	Description string
	URL         string
	CreatedAt   time.Time
}

// PlaylistCatalog maps owner keys to exactly one remote collection each,
// minimizing redundant creation calls. The cache is owned by the catalog
// instance and guarded by a mutex, so concurrent uploads from separate
// goroutines are safe.
type PlaylistCatalog struct {
	provider Provider
	tokens   *TokenManager
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]PlaylistRecord
}

// NewPlaylistCatalog constructs a catalog with an empty cache.
func NewPlaylistCatalog(provider Provider, tokens *TokenManager, logger *slog.Logger) *PlaylistCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistCatalog{
		provider: provider,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
		cache:    make(map[string]PlaylistRecord),
	}
}

// GetOrCreate returns the cached record for ownerID when it still exists
// remotely, otherwise creates a new collection and caches it. A 401 from the
// host triggers a single token refresh and one retry.
func (c *PlaylistCatalog) GetOrCreate(ctx context.Context, ownerID, title, description string) (PlaylistRecord, error) {
	return c.getOrCreate(ctx, ownerID, title, description, false)
}

func (c *PlaylistCatalog) getOrCreate(ctx context.Context, ownerID, title, description string, retried bool) (PlaylistRecord, error) {
	c.mu.Lock()
	record, cached := c.cache[ownerID]
	c.mu.Unlock()

	if cached {
		if c.VerifyExists(ctx, record.ExternalID) {
			return record, nil
		}
		c.mu.Lock()
		delete(c.cache, ownerID)
		c.mu.Unlock()
		c.logger.Info("cached playlist no longer exists, recreating", "ownerId", ownerID, "playlistId", record.ExternalID)
	}

	if err := c.tokens.EnsureValidToken(ctx); err != nil {
		return PlaylistRecord{}, err
	}

	collection, err := c.provider.CreateCollection(ctx, title, description)
	if err != nil {
		if isUnauthorized(err) && !retried {
			c.logger.Warn("playlist creation unauthorized, refreshing token", "ownerId", ownerID)
			if rerr := c.tokens.Refresh(ctx); rerr != nil {
				return PlaylistRecord{}, rerr
			}
			return c.getOrCreate(ctx, ownerID, title, description, true)
		}
		return PlaylistRecord{}, err
	}

	record = PlaylistRecord{
		OwnerID:     ownerID,
		ExternalID:  collection.ExternalID,
		Title:       collection.Title,
		Description: description,
		URL:         collection.URL,
		CreatedAt:   c.now(),
	}

	c.mu.Lock()
	c.cache[ownerID] = record
	c.mu.Unlock()

	c.logger.Info("created playlist", "ownerId", ownerID, "playlistId", record.ExternalID)
	return record, nil
}

// VerifyExists reports whether the collection is still present on the host.
// Any network or host error counts as "does not exist".
func (c *PlaylistCatalog) VerifyExists(ctx context.Context, externalID string) bool {
	if externalID == "" {
		return false
	}
	exists, err := c.provider.VerifyCollection(ctx, externalID)
	if err != nil {
		c.logger.Warn("playlist verification failed, treating as missing", "playlistId", externalID, "error", err)
		return false
	}
	return exists
}

// AddItem attaches an uploaded asset to a collection. An empty collection ID
// is a successful no-op: linkage is optional and the video is already stored
// by the time this runs.
func (c *PlaylistCatalog) AddItem(ctx context.Context, itemID, collectionID string) error {
	if collectionID == "" {
		return nil
	}
	if err := c.tokens.EnsureValidToken(ctx); err != nil {
		return err
	}
	return c.provider.AddToCollection(ctx, itemID, collectionID)
}

func isUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
